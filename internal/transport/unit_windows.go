//go:build windows

package transport

import "time"

// TimeoutUnit is the unit of the integer timeout handed to Attempt
const TimeoutUnit = time.Millisecond

// UnitName is the human name of TimeoutUnit
const UnitName = "milliseconds"

// DefaultTimeout is the default per-attempt timeout in TimeoutUnit
const DefaultTimeout = 2000
