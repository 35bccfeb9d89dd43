//go:build !windows

package transport

import "time"

// TimeoutUnit is the unit of the integer timeout handed to Attempt
const TimeoutUnit = time.Second

// UnitName is the human name of TimeoutUnit
const UnitName = "seconds"

// DefaultTimeout is the default per-attempt timeout in TimeoutUnit
const DefaultTimeout = 2
