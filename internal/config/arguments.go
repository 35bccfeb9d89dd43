package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/tkjaer/epinger/internal/output"
	"github.com/tkjaer/epinger/internal/shared"
	"github.com/tkjaer/epinger/internal/transport"
)

const (
	DefaultCount   = 4
	DefaultThreads = 50
)

type Args struct {
	Hosts   []string // positional hosts
	Input   string   // file with one host per line
	Gateway bool     // also probe the default gateway

	// Probing
	Count      int
	Wait       int // per-attempt timeout in transport.TimeoutUnit
	Threads    int
	Interval   time.Duration
	Transport  string
	Privileged bool
	ForceIPv4  bool
	ForceIPv6  bool
	PTR        bool // look up reverse names of probed addresses

	// Output
	Output      string // raw, csv, json, jsonf or text
	OutputFile  string // jsonf file, defaults to a timestamped name
	History     string // SQLite database recording every run
	MetricsFile string // Prometheus textfile collector output
	Chart       string // PNG chart of average RTT per host

	Config string // YAML defaults file

	// Logging
	Verbose  bool
	Log      string // log file path, empty means stderr only
	LogLevel string // log level: debug, info, warn, error

	ShowVersion bool
}

// ParseArgs parses the command line. Usage problems are returned as errors;
// missing targets are only detected later by Targets.
func ParseArgs() (Args, error) {
	var args Args

	// Set custom usage message
	flag.Usage = func() {
		println("epinger - ping one or more hosts concurrently")
		println()
		println("Ping one or more hosts, output packet and rtt data in json, csv or text format.")
		println()
		println("Usage:")
		println("  epinger [OPTIONS] HOST [HOST...]")
		println("  epinger [OPTIONS] -i FILENAME")
		println()
		println("Examples:")
		println("  epinger example.com 192.0.2.1          # 4 requests per host, text summary")
		println("  epinger -o csv -c 10 -i hosts.txt      # 10 requests per host, csv")
		println("  epinger -o jsonf --gateway example.com # include the default gateway, json file")
		println()
		println("Options:")
		flag.PrintDefaults()
		println()
		println("Either host OR -i/--input parameter is REQUIRED.")
	}

	formats := make([]string, len(output.Formats))
	for i, f := range output.Formats {
		formats[i] = string(f)
	}
	kinds := make([]string, len(transport.Kinds))
	for i, k := range transport.Kinds {
		kinds[i] = string(k)
	}

	flag.BoolVarP(&args.ShowVersion, "version", "V", false, "Show version information")
	flag.StringVarP(&args.Input, "input", "i", "", "Input file with hostnames 1 per line")
	flag.BoolVar(&args.Gateway, "gateway", false, "Also ping the default gateway")
	flag.StringVarP(&args.Output, "output", "o", string(output.FormatText), "Output format: "+strings.Join(formats, ", "))
	flag.StringVar(&args.OutputFile, "output-file", "", "File for jsonf output (default epinger-<timestamp>.json)")
	flag.IntVarP(&args.Count, "count", "c", DefaultCount, "Number of requests to send")
	flag.IntVarP(&args.Wait, "wait", "w", transport.DefaultTimeout, transport.UnitName+" to wait before timeout")
	flag.IntVarP(&args.Threads, "threads", "t", DefaultThreads, "Maximum hosts pinged concurrently")
	flag.DurationVar(&args.Interval, "interval", 0, "Delay between requests to the same host")
	flag.StringVarP(&args.Transport, "transport", "T", string(transport.KindExec), "Ping transport: "+strings.Join(kinds, ", "))
	flag.BoolVar(&args.Privileged, "privileged", false, "Use raw ICMP sockets (icmp and probing transports)")
	flag.BoolVarP(&args.ForceIPv4, "ipv4", "4", false, "Resolve hostnames to IPv4 only")
	flag.BoolVarP(&args.ForceIPv6, "ipv6", "6", false, "Resolve hostnames to IPv6 only")
	flag.BoolVar(&args.PTR, "ptr", false, "Look up the reverse DNS name of each host's address")
	flag.StringVar(&args.History, "history", "", "Record the run in this SQLite database")
	flag.StringVar(&args.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")
	flag.StringVar(&args.Chart, "chart", "", "Render an RTT chart to this PNG file")
	flag.StringVar(&args.Config, "config", os.Getenv(envConfigPath), "YAML file with default option values")
	flag.BoolVarP(&args.Verbose, "verbose", "v", false, "Enable debug logging")
	flag.StringVarP(&args.Log, "log", "l", "", "Also write logs to this file")
	flag.StringVar(&args.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	if err := flag.CommandLine.Parse(os.Args[1:]); err != nil {
		return args, err
	}

	if args.ShowVersion {
		return args, nil
	}

	if args.Config != "" {
		if err := applyFile(args.Config); err != nil {
			return args, err
		}
	}

	args.Hosts = flag.Args()
	if args.Verbose {
		args.LogLevel = "debug"
	}

	switch {
	case !validFormat(args.Output):
		return args, errors.New("output format must be one of " + strings.Join(formats, ", "))
	case !validTransport(args.Transport):
		return args, errors.New("transport must be one of " + strings.Join(kinds, ", "))
	case args.Count < 1:
		return args, errors.New("count must be at least 1")
	case args.Wait < 1:
		return args, fmt.Errorf("wait must be at least 1 %s", transport.UnitName)
	case args.Threads < 1:
		return args, errors.New("threads must be at least 1")
	case args.Interval < 0:
		return args, errors.New("interval cannot be negative")
	case args.ForceIPv4 && args.ForceIPv6:
		return args, errors.New("cannot force both IPv4 and IPv6")
	case args.OutputFile != "" && args.Output != string(output.FormatJSONF):
		return args, errors.New("--output-file requires --output jsonf")
	}

	return args, nil
}

// applyFile sets flags from a defaults file unless given on the command line
func applyFile(path string) error {
	file, err := LoadFile(path)
	if err != nil {
		return err
	}
	for name, value := range file.flagValues() {
		if flag.CommandLine.Changed(name) {
			continue
		}
		if err := flag.Set(name, value); err != nil {
			return fmt.Errorf("config %q: invalid %s: %w", path, name, err)
		}
	}
	return nil
}

func validFormat(s string) bool {
	_, err := output.ParseFormat(s)
	return err == nil
}

func validTransport(s string) bool {
	for _, k := range transport.Kinds {
		if string(k) == s {
			return true
		}
	}
	return false
}

// Format returns the validated output format
func (a Args) Format() output.Format {
	return output.Format(a.Output)
}

// RunConfig builds the immutable settings shared by every host prober
func (a Args) RunConfig() shared.RunConfig {
	return shared.RunConfig{
		NumRequests:    a.Count,
		RequestTimeout: a.Wait,
		MaxThreads:     a.Threads,
		Interval:       a.Interval,
	}
}

// TransportOptions returns the options for building the selected transport
func (a Args) TransportOptions() transport.Options {
	opts := transport.Options{Privileged: a.Privileged}
	switch {
	case a.ForceIPv4:
		opts.Family = transport.FamilyIPv4
	case a.ForceIPv6:
		opts.Family = transport.FamilyIPv6
	}
	return opts
}

// JSONFile returns the jsonf file name for a run started at now
func (a Args) JSONFile(now time.Time) string {
	if a.OutputFile != "" {
		return a.OutputFile
	}
	return output.DefaultJSONFilename(now)
}
