package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/tkjaer/epinger/internal/config"
	"github.com/tkjaer/epinger/internal/history"
	"github.com/tkjaer/epinger/internal/metrics"
	"github.com/tkjaer/epinger/internal/output"
	"github.com/tkjaer/epinger/internal/probe"
	"github.com/tkjaer/epinger/internal/scheduler"
	"github.com/tkjaer/epinger/internal/shared"
	"github.com/tkjaer/epinger/internal/transport"
	"github.com/tkjaer/epinger/internal/version"
	"github.com/tkjaer/epinger/pkg/ptr"
)

const (
	exitOK           = 0
	exitError        = 1
	exitNoTargets    = -1
	exitInputMissing = -2
)

func main() {
	os.Exit(run())
}

func run() int {
	args, err := config.ParseArgs()
	if err != nil {
		flag.Usage()
		fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
		return exitError
	}
	if args.ShowVersion {
		fmt.Println(version.FullVersion())
		return exitOK
	}

	// Setup logging
	logFile, err := config.SetupLogging(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to setup logging: %v\n", err)
		return exitError
	}
	if logFile != nil {
		defer logFile.Close()
	}

	slog.Info(strings.Repeat("=", 80))
	slog.Info("epinger " + version.Short())
	slog.Info(strings.Repeat("=", 80))

	targets, err := args.Targets()
	switch {
	case errors.Is(err, config.ErrNoTargets):
		flag.Usage()
		fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
		return exitNoTargets
	case errors.Is(err, config.ErrInputNotFound):
		flag.Usage()
		fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
		return exitInputMissing
	case err != nil:
		slog.Error("Failed to collect targets", "error", err)
		return exitError
	}

	tr, closeTransport, err := transport.New(transport.Kind(args.Transport), args.TransportOptions())
	if err != nil {
		slog.Error("Failed to create transport", "error", err)
		return exitError
	}
	defer closeTransport()

	om, err := newOutputManager(args)
	if err != nil {
		slog.Error("Failed to create output", "error", err)
		return exitError
	}
	defer func() {
		if err := om.Close(); err != nil {
			slog.Error("Failed to close output", "error", err)
		}
	}()

	slog.Debug("Starting epinger",
		"targets", len(targets),
		"transport", args.Transport,
		"count", args.Count,
		"threads", args.Threads,
	)

	probeOpts := []probe.Option{probe.WithInterval(args.Interval)}
	if args.PTR {
		probeOpts = append(probeOpts, probe.WithPTR(ptr.NewManager()))
	}

	sched := scheduler.New(
		probe.New(tr, probeOpts...),
		scheduler.WithObserver(scheduler.ObserverFunc(om.CompleteHost)),
		scheduler.WithObserver(progressLogger(len(targets))),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling for Ctrl+C
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	type outcome struct {
		run shared.RunResult
		err error
	}
	// Run in a goroutine so we can handle signals
	done := make(chan outcome, 1)
	go func() {
		r, err := sched.Run(ctx, targets, args.RunConfig())
		done <- outcome{r, err}
	}()

	var res outcome
	select {
	case res = <-done:
	case <-sigChan:
		slog.Warn("Received interrupt signal, finishing remaining hosts as cancelled")
		cancel()
		res = <-done
	}
	if res.err != nil {
		slog.Error("Run failed", "error", res.err)
		return exitError
	}

	if err := om.CompleteRun(&res.run); err != nil {
		slog.Error("Failed to write results", "error", err)
		return exitError
	}

	slog.Info("")
	slog.Info(fmt.Sprintf("%d hosts processed in %s", len(res.run.Hosts), res.run.Elapsed.Round(time.Millisecond)))
	return exitOK
}

// newOutputManager registers every output selected by args
func newOutputManager(args config.Args) (*output.OutputManager, error) {
	om := &output.OutputManager{}

	if args.Format() == output.FormatJSONF {
		jo, err := output.NewJSONOutput(args.JSONFile(time.Now()))
		if err != nil {
			return nil, err
		}
		om.Register(jo)
	} else {
		om.Register(output.NewWriterOutput(os.Stdout, args.Format()))
	}

	if args.Chart != "" {
		om.Register(output.NewChartOutput(args.Chart))
	}
	if args.MetricsFile != "" {
		om.Register(metrics.NewTextfile(args.MetricsFile))
	}
	if args.History != "" {
		db, err := history.Open(args.History)
		if err != nil {
			om.Close()
			return nil, err
		}
		om.Register(db)
	}
	return om, nil
}

// progressLogger logs each finished host with the number completed so far
func progressLogger(total int) scheduler.ObserverFunc {
	var completed atomic.Int64
	return func(index int, result shared.HostResult) {
		slog.Debug("Host complete",
			"host", result.Target,
			"index", index,
			"done", completed.Add(1),
			"total", total,
			"loss_pct", result.LossPct,
		)
	}
}
