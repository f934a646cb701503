// Copyright 2024 mutiny project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package session is the fuzz session driver (spec.md §4.6): the
// per-run state machine and the outer iteration loop that reconciles
// monitor events with run progress and owns logging, failure
// accounting, and termination.
package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/cisco-talos/mutiny/pkg/fuzzdata"
	"github.com/cisco-talos/mutiny/pkg/log"
	"github.com/cisco-talos/mutiny/pkg/monitor"
	"github.com/cisco-talos/mutiny/pkg/mutation"
	"github.com/cisco-talos/mutiny/pkg/osutil"
	"github.com/cisco-talos/mutiny/pkg/processor"
)

// Options configures one invocation of the driver: everything that
// would otherwise come from CLI flags (spec.md §6), kept separate from
// FuzzerData because it's invocation-specific, not recorded in the
// .fuzzer file.
type Options struct {
	SleepTime time.Duration
	MinRun    int
	MaxRun    int // -1 means unbounded
	LoopSeeds []int

	// DumpRawSeed, when non-nil, switches the driver to single-shot
	// dump-raw mode (spec.md §6): exactly one run at this seed, then
	// exit, writing every message payload to DumpDir.
	DumpRawSeed *int
	DumpDir     string

	Quiet  bool
	LogAll bool
}

// Driver ties the data model, mutation engine, transport, processor
// hooks, and monitor queue together into the outer loop (spec.md §4.6).
type Driver struct {
	Data       *fuzzdata.FuzzerData
	TargetHost string

	Engine  mutation.Engine
	Message processor.MessageProcessor
	Exception processor.ExceptionProcessor

	Events        *monitor.Queue
	MonitorWorker monitor.Monitor

	Logger *RunLogger
	Stats  *Telemetry

	Opts Options

	// InvocationID distinguishes this process's log lines from any other
	// mutiny-fuzz process running concurrently against the same .fuzzer
	// file. Dump and crash-log file names do not include it.
	InvocationID string

	paused       bool
	failureCount int
}

// NewDriver wires a Driver from its components. Callers that don't need
// a custom processor or monitor can pass processor.DefaultMessageProcessor{},
// processor.DefaultExceptionProcessor{}, and monitor.NopMonitor{}.
func NewDriver(data *fuzzdata.FuzzerData, targetHost string, engine mutation.Engine,
	message processor.MessageProcessor, exception processor.ExceptionProcessor,
	events *monitor.Queue, worker monitor.Monitor, opts Options) *Driver {
	return &Driver{
		Data:          data,
		TargetHost:    targetHost,
		Engine:        engine,
		Message:       message,
		Exception:     exception,
		Events:        events,
		MonitorWorker: worker,
		Logger:        NewRunLogger(dumpLogDir(opts)),
		Stats:         NewTelemetry(dumpLogDir(opts)),
		Opts:          opts,
		InvocationID:  uuid.New().String(),
	}
}

func dumpLogDir(opts Options) string {
	if opts.Quiet {
		return ""
	}
	return opts.DumpDir
}

// Run executes the outer iteration loop (spec.md §4.6) until a terminal
// control signal fires, max_run is exceeded, or dump-raw mode completes
// its single run.
func (d *Driver) Run(ctx context.Context) error {
	iteration := d.Opts.MinRun
	if d.Data.ShouldPerformTestRun {
		iteration = d.Opts.MinRun - 1
	}
	d.failureCount = 0
	d.paused = false

	for {
		lastSnapshot := d.Data.MessageCollection.Clone()

		if ev, ok := d.Events.TryPop(); ok {
			terminate, skip := d.applyEvent(ev, &iteration, lastSnapshot)
			if terminate {
				d.shutdown()
				return nil
			}
			if skip {
				continue
			}
		}

		if d.paused {
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if d.Opts.DumpRawSeed == nil && d.Opts.SleepTime > 0 {
			log.Logf(0, "sleeping for %s", d.Opts.SleepTime)
			time.Sleep(d.Opts.SleepTime)
		}

		seed := d.selectSeed(iteration)
		rs := newRunState(iteration, seed)
		log.Logf(0, "[%s] iteration %d: fuzzing with seed %d", d.InvocationID, iteration, seed)

		start := time.Now()
		runErr := d.runOnce(ctx, rs)
		d.Stats.ObserveRun(time.Since(start))

		if d.Opts.LogAll {
			d.Logger.OutputLog(iteration, d.Data.MessageCollection, "LogAll")
			d.Stats.Dump()
		}

		var sig *monitor.Event
		if runErr != nil {
			sig = d.classifyRunErr(runErr)
		}
		if sig == nil {
			if ev, ok := d.Events.TryPop(); ok {
				sig = &ev
			}
		}

		if sig != nil {
			terminate, _ := d.applyEvent(*sig, &iteration, lastSnapshot)
			if terminate {
				d.shutdown()
				return nil
			}
			continue
		}

		if d.advance(&iteration) {
			d.shutdown()
			return nil
		}
	}
}

// advance moves the outer loop past the current iteration and reports
// whether that crosses a termination boundary: max_run exceeded, or
// dump-raw mode's single run is done (spec.md §4.6 "Termination").
func (d *Driver) advance(iteration *int) bool {
	*iteration++
	if d.Opts.MaxRun >= 0 && *iteration > d.Opts.MaxRun {
		return true
	}
	return d.Opts.DumpRawSeed != nil
}

func (d *Driver) classifyRunErr(runErr error) *monitor.Event {
	var ev monitor.Event
	if errors.As(runErr, &ev) {
		return &ev
	}
	handled := d.Exception.ProcessException(runErr)
	if handled == nil {
		return nil
	}
	if errors.As(handled, &ev) {
		return &ev
	}
	log.Logf(1, "exception ignored: %v", handled)
	return nil
}

func (d *Driver) shutdown() {
	if d.MonitorWorker != nil {
		d.MonitorWorker.Stop()
	}
	d.Stats.Dump()
	d.Logger.CompressDir()
}

func (d *Driver) dumpDirFor(seed int) string {
	if d.Opts.DumpRawSeed == nil {
		return ""
	}
	return d.Opts.DumpDir
}

func (d *Driver) persistDump(iteration int, role string, seed int, fuzzed bool, data []byte) {
	name := fmt.Sprintf("%d-%s-seed-%d", iteration, role, seed)
	if fuzzed {
		name += "-fuzzed"
	}
	if err := osutil.MkdirAll(d.Opts.DumpDir); err != nil {
		log.Logf(0, "dump-raw: %v", err)
		return
	}
	if err := osutil.WriteFile(filepath.Join(d.Opts.DumpDir, name), data); err != nil {
		log.Logf(0, "dump-raw: %v", err)
	}
}
