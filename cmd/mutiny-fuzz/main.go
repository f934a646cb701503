// Copyright 2024 mutiny project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Command mutiny-fuzz is the driver's CLI entrypoint (spec.md §6): it
// loads a .fuzzer file, wires up the mutation engine, the processor
// directory, and an optional target monitor, then runs the session
// driver's outer loop until it halts.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/cisco-talos/mutiny/pkg/fuzzdata"
	"github.com/cisco-talos/mutiny/pkg/log"
	"github.com/cisco-talos/mutiny/pkg/monitor"
	"github.com/cisco-talos/mutiny/pkg/mutation"
	"github.com/cisco-talos/mutiny/pkg/osutil"
	"github.com/cisco-talos/mutiny/pkg/processor"
	"github.com/cisco-talos/mutiny/pkg/session"
)

var (
	flagPreppedFuzz = flag.String("prepped-fuzz", "", "path to the .fuzzer file (required)")
	flagTargetHost  = flag.String("target-host", "", "target host/address (required)")
	flagSleepTime   = flag.Float64("sleep-time", 0, "seconds to sleep between iterations")
	flagRange       = flag.String("range", "", "inclusive run range: A-B, A-, or A")
	flagLoop        = flag.String("loop", "", "comma/range seed list, e.g. 0,2-4")
	flagDumpRaw     = flag.Int("dump-raw", noDumpRaw, "run exactly one iteration at this seed, dumping raw payloads, then exit")
	flagQuiet       = flag.Bool("quiet", false, "suppress crash logs and telemetry dumps")
	flagLogAll      = flag.Bool("log-all", false, "write a log entry for every iteration, not just crashes")
	flagMutator     = flag.String("mutator", "radamsa", "external mutator binary name/path, or \"native\" for the built-in engine")
)

// noDumpRaw is the flag.Int sentinel meaning "--dump-raw was not passed";
// it can't be the same value as a real dump-raw seed request, so it sits
// well outside the signed seed range CLI users would plausibly pass.
const noDumpRaw = -1 << 31

func main() {
	flag.Parse()
	os.Exit(run())
}

func run() int {
	if *flagPreppedFuzz == "" || *flagTargetHost == "" {
		fmt.Fprintln(os.Stderr, "mutiny-fuzz: --prepped-fuzz and --target-host are required")
		return exitConfigError
	}

	data, err := fuzzdata.ReadFile(*flagPreppedFuzz)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mutiny-fuzz: %v\n", err)
		return exitConfigError
	}

	minRun, maxRun, err := parseRange(*flagRange)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mutiny-fuzz: %v\n", err)
		return exitInvalidRange
	}
	loopSeeds, err := parseLoop(*flagLoop)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mutiny-fuzz: %v\n", err)
		return exitInvalidRange
	}

	var dumpRawSeed *int
	if *flagDumpRaw != noDumpRaw {
		seed := *flagDumpRaw
		dumpRawSeed = &seed
	}

	logDir, err := logDirectory(*flagPreppedFuzz, *flagQuiet, dumpRawSeed != nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mutiny-fuzz: %v\n", err)
		return exitIOSetupFailure
	}

	engine, err := buildEngine(*flagMutator)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mutiny-fuzz: %v\n", err)
		return exitMutatorNotFound
	}

	procDir := data.ProcessorDirectory
	if procDir == "default" {
		procDir = ""
	}
	bundle, err := processor.Load(procDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mutiny-fuzz: %v\n", err)
		return exitConfigError
	}

	queue := monitor.NewQueue()
	worker, err := buildMonitor(bundle.MonitorConfig, queue)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mutiny-fuzz: %v\n", err)
		return exitConfigError
	}

	opts := session.Options{
		SleepTime:   time.Duration(*flagSleepTime * float64(time.Second)),
		MinRun:      minRun,
		MaxRun:      maxRun,
		LoopSeeds:   loopSeeds,
		DumpRawSeed: dumpRawSeed,
		DumpDir:     logDir,
		Quiet:       *flagQuiet,
		LogAll:      *flagLogAll,
	}

	driver := session.NewDriver(data, *flagTargetHost, engine, bundle.Message, bundle.Exception, queue, worker, opts)
	log.Logf(0, "[%s] starting: %s against %s", driver.InvocationID, *flagPreppedFuzz, *flagTargetHost)

	if err := driver.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "mutiny-fuzz: %v\n", err)
		return exitIOSetupFailure
	}
	return exitOK
}

// buildEngine resolves --mutator into a concrete mutation.Engine.
// "native" selects the in-process engine (spec.md §9); anything else
// names an external mutator binary, returning mutation.ErrMutatorNotFound
// if it can't be resolved on $PATH so run() can map it to its own exit
// code (spec.md §6).
func buildEngine(name string) (mutation.Engine, error) {
	if name == "native" {
		return mutation.NativeEngine{}, nil
	}
	return mutation.NewSubprocessEngine(name, 10*time.Second)
}

// buildMonitor stands up the concrete Monitor(s) a processors.yaml
// manifest named (spec.md §6, §9: "discovery by directory can be
// replaced with explicit registration at startup"). Only "crash_watcher"
// is built in; anything else is a config error. The result is always
// wrapped in a monitor.Group, even when it supervises a single monitor,
// so Driver.MonitorWorker has one shutdown path whether one monitor is
// configured or several.
func buildMonitor(cfg processor.MonitorConfig, q *monitor.Queue) (monitor.Monitor, error) {
	if cfg.Kind == "" {
		return monitor.NewGroup(), nil
	}
	if cfg.Kind != "crash_watcher" {
		return nil, fmt.Errorf("unknown monitor kind %q", cfg.Kind)
	}
	if cfg.Pattern == "" {
		return nil, fmt.Errorf("monitor kind %q requires a pattern", cfg.Kind)
	}
	pattern, err := regexp.Compile(cfg.Pattern)
	if err != nil {
		return nil, fmt.Errorf("compiling monitor pattern %q: %w", cfg.Pattern, err)
	}
	stream, err := os.Open(os.Getenv("MUTINY_MONITOR_LOG"))
	if err != nil {
		return nil, fmt.Errorf("opening monitor log stream: %w", err)
	}
	return monitor.NewGroup(monitor.NewCrashWatcher(stream, pattern, q)), nil
}

// logDirectory computes the per-invocation directory spec.md §6 names:
// <fuzzer_basename>_logs/<YYYY-MM-DD,HHMMSS>/, with dump-raw-and-quiet
// routed into a dumpraw/ subdirectory instead.
func logDirectory(fuzzerPath string, quiet, dumpRaw bool) (string, error) {
	if quiet && !dumpRaw {
		return "", nil
	}
	base := fuzzerBasename(fuzzerPath)
	if quiet && dumpRaw {
		dir := filepath.Join(base+"_logs", "dumpraw")
		return dir, osutil.MkdirAll(dir)
	}
	dir := filepath.Join(base+"_logs", time.Now().Format("2006-01-02,150405"))
	return dir, osutil.MkdirAll(dir)
}

func fuzzerBasename(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return base[:len(base)-len(ext)]
}
