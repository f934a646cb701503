// Copyright 2024 mutiny project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package session

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/VividCortex/gohistogram"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/cisco-talos/mutiny/pkg/osutil"
)

// Telemetry collects in-process run metrics and periodically dumps them
// to a text file in the invocation directory. It is never served over
// HTTP: spec.md §1 rules out any GUI/web surface, so the usual
// client_golang promhttp handler has nothing to attach to here.
type Telemetry struct {
	mu          sync.Mutex
	hist        *gohistogram.NumericHistogram
	registry    *prometheus.Registry
	iterations  prometheus.Counter
	crashes     prometheus.Counter
	runDuration prometheus.Histogram
	dir         string
}

// NewTelemetry builds a Telemetry that dumps to <dir>/telemetry.prom and
// <dir>/latency_histogram.txt. dir == "" disables dumping entirely
// (quiet mode).
func NewTelemetry(dir string) *Telemetry {
	reg := prometheus.NewRegistry()
	iterations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mutiny_iterations_total",
		Help: "Iterations executed by the session driver.",
	})
	crashes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mutiny_crashes_total",
		Help: "Crash control signals observed.",
	})
	runDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: "mutiny_run_duration_seconds",
		Help: "Wall-clock duration of a single per-run procedure.",
	})
	reg.MustRegister(iterations, crashes, runDuration)
	return &Telemetry{
		hist:        gohistogram.NewHistogram(20),
		registry:    reg,
		iterations:  iterations,
		crashes:     crashes,
		runDuration: runDuration,
		dir:         dir,
	}
}

// ObserveRun records one completed run's wall-clock duration.
func (t *Telemetry) ObserveRun(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.iterations.Inc()
	t.runDuration.Observe(d.Seconds())
	t.hist.Add(d.Seconds())
}

// ObserveCrash increments the crash counter.
func (t *Telemetry) ObserveCrash() {
	t.crashes.Inc()
}

// Dump writes the current metric snapshot as Prometheus text exposition
// format to <dir>/telemetry.prom, and the streaming histogram's summary
// statistics to <dir>/latency_histogram.txt. The driver calls Dump on
// halt and, when --log-all is set, after every iteration.
func (t *Telemetry) Dump() error {
	if t.dir == "" {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	mfs, err := t.registry.Gather()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, expfmt.FmtText)
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	if err := osutil.WriteFile(filepath.Join(t.dir, "telemetry.prom"), buf.Bytes()); err != nil {
		return err
	}

	hist := fmt.Sprintf("mean_seconds=%f variance=%f\n", t.hist.Mean(), t.hist.Variance())
	return osutil.WriteFile(filepath.Join(t.dir, "latency_histogram.txt"), []byte(hist))
}
