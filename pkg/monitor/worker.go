// Copyright 2024 mutiny project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package monitor

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Monitor is the out-of-band worker the session driver polls between
// (and never during) runs (spec.md §4.4, §5). A concrete Monitor owns
// whatever background goroutines it needs and pushes Events onto the
// Queue it was built with; Stop must make those goroutines exit.
type Monitor interface {
	Stop() error
}

// NopMonitor is the default when no target-specific monitor is
// configured: it never produces events. Kept distinct from a nil
// Monitor so the driver's polling loop has one code path regardless of
// whether a real monitor is wired in.
type NopMonitor struct{}

func (NopMonitor) Stop() error { return nil }

// Group supervises one or more Monitors sharing a Queue and stops them
// together as a single Monitor, mirroring the teacher's pattern of
// collecting worker lifecycles behind a single shutdown call rather than
// tracking each goroutine's handle separately. cmd/mutiny-fuzz always
// wraps whatever it builds in a Group, so a processors.yaml manifest
// that grows a second, independent monitor (a liveness check alongside
// the crash-log watcher, say) stops them concurrently for free.
type Group struct {
	monitors []Monitor
}

func NewGroup(monitors ...Monitor) *Group {
	return &Group{monitors: monitors}
}

// Stop stops every monitor in the group concurrently, via errgroup, and
// returns the first error encountered. It satisfies Monitor so a Group
// can stand in anywhere a single Monitor is expected.
func (g *Group) Stop() error {
	eg, _ := errgroup.WithContext(context.Background())
	for _, m := range g.monitors {
		m := m
		eg.Go(m.Stop)
	}
	return eg.Wait()
}
