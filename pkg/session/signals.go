// Copyright 2024 mutiny project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package session

import (
	"time"

	"github.com/cisco-talos/mutiny/pkg/fuzzdata"
	"github.com/cisco-talos/mutiny/pkg/log"
	"github.com/cisco-talos/mutiny/pkg/monitor"
)

// applyEvent handles one control signal per spec.md §4.6's precedence
// table, whether it came from the monitor queue or was re-raised by the
// ExceptionProcessor. It mutates *iteration in place and reports:
//
//   - terminate: the driver must stop now.
//   - skip: the caller should `continue` the outer loop without
//     attempting (or having attempted) a run this cycle.
func (d *Driver) applyEvent(ev monitor.Event, iteration *int, lastSnapshot *fuzzdata.MessageCollection) (terminate, skip bool) {
	switch ev.Kind {
	case monitor.Pause:
		d.paused = true
		log.Logf(0, "pausing: %s", ev.Detail)
		return false, true

	case monitor.Resume:
		if d.paused {
			d.paused = false
			log.Logf(0, "resuming")
		} else {
			log.Logf(0, "received Resume while not paused, ignoring")
		}
		return false, true

	case monitor.Crash:
		if d.failureCount == 0 {
			log.Logf(0, "crash detected: %s", ev.Detail)
			d.Logger.OutputLog(*iteration, d.Data.MessageCollection, ev.Detail)
			d.Stats.ObserveCrash()
		}
		d.failureCount++
		if d.failureCount < d.Data.FailureThreshold {
			log.Logf(0, "failure %d of %d allowed for iteration %d", d.failureCount, d.Data.FailureThreshold, *iteration)
			time.Sleep(secondsToDuration(d.Data.FailureTimeout))
			return false, true
		}
		log.Logf(0, "failed %d times, moving to next iteration", d.failureCount)
		d.failureCount = 0
		return d.advance(iteration), true

	case monitor.AbortRun:
		log.Logf(0, "run aborted: %s", ev.Detail)
		return d.advance(iteration), true

	case monitor.RetryRun:
		log.Logf(0, "retrying current iteration: %s", ev.Detail)
		return false, true

	case monitor.HaltAndLog:
		d.Logger.OutputLog(*iteration, d.Data.MessageCollection, ev.Detail)
		log.Logf(0, "received HaltAndLog, logging and halting")
		return true, true

	case monitor.HaltAndLogLast:
		if *iteration > d.Opts.MinRun {
			logIter := *iteration - 1
			if d.Opts.MinRun == d.Opts.MaxRun {
				logIter = *iteration
			}
			d.Logger.OutputLastLog(logIter, lastSnapshot, ev.Detail)
			log.Logf(0, "received HaltAndLogLast, logged iteration %d and halting", logIter)
		} else {
			log.Logf(0, "received HaltAndLogLast, skipping log (pending iteration is not past min_run) and halting")
		}
		return true, true

	case monitor.Halt:
		log.Logf(0, "received Halt, halting")
		return true, true

	default:
		return false, false
	}
}
