// Copyright 2024 mutiny project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package session

import "github.com/cisco-talos/mutiny/pkg/mutation"

// selectSeed implements spec.md §4.6 step 5: dump_raw value if set; else
// -1 on the test-run placeholder iteration; else loop_seeds[iteration
// mod len] in loop mode; else the iteration number itself.
func (d *Driver) selectSeed(iteration int) int {
	if d.Opts.DumpRawSeed != nil {
		return *d.Opts.DumpRawSeed
	}
	if d.isTestRunIteration(iteration) {
		return mutation.NoMutation
	}
	if n := len(d.Opts.LoopSeeds); n > 0 {
		idx := iteration % n
		if idx < 0 {
			idx += n
		}
		return d.Opts.LoopSeeds[idx]
	}
	return iteration
}

// isTestRunIteration reports whether iteration is the min_run-1
// placeholder reserved for the no-mutation test run (spec.md §4.6,
// Glossary "Test run").
func (d *Driver) isTestRunIteration(iteration int) bool {
	return d.Data.ShouldPerformTestRun && iteration == d.Opts.MinRun-1
}
