// Copyright 2024 mutiny project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cisco-talos/mutiny/pkg/fuzzdata"
	"github.com/cisco-talos/mutiny/pkg/mutation"
)

func newTestDriver() *Driver {
	return &Driver{
		Data: &fuzzdata.FuzzerData{ShouldPerformTestRun: false},
		Opts: Options{MinRun: 0, MaxRun: -1},
	}
}

func TestSelectSeedDefaultIsIteration(t *testing.T) {
	d := newTestDriver()
	assert.Equal(t, 5, d.selectSeed(5))
}

func TestSelectSeedTestRunIsNoMutation(t *testing.T) {
	d := newTestDriver()
	d.Data.ShouldPerformTestRun = true
	assert.Equal(t, mutation.NoMutation, d.selectSeed(d.Opts.MinRun-1))
}

func TestSelectSeedLoopModeOrder(t *testing.T) {
	d := newTestDriver()
	d.Opts.LoopSeeds = []int{0, 2, 3, 4}

	var got []int
	for i := 0; i < 8; i++ {
		got = append(got, d.selectSeed(i))
	}
	assert.Equal(t, []int{0, 2, 3, 4, 0, 2, 3, 4}, got)
}

func TestSelectSeedDumpRawOverridesEverything(t *testing.T) {
	d := newTestDriver()
	d.Data.ShouldPerformTestRun = true
	seed := 42
	d.Opts.DumpRawSeed = &seed
	assert.Equal(t, 42, d.selectSeed(d.Opts.MinRun-1))
}
