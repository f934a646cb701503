// Copyright 2024 mutiny project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cisco-talos/mutiny/pkg/fuzzdata"
	"github.com/cisco-talos/mutiny/pkg/monitor"
)

func emptyCollectionDriver() *Driver {
	return &Driver{
		Data:   &fuzzdata.FuzzerData{FailureThreshold: 3, FailureTimeout: 0.001, MessageCollection: &fuzzdata.MessageCollection{}},
		Logger: NewRunLogger(""),
		Stats:  NewTelemetry(""),
		Opts:   Options{MaxRun: -1},
	}
}

func TestCrashThresholdArithmetic(t *testing.T) {
	d := emptyCollectionDriver()
	iteration := 5
	snapshot := d.Data.MessageCollection.Clone()

	terminate, skip := d.applyEvent(monitor.Event{Kind: monitor.Crash, Detail: "segv"}, &iteration, snapshot)
	assert.False(t, terminate)
	assert.True(t, skip)
	assert.Equal(t, 5, iteration)
	assert.Equal(t, 1, d.failureCount)

	terminate, skip = d.applyEvent(monitor.Event{Kind: monitor.Crash, Detail: "segv"}, &iteration, snapshot)
	assert.False(t, terminate)
	assert.True(t, skip)
	assert.Equal(t, 5, iteration)
	assert.Equal(t, 2, d.failureCount)

	terminate, skip = d.applyEvent(monitor.Event{Kind: monitor.Crash, Detail: "segv"}, &iteration, snapshot)
	assert.False(t, terminate)
	assert.True(t, skip)
	assert.Equal(t, 6, iteration)
	assert.Equal(t, 0, d.failureCount)
}

func TestPauseThenResume(t *testing.T) {
	d := emptyCollectionDriver()
	iteration := 2
	snapshot := d.Data.MessageCollection.Clone()

	terminate, skip := d.applyEvent(monitor.Event{Kind: monitor.Pause}, &iteration, snapshot)
	assert.False(t, terminate)
	assert.True(t, skip)
	assert.True(t, d.paused)
	assert.Equal(t, 2, iteration)

	terminate, skip = d.applyEvent(monitor.Event{Kind: monitor.Resume}, &iteration, snapshot)
	assert.False(t, terminate)
	assert.True(t, skip)
	assert.False(t, d.paused)
	assert.Equal(t, 2, iteration)
}

func TestResumeWithoutPauseIsIgnored(t *testing.T) {
	d := emptyCollectionDriver()
	iteration := 0
	terminate, skip := d.applyEvent(monitor.Event{Kind: monitor.Resume}, &iteration, d.Data.MessageCollection.Clone())
	assert.False(t, terminate)
	assert.True(t, skip)
	assert.False(t, d.paused)
}

func TestAbortRunAdvancesWithoutLogging(t *testing.T) {
	d := emptyCollectionDriver()
	dir := t.TempDir()
	d.Logger = NewRunLogger(dir)
	iteration := 1
	terminate, skip := d.applyEvent(monitor.Event{Kind: monitor.AbortRun, Detail: "meaningless run"}, &iteration, d.Data.MessageCollection.Clone())
	assert.False(t, terminate)
	assert.True(t, skip)
	assert.Equal(t, 2, iteration)
	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}

func TestRetryRunDoesNotAdvance(t *testing.T) {
	d := emptyCollectionDriver()
	iteration := 9
	terminate, skip := d.applyEvent(monitor.Event{Kind: monitor.RetryRun, Detail: "transient"}, &iteration, d.Data.MessageCollection.Clone())
	assert.False(t, terminate)
	assert.True(t, skip)
	assert.Equal(t, 9, iteration)
}

func TestHaltTerminatesImmediately(t *testing.T) {
	d := emptyCollectionDriver()
	iteration := 0
	terminate, skip := d.applyEvent(monitor.Event{Kind: monitor.Halt}, &iteration, d.Data.MessageCollection.Clone())
	assert.True(t, terminate)
	assert.True(t, skip)
}

func TestHaltAndLogWritesCurrentIteration(t *testing.T) {
	dir := t.TempDir()
	d := emptyCollectionDriver()
	d.Logger = NewRunLogger(dir)
	iteration := 4
	terminate, _ := d.applyEvent(monitor.Event{Kind: monitor.HaltAndLog, Detail: "oops"}, &iteration, d.Data.MessageCollection.Clone())
	assert.True(t, terminate)
	_, err := os.Stat(filepath.Join(dir, "4-crash.log"))
	require.NoError(t, err)
}

func TestHaltAndLogLastLogsPreviousIterationSnapshot(t *testing.T) {
	dir := t.TempDir()
	d := emptyCollectionDriver()
	d.Logger = NewRunLogger(dir)
	d.Opts = Options{MinRun: 1, MaxRun: 10}

	snapshot := &fuzzdata.MessageCollection{Messages: []*fuzzdata.Message{
		{Subcomponents: []*fuzzdata.Subcomponent{{Original: []byte("a"), Altered: []byte("b")}}},
	}}
	iteration := 4
	terminate, skip := d.applyEvent(monitor.Event{Kind: monitor.HaltAndLogLast, Detail: "oops"}, &iteration, snapshot)
	assert.True(t, terminate)
	assert.True(t, skip)

	data, err := os.ReadFile(filepath.Join(dir, "3-crash.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "pre-run snapshot")
}

func TestHaltAndLogLastSkipsLoggingOnTestRunIteration(t *testing.T) {
	dir := t.TempDir()
	d := emptyCollectionDriver()
	d.Logger = NewRunLogger(dir)
	d.Opts = Options{MinRun: 1, MaxRun: 10}

	iteration := 0 // MinRun-1, not > MinRun: the pending iteration is the test-run placeholder
	terminate, _ := d.applyEvent(monitor.Event{Kind: monitor.HaltAndLogLast, Detail: "oops"}, &iteration, d.Data.MessageCollection.Clone())
	assert.True(t, terminate)
	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}

func TestHaltAndLogLastUsesCurrentIterationWhenMinEqualsMax(t *testing.T) {
	dir := t.TempDir()
	d := emptyCollectionDriver()
	d.Logger = NewRunLogger(dir)
	d.Opts = Options{MinRun: 5, MaxRun: 5}

	snapshot := &fuzzdata.MessageCollection{Messages: []*fuzzdata.Message{
		{Subcomponents: []*fuzzdata.Subcomponent{{Original: []byte("a"), Altered: []byte("c")}}},
	}}
	iteration := 6
	terminate, _ := d.applyEvent(monitor.Event{Kind: monitor.HaltAndLogLast, Detail: "oops"}, &iteration, snapshot)
	assert.True(t, terminate)
	_, err := os.Stat(filepath.Join(dir, "6-crash.log"))
	require.NoError(t, err)
}
