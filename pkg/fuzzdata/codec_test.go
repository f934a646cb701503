// Copyright 2024 mutiny project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package fuzzdata

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleData() *FuzzerData {
	return &FuzzerData{
		Proto:                TransportTCP,
		TargetPort:           9999,
		ReceiveTimeout:       2.5,
		FailureThreshold:     3,
		FailureTimeout:       5,
		ProcessorDirectory:   "default",
		ShouldPerformTestRun: true,
		MessageCollection: &MessageCollection{Messages: []*Message{
			{Direction: Outbound, Subcomponents: []*Subcomponent{NewSubcomponent([]byte{0x01, 0x02}, false)}},
			{Direction: Inbound, Subcomponents: []*Subcomponent{NewSubcomponent([]byte{0xAA}, false)}},
		}},
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.fuzzer")

	want := sampleData()
	require.NoError(t, WriteFile(path, want))

	got, err := ReadFile(path)
	require.NoError(t, err)

	diff := cmp.Diff(want, got)
	assert.Empty(t, diff, "round-tripped FuzzerData should be unchanged: %s", diff)
}

func TestReadFileRejectsEmptyMessage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.fuzzer")
	data := sampleData()
	data.MessageCollection.Messages = append(data.MessageCollection.Messages, &Message{Direction: Outbound})
	require.NoError(t, WriteFile(path, data))

	_, err := ReadFile(path)
	assert.Error(t, err)
}
