// Copyright 2024 mutiny project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package session

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cisco-talos/mutiny/pkg/fuzzdata"
)

func TestRunLoggerQuietModeIsNoop(t *testing.T) {
	l := NewRunLogger("")
	require.NoError(t, l.OutputLog(0, &fuzzdata.MessageCollection{}, "reason"))
	require.NoError(t, l.CompressDir())
}

func TestRunLoggerWritesDiffOnDivergence(t *testing.T) {
	dir := t.TempDir()
	l := NewRunLogger(dir)
	mc := &fuzzdata.MessageCollection{Messages: []*fuzzdata.Message{
		{Subcomponents: []*fuzzdata.Subcomponent{{Original: []byte("hello"), Altered: []byte("hbllo")}}},
	}}
	require.NoError(t, l.OutputLog(2, mc, "segv"))

	data, err := os.ReadFile(filepath.Join(dir, "2-crash.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "segv")
	assert.Contains(t, string(data), "message 0 subcomponent 0")
}

func TestRunLoggerTruncatesLargeDiffs(t *testing.T) {
	dir := t.TempDir()
	l := NewRunLogger(dir)
	original := bytes.Repeat([]byte{'a'}, maxDiffBytes*4)
	altered := append([]byte{}, original...)
	altered[len(altered)/2] = 'Z'
	mc := &fuzzdata.MessageCollection{Messages: []*fuzzdata.Message{
		{Subcomponents: []*fuzzdata.Subcomponent{{Original: original, Altered: altered}}},
	}}
	require.NoError(t, l.OutputLog(1, mc, "oversized diff"))

	data, err := os.ReadFile(filepath.Join(dir, "1-crash.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "cut")
	assert.Less(t, len(data), len(original))
}

func TestRunLoggerCompressDirXzCompressesLooseFiles(t *testing.T) {
	dir := t.TempDir()
	l := NewRunLogger(dir)
	require.NoError(t, l.OutputLog(0, &fuzzdata.MessageCollection{Messages: []*fuzzdata.Message{
		{Subcomponents: []*fuzzdata.Subcomponent{{Original: []byte("a"), Altered: []byte("b")}}},
	}}, "reason"))

	require.NoError(t, l.CompressDir())

	_, err := os.Stat(filepath.Join(dir, "0-crash.log"))
	assert.True(t, os.IsNotExist(err), "plain log should have been removed after compression")

	_, err = os.Stat(filepath.Join(dir, "0-crash.log.xz"))
	require.NoError(t, err)
}
