// Copyright 2024 mutiny project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package mutation

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSubprocessEngineErrorsOnMissingBinary(t *testing.T) {
	_, err := NewSubprocessEngine("mutiny-definitely-not-a-real-binary", time.Second)
	assert.ErrorIs(t, err, ErrMutatorNotFound)
}

// fakeMutatorScript writes a trivial shell "mutator" that echoes stdin
// reversed, standing in for radamsa's (input, seed) -> bytes contract
// without depending on an actual external tool being installed.
func fakeMutatorScript(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("subprocess mutator fixture is a POSIX shell script")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "fake-mutator.sh")
	script := "#!/bin/sh\nrev\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestSubprocessEngineRunsConfiguredBinary(t *testing.T) {
	path := fakeMutatorScript(t)
	e, err := NewSubprocessEngine(path, 5*time.Second)
	require.NoError(t, err)

	out, err := e.Mutate(context.Background(), []byte("abc"), 1)
	require.NoError(t, err)
	assert.Equal(t, "cba", string(out))
}

func TestSubprocessEngineRejectsSentinelSeed(t *testing.T) {
	path := fakeMutatorScript(t)
	e, err := NewSubprocessEngine(path, 5*time.Second)
	require.NoError(t, err)

	_, err = e.Mutate(context.Background(), []byte("abc"), NoMutation)
	assert.Error(t, err)
}
