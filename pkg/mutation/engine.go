// Copyright 2024 mutiny project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package mutation wraps the external byte-mutation utility described in
// spec.md §4.2 behind a small, deterministic interface, plus a
// subprocess-free native fallback (design note spec.md §9).
package mutation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// NoMutation is the seed sentinel meaning "pass bytes through unchanged"
// (spec.md §4.2, §8 "No-mutation on seed -1").
const NoMutation = -1

// ErrMutatorFailed is raised when the external mutator exits non-zero or
// produces no output. It is an in-run exception routed to the
// ExceptionProcessor (spec.md §7).
var ErrMutatorFailed = errors.New("mutation: mutator failed")

// Engine produces a deterministic mutated byte sequence from an input and
// a seed (spec.md §4.2). Implementations must satisfy: same (input, seed)
// in, same output out, for seed >= 0. Engine.Mutate is never called by the
// session driver when seed == NoMutation.
type Engine interface {
	Mutate(ctx context.Context, input []byte, seed int) ([]byte, error)
}

// SubprocessEngine invokes an external mutator binary as a short-lived
// subprocess per call, piping input to stdin and reading stdout to
// completion, mirroring the original mutiny.py radamsa invocation.
type SubprocessEngine struct {
	// Path to the mutator binary, resolved once at construction.
	Path string
	// Timeout bounds how long a single mutation subprocess may run.
	Timeout time.Duration
}

// ErrMutatorNotFound is returned when path cannot be resolved to an
// executable. Per spec.md §4.2/§7 this is a Config-class error: the
// caller (cmd/mutiny-fuzz) is expected to treat it as fatal with its own
// distinct exit code, not route it through the in-run exception path.
var ErrMutatorNotFound = errors.New("mutation: mutator binary not found")

// NewSubprocessEngine resolves path via exec.LookPath if it is a bare
// name.
func NewSubprocessEngine(path string, timeout time.Duration) (*SubprocessEngine, error) {
	resolved, err := exec.LookPath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrMutatorNotFound, path, err)
	}
	return &SubprocessEngine{Path: resolved, Timeout: timeout}, nil
}

func (e *SubprocessEngine) Mutate(ctx context.Context, input []byte, seed int) ([]byte, error) {
	if seed < 0 {
		return nil, fmt.Errorf("mutation: Mutate called with sentinel seed %d", seed)
	}
	runCtx := ctx
	var cancel context.CancelFunc
	if e.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(runCtx, e.Path, "--seed", fmt.Sprintf("%d", seed))
	cmd.Stdin = bytes.NewReader(input)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: %v: %s", ErrMutatorFailed, err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("%w: empty output for seed %d", ErrMutatorFailed, seed)
	}
	return stdout.Bytes(), nil
}
