// Copyright 2024 mutiny project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package processor defines the user-extensible hook surface the session
// driver calls into at fixed points (spec.md §4.5): message inspection
// and mutation callbacks, and an exception processor that can convert an
// in-run error into a monitor control signal. Grounded on the teacher's
// plugin-by-interface convention (pkg/vcs, pkg/rpcserver: a narrow
// interface plus a directory-driven loader that falls back to a default
// implementation when nothing custom is configured).
package processor

// HookContext carries the per-call state every bytes-in/bytes-out hook
// needs (spec.md §4.5): which iteration, which subcomponent (-1 for the
// whole-message path), whether that subcomponent is fuzz-flagged, and
// snapshots of the original and currently-altered subcomponent bytes.
// The snapshots are recomputed immediately before each hook call by the
// session driver so that a mutation performed by hook k-1 is visible to
// hook k.
type HookContext struct {
	Iteration          int
	SubcomponentIndex  int
	Fuzzed             bool
	OriginalSubcomponents [][]byte
	AlteredSubcomponents  [][]byte
}

// MessageProcessor is the user-supplied inspection/mutation surface.
// Every method is optional in spirit; DefaultMessageProcessor supplies
// the identity/no-op behavior described in spec.md §4.5 so a custom
// processor can embed it and override only what it needs.
//
// Every hook returns an error alongside its result (spec.md §1, §9:
// "processor hooks that need to signal the driver return a control
// signal rather than raising"). A hook that wants to abort, retry, or
// otherwise steer the run returns a monitor.Event value as that error
// (a *monitor.Event pointer is not recognized as a control signal); the
// driver runs the same errors.As(err, &monitor.Event{}) classification
// over a hook error that it already runs over a transport or mutation
// error. Any other non-nil error is routed through the ExceptionProcessor
// like any other in-run failure. A nil error means "proceed normally".
type MessageProcessor interface {
	PreConnect(seed int, host string, port int) error
	PreFuzzProcess(data []byte, ctx HookContext) ([]byte, error)
	PreFuzzSubcomponentProcess(data []byte, ctx HookContext) ([]byte, error)
	PreSendProcess(data []byte, ctx HookContext) ([]byte, error)
	PreSendSubcomponentProcess(data []byte, ctx HookContext) ([]byte, error)
	PostReceiveProcess(data []byte, ctx HookContext) error
}

// DefaultMessageProcessor implements MessageProcessor as pure identity
// on byte-transforming hooks and no-ops on side-effect-only hooks. It is
// used whenever a processor directory supplies no custom message
// processor.
type DefaultMessageProcessor struct{}

func (DefaultMessageProcessor) PreConnect(seed int, host string, port int) error { return nil }

func (DefaultMessageProcessor) PreFuzzProcess(data []byte, ctx HookContext) ([]byte, error) {
	return data, nil
}

func (DefaultMessageProcessor) PreFuzzSubcomponentProcess(data []byte, ctx HookContext) ([]byte, error) {
	return data, nil
}

func (DefaultMessageProcessor) PreSendProcess(data []byte, ctx HookContext) ([]byte, error) {
	return data, nil
}

func (DefaultMessageProcessor) PreSendSubcomponentProcess(data []byte, ctx HookContext) ([]byte, error) {
	return data, nil
}

func (DefaultMessageProcessor) PostReceiveProcess(data []byte, ctx HookContext) error { return nil }

// ExceptionProcessor handles any in-run error that is not itself a
// recognized control signal (spec.md §4.5, §7). Returning a
// monitor.Event value re-raises that control signal to the driver;
// returning nil, or any error that is not a monitor.Event, ends the
// handling and the run is treated as non-crashing.
//
// This package does not import pkg/monitor (monitor events are the
// driver's vocabulary), so ProcessException returns a plain error: the
// driver matches the result against monitor.Event with errors.As, the
// same way it matches any other in-run error.
type ExceptionProcessor interface {
	ProcessException(err error) error
}

// DefaultExceptionProcessor returns every exception unchanged. An error
// that is already a monitor.Event never reaches it; any other error comes
// back unconverted, so the driver logs it as ignored and treats the run
// as non-crashing.
type DefaultExceptionProcessor struct{}

func (DefaultExceptionProcessor) ProcessException(err error) error { return err }
