// Copyright 2024 mutiny project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package log provides the leveled logging used throughout the driver.
// Verbosity is controlled globally so that every package can log through
// the same sink without threading a logger value everywhere.
package log

import (
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
)

var (
	verbosity int32
	mu        sync.Mutex
)

// SetVerbosity controls which Logf calls are actually printed.
// A call is printed iff its level is <= the configured verbosity.
func SetVerbosity(v int) {
	atomic.StoreInt32(&verbosity, int32(v))
}

// Logf prints a leveled log line to stderr, guarded so that concurrent
// callers (the driver goroutine and the monitor worker) don't interleave
// partial lines.
func Logf(level int, format string, args ...interface{}) {
	if int32(level) > atomic.LoadInt32(&verbosity) {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

// Fatalf prints the message and terminates the process with a non-zero
// exit code. Used only for Config-class errors (spec.md §7): a bad CLI,
// a missing mutator binary, an unreadable .fuzzer file.
func Fatalf(format string, args ...interface{}) {
	log.Fatalf(format, args...)
}
