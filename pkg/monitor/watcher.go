// Copyright 2024 mutiny project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package monitor

import (
	"bufio"
	"bytes"
	"io"
	"regexp"
	"sync"
)

// tee lets more than one consumer observe the same byte stream without
// one slow reader blocking the source — the same sharing problem the
// teacher solves in vm/vmimpl/fanout.go for a VM's console output. Here
// the single source is the target's crash-indicator stream (its stdout,
// stderr, or a tailed log file) and the only consumer we ship by default
// is the crash-pattern scanner below; the type stays multi-reader so a
// caller can also attach a raw capture sink without contending with it.
type tee struct {
	r      io.ReadCloser
	mu     sync.Mutex
	chans  map[chan []byte]bool
	done   chan struct{}
	err    error
}

func newTee(r io.ReadCloser) *tee {
	t := &tee{r: r, chans: make(map[chan []byte]bool), done: make(chan struct{})}
	go t.loop()
	return t
}

func (t *tee) Close() error { return t.r.Close() }

func (t *tee) subscribe() chan []byte {
	ch := make(chan []byte, 256)
	t.mu.Lock()
	if t.err != nil {
		close(ch)
	} else {
		t.chans[ch] = true
	}
	t.mu.Unlock()
	return ch
}

func (t *tee) loop() {
	var buf [4096]byte
	for {
		n, err := t.r.Read(buf[:])
		if n > 0 {
			chunk := append([]byte{}, buf[:n]...)
			t.mu.Lock()
			for ch := range t.chans {
				select {
				case ch <- chunk:
				default:
					// Slow consumer: drop rather than block the source.
				}
			}
			t.mu.Unlock()
		}
		if err != nil {
			t.mu.Lock()
			t.err = err
			for ch := range t.chans {
				close(ch)
			}
			close(t.done)
			t.mu.Unlock()
			return
		}
	}
}

// CrashWatcher scans a byte stream for a crash-indicator pattern and
// turns each match into a Crash event on q. It is the concrete, minimal
// default Monitor implementation (spec.md §6: "the concrete monitor
// implementation" is an external collaborator; this is the stand-in a
// checkout ships with when no custom one is supplied).
type CrashWatcher struct {
	tee     *tee
	pattern *regexp.Regexp
	q       *Queue
}

// NewCrashWatcher starts watching r in the background. Every line
// matching pattern pushes a Crash event whose Detail is the matched
// line. r is typically the target's stderr/console log, piped or tailed
// by the caller; NewCrashWatcher takes ownership and closes it on Stop.
func NewCrashWatcher(r io.ReadCloser, pattern *regexp.Regexp, q *Queue) *CrashWatcher {
	w := &CrashWatcher{tee: newTee(r), pattern: pattern, q: q}
	ch := w.tee.subscribe()
	go w.scan(ch)
	return w
}

func (w *CrashWatcher) scan(ch chan []byte) {
	pr, pw := io.Pipe()
	go func() {
		for chunk := range ch {
			pw.Write(chunk)
		}
		pw.Close()
	}()
	scanner := bufio.NewScanner(pr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Bytes()
		if w.pattern.Match(line) {
			w.q.Push(Event{Kind: Crash, Detail: string(bytes.TrimSpace(line))})
		}
	}
}

// Stop closes the underlying stream, ending the background goroutines.
func (w *CrashWatcher) Stop() error { return w.tee.Close() }

// Wait blocks until the underlying stream has been fully drained (EOF or
// error), used by tests and by graceful-shutdown paths.
func (w *CrashWatcher) Wait() <-chan struct{} { return w.tee.done }
