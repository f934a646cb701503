// Copyright 2024 mutiny project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package monitor

import "sync"

// Queue is the thread-safe FIFO between the monitor's background worker
// (single producer) and the session driver (single consumer), following
// the mutex-guarded-slice idiom the teacher uses for its fuzzing work
// queues (syz-fuzzer/workqueue.go's GlobalWorkQueue). Unlike that queue,
// ours never blocks a consumer: the driver only ever uses TryPop
// (spec.md §4.4, §5 — "monitor queue blocking pop is not used").
type Queue struct {
	mu     sync.Mutex
	events []Event
}

// NewQueue returns an empty event queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push enqueues an event. Events are totally ordered by enqueue time
// (spec.md §4.4); Push is safe to call from any goroutine.
func (q *Queue) Push(e Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(q.events, e)
}

// TryPop removes and returns the oldest pending event, or (Event{}, false)
// if the queue is empty. It never blocks.
func (q *Queue) TryPop() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.events) == 0 {
		return Event{}, false
	}
	e := q.events[0]
	q.events = q.events[1:]
	return e, true
}

// Len reports the number of pending events, mostly for tests and
// diagnostics.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}
