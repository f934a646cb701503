// Copyright 2024 mutiny project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package session

import "time"

// RunState is the ephemeral per-run state created at run start and
// discarded (or logged) at run end (spec.md §3).
type RunState struct {
	Iteration           int
	Seed                 int
	HighestMessageIndex  int
	ReceivedBytes        map[int][]byte
	Started              time.Time
}

func newRunState(iteration, seed int) *RunState {
	return &RunState{
		Iteration:           iteration,
		Seed:                seed,
		HighestMessageIndex: -1,
		ReceivedBytes:       make(map[int][]byte),
		Started:             time.Now(),
	}
}
