// Copyright 2024 mutiny project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package main

import (
	"fmt"
	"strconv"
	"strings"
)

// Exit codes (spec.md §6: "non-zero reserved distinctly for...").
const (
	exitOK              = 0
	exitConfigError     = 1
	exitIOSetupFailure  = 2
	exitMutatorNotFound = 3
	exitInvalidRange    = 4
)

// parseRange parses "A-B" (inclusive), "A-" (unbounded upper, maxRun=-1),
// or bare "A" (exactly that one run, minRun==maxRun==A), per spec.md §6.
func parseRange(s string) (minRun, maxRun int, err error) {
	if s == "" {
		return 0, -1, nil
	}
	if !strings.Contains(s, "-") {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid --range %q: %w", s, err)
		}
		return n, n, nil
	}
	parts := strings.SplitN(s, "-", 2)
	lo, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid --range %q: %w", s, err)
	}
	if parts[1] == "" {
		return lo, -1, nil
	}
	hi, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid --range %q: %w", s, err)
	}
	if hi < lo {
		return 0, 0, fmt.Errorf("invalid --range %q: upper bound below lower bound", s)
	}
	return lo, hi, nil
}

// parseLoop parses a comma-separated list of seeds and/or inclusive
// ranges ("A-B") into the ordered seed list spec.md §6 describes, e.g.
// "0,2-4" -> [0,2,3,4].
func parseLoop(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	var seeds []int
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		if !strings.Contains(field, "-") {
			n, err := strconv.Atoi(field)
			if err != nil {
				return nil, fmt.Errorf("invalid --loop entry %q: %w", field, err)
			}
			seeds = append(seeds, n)
			continue
		}
		parts := strings.SplitN(field, "-", 2)
		lo, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, fmt.Errorf("invalid --loop entry %q: %w", field, err)
		}
		hi, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("invalid --loop entry %q: %w", field, err)
		}
		if hi < lo {
			return nil, fmt.Errorf("invalid --loop entry %q: upper bound below lower bound", field)
		}
		for n := lo; n <= hi; n++ {
			seeds = append(seeds, n)
		}
	}
	return seeds, nil
}
