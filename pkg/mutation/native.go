// Copyright 2024 mutiny project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package mutation

import (
	"context"
	"fmt"
	"math/rand"
)

// NativeEngine is a subprocess-free Engine, useful when no external
// mutator is installed and for fast, deterministic unit tests of the
// driver's determinism property (spec.md §9 design note: "a native
// in-process implementation is equally valid"). It derives its entire
// random stream from the seed, never from the global RNG or wall clock.
type NativeEngine struct{}

func (NativeEngine) Mutate(_ context.Context, input []byte, seed int) ([]byte, error) {
	if seed < 0 {
		return nil, fmt.Errorf("mutation: Mutate called with sentinel seed %d", seed)
	}
	if len(input) == 0 {
		return nil, fmt.Errorf("%w: cannot mutate empty input", ErrMutatorFailed)
	}
	rnd := rand.New(rand.NewSource(int64(seed)))
	out := append([]byte{}, input...)

	const rounds = 4
	for i := 0; i < rounds; i++ {
		switch rnd.Intn(4) {
		case 0: // flip a random bit
			idx := rnd.Intn(len(out))
			out[idx] ^= 1 << uint(rnd.Intn(8))
		case 1: // duplicate a random byte
			idx := rnd.Intn(len(out))
			out = append(out[:idx], append([]byte{out[idx]}, out[idx:]...)...)
		case 2: // delete a random byte, if more than one remains
			if len(out) > 1 {
				idx := rnd.Intn(len(out))
				out = append(out[:idx], out[idx+1:]...)
			}
		case 3: // overwrite a random byte with a random value
			idx := rnd.Intn(len(out))
			out[idx] = byte(rnd.Intn(256))
		}
	}
	return out, nil
}
