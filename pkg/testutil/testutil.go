// Copyright 2024 mutiny project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package testutil

import (
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/cisco-talos/mutiny/pkg/osutil"
)

func IterCount() int {
	iters := 1000
	if testing.Short() {
		iters /= 10
	}
	if RaceEnabled {
		iters /= 10
	}
	return iters
}

// RandSource returns a reproducible RNG source: fixed to 0 under CI, or to
// MUTINY_SEED when set, so a flaky run can be replayed exactly.
func RandSource(t *testing.T) rand.Source {
	seed := time.Now().UnixNano()
	if fixed := os.Getenv("MUTINY_SEED"); fixed != "" {
		seed, _ = strconv.ParseInt(fixed, 0, 64)
	}
	if os.Getenv("CI") != "" {
		seed = 0
	}
	t.Logf("seed=%v", seed)
	return rand.NewSource(seed)
}

// DirectoryLayout creates a layout specified by the paths slice.
// If a path ends with a filepath.Separator, then a directory is created.
// Otherwise, DirectoryLayout creates an empty file.
func DirectoryLayout(t *testing.T, base string, paths []string) {
	for _, path := range paths {
		path = filepath.FromSlash(path)
		isDir := path != "" && path[len(path)-1] == filepath.Separator
		path = filepath.Join(base, path)
		dir := filepath.Dir(path)
		if isDir {
			dir = path
		}
		if err := osutil.MkdirAll(dir); err != nil {
			t.Fatal(err)
		}
		if !isDir {
			if err := osutil.WriteFile(path, nil); err != nil {
				t.Fatal(err)
			}
		}
	}
}
