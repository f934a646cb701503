// Copyright 2024 mutiny project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package osutil collects small filesystem helpers shared by the log
// writer, the dump-raw mode, and the processor directory loader.
package osutil

import "os"

// MkdirAll creates dir and any missing parents, succeeding if dir already
// exists as a directory.
func MkdirAll(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// WriteFile writes data to name, creating or truncating it.
func WriteFile(name string, data []byte) error {
	return os.WriteFile(name, data, 0o644)
}

// IsExist reports whether path exists.
func IsExist(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
