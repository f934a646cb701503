// Copyright 2024 mutiny project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package session

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/ulikunitz/xz"

	"github.com/cisco-talos/mutiny/pkg/fuzzdata"
	"github.com/cisco-talos/mutiny/pkg/log"
	"github.com/cisco-talos/mutiny/pkg/osutil"
)

// RunLogger writes per-iteration crash logs to an invocation-scoped
// directory. Dir == "" means quiet mode (spec.md §6): every method is a
// no-op so the driver can call them unconditionally.
type RunLogger struct {
	Dir string
}

func NewRunLogger(dir string) *RunLogger {
	return &RunLogger{Dir: dir}
}

// ResetForNewRun is the explicit hook point matching spec.md §4.6.1 step
// 1 ("reset the logger for a new run"). The current logger keeps no
// per-run buffered state that needs clearing, but the call stays so a
// future stateful logger has somewhere to plug in.
func (l *RunLogger) ResetForNewRun() {}

// OutputLog writes a crash log for iteration, diffing every mutated
// subcomponent's original against altered bytes.
func (l *RunLogger) OutputLog(iteration int, mc *fuzzdata.MessageCollection, reason string) error {
	if l.Dir == "" {
		return nil
	}
	if err := osutil.MkdirAll(l.Dir); err != nil {
		return err
	}
	path := filepath.Join(l.Dir, fmt.Sprintf("%d-crash.log", iteration))
	if err := osutil.WriteFile(path, []byte(l.render(iteration, mc, reason))); err != nil {
		return err
	}
	log.Logf(1, "wrote crash log %s", path)
	return nil
}

// OutputLastLog is OutputLog's HaltAndLogLast counterpart (spec.md
// §4.6): it logs a pre-run snapshot of the message collection rather
// than whatever the live collection looks like by the time it's called.
func (l *RunLogger) OutputLastLog(iteration int, snapshot *fuzzdata.MessageCollection, reason string) error {
	return l.OutputLog(iteration, snapshot, reason+" (pre-run snapshot)")
}

// maxDiffBytes bounds how much of a diff line is embedded directly in a
// crash log: large subcomponents (a bulk file transfer payload, say)
// would otherwise make the log itself unwieldy to read.
const maxDiffBytes = 4096

func (l *RunLogger) render(iteration int, mc *fuzzdata.MessageCollection, reason string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "iteration %d: %s\n", iteration, reason)
	dmp := diffmatchpatch.New()
	for i, msg := range mc.Messages {
		for j, sc := range msg.Subcomponents {
			if bytes.Equal(sc.Original, sc.Altered) {
				continue
			}
			diffText := []byte(dmp.DiffPrettyText(dmp.DiffMain(string(sc.Original), string(sc.Altered), false)))
			diffText = log.Truncate(diffText, maxDiffBytes/2, maxDiffBytes/2)
			fmt.Fprintf(&b, "message %d subcomponent %d:\n%s\n", i, j, diffText)
		}
	}
	if b.Len() == 0 {
		fmt.Fprintf(&b, "iteration %d: %s (no subcomponent diverged from original)\n", iteration, reason)
	}
	return b.String()
}

// CompressDir xz-compresses every loose log file left in Dir in place,
// called once the driver halts so a long session doesn't leave thousands
// of uncompressed crash logs behind.
func (l *RunLogger) CompressDir() error {
	if l.Dir == "" {
		return nil
	}
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || strings.HasSuffix(entry.Name(), ".xz") {
			continue
		}
		src := filepath.Join(l.Dir, entry.Name())
		if err := compressFile(src); err != nil {
			return fmt.Errorf("compressing %s: %w", src, err)
		}
	}
	return nil
}

func compressFile(path string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(path + ".xz")
	if err != nil {
		return err
	}
	w, err := xz.NewWriter(out)
	if err != nil {
		out.Close()
		return err
	}
	if _, err := io.Copy(w, in); err != nil {
		w.Close()
		out.Close()
		return err
	}
	if err := w.Close(); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(path)
}
