// Copyright 2024 mutiny project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package fuzzdata

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ReadFile loads a .fuzzer file. spec.md §1 treats the file reader as an
// external collaborator of the core driver; this is the concrete default
// codec a real checkout ships with (see SPEC_FULL.md §3). The core only
// ever depends on the *FuzzerData result, never on this function.
func ReadFile(path string) (*FuzzerData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fuzzdata: reading %s: %w", path, err)
	}
	var data FuzzerData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("fuzzdata: parsing %s: %w", path, err)
	}
	if err := data.finish(); err != nil {
		return nil, fmt.Errorf("fuzzdata: %s: %w", path, err)
	}
	return &data, nil
}

// finish initializes derived state (Altered buffers) and checks the
// invariants spec.md §4.1 requires: stable subcomponent order, at least
// one subcomponent per message.
func (d *FuzzerData) finish() error {
	if d.MessageCollection == nil {
		return fmt.Errorf("message_collection is required")
	}
	for i, m := range d.MessageCollection.Messages {
		if len(m.Subcomponents) == 0 {
			return fmt.Errorf("message %d has zero subcomponents", i)
		}
		for _, sc := range m.Subcomponents {
			sc.Altered = append([]byte{}, sc.Original...)
		}
	}
	if d.Proto == "" {
		d.Proto = TransportTCP
	}
	return nil
}

// WriteFile serializes data back to path, in the same YAML shape ReadFile
// expects. The codec's round-trip tests use it to write fixtures.
func WriteFile(path string, data *FuzzerData) error {
	raw, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("fuzzdata: marshaling: %w", err)
	}
	return os.WriteFile(path, raw, 0o644)
}
