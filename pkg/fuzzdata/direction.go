// Copyright 2024 mutiny project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package fuzzdata

import "fmt"

// MarshalYAML renders Direction as the human-readable "outbound"/"inbound"
// strings a hand-edited .fuzzer file would use.
func (d Direction) MarshalYAML() (interface{}, error) {
	if d == Outbound {
		return "outbound", nil
	}
	return "inbound", nil
}

// UnmarshalYAML parses the "outbound"/"inbound" strings back into Direction.
func (d *Direction) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	switch s {
	case "outbound":
		*d = Outbound
	case "inbound":
		*d = Inbound
	default:
		return fmt.Errorf("fuzzdata: unknown message direction %q", s)
	}
	return nil
}
