// Copyright 2024 mutiny project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package fuzzdata is the in-memory representation of a recorded
// client/server conversation: the MessageCollection that the session
// driver replays, plus the FuzzerData container loaded from a .fuzzer
// file (spec.md §3).
package fuzzdata

// Direction records whether a Message travels from the fuzzer to the
// target (Outbound) or is expected to arrive from the target (Inbound).
type Direction int

const (
	Outbound Direction = iota
	Inbound
)

// Subcomponent is a contiguous byte range of a Message with its own fuzz
// flag. Original is immutable after load; Altered is reset to Original at
// the start of every run and is the only field the driver or a processor
// hook may mutate.
type Subcomponent struct {
	Original []byte `yaml:"original"`
	Altered  []byte `yaml:"-"`
	IsFuzzed bool   `yaml:"fuzzed"`
}

// NewSubcomponent builds a subcomponent with Altered initialized from
// original, per the reset invariant in spec.md §3.
func NewSubcomponent(original []byte, fuzzed bool) *Subcomponent {
	return &Subcomponent{
		Original: original,
		Altered:  append([]byte{}, original...),
		IsFuzzed: fuzzed,
	}
}

// Reset sets Altered equal to Original (spec.md §4.1).
func (s *Subcomponent) Reset() {
	s.Altered = append(s.Altered[:0], s.Original...)
}

// Clone deep-copies the subcomponent, including both byte slices.
func (s *Subcomponent) Clone() *Subcomponent {
	return &Subcomponent{
		Original: append([]byte{}, s.Original...),
		Altered:  append([]byte{}, s.Altered...),
		IsFuzzed: s.IsFuzzed,
	}
}

// Message is an ordered list of Subcomponents plus a direction and a
// per-message fuzz flag (spec.md §3).
type Message struct {
	Direction     Direction       `yaml:"direction"`
	IsFuzzed      bool            `yaml:"fuzzed"`
	Subcomponents []*Subcomponent `yaml:"subcomponents"`
}

// IsOutbound reports whether the message is sent to the target.
func (m *Message) IsOutbound() bool { return m.Direction == Outbound }

// IsFuzzedMessage reports the message-level fuzz flag.
func (m *Message) IsFuzzedMessage() bool { return m.IsFuzzed }

// Reset reverts every subcomponent's altered bytes to its original bytes
// (spec.md §4.6.1 step 4a).
func (m *Message) Reset() {
	for _, sc := range m.Subcomponents {
		sc.Reset()
	}
}

// EffectiveBytes concatenates every subcomponent's current altered bytes.
// This is the unit sent on the wire, and the expected-length hint used
// when reading an inbound message (spec.md §4.1).
func (m *Message) EffectiveBytes() []byte {
	total := 0
	for _, sc := range m.Subcomponents {
		total += len(sc.Altered)
	}
	out := make([]byte, 0, total)
	for _, sc := range m.Subcomponents {
		out = append(out, sc.Altered...)
	}
	return out
}

// OriginalSubcomponentBytes returns the original bytes of every
// subcomponent, in order — the `orig` slice referenced throughout
// spec.md §4.6.2.
func (m *Message) OriginalSubcomponentBytes() [][]byte {
	out := make([][]byte, len(m.Subcomponents))
	for i, sc := range m.Subcomponents {
		out[i] = sc.Original
	}
	return out
}

// AlteredSubcomponentBytes returns the current altered bytes of every
// subcomponent, in order — the `actual` slice recomputed before each
// processor hook call (spec.md §4.5).
func (m *Message) AlteredSubcomponentBytes() [][]byte {
	out := make([][]byte, len(m.Subcomponents))
	for i, sc := range m.Subcomponents {
		out[i] = sc.Altered
	}
	return out
}

// Clone deep-copies the message and all of its subcomponents.
func (m *Message) Clone() *Message {
	clone := &Message{Direction: m.Direction, IsFuzzed: m.IsFuzzed}
	clone.Subcomponents = make([]*Subcomponent, len(m.Subcomponents))
	for i, sc := range m.Subcomponents {
		clone.Subcomponents[i] = sc.Clone()
	}
	return clone
}

// MessageCollection is the ordered playback sequence (spec.md §3).
type MessageCollection struct {
	Messages []*Message `yaml:"messages"`
}

// Clone performs the per-iteration deep copy spec.md §3 and §4.6 require
// before each run, so a HaltAndLogLast can log the pre-run snapshot even
// after processor hooks have mutated the live collection.
func (mc *MessageCollection) Clone() *MessageCollection {
	clone := &MessageCollection{Messages: make([]*Message, len(mc.Messages))}
	for i, m := range mc.Messages {
		clone.Messages[i] = m.Clone()
	}
	return clone
}

// Transport names the transport kind a FuzzerData session targets.
type Transport string

const (
	TransportTCP   Transport = "tcp"
	TransportUDP   Transport = "udp"
	TransportTLS   Transport = "tls"
	TransportRaw   Transport = "raw"
	TransportL2Raw Transport = "l2raw"
)

// FuzzerData is the immutable-after-load container read from a .fuzzer
// file (spec.md §3, §6). Only subcomponents' Altered buffers change after
// load; everything else here is read-only for the lifetime of a process.
type FuzzerData struct {
	Proto                Transport `yaml:"proto"`
	TargetPort            int       `yaml:"target_port"`
	SourceIP              string    `yaml:"source_ip,omitempty"`
	SourcePort            int       `yaml:"source_port,omitempty"`
	ReceiveTimeout        float64   `yaml:"receive_timeout"`
	FailureThreshold      int       `yaml:"failure_threshold"`
	FailureTimeout        float64   `yaml:"failure_timeout"`
	ProcessorDirectory    string    `yaml:"processor_directory"`
	ShouldPerformTestRun  bool      `yaml:"should_perform_test_run"`
	MessageCollection     *MessageCollection `yaml:"message_collection"`
}
