// Copyright 2024 mutiny project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package processor

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// MonitorConfig names which concrete monitor to stand up for a run.
// processor does not construct the monitor itself — doing so would mean
// importing pkg/monitor here just to hand back a type that package
// already owns, and a concrete monitor needs a live target log stream
// that the manifest cannot supply. The caller (cmd/mutiny-fuzz) reads
// this config and builds the monitor.Monitor with whatever stream it
// has open for the target.
type MonitorConfig struct {
	Kind    string `yaml:"kind"`
	Pattern string `yaml:"pattern"`
}

type manifest struct {
	MessageProcessor   string        `yaml:"message_processor"`
	ExceptionProcessor string        `yaml:"exception_processor"`
	Monitor            MonitorConfig `yaml:"monitor"`
}

// Bundle is everything Load assembles for one .fuzzer run.
type Bundle struct {
	Message       MessageProcessor
	Exception     ExceptionProcessor
	MonitorConfig MonitorConfig
}

type messageFactory func() MessageProcessor
type exceptionFactory func() ExceptionProcessor

var messageProcessors = map[string]messageFactory{
	"default": func() MessageProcessor { return DefaultMessageProcessor{} },
}

var exceptionProcessors = map[string]exceptionFactory{
	"default": func() ExceptionProcessor { return DefaultExceptionProcessor{} },
}

// RegisterMessageProcessor adds a named, built-in MessageProcessor that
// a processors.yaml manifest can select. Registration happens at
// program startup (design note §9: "discovery by directory can be
// replaced with explicit registration at startup") rather than by
// loading arbitrary code from the processor directory.
func RegisterMessageProcessor(name string, factory func() MessageProcessor) {
	messageProcessors[name] = factory
}

// RegisterExceptionProcessor is RegisterMessageProcessor's counterpart
// for ExceptionProcessor implementations.
func RegisterExceptionProcessor(name string, factory func() ExceptionProcessor) {
	exceptionProcessors[name] = factory
}

// Load reads <dir>/processors.yaml and resolves the named processors
// against the registries above. A missing directory, or a directory
// with no manifest, yields the identity/no-op defaults (spec.md §4.5);
// this is also what a processor_directory value of "default" in the
// .fuzzer file resolves to (spec.md §6).
func Load(dir string) (*Bundle, error) {
	b := &Bundle{
		Message:   DefaultMessageProcessor{},
		Exception: DefaultExceptionProcessor{},
	}
	if dir == "" {
		return b, nil
	}

	manifestPath := filepath.Join(dir, "processors.yaml")
	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return b, nil
		}
		return nil, fmt.Errorf("reading processor manifest %s: %w", manifestPath, err)
	}

	var m manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parsing processor manifest %s: %w", manifestPath, err)
	}

	if m.MessageProcessor != "" {
		factory, ok := messageProcessors[m.MessageProcessor]
		if !ok {
			return nil, fmt.Errorf("processor manifest %s: unknown message_processor %q", manifestPath, m.MessageProcessor)
		}
		b.Message = factory()
	}
	if m.ExceptionProcessor != "" {
		factory, ok := exceptionProcessors[m.ExceptionProcessor]
		if !ok {
			return nil, fmt.Errorf("processor manifest %s: unknown exception_processor %q", manifestPath, m.ExceptionProcessor)
		}
		b.Exception = factory()
	}
	b.MonitorConfig = m.Monitor
	return b, nil
}
