// Copyright 2024 mutiny project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package transport abstracts a single transport session for one fuzz
// run (spec.md §4.3): open, send-with-timeout, receive-with-timeout,
// close. The session driver depends only on the Conn interface.
package transport

import (
	"errors"
	"time"

	"github.com/cisco-talos/mutiny/pkg/fuzzdata"
)

// Sentinel errors matching spec.md §4.3's named failure modes. They are
// wrapped with %w, so an ExceptionProcessor can match them with errors.Is.
var (
	ErrConnectionRefused  = errors.New("transport: connection refused")
	ErrConnectionTimeout  = errors.New("transport: connection timeout")
	ErrSendTimeout        = errors.New("transport: send timeout")
	ErrReceiveTimeout     = errors.New("transport: receive timeout")
	ErrTransport          = errors.New("transport: transport error")
)

// Conn is one opened session to the target, valid for exactly one run.
type Conn interface {
	// Send blocks up to timeout; a partial write before the deadline is
	// still reported as ErrSendTimeout.
	Send(data []byte, timeout time.Duration) error
	// Receive returns up to expectedLen bytes, or whatever arrived by
	// timeout, whichever comes first. A short read is not an error: the
	// core never second-guesses the processor about it (spec.md §4.3).
	Receive(expectedLen int, timeout time.Duration) ([]byte, error)
	// Close is idempotent and always called on run exit.
	Close() error
}

// Dialer opens a new Conn for a single run. seed threads through purely
// to let implementations reproducibly pick an ephemeral source port
// (spec.md §4.3).
type Dialer interface {
	Open(proto fuzzdata.Transport, host string, port int, sourceIP string, sourcePort int, seed int) (Conn, error)
}

// Open is the default entry point wiring every supported transport kind
// to its concrete Dialer.
func Open(proto fuzzdata.Transport, host string, port int, sourceIP string, sourcePort int, seed int) (Conn, error) {
	switch proto {
	case fuzzdata.TransportTCP:
		return dialStream("tcp", host, port, sourceIP, sourcePort, seed)
	case fuzzdata.TransportUDP:
		return dialPacket(host, port, sourceIP, sourcePort, seed)
	case fuzzdata.TransportTLS:
		return dialTLS(host, port, sourceIP, sourcePort, seed)
	case fuzzdata.TransportRaw, fuzzdata.TransportL2Raw:
		return openRaw(proto, host, port, sourceIP, sourcePort, seed)
	default:
		return nil, errors.New("transport: unknown proto " + string(proto))
	}
}
