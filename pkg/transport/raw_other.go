// Copyright 2024 mutiny project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

//go:build !linux

package transport

import (
	"fmt"

	"github.com/cisco-talos/mutiny/pkg/fuzzdata"
)

// openRaw has no portable implementation: raw/l2raw transports need
// AF_PACKET, which is Linux-specific. Builds on other platforms get a
// clear TransportError instead of a link failure.
func openRaw(proto fuzzdata.Transport, host string, port int, sourceIP string, sourcePort int, seed int) (Conn, error) {
	return nil, fmt.Errorf("%w: %s transport is only supported on linux", ErrTransport, proto)
}
