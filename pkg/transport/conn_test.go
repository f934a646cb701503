// Copyright 2024 mutiny project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package transport

import (
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cisco-talos/mutiny/pkg/fuzzdata"
)

func TestTCPSendReceive(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	host, portStr, _ := net.SplitHostPort(ln.Addr().String())
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn, err := ln.Accept()
		require.NoError(t, err)
		defer conn.Close()
		buf := make([]byte, 2)
		n, _ := conn.Read(buf)
		conn.Write(buf[:n])
	}()

	c, err := Open(fuzzdata.TransportTCP, host, port, "", 0, 7)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Send([]byte{0x01, 0x02}, time.Second))
	got, err := c.Receive(2, time.Second)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02}, got)
	<-done
}

func TestTCPConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	host, portStr, _ := net.SplitHostPort(ln.Addr().String())
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	ln.Close() // free the port so nothing is listening there anymore

	_, err = Open(fuzzdata.TransportTCP, host, port, "", 0, -1)
	assert.Error(t, err)
}
