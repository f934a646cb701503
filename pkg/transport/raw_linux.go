// Copyright 2024 mutiny project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

//go:build linux

package transport

import (
	"encoding/binary"
	"fmt"
	"math/rand"
	"net"
	"time"

	"golang.org/x/sys/unix"

	"github.com/cisco-talos/mutiny/pkg/fuzzdata"
)

// rawConn is a raw/l2raw transport session. Like the teacher's
// memfd/mmap helper in pkg/osutil, it talks to the kernel directly via
// golang.org/x/sys/unix rather than through net.Conn, because raw and
// l2raw transports bypass kernel framing entirely (spec.md §4.3): raw
// sends whole IP datagrams, l2raw sends whole Ethernet frames.
type rawConn struct {
	fd       int
	deadline time.Time
}

func openRaw(proto fuzzdata.Transport, host string, port int, sourceIP string, sourcePort int, seed int) (Conn, error) {
	domain := unix.AF_PACKET
	typ := unix.SOCK_RAW
	protoNum := int(htons(unix.ETH_P_ALL))
	if proto == fuzzdata.TransportRaw {
		// Whole-IP-datagram mode: still AF_PACKET under the hood so we
		// don't need CAP_NET_RAW plumbing through net.IPConn, but callers
		// are expected to have already framed an IP header themselves.
		protoNum = int(htons(unix.ETH_P_IP))
	}
	fd, err := unix.Socket(domain, typ, protoNum)
	if err != nil {
		return nil, fmt.Errorf("%w: socket: %v", ErrTransport, err)
	}
	// seed reproducibly selects which bound ephemeral identifier (here,
	// the SO_MARK) accompanies the session, purely for traceability —
	// raw sockets have no source port of their own (spec.md §4.3).
	if seed >= 0 {
		rnd := rand.New(rand.NewSource(int64(seed)))
		_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_MARK, rnd.Intn(1<<16))
	}
	iface, err := net.InterfaceByName(defaultRawInterface(host))
	if err == nil {
		addr := &unix.SockaddrLinklayer{Protocol: uint16(protoNum), Ifindex: iface.Index}
		if err := unix.Bind(fd, addr); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("%w: bind: %v", ErrTransport, err)
		}
	}
	return &rawConn{fd: fd}, nil
}

// defaultRawInterface is a best-effort guess; real deployments are
// expected to configure the outbound interface via source_ip routing.
// Returning "" makes InterfaceByName fail, and openRaw simply skips the
// bind in that case.
func defaultRawInterface(string) string { return "" }

func htons(v uint16) uint16 {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return binary.LittleEndian.Uint16(b)
}

func (c *rawConn) Send(data []byte, timeout time.Duration) error {
	if timeout > 0 {
		tv := unix.NsecToTimeval(timeout.Nanoseconds())
		_ = unix.SetsockoptTimeval(c.fd, unix.SOL_SOCKET, unix.SO_SNDTIMEO, &tv)
	}
	_, err := unix.Write(c.fd, data)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return ErrSendTimeout
		}
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return nil
}

func (c *rawConn) Receive(expectedLen int, timeout time.Duration) ([]byte, error) {
	if expectedLen <= 0 {
		expectedLen = 65536
	}
	if timeout > 0 {
		tv := unix.NsecToTimeval(timeout.Nanoseconds())
		_ = unix.SetsockoptTimeval(c.fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv)
	}
	buf := make([]byte, expectedLen)
	n, err := unix.Read(c.fd, buf)
	if n > 0 {
		return buf[:n], nil
	}
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return nil, ErrReceiveTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return buf[:n], nil
}

func (c *rawConn) Close() error {
	if c.fd == 0 {
		return nil
	}
	err := unix.Close(c.fd)
	c.fd = 0
	return err
}
