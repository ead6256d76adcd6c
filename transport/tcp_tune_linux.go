// File: transport/tcp_tune_linux.go
// Package transport: Linux socket tuning for the RPC-over-WebSocket path.
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

//go:build linux

package transport

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// tuneLowLatency disables Nagle's algorithm on conn's underlying socket.
// River multiplexes many small frames per connection; batching them at the
// TCP layer would add latency with no throughput benefit. Non-TCP or
// non-syscall.Conn connections are left untouched.
func tuneLowLatency(conn net.Conn) error {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return nil
	}
	rc, err := sc.SyscallConn()
	if err != nil {
		return err
	}
	var sockErr error
	if err := rc.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
	}); err != nil {
		return err
	}
	return sockErr
}
