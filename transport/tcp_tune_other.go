// File: transport/tcp_tune_other.go
// Package transport: non-Linux fallback socket tuning.
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

//go:build !linux

package transport

import "net"

// tuneLowLatency disables Nagle's algorithm via the standard library on
// platforms where golang.org/x/sys/unix's socket-option path isn't used.
func tuneLowLatency(conn net.Conn) error {
	if tc, ok := conn.(*net.TCPConn); ok {
		return tc.SetNoDelay(true)
	}
	return nil
}
