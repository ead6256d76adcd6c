// File: dispatch/options.go
// Package dispatch: functional options for Server construction, mirroring
// the teacher's ServerOption func(*Server) convention.
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package dispatch

import (
	"log/slog"
	"time"
)

// ServerOption customizes a Server at construction time.
type ServerOption func(*Server)

// WithHeartbeatInterval overrides Config.HeartbeatInterval. Zero disables
// the heartbeat ticker entirely.
func WithHeartbeatInterval(d time.Duration) ServerOption {
	return func(s *Server) { s.cfg.HeartbeatInterval = d }
}

// WithChannelCapacity overrides Config.ChannelCapacity, the size of each
// connection's outbound queue and per-stream inbound buffer.
func WithChannelCapacity(n int) ServerOption {
	return func(s *Server) { s.cfg.ChannelCapacity = n }
}

// WithWorkers overrides Config.Workers, the size of the invocation
// executor's worker pool.
func WithWorkers(n int) ServerOption {
	return func(s *Server) { s.cfg.Workers = n }
}

// WithLogger injects a *slog.Logger; without it the Server logs through a
// slog text handler writing to os.Stderr.
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = l }
}

// WithHandshakeValidator installs a hook invoked after protocol-version
// and session-state checks pass; returning an error rejects the
// handshake with REJECTED_BY_CUSTOM_HANDLER.
func WithHandshakeValidator(fn HandshakeValidator) ServerOption {
	return func(s *Server) { s.handshakeValidator = fn }
}
