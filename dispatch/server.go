// File: dispatch/server.go
// Package dispatch implements the River v2.0 server core: the handshake
// engine, per-connection event loop, stream table, and heartbeat ticker
// described in the protocol package's wire types.
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/flowmux/river/api"
	"github.com/flowmux/river/internal/concurrency"
	"github.com/flowmux/river/internal/session"
	"github.com/flowmux/river/protocol"
	"github.com/flowmux/river/transport"
)

// Server dispatches frames from one or more transports to registered
// ServiceHandlers. One Server can serve many concurrent connections.
type Server struct {
	cfg                Config
	logger             *slog.Logger
	codec              protocol.DynCodec
	services           map[string]api.ServiceHandler
	sessions           session.SessionManager
	executor           *concurrency.Executor
	handshakeValidator HandshakeValidator
}

// NewServer constructs a Server serving the given ServiceHandlers.
func NewServer(cfg Config, services []api.ServiceHandler, opts ...ServerOption) (*Server, error) {
	s := &Server{
		cfg:      cfg,
		logger:   slog.New(slog.NewTextHandler(os.Stderr, nil)),
		services: make(map[string]api.ServiceHandler, len(services)),
		sessions: session.NewSessionManager(16),
	}
	for _, svc := range services {
		s.services[svc.Description()] = svc
	}
	for _, opt := range opts {
		opt(s)
	}
	s.codec = protocol.NewDynCodec(s.cfg.Codec)
	s.executor = concurrency.NewExecutor(s.cfg.Workers, -1)
	return s, nil
}

// Close stops accepting new invocations and waits for in-flight ones to
// finish.
func (s *Server) Close() {
	s.executor.Close()
}

// ServeTransport runs one connection's full lifecycle — handshake, then
// the multiplexed event loop — until the transport or ctx closes. clientID
// identifies the connection in the server's session registry; callers
// typically derive it from the upgrade request (remote addr, auth token).
func (s *Server) ServeTransport(ctx context.Context, clientID string, t transport.Transport) error {
	sess, err := s.sessions.Create(clientID)
	if err != nil {
		return fmt.Errorf("register session: %w", err)
	}
	defer s.sessions.Delete(clientID)

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-sess.Done():
			cancel()
		case <-connCtx.Done():
		}
	}()

	sessionID, peerID, nextSeq, err := performHandshake(connCtx, t, s.codec, s.handshakeValidator, s.logger)
	if err != nil {
		return fmt.Errorf("handshake: %w", err)
	}

	c := newConnection(connCtx, s, t, sessionID, peerID, nextSeq)
	return c.run()
}
