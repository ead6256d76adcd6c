// File: dispatch/conn.go
// Package dispatch: the per-connection event loop. It owns the stream
// table exclusively — nothing outside this goroutine ever reads or
// writes it — and fans inbound frames out to invocation tasks on the
// shared executor while multiplexing every stream's outbound messages
// back through a single lock-free queue.
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package dispatch

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/flowmux/river/api"
	"github.com/flowmux/river/internal/concurrency"
	"github.com/flowmux/river/protocol"
	"github.com/flowmux/river/transport"
)

// connection drives one transport's full multiplexed lifetime after a
// successful handshake.
type connection struct {
	ctx       context.Context
	srv       *Server
	t         transport.Transport
	sessionID string
	// peerID is the "from" identifier the client claimed in its
	// handshake request; every outbound frame addresses it as "to".
	peerID string

	// streams is owned solely by run()'s goroutine.
	streams map[string]*streamState

	// nextSeq hands out this connection's outbound seq numbers. It picks
	// up where the handshake response left off, so the full sequence
	// of frames sent on a connection — handshake response included —
	// is contiguous starting at 1. sendPayload runs concurrently from
	// executor worker goroutines, so allocation is atomic.
	nextSeq atomic.Int32

	outboundQueue *concurrency.LockFreeQueue[[]byte]
	outboundWake  chan struct{}
	streamDone    chan string
}

func newConnection(ctx context.Context, srv *Server, t transport.Transport, sessionID, peerID string, nextSeq int32) *connection {
	c := &connection{
		ctx:           ctx,
		srv:           srv,
		t:             t,
		sessionID:     sessionID,
		peerID:        peerID,
		streams:       make(map[string]*streamState),
		outboundQueue: concurrency.NewLockFreeQueue[[]byte](srv.cfg.ChannelCapacity),
		outboundWake:  make(chan struct{}, 1),
		streamDone:    make(chan string, srv.cfg.ChannelCapacity),
	}
	c.nextSeq.Store(nextSeq - 1)
	return c
}

// allocSeq returns the next outbound seq value for this connection.
func (c *connection) allocSeq() int32 { return c.nextSeq.Add(1) }

// run is the event loop. It returns when the transport errors, the
// context is cancelled, or an unrecoverable send error occurs.
func (c *connection) run() error {
	inboundCh := make(chan []byte)
	inboundErrCh := make(chan error, 1)
	go func() {
		for {
			data, err := c.t.Recv(c.ctx)
			if err != nil {
				inboundErrCh <- err
				return
			}
			select {
			case inboundCh <- data:
			case <-c.ctx.Done():
				return
			}
		}
	}()

	var heartbeatC <-chan time.Time
	if c.srv.cfg.HeartbeatInterval > 0 {
		ticker := time.NewTicker(c.srv.cfg.HeartbeatInterval)
		defer ticker.Stop()
		heartbeatC = ticker.C
	}

	for {
		select {
		case <-c.ctx.Done():
			c.forceCloseStreams()
			return c.ctx.Err()
		case err := <-inboundErrCh:
			c.forceCloseStreams()
			return err
		case raw := <-inboundCh:
			if err := c.handleInbound(raw); err != nil {
				return err
			}
		case <-heartbeatC:
			c.sendHeartbeat()
		case id := <-c.streamDone:
			delete(c.streams, id)
		case <-c.outboundWake:
			if err := c.drainOutbound(); err != nil {
				return err
			}
		}
	}
}

// forceCloseStreams drains the entire stream table, delivering an
// InboundForceClose event to every open stream before the event loop
// exits — the socket is gone, so no stream will ever see a graceful
// close-flagged frame for itself.
func (c *connection) forceCloseStreams() {
	for id, st := range c.streams {
		st.closeInbound(api.InboundForceClose)
		delete(c.streams, id)
	}
}

// handleInbound peeks a frame's header and only pays for a full payload
// decode once it knows the frame isn't a bare heartbeat ack. Routing is
// stream-table-membership-first: a frame naming a stream already in the
// table is always a continuation of that stream, even if it happens to
// carry Init-shaped metadata — only a frame for an unknown stream id can
// open a new one.
func (c *connection) handleInbound(raw []byte) error {
	var peek protocol.HeaderID
	if err := c.srv.codec.DecodeValue(raw, &peek); err != nil {
		c.srv.logger.Warn("dropping frame with malformed header", "error", err)
		return nil
	}
	if protocol.IsHeartbeat(peek.ControlFlags) {
		return nil
	}

	var msg protocol.IncomingMessage
	if err := c.srv.codec.DecodeValue(raw, &msg); err != nil {
		c.srv.logger.Warn("dropping frame with malformed body", "streamId", peek.StreamID, "error", err)
		return nil
	}

	if st, ok := c.streams[msg.StreamID]; ok {
		return c.continueStream(msg, st)
	}
	if msg.Request.Init != nil {
		if !protocol.ShouldOpenStream(msg.ControlFlags) {
			c.srv.logger.Debug("dropping init frame without stream-open control bits", "streamId", msg.StreamID)
			return nil
		}
		return c.openStream(msg)
	}
	c.srv.logger.Debug("dropping frame for unknown stream with no init metadata", "streamId", msg.StreamID)
	return nil
}

// openStream routes an Init frame to the named service/procedure and
// schedules its invocation on the executor.
func (c *connection) openStream(msg protocol.IncomingMessage) error {
	if msg.Request.Init == nil {
		c.srv.logger.Warn("stream-open frame missing init metadata", "streamId", msg.StreamID)
		return nil
	}

	svc, ok := c.srv.services[msg.Request.Init.Service]
	if !ok {
		c.sendTerminalError(msg.StreamID, fmt.Sprintf("unknown service %q", msg.Request.Init.Service))
		return nil
	}
	handler, pattern, ok := svc.Procedure(msg.Request.Init.Procedure)
	if !ok {
		c.sendTerminalError(msg.StreamID, fmt.Sprintf("unknown procedure %q", msg.Request.Init.Procedure))
		return nil
	}

	invCtx, cancel := context.WithCancel(c.ctx)
	st := newStreamState(msg.StreamID, pattern, cancel, c.srv.cfg.ChannelCapacity)
	c.streams[msg.StreamID] = st

	inv := api.Invocation{
		Service:   msg.Request.Init.Service,
		Procedure: msg.Request.Init.Procedure,
		Pattern:   pattern,
		StreamID:  msg.StreamID,
	}
	if st.inbound != nil {
		inv.Inbound = st.inbound
	} else {
		inv.Payload = msg.Request.Payload
	}

	streamID := msg.StreamID
	err := c.srv.executor.Submit(func() {
		emit := func(value any) error { return c.emit(streamID, value) }
		result, herr := handler.Handle(invCtx, inv, emit)
		if herr != nil {
			_ = c.sendPayload(streamID, protocol.Err[any](herr.Error(), protocol.UncaughtErrorCode), true)
		} else {
			_ = c.sendPayload(streamID, protocol.Ok(result), true)
		}
		select {
		case c.streamDone <- streamID:
		case <-c.ctx.Done():
		}
	})
	if err != nil {
		cancel()
		delete(c.streams, streamID)
		return err
	}
	return nil
}

// continueStream routes a non-opening frame to its already-registered
// stream: a payload continuation for upload/stream patterns, a cancel,
// or a close.
func (c *connection) continueStream(msg protocol.IncomingMessage, st *streamState) error {
	if msg.ControlFlags&protocol.ControlCancel != 0 {
		st.cancel()
	}

	if protocol.ShouldCloseStream(msg.ControlFlags) {
		st.closeInbound(api.InboundClose)
		delete(c.streams, msg.StreamID)
		return nil
	}

	if st.inbound != nil && len(msg.Request.Payload) > 0 {
		select {
		case st.inbound <- api.InboundEvent{Kind: api.InboundPayload, Payload: msg.Request.Payload}:
		case <-c.ctx.Done():
			return c.ctx.Err()
		}
	}
	return nil
}

// emit sends one non-terminal result for an in-flight invocation.
func (c *connection) emit(streamID string, value any) error {
	return c.sendPayload(streamID, protocol.Ok(value), false)
}

// sendTerminalError sends a single UNCAUGHT_ERROR result and forgets the
// stream; used for routing failures discovered before any invocation
// task is scheduled.
func (c *connection) sendTerminalError(streamID, message string) {
	_ = c.sendPayload(streamID, protocol.Err[any](message, protocol.UncaughtErrorCode), true)
	delete(c.streams, streamID)
}

func (c *connection) sendPayload(streamID string, result any, terminal bool) error {
	payload, err := c.srv.codec.EncodeValue(result)
	if err != nil {
		return err
	}
	var control int32
	if terminal {
		control = protocol.ControlClose
	}
	id, err := protocol.NewID()
	if err != nil {
		return err
	}
	out := protocol.OutgoingMessage{
		HeaderID: protocol.HeaderID{
			ID: id, From: "SERVER", To: c.peerID,
			Seq: c.allocSeq(), StreamID: streamID, ControlFlags: control,
		},
		Payload: payload,
	}
	data, err := c.srv.codec.EncodeValue(out)
	if err != nil {
		return err
	}
	c.enqueueOutbound(data)
	return nil
}

func (c *connection) sendHeartbeat() {
	id, err := protocol.NewID()
	if err != nil {
		c.srv.logger.Error("failed to mint heartbeat id", "error", err)
		return
	}
	out := protocol.OutgoingMessage{
		HeaderID: protocol.HeaderID{
			ID: id, From: "SERVER", To: c.peerID,
			Seq: c.allocSeq(), StreamID: protocol.HeartbeatStreamID, ControlFlags: protocol.ControlAck,
		},
	}
	data, err := c.srv.codec.EncodeValue(out)
	if err != nil {
		c.srv.logger.Error("failed to encode heartbeat", "error", err)
		return
	}
	c.enqueueOutbound(data)
}

func (c *connection) enqueueOutbound(data []byte) {
	for !c.outboundQueue.Enqueue(data) {
		runtime.Gosched()
	}
	select {
	case c.outboundWake <- struct{}{}:
	default:
	}
}

func (c *connection) drainOutbound() error {
	for {
		data, ok := c.outboundQueue.Dequeue()
		if !ok {
			return nil
		}
		if err := c.t.Send(c.ctx, data); err != nil {
			return err
		}
	}
}
