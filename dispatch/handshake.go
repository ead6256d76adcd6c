// File: dispatch/handshake.go
// Package dispatch: the handshake state machine. Every connection starts
// awaiting its first frame and transitions to either running (on a valid
// HANDSHAKE_REQ control message, which gets a HandshakeResponse back) or
// rejected. A first frame that isn't a well-formed HANDSHAKE_REQ — bad
// JSON, a different control type, a missing tag — never gets a
// HandshakeResponse at all: the transport is closed directly. Nothing is
// routed to a stream or handler until running.
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/flowmux/river/protocol"
	"github.com/flowmux/river/transport"
)

// HandshakeValidator inspects a validated HandshakeRequest (protocol
// version and session-state already checked) and may still reject it,
// e.g. on missing auth metadata.
type HandshakeValidator func(ctx context.Context, req *protocol.HandshakeRequest) error

// ErrHandshakeRejected wraps the HandshakeError sent back to the client.
type ErrHandshakeRejected struct {
	Code protocol.HandshakeError
}

func (e *ErrHandshakeRejected) Error() string {
	return "handshake rejected: " + string(e.Code)
}

// performHandshake reads exactly one frame from t, validates it as a
// HandshakeRequest, and sends back a HandshakeResponse. It returns the
// freshly minted session id, the client's own claimed peer id (echoed
// back as "to" on every subsequent outbound frame), and the seq value
// the connection's next outbound frame should use, on success.
//
// A first frame that isn't a well-formed, HANDSHAKE_REQ-tagged control
// message never gets a HandshakeResponse: the wire contract promises a
// response only once a real handshake request has been decoded, so
// anything else — malformed JSON, a different control type entirely —
// closes the transport with no reply.
func performHandshake(
	ctx context.Context,
	t transport.Transport,
	codec protocol.DynCodec,
	validator HandshakeValidator,
	logger *slog.Logger,
) (sessionID, peerID string, nextSeq int32, err error) {
	raw, err := t.Recv(ctx)
	if err != nil {
		return "", "", 0, err
	}

	controlType, err := protocol.ProbeControlType(codec, raw)
	if err != nil || controlType != protocol.ControlTypeHandshakeReq {
		logger.Warn("closing connection: first frame is not a handshake request", "error", err, "type", controlType)
		_ = t.Close()
		return "", "", 0, errors.New("first frame was not a HANDSHAKE_REQ control message")
	}

	var req protocol.HandshakeRequest
	if err := codec.DecodeValue(raw, &req); err != nil {
		logger.Warn("closing connection: malformed handshake request", "error", err)
		_ = t.Close()
		return "", "", 0, err
	}

	if len(req.Metadata) > 0 && !json.Valid(req.Metadata) {
		seq := int32(1)
		_ = sendHandshakeRejection(ctx, t, codec, req.From, seq, protocol.HandshakeErrMalformedMeta)
		return "", "", 0, &ErrHandshakeRejected{Code: protocol.HandshakeErrMalformedMeta}
	}

	if !req.ProtocolVersion.Supported() {
		logger.Warn("handshake rejected: unsupported protocol version", "version", req.ProtocolVersion)
		seq := int32(1)
		_ = sendHandshakeRejection(ctx, t, codec, req.From, seq, protocol.HandshakeErrProtocolVersionMismatch)
		return "", "", 0, &ErrHandshakeRejected{Code: protocol.HandshakeErrProtocolVersionMismatch}
	}

	// This server core never resumes sessions across reconnects: a
	// client claiming "resumed" state can never be satisfied.
	if req.ExpectedSessionState != protocol.ExpectedSessionStateNew {
		seq := int32(1)
		_ = sendHandshakeRejection(ctx, t, codec, req.From, seq, protocol.HandshakeErrSessionStateMismatch)
		return "", "", 0, &ErrHandshakeRejected{Code: protocol.HandshakeErrSessionStateMismatch}
	}

	if validator != nil {
		if err := validator(ctx, &req); err != nil {
			logger.Info("handshake rejected by custom validator", "error", err)
			seq := int32(1)
			_ = sendHandshakeRejection(ctx, t, codec, req.From, seq, protocol.HandshakeErrRejectedByHandler)
			return "", "", 0, &ErrHandshakeRejected{Code: protocol.HandshakeErrRejectedByHandler}
		}
	}

	sessionID, err = protocol.NewID()
	if err != nil {
		return "", "", 0, errors.New("failed to mint session id: " + err.Error())
	}
	streamID, err := protocol.NewID()
	if err != nil {
		return "", "", 0, errors.New("failed to mint handshake stream id: " + err.Error())
	}
	id, err := protocol.NewID()
	if err != nil {
		return "", "", 0, errors.New("failed to mint handshake response id: " + err.Error())
	}

	const firstSeq = int32(1)
	resp := protocol.HandshakeResponse{
		HeaderID: protocol.HeaderID{ID: id, From: "SERVER", To: req.From, Seq: firstSeq, StreamID: streamID},
		Type:     protocol.ControlTypeHandshakeResp,
		Ok:       true,
		Status:   &protocol.HandshakeResponseOk{SessionID: sessionID},
	}
	data, err := codec.EncodeValue(resp)
	if err != nil {
		return "", "", 0, err
	}
	if err := t.Send(ctx, data); err != nil {
		return "", "", 0, err
	}

	logger.Info("handshake accepted", "sessionId", sessionID)
	return sessionID, req.From, firstSeq + 1, nil
}

func sendHandshakeRejection(ctx context.Context, t transport.Transport, codec protocol.DynCodec, to string, seq int32, code protocol.HandshakeError) error {
	id, err := protocol.NewID()
	if err != nil {
		return err
	}
	resp := protocol.HandshakeResponse{
		HeaderID: protocol.HeaderID{ID: id, From: "SERVER", To: to, Seq: seq},
		Type:     protocol.ControlTypeHandshakeResp,
		Ok:       false,
		Error:    code,
	}
	data, err := codec.EncodeValue(resp)
	if err != nil {
		return err
	}
	return t.Send(ctx, data)
}
