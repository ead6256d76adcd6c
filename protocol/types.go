// File: protocol/types.go
// Wire types for the River v2.0 session/dispatcher core: the two-phase
// header envelope, handshake messages, the RiverResult tagged union, and
// the request/response shapes routed through the stream table.
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package protocol

import "encoding/json"

// HeaderID is the minimal set of fields present on every frame, decoded
// first (the "peek" phase) so the event loop can drop a bare heartbeat ack
// before paying for a full payload decode.
type HeaderID struct {
	ID           string `json:"id" msgpack:"id"`
	From         string `json:"from" msgpack:"from"`
	To           string `json:"to" msgpack:"to"`
	Seq          int32  `json:"seq" msgpack:"seq"`
	Ack          int32  `json:"ack" msgpack:"ack"`
	StreamID     string `json:"streamId" msgpack:"streamId"`
	ControlFlags int32  `json:"controlFlags" msgpack:"controlFlags"`
}

// ControlType is the wire discriminator every control frame's payload
// carries in its "type" field.
type ControlType string

const (
	ControlTypeHandshakeReq  ControlType = "HANDSHAKE_REQ"
	ControlTypeHandshakeResp ControlType = "HANDSHAKE_RESP"
	ControlTypeAck           ControlType = "ACK"
	ControlTypeClose         ControlType = "CLOSE"
)

// controlTypeProbe decodes just enough of a control frame to read its
// type tag before committing to a specific payload shape.
type controlTypeProbe struct {
	Type ControlType `json:"type" msgpack:"type"`
}

// ProbeControlType reads a frame's "type" tag without committing to a
// specific control payload shape. It is used to tell a HANDSHAKE_REQ
// apart from anything else a client might send as its first frame.
func ProbeControlType(codec Codec, data []byte) (ControlType, error) {
	var probe controlTypeProbe
	if err := codec.DecodeValue(data, &probe); err != nil {
		return "", err
	}
	return probe.Type, nil
}

// ProtocolVersion identifies the River wire revision a client negotiates
// during handshake. Unknown values pass through verbatim so the server
// can reject them explicitly rather than fail to parse the handshake.
type ProtocolVersion string

const (
	ProtocolVersionV0  ProtocolVersion = "v0"
	ProtocolVersionV1  ProtocolVersion = "v1"
	ProtocolVersionV11 ProtocolVersion = "v1.1"
	ProtocolVersionV2  ProtocolVersion = "v2.0"
)

// Supported reports whether this server core serves the given version.
func (v ProtocolVersion) Supported() bool {
	return v == ProtocolVersionV2
}

// ExpectedSessionState is the client's claim, at handshake time, about
// whether it believes it holds live server-side state from a prior
// connection. This server core never resumes sessions across reconnects;
// the claim is only used to pick a rejection code when it can't be true.
type ExpectedSessionState string

const (
	ExpectedSessionStateNew     ExpectedSessionState = "new"
	ExpectedSessionStateResumed ExpectedSessionState = "resumed"
)

// HandshakeError enumerates the reasons a handshake can be rejected.
type HandshakeError string

const (
	HandshakeErrSessionStateMismatch    HandshakeError = "SESSION_STATE_MISMATCH"
	HandshakeErrMalformedMeta           HandshakeError = "MALFORMED_HANDSHAKE_META"
	HandshakeErrMalformed               HandshakeError = "MALFORMED_HANDSHAKE"
	HandshakeErrProtocolVersionMismatch HandshakeError = "PROTOCOL_VERSION_MISMATCH"
	HandshakeErrRejectedByHandler       HandshakeError = "REJECTED_BY_CUSTOM_HANDLER"
)

// HandshakeRequest is the first message a client must send; the event
// loop routes nothing else until this succeeds or is rejected. On the
// wire it is a Control frame tagged "HANDSHAKE_REQ".
type HandshakeRequest struct {
	HeaderID
	Type                 ControlType          `json:"type" msgpack:"type"`
	ProtocolVersion      ProtocolVersion      `json:"protocolVersion" msgpack:"protocolVersion"`
	ExpectedSessionState ExpectedSessionState `json:"expectedSessionState" msgpack:"expectedSessionState"`
	Metadata             json.RawMessage      `json:"metadata,omitempty" msgpack:"metadata,omitempty"`
}

// HandshakeResponseOk is the payload of a successful handshake response.
type HandshakeResponseOk struct {
	SessionID string `json:"sessionId" msgpack:"sessionId"`
}

// HandshakeResponse is sent back on both acceptance and rejection; Status
// is set only when Ok, Error only when not Ok. On the wire it is a
// Control frame tagged "HANDSHAKE_RESP".
type HandshakeResponse struct {
	HeaderID
	Type   ControlType          `json:"type" msgpack:"type"`
	Ok     bool                 `json:"ok" msgpack:"ok"`
	Status *HandshakeResponseOk `json:"status,omitempty" msgpack:"status,omitempty"`
	Error  HandshakeError       `json:"error,omitempty" msgpack:"error,omitempty"`
}

// ProcedurePattern mirrors api.ProcedurePattern at the wire boundary; kept
// as a distinct type so protocol has no dependency on api.
type ProcedurePattern string

const (
	PatternRPC          ProcedurePattern = "rpc"
	PatternUpload       ProcedurePattern = "upload"
	PatternStream       ProcedurePattern = "stream"
	PatternSubscription ProcedurePattern = "subscription"
)

// RPCMetadata accompanies a request's Init frame: which procedure to
// invoke and the multiplexing shape to expect from it.
type RPCMetadata struct {
	Service   string           `json:"service" msgpack:"service"`
	Procedure string           `json:"procedure" msgpack:"procedure"`
	Pattern   ProcedurePattern `json:"pattern" msgpack:"pattern"`
}

// RequestInner distinguishes the two request-frame shapes: Init carries
// RPCMetadata and opens a stream; a bare Payload feeds an already-open
// stream (upload/stream patterns).
type RequestInner struct {
	Init    *RPCMetadata    `json:"init,omitempty" msgpack:"init,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty" msgpack:"payload,omitempty"`
}

// IncomingMessage is the second-phase decode of a client request frame,
// once HeaderID.ControlFlags has identified it as a request rather than a
// handshake or bare control frame.
type IncomingMessage struct {
	HeaderID
	Request RequestInner `json:"request" msgpack:"request"`
}

// OutgoingMessage is the envelope the dispatcher writes back through the
// transport for one stream update, terminal result, or heartbeat.
type OutgoingMessage struct {
	HeaderID
	Payload json.RawMessage `json:"payload,omitempty" msgpack:"payload,omitempty"`
}

// RiverResult is the tagged-union envelope wrapping every RPC response
// payload. On the wire, a successful result flattens T's own fields
// alongside "ok": true; a failed result carries only ok/message/code. See
// MarshalJSON/UnmarshalJSON for the flattening logic.
type RiverResult[T any] struct {
	Ok      bool
	Message string
	Code    string
	Value   T
}

// Ok builds a successful RiverResult wrapping value.
func Ok[T any](value T) RiverResult[T] {
	return RiverResult[T]{Ok: true, Value: value}
}

// Err builds a failed RiverResult carrying message and code.
func Err[T any](message, code string) RiverResult[T] {
	return RiverResult[T]{Ok: false, Message: message, Code: code}
}

// riverResultEnvelope is the non-generic wire shape used for the failure
// branch, where there is no T to flatten.
type riverResultEnvelope struct {
	Ok      bool   `json:"ok" msgpack:"ok"`
	Message string `json:"message,omitempty" msgpack:"message,omitempty"`
	Code    string `json:"code,omitempty" msgpack:"code,omitempty"`
}

// MarshalJSON flattens Value's fields into the same object as "ok" when
// Ok is true; Go generics can't express that flattening at the struct
// level, so it goes through a decode-into-map round trip instead.
func (r RiverResult[T]) MarshalJSON() ([]byte, error) {
	if !r.Ok {
		return json.Marshal(riverResultEnvelope{Ok: false, Message: r.Message, Code: r.Code})
	}
	valueBytes, err := json.Marshal(r.Value)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(valueBytes, &fields); err != nil || fields == nil {
		// Value isn't a JSON object (scalar, array, nil); nest it.
		fields = map[string]json.RawMessage{"result": valueBytes}
	}
	fields["ok"] = json.RawMessage("true")
	return json.Marshal(fields)
}

// UnmarshalJSON reads the "ok" discriminator and, when true, decodes the
// remaining flattened fields straight into Value (unknown fields such as
// "ok" are ignored by encoding/json).
func (r *RiverResult[T]) UnmarshalJSON(data []byte) error {
	var probe riverResultEnvelope
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	r.Ok = probe.Ok
	if !probe.Ok {
		r.Message = probe.Message
		r.Code = probe.Code
		return nil
	}
	return json.Unmarshal(data, &r.Value)
}

// UncaughtErrorCode is the Code RiverResult carries when a Handler
// returns a plain Go error rather than an explicit River failure.
const UncaughtErrorCode = "UNCAUGHT_ERROR"
