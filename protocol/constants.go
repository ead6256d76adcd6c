// File: protocol/constants.go
// Package protocol implements the River v2.0 wire format: frame bits,
// control-flag semantics, and the typed messages layered on top of them.
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package protocol

// River control-flag bits carried in every frame's Header.ControlFlags
// field. The wire type is a signed 32-bit integer even though only the
// low 5 bits are defined, matching the reference protocol's control_flags.
const (
	ControlAck        int32 = 0b00001
	ControlStreamOpen int32 = 0b00010
	ControlCancel     int32 = 0b00100
	ControlClose      int32 = 0b01000
	ControlReserved   int32 = 0b10000
)

// ShouldOpenStream reports whether a frame's control bits open a new
// stream-table entry: the stream-open bit set and the close bit clear.
func ShouldOpenStream(control int32) bool {
	return control&0b01010 == ControlStreamOpen
}

// ShouldCloseStream reports whether a frame's control bits close an
// existing stream-table entry.
func ShouldCloseStream(control int32) bool {
	return control&ControlClose != 0
}

// IsHeartbeat reports whether a frame is a bare ack carrying no stream
// lifecycle change — the shape the heartbeat ticker emits.
func IsHeartbeat(control int32) bool {
	return control&ControlAck != 0 && control&(ControlStreamOpen|ControlClose) == 0
}

// HeartbeatStreamID is the literal stream id heartbeat frames carry; it
// never names a real entry in the stream table.
const HeartbeatStreamID = "heartbeat"
