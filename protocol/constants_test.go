package protocol_test

import (
	"testing"

	"github.com/flowmux/river/protocol"
)

func TestShouldOpenStream(t *testing.T) {
	cases := []struct {
		control int32
		want    bool
	}{
		{protocol.ControlStreamOpen, true},
		{protocol.ControlStreamOpen | protocol.ControlAck, true},
		{protocol.ControlStreamOpen | protocol.ControlClose, false},
		{protocol.ControlClose, false},
		{protocol.ControlAck, false},
		{0, false},
	}
	for _, c := range cases {
		if got := protocol.ShouldOpenStream(c.control); got != c.want {
			t.Errorf("ShouldOpenStream(%05b) = %v, want %v", c.control, got, c.want)
		}
	}
}

func TestIsHeartbeat(t *testing.T) {
	if !protocol.IsHeartbeat(protocol.ControlAck) {
		t.Error("bare ack should be a heartbeat")
	}
	if protocol.IsHeartbeat(protocol.ControlAck | protocol.ControlStreamOpen) {
		t.Error("ack combined with stream-open is not a heartbeat")
	}
}

func TestNewIDLengthAndAlphabet(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := protocol.NewID()
		if err != nil {
			t.Fatalf("NewID: %v", err)
		}
		if len(id) != 12 {
			t.Fatalf("len(id) = %d, want 12", len(id))
		}
		for _, r := range id {
			if r == 'w' || r == 'W' {
				t.Fatalf("id %q contains excluded character %q", id, r)
			}
		}
		if seen[id] {
			t.Fatalf("duplicate id generated: %q", id)
		}
		seen[id] = true
	}
}
