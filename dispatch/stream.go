// File: dispatch/stream.go
// Package dispatch: the per-connection stream table. It is a plain map
// owned exclusively by the event loop goroutine (see conn.go) — no
// locking is needed because nothing outside that goroutine ever touches
// it.
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package dispatch

import (
	"context"

	"github.com/flowmux/river/api"
)

// streamState is the event loop's record of one open stream.
type streamState struct {
	id      string
	pattern api.ProcedurePattern
	cancel  context.CancelFunc
	// inbound carries successive InboundEvents for upload/stream
	// patterns; nil for rpc/subscription, which take their entire input
	// from the Init frame.
	inbound chan api.InboundEvent
}

func newStreamState(id string, pattern api.ProcedurePattern, cancel context.CancelFunc, chanCapacity int) *streamState {
	s := &streamState{id: id, pattern: pattern, cancel: cancel}
	if pattern == api.PatternUpload || pattern == api.PatternStream {
		s.inbound = make(chan api.InboundEvent, chanCapacity)
	}
	return s
}

// closeInbound delivers the terminal event for this stream's inbound
// channel, if it has one, then closes it. Safe to call at most once per
// stream; callers remove the stream from the table in the same step.
func (s *streamState) closeInbound(kind api.InboundKind) {
	if s.inbound == nil {
		return
	}
	select {
	case s.inbound <- api.InboundEvent{Kind: kind}:
	default:
		// A full buffer means the handler isn't reading (already
		// returned, or wedged); dropping the signal here is preferable
		// to blocking the event loop goroutine on it.
	}
	close(s.inbound)
}
