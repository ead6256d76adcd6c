// File: transport/fake.go
// Package transport: an in-memory Transport for dispatcher tests, adapted
// from the teacher's fake.Transport (predictable, controllable Send/Recv
// with injectable errors) to this package's context-aware, blocking-Recv
// Transport interface.
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import (
	"context"
	"errors"
	"sync"
)

// ErrFakeClosed is returned by a closed Fake's Recv/Send.
var ErrFakeClosed = errors.New("fake transport is closed")

// Fake is an in-memory Transport: Send appends to Sent, and Recv drains
// a queue fed by Push, blocking until a message arrives, the transport is
// closed, or ctx is done.
type Fake struct {
	mu        sync.Mutex
	recvQueue chan []byte
	sent      [][]byte
	closed    bool
	recvErr   error
	sendErr   error
}

// NewFake creates a Fake transport with a buffered inbound queue.
func NewFake(queueCapacity int) *Fake {
	return &Fake{recvQueue: make(chan []byte, queueCapacity)}
}

// Push enqueues data to be returned by a future Recv call.
func (f *Fake) Push(data []byte) {
	cp := make([]byte, len(data))
	copy(cp, data)
	f.recvQueue <- cp
}

// Recv implements Transport.
func (f *Fake) Recv(ctx context.Context) ([]byte, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil, ErrFakeClosed
	}
	if f.recvErr != nil {
		err := f.recvErr
		f.mu.Unlock()
		return nil, err
	}
	f.mu.Unlock()

	select {
	case data, ok := <-f.recvQueue:
		if !ok {
			return nil, ErrFakeClosed
		}
		return data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Send implements Transport, recording data for later inspection via Sent.
func (f *Fake) Send(ctx context.Context, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrFakeClosed
	}
	if f.sendErr != nil {
		return f.sendErr
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	f.sent = append(f.sent, cp)
	return nil
}

// Close implements Transport and unblocks any pending Recv.
func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	close(f.recvQueue)
	return nil
}

// SetRecvError configures Recv to fail with err.
func (f *Fake) SetRecvError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recvErr = err
}

// SetSendError configures Send to fail with err.
func (f *Fake) SetSendError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendErr = err
}

// Sent returns a copy of every message recorded by Send so far.
func (f *Fake) Sent() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.sent))
	copy(out, f.sent)
	return out
}
