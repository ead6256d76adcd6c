// File: transport/transport.go
// Package transport defines the duplex binary-frame channel the
// dispatcher reads and writes; producing one (the HTTP → WebSocket
// upgrade) is an external concern, handled by Upgrade in gwstransport.go.
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import "context"

// Transport is an already-upgraded duplex binary frame channel.
type Transport interface {
	// Recv blocks for the next inbound message, or returns an error once
	// the peer closes the connection or ctx is done.
	Recv(ctx context.Context) ([]byte, error)
	// Send writes one outbound message.
	Send(ctx context.Context, data []byte) error
	// Close tears down the underlying connection.
	Close() error
}
