// File: transport/gwstransport.go
// Package transport: default Transport backed by github.com/gorilla/websocket.
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// GorillaTransport wraps a gorilla/websocket connection.
type GorillaTransport struct {
	conn *websocket.Conn
}

// Upgrade promotes an HTTP request to a GorillaTransport. The HTTP
// upgrade itself stays the caller's concern; this only wires the result
// into the Transport interface the dispatcher consumes.
func Upgrade(w http.ResponseWriter, r *http.Request) (*GorillaTransport, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	_ = tuneLowLatency(conn.UnderlyingConn())
	return &GorillaTransport{conn: conn}, nil
}

// Recv reads the next binary or text message.
func (t *GorillaTransport) Recv(ctx context.Context) ([]byte, error) {
	if dl, ok := ctx.Deadline(); ok {
		_ = t.conn.SetReadDeadline(dl)
	}
	_, data, err := t.conn.ReadMessage()
	return data, err
}

// Send writes data as a single binary message.
func (t *GorillaTransport) Send(ctx context.Context, data []byte) error {
	if dl, ok := ctx.Deadline(); ok {
		_ = t.conn.SetWriteDeadline(dl)
	}
	return t.conn.WriteMessage(websocket.BinaryMessage, data)
}

// Close closes the underlying connection.
func (t *GorillaTransport) Close() error {
	return t.conn.Close()
}
