// File: internal/session/doc.go
// Package session
// Author: momentics <momentics@gmail.com>
//
// Registry of live connections, keyed by client id, with explicit
// cancellation and optional deadlines. The dispatcher uses it to look up
// a connection's cancellation signal from outside its event loop (for
// example, an admin shutdown); the stream table itself stays owned
// exclusively by the event loop goroutine.
package session
