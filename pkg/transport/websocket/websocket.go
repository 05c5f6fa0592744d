// Package websocket carries the link byte stream over a websocket
// connection. websocket.Conn is itself an io.ReadWriter, so both link
// endpoints use it directly.
package websocket

import (
	"io"
	"net/http"

	ws "golang.org/x/net/websocket"
)

// Dial connects to a device endpoint and returns the connection as a
// binary byte stream.
func Dial(url, origin string) (*ws.Conn, error) {
	conn, err := ws.Dial(url, "", origin)
	if err != nil {
		return nil, err
	}
	conn.PayloadType = ws.BinaryFrame
	return conn, nil
}

// Handler adapts a byte-stream consumer into an http.Handler serving
// one link session per connection.
func Handler(serve func(io.ReadWriter)) http.Handler {
	return ws.Handler(func(conn *ws.Conn) {
		conn.PayloadType = ws.BinaryFrame
		serve(conn)
	})
}
