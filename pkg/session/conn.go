package session

import (
	"context"
	"fmt"

	"github.com/coder/websocket"
)

// Conn is the minimal message-oriented transport a Session runs over.
// Production code uses the websocket implementation below; tests substitute
// a scripted fake.
type Conn interface {
	// Read blocks until the next whole message arrives or the transport closes
	Read(ctx context.Context) ([]byte, error)
	// Write transmits one whole message
	Write(ctx context.Context, data []byte) error
	// Close tears the connection down; safe to call more than once
	Close() error
}

// Dialer opens a Conn to the given endpoint
type Dialer func(ctx context.Context, endpoint string) (Conn, error)

type websocketConn struct {
	ws *websocket.Conn
}

// DialWebsocket is the production Dialer
func DialWebsocket(ctx context.Context, endpoint string) (Conn, error) {
	ws, _, err := websocket.Dial(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", endpoint, err)
	}
	return &websocketConn{ws: ws}, nil
}

func (c *websocketConn) Read(ctx context.Context) ([]byte, error) {
	_, data, err := c.ws.Read(ctx)
	return data, err
}

func (c *websocketConn) Write(ctx context.Context, data []byte) error {
	return c.ws.Write(ctx, websocket.MessageText, data)
}

func (c *websocketConn) Close() error {
	return c.ws.Close(websocket.StatusNormalClosure, "")
}
