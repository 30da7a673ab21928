package testutil

import (
	"context"
	"encoding/json"
	"io"
	"sync"
)

// FakeConn is a scripted in-memory transport for session tests. Inbound
// frames are pushed with Push or produced by an OnWrite hook reacting to
// what the client sends; CloseRemote simulates the peer dropping the
// connection.
type FakeConn struct {
	mu      sync.Mutex
	inbound chan []byte
	writes  [][]byte
	closed  bool

	// OnWrite, when set, is invoked for every outbound frame. Use it to
	// script server replies like handshake and chunk acks.
	OnWrite func(conn *FakeConn, data []byte)
}

// NewFakeConn creates a fake transport with room for queued inbound frames
func NewFakeConn() *FakeConn {
	return &FakeConn{
		inbound: make(chan []byte, 64),
	}
}

// Push queues one inbound frame for the client to read
func (c *FakeConn) Push(frame string) {
	c.inbound <- []byte(frame)
}

// CloseRemote simulates the server closing the connection
func (c *FakeConn) CloseRemote() {
	close(c.inbound)
}

// Writes returns a copy of every frame the client has sent
func (c *FakeConn) Writes() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	writes := make([][]byte, len(c.writes))
	copy(writes, c.writes)
	return writes
}

// WrittenSteps decodes the step field of every outbound frame, in order
func (c *FakeConn) WrittenSteps() []string {
	var steps []string
	for _, raw := range c.Writes() {
		var frame struct {
			Step string `json:"step"`
		}
		if err := json.Unmarshal(raw, &frame); err == nil {
			steps = append(steps, frame.Step)
		}
	}
	return steps
}

// Closed reports whether the client closed the connection
func (c *FakeConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *FakeConn) Read(ctx context.Context) ([]byte, error) {
	select {
	case frame, ok := <-c.inbound:
		if !ok {
			return nil, io.EOF
		}
		return frame, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *FakeConn) Write(ctx context.Context, data []byte) error {
	c.mu.Lock()
	c.writes = append(c.writes, data)
	hook := c.OnWrite
	c.mu.Unlock()

	if hook != nil {
		hook(c, data)
	}
	return nil
}

func (c *FakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
