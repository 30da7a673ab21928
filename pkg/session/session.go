package session

import (
	"context"
	"errors"
	"sync"

	"github.com/scribeworks/scribe/pkg/logger"
	"github.com/scribeworks/scribe/pkg/protocol"
)

// State is the session lifecycle phase
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateAuthenticating
	StateReady
	StateClosed
	StateFailed
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Session owns one bidirectional transport connection and runs the chat
// protocol over it: Start handshake on connect, chunked sends, then streamed
// replies. A single reader goroutine feeds all inbound frames into one
// queue, so every suspension point (handshake ack, chunk ack, streamed
// fragment) drains the same channel instead of juggling listeners.
type Session struct {
	endpoint string
	dialer   Dialer

	mu       sync.Mutex
	state    State
	conn     Conn
	frames   chan []byte
	readStop context.CancelFunc
	sending  bool
}

// Option customizes a Session
type Option func(*Session)

// WithDialer substitutes the transport dialer (used by tests)
func WithDialer(dialer Dialer) Option {
	return func(s *Session) {
		s.dialer = dialer
	}
}

// New creates a disconnected Session for the given websocket endpoint
func New(endpoint string, opts ...Option) *Session {
	s := &Session{
		endpoint: endpoint,
		dialer:   DialWebsocket,
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State reports the current lifecycle phase
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connected reports whether the session is ready for a logical request
func (s *Session) Connected() bool {
	return s.State() == StateReady
}

// Connect opens the transport and performs the Start handshake. Any
// previously held connection is torn down first, so calling Connect twice
// never leaks a connection. The handshake succeeds only when the first
// reply frame is the literal session-started acknowledgment.
func (s *Session) Connect(ctx context.Context, token string) error {
	s.teardown(StateConnecting)

	conn, err := s.dialer(ctx, s.endpoint)
	if err != nil {
		s.setState(StateFailed)
		return &TransportError{Err: err}
	}

	readCtx, stop := context.WithCancel(context.Background())
	frames := make(chan []byte, 32)

	s.mu.Lock()
	s.conn = conn
	s.frames = frames
	s.readStop = stop
	s.state = StateAuthenticating
	s.mu.Unlock()

	go s.readLoop(readCtx, conn, frames)

	if err := s.Send(ctx, protocol.NewStartEnvelope(token)); err != nil {
		s.Fail()
		return err
	}

	reply, err := s.Receive(ctx)
	if err != nil {
		s.Fail()
		if errors.Is(err, ErrClosed) {
			return &TransportError{Err: err}
		}
		return &AuthError{Detail: err.Error()}
	}

	if frame, ok := protocol.Classify(reply).(protocol.AckFrame); !ok || frame.Marker != protocol.SessionStartedAck {
		s.Fail()
		return &AuthError{Detail: string(reply)}
	}

	s.setState(StateReady)
	logger.Debug("session ready: %s", s.endpoint)
	return nil
}

// Send transmits one outbound envelope
func (s *Session) Send(ctx context.Context, env protocol.Envelope) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()

	if conn == nil {
		return &TransportError{Err: ErrClosed}
	}

	raw, err := env.Marshal()
	if err != nil {
		return err
	}
	if err := conn.Write(ctx, raw); err != nil {
		return &TransportError{Err: err}
	}
	return nil
}

// Receive blocks until the next inbound frame arrives. It returns ErrClosed
// once the transport has closed and the queue is drained.
func (s *Session) Receive(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	frames := s.frames
	s.mu.Unlock()

	if frames == nil {
		return nil, ErrClosed
	}

	select {
	case raw, ok := <-frames:
		if !ok {
			return nil, ErrClosed
		}
		return raw, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Disconnect closes the transport. Disconnecting an already-closed session
// is a no-op.
func (s *Session) Disconnect() {
	s.teardown(StateClosed)
}

// Fail tears the session down after an unrecoverable error; the caller must
// reconnect before the next request.
func (s *Session) Fail() {
	s.teardown(StateFailed)
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Session) teardown(next State) {
	s.mu.Lock()
	conn := s.conn
	stop := s.readStop
	s.conn = nil
	s.readStop = nil
	s.sending = false
	s.state = next
	s.mu.Unlock()

	if stop != nil {
		stop()
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Debug("close after teardown: %v", err)
		}
	}
}

// readLoop is the single transport message handler. It owns the frames
// channel and closes it when the connection dies, which unblocks whichever
// suspension point is currently draining the queue.
func (s *Session) readLoop(ctx context.Context, conn Conn, frames chan []byte) {
	defer close(frames)

	for {
		raw, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() == nil {
				s.remoteClosed(conn)
			}
			return
		}
		select {
		case frames <- raw:
		case <-ctx.Done():
			return
		}
	}
}

// remoteClosed records that the peer closed the connection out from under
// us. A session whose connection was replaced in the meantime is left alone.
func (s *Session) remoteClosed(conn Conn) {
	s.mu.Lock()
	if s.conn != conn {
		s.mu.Unlock()
		return
	}
	s.conn = nil
	s.readStop = nil
	s.sending = false
	s.state = StateClosed
	s.mu.Unlock()

	if err := conn.Close(); err != nil {
		logger.Debug("close after remote close: %v", err)
	}
	logger.Debug("transport closed by peer")
}
