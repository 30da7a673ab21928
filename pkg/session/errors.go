package session

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by Receive once the transport has closed and the
// frame queue is drained.
var ErrClosed = errors.New("session closed")

// ErrSessionBusy is returned when a chunked send is attempted while another
// one is still in flight on the same session.
var ErrSessionBusy = errors.New("session busy: a send is already in flight")

// TransportError wraps a transport-level failure: the connection could not
// be established or died mid-exchange.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// AuthError means the Start handshake was rejected. Detail carries the raw
// server reply for diagnostics.
type AuthError struct {
	Detail string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication rejected: %s", e.Detail)
}

// UnexpectedFrameError means a non-ack frame arrived during the chunk
// handshake. The send is aborted and END is never transmitted.
type UnexpectedFrameError struct {
	Raw []byte
}

func (e *UnexpectedFrameError) Error() string {
	return fmt.Sprintf("unexpected frame during chunk handshake: %s", string(e.Raw))
}
