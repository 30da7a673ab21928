package session

import (
	"context"

	"github.com/scribeworks/scribe/pkg/logger"
	"github.com/scribeworks/scribe/pkg/protocol"
)

// SendChunked transmits one logical payload: splits it under the transport
// ceiling, sends every BODY frame in index order, waits until each one has
// been acknowledged, then seals the request with END. END is never sent
// while the acknowledgment count is short; a missing ack blocks here until
// the caller's context gives up.
//
// Only one chunked send may be in flight per session; a concurrent call
// fails fast with ErrSessionBusy.
func (s *Session) SendChunked(ctx context.Context, payload string, token string) error {
	s.mu.Lock()
	if s.sending {
		s.mu.Unlock()
		return ErrSessionBusy
	}
	s.sending = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.sending = false
		s.mu.Unlock()
	}()

	chunks := protocol.SplitChunks(payload)
	logger.Debug("sending payload of %d chars in %d parts", len(payload), len(chunks))

	for i, chunk := range chunks {
		if err := s.Send(ctx, protocol.NewBodyEnvelope(i, chunk)); err != nil {
			return err
		}
	}

	for acked := 0; acked < len(chunks); {
		raw, err := s.Receive(ctx)
		if err != nil {
			return err
		}

		frame, ok := protocol.Classify(raw).(protocol.AckFrame)
		if !ok || frame.Marker != protocol.PartReceivedAck {
			return &UnexpectedFrameError{Raw: raw}
		}
		acked++
	}

	return s.Send(ctx, protocol.NewEndEnvelope(token))
}
