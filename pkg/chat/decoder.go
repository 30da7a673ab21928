package chat

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/scribeworks/scribe/pkg/logger"
	"github.com/scribeworks/scribe/pkg/protocol"
	"github.com/scribeworks/scribe/pkg/session"
)

// DecodeMode controls how the decoder treats frames that fail to parse
type DecodeMode int

const (
	// DecodeTolerant skips malformed frames and keeps consuming. Partial
	// transport frames are expected during high-throughput streaming, so
	// this is the default.
	DecodeTolerant DecodeMode = iota
	// DecodeStrict fails the stream on the first malformed frame
	DecodeStrict
)

// FrameReceiver is the decoder's view of a connected session
type FrameReceiver interface {
	Receive(ctx context.Context) ([]byte, error)
}

// Snapshot is one decoded answer snapshot. A non-nil Err is always the last
// item before the channel closes.
type Snapshot struct {
	StreamID  string
	Fragments []AnswerFragment
	Err       error
}

// Decoder consumes inbound frames from one logical request and exposes them
// as a forward-only, single-pass sequence of answer snapshots. It is not
// restartable; a new request needs a new Decoder.
type Decoder struct {
	source   FrameReceiver
	mode     DecodeMode
	streamID string
}

// NewDecoder creates a decoder for one logical request
func NewDecoder(source FrameReceiver, mode DecodeMode) *Decoder {
	return &Decoder{
		source:   source,
		mode:     mode,
		streamID: uuid.New().String(),
	}
}

// StreamID identifies this decode pass; every snapshot carries it
func (d *Decoder) StreamID() string {
	return d.streamID
}

// Stream drains frames until an explicit completion status, a fatal error,
// or transport close, sending one Snapshot per accepted answer frame. The
// channel is closed on termination; cancelling ctx stops consumption
// without an error. A transport close with no terminal frame is a clean
// end: whatever was already delivered stands as the final answer.
func (d *Decoder) Stream(ctx context.Context) <-chan Snapshot {
	snapshots := make(chan Snapshot, 8)

	go func() {
		defer close(snapshots)

		for {
			raw, err := d.source.Receive(ctx)
			if err != nil {
				if errors.Is(err, session.ErrClosed) || errors.Is(err, context.Canceled) {
					return
				}
				d.emit(ctx, snapshots, Snapshot{StreamID: d.streamID, Err: err})
				return
			}

			switch frame := protocol.Classify(raw).(type) {
			case protocol.ControlFrame, protocol.AckFrame:
				continue
			case protocol.CompleteFrame:
				return
			case protocol.ErrorFrame:
				d.emit(ctx, snapshots, Snapshot{StreamID: d.streamID, Err: &ServerError{Reason: frame.Reason}})
				return
			case protocol.TimeoutFrame:
				d.emit(ctx, snapshots, Snapshot{StreamID: d.streamID, Err: ErrTimeout})
				return
			case protocol.StreamFrame:
				ok := d.emit(ctx, snapshots, Snapshot{
					StreamID:  d.streamID,
					Fragments: FragmentsFromWire(frame.Answer),
				})
				if !ok {
					return
				}
			case protocol.UnrecognizedFrame:
				if d.mode == DecodeStrict {
					d.emit(ctx, snapshots, Snapshot{StreamID: d.streamID, Err: &MalformedFrameError{Raw: frame.Raw}})
					return
				}
				logger.Warn("skipping malformed stream frame (%d bytes)", len(frame.Raw))
			}
		}
	}()

	return snapshots
}

func (d *Decoder) emit(ctx context.Context, snapshots chan<- Snapshot, snap Snapshot) bool {
	select {
	case snapshots <- snap:
		return true
	case <-ctx.Done():
		return false
	}
}
