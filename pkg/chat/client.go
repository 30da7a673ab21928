package chat

import (
	"context"
	"fmt"

	"github.com/scribeworks/scribe/pkg/logger"
	"github.com/scribeworks/scribe/pkg/session"
)

// Request is one logical chat exchange
type Request struct {
	History    []Message
	Username   string
	Token      string
	MediaNames []string // optional media-name filter for retrieval
	// TranscriptJobID targets exactly one file's transcript instead of a
	// cross-file retrieval.
	TranscriptJobID string
}

// Update is one incremental reconciled view of the in-flight answer. A
// non-nil Err is always the last update before the channel closes.
type Update struct {
	StreamID  string
	Text      string
	Citations []ProcessedCitation
	Err       error
}

// Client drives one chat exchange end to end: connect, chunked send, decode
// loop, citation reconciliation. It owns the Session; nothing else touches
// the transport.
type Client struct {
	sess   *session.Session
	mode   DecodeMode
	window int
}

// ClientOption customizes a Client
type ClientOption func(*Client)

// WithDecodeMode selects strict or tolerant stream decoding
func WithDecodeMode(mode DecodeMode) ClientOption {
	return func(c *Client) {
		c.mode = mode
	}
}

// WithHistoryWindow overrides the number of turns resent per message
func WithHistoryWindow(window int) ClientOption {
	return func(c *Client) {
		c.window = window
	}
}

// NewClient creates a chat client over the given session
func NewClient(sess *session.Session, opts ...ClientOption) *Client {
	c := &Client{
		sess:   sess,
		mode:   DecodeTolerant,
		window: DefaultHistoryWindow,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session exposes the underlying session (for lifecycle control)
func (c *Client) Session() *session.Session {
	return c.sess
}

// SendMessage transmits the request and returns a channel of incremental
// reconciled views of the streamed answer. Setup failures (connect,
// chunked send) are returned synchronously; stream failures arrive as the
// final Update. On any failure the session is left failed and the caller
// must reconnect before the next message.
func (c *Client) SendMessage(ctx context.Context, req Request) (<-chan Update, error) {
	history := TrimHistory(req.History, c.window)
	payload, err := BuildPayload(history, req.Username, req.MediaNames, req.TranscriptJobID)
	if err != nil {
		return nil, err
	}

	if !c.sess.Connected() {
		if err := c.sess.Connect(ctx, req.Token); err != nil {
			return nil, fmt.Errorf("failed to connect: %w", err)
		}
	}

	if err := c.sess.SendChunked(ctx, payload, req.Token); err != nil {
		c.sess.Fail()
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	decoder := NewDecoder(c.sess, c.mode)
	snapshots := decoder.Stream(ctx)
	updates := make(chan Update, 8)

	go func() {
		defer close(updates)

		emit := func(update Update) bool {
			select {
			case updates <- update:
				return true
			case <-ctx.Done():
				return false
			}
		}

		var fragments []AnswerFragment
		for snap := range snapshots {
			if snap.Err != nil {
				c.sess.Fail()
				emit(Update{StreamID: snap.StreamID, Err: snap.Err})
				return
			}

			fragments = foldSnapshot(fragments, snap.Fragments)
			view := Reconcile(fragments)
			ok := emit(Update{
				StreamID:  snap.StreamID,
				Text:      view.Text,
				Citations: view.CitationList(),
			})
			if !ok {
				return
			}
		}
		logger.Debug("stream %s finished with %d fragments", decoder.StreamID(), len(fragments))
	}()

	return updates, nil
}

// foldSnapshot merges one answer batch into the cumulative fragment history.
// Later snapshots supersede earlier ones, redelivered snapshots are
// idempotent, and a batch carrying new fragments has them appended, so no
// fragment already shown to the consumer is ever lost. A diverged replay
// only contributes fragments not already in the history; re-appending known
// ones would duplicate rendered text.
func foldSnapshot(cur, batch []AnswerFragment) []AnswerFragment {
	switch {
	case isFragmentPrefix(cur, batch):
		return batch
	case isFragmentPrefix(batch, cur):
		return cur
	default:
		for _, fragment := range batch {
			if !containsFragment(cur, fragment) {
				cur = append(cur, fragment)
			}
		}
		return cur
	}
}

func containsFragment(fragments []AnswerFragment, want AnswerFragment) bool {
	for _, fragment := range fragments {
		if fragmentEqual(fragment, want) {
			return true
		}
	}
	return false
}

func isFragmentPrefix(prefix, full []AnswerFragment) bool {
	if len(prefix) > len(full) {
		return false
	}
	for i := range prefix {
		if !fragmentEqual(prefix[i], full[i]) {
			return false
		}
	}
	return true
}

func fragmentEqual(a, b AnswerFragment) bool {
	if a.Text != b.Text || len(a.Citations) != len(b.Citations) {
		return false
	}
	for i := range a.Citations {
		if a.Citations[i] != b.Citations[i] {
			return false
		}
	}
	return true
}
