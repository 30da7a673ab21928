package chat

import (
	"encoding/json"
	"fmt"

	"github.com/scribeworks/scribe/pkg/protocol"
)

// DefaultHistoryWindow is the number of recent turns resent with each message
const DefaultHistoryWindow = 10

// TrimHistory prepares a conversation for retransmission: keeps only the
// most recent window turns, strips previously rendered citation markers
// from every turn (the model must not see stale numbering), and drops
// leading turns until the prefix starts with a user turn.
func TrimHistory(history []Message, window int) []Message {
	if window <= 0 {
		window = DefaultHistoryWindow
	}
	if len(history) > window {
		history = history[len(history)-window:]
	}

	start := 0
	for start < len(history) && !history[start].IsUser() {
		start++
	}

	trimmed := make([]Message, 0, len(history)-start)
	for _, msg := range history[start:] {
		msg.Content = markerPattern.ReplaceAllString(msg.Content, "")
		trimmed = append(trimmed, msg)
	}
	return trimmed
}

// wire shapes for the doubly-encoded messages field
type wireMessage struct {
	Role    string        `json:"role"`
	Content []wireContent `json:"content"`
}

type wireContent struct {
	Text string `json:"text"`
}

// BuildPayload serializes a trimmed history into the logical request blob
// that SendChunked splits into BODY frames.
func BuildPayload(history []Message, username string, mediaNames []string, transcriptJobID string) (string, error) {
	messages := make([]wireMessage, 0, len(history))
	for _, msg := range history {
		messages = append(messages, wireMessage{
			Role:    msg.Role,
			Content: []wireContent{{Text: msg.Content}},
		})
	}

	encoded, err := json.Marshal(messages)
	if err != nil {
		return "", fmt.Errorf("failed to encode messages: %w", err)
	}

	payload := protocol.Payload{
		Messages:        string(encoded),
		Username:        username,
		TranscriptJobID: transcriptJobID,
	}

	if len(mediaNames) > 0 {
		names, err := json.Marshal(mediaNames)
		if err != nil {
			return "", fmt.Errorf("failed to encode media filter: %w", err)
		}
		payload.MediaNames = string(names)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode payload: %w", err)
	}
	return string(raw), nil
}
