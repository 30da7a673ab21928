package protocol

import (
	"encoding/json"
	"strings"
)

// Server reply literals. The backend acknowledges protocol steps with bare
// strings rather than structured frames.
const (
	SessionStartedAck   = "Session started."
	PartReceivedAck     = "Message part received."
	MessageSentMarker   = "Message sent."
	StreamStartedMarker = "Streaming started."

	// TimeoutMessage is pushed by the gateway when upstream processing
	// exceeds its deadline.
	TimeoutMessage = "Endpoint request timed out"
)

// Terminal status values carried by structured frames
const (
	StatusComplete = "COMPLETE"
	StatusError    = "ERROR"
)

// InboundFrame is one classified server-to-client frame. Classification
// happens once, before any session or decode logic runs; downstream code
// switches on the concrete type instead of sniffing raw payloads.
type InboundFrame interface {
	inboundFrame()
}

// ControlFrame is a benign marker the client skips: an empty keepalive,
// "Message sent." or "Streaming started.".
type ControlFrame struct {
	Marker string
}

// AckFrame acknowledges a protocol step: session start or one BODY part.
type AckFrame struct {
	Marker string
}

// StreamFrame carries one answer snapshot.
type StreamFrame struct {
	Answer []PartialAnswer
}

// CompleteFrame terminates the stream successfully.
type CompleteFrame struct{}

// ErrorFrame terminates the stream with an application-level failure.
type ErrorFrame struct {
	Reason string
}

// TimeoutFrame reports that upstream processing exceeded its deadline.
type TimeoutFrame struct {
	Message string
}

// UnrecognizedFrame is anything that failed to parse or matched no known
// shape. Whether it is fatal is the decoder's policy, not the parser's.
type UnrecognizedFrame struct {
	Raw []byte
}

func (ControlFrame) inboundFrame()      {}
func (AckFrame) inboundFrame()          {}
func (StreamFrame) inboundFrame()       {}
func (CompleteFrame) inboundFrame()     {}
func (ErrorFrame) inboundFrame()        {}
func (TimeoutFrame) inboundFrame()      {}
func (UnrecognizedFrame) inboundFrame() {}

// structuredFrame is the superset of fields a JSON frame may carry
type structuredFrame struct {
	Status  *string          `json:"status"`
	Reason  string           `json:"reason"`
	Message *string          `json:"message"`
	Answer  *[]PartialAnswer `json:"answer"`
}

// Classify parses one raw inbound frame into its tagged variant
func Classify(raw []byte) InboundFrame {
	text := string(raw)

	switch text {
	case "", MessageSentMarker, StreamStartedMarker:
		return ControlFrame{Marker: text}
	case SessionStartedAck, PartReceivedAck:
		return AckFrame{Marker: text}
	}

	var frame structuredFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return UnrecognizedFrame{Raw: raw}
	}

	switch {
	case frame.Status != nil && *frame.Status == StatusComplete:
		return CompleteFrame{}
	case frame.Status != nil:
		return ErrorFrame{Reason: frame.Reason}
	case frame.Message != nil && strings.Contains(*frame.Message, TimeoutMessage):
		return TimeoutFrame{Message: *frame.Message}
	case frame.Answer != nil:
		return StreamFrame{Answer: *frame.Answer}
	}

	return UnrecognizedFrame{Raw: raw}
}
