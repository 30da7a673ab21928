package protocol

import (
	"encoding/json"
	"unicode/utf8"
)

// ChunkSize is the maximum number of characters of serialized payload
// carried by a single BODY frame. The transport rejects larger messages.
const ChunkSize = 32768

// Step identifies the outbound envelope phase
type Step string

const (
	StepStart Step = "START"
	StepBody  Step = "BODY"
	StepEnd   Step = "END"
)

// Envelope is the client-to-server protocol frame. A logical request is
// exactly one START, zero or more BODY frames in index order, then one END.
// Index is a pointer so a BODY frame serializes index 0 while START and END
// omit the field entirely.
type Envelope struct {
	Step  Step   `json:"step"`
	Token string `json:"token,omitempty"`
	Index *int   `json:"index,omitempty"`
	Part  string `json:"part,omitempty"`
}

// NewStartEnvelope creates the session-opening frame carrying the bearer token
func NewStartEnvelope(token string) Envelope {
	return Envelope{Step: StepStart, Token: token}
}

// NewBodyEnvelope creates one payload chunk frame
func NewBodyEnvelope(index int, part string) Envelope {
	return Envelope{Step: StepBody, Index: &index, Part: part}
}

// NewEndEnvelope creates the request-closing frame
func NewEndEnvelope(token string) Envelope {
	return Envelope{Step: StepEnd, Token: token}
}

// Marshal serializes the envelope for transmission
func (e Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// SplitChunks splits payload into consecutive substrings of at most
// ChunkSize characters, preserving order. An empty payload yields no chunks.
func SplitChunks(payload string) []string {
	return SplitChunksN(payload, ChunkSize)
}

// SplitChunksN splits payload under an explicit ceiling. Cut points back
// off to the previous rune boundary so a multi-byte rune is never torn
// across two chunks, which would corrupt both halves once the envelopes
// are JSON-marshalled.
func SplitChunksN(payload string, ceiling int) []string {
	if payload == "" {
		return nil
	}

	var chunks []string
	for len(payload) > ceiling {
		cut := ceiling
		for cut > 0 && !utf8.RuneStart(payload[cut]) {
			cut--
		}
		if cut == 0 {
			cut = ceiling
		}
		chunks = append(chunks, payload[:cut])
		payload = payload[cut:]
	}
	return append(chunks, payload)
}
