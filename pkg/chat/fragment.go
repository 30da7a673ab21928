package chat

import (
	"fmt"

	"github.com/scribeworks/scribe/pkg/protocol"
)

// AnswerFragment is one unit of server-pushed output: generated text plus
// the citations substantiating it. Fragments arrive in generation order and
// must be accumulated in that order.
type AnswerFragment struct {
	Text      string
	Citations []Citation
}

// Citation references the media segment backing part of an answer
type Citation struct {
	MediaName string
	Timestamp float64
}

// ProcessedCitation is a Citation with its stable display identity. IDs are
// 1-based, assigned in first-seen order, and never reused within a response.
type ProcessedCitation struct {
	ID        int
	MediaName string
	Timestamp float64
}

// Token returns the inline display token for this citation
func (c ProcessedCitation) Token() string {
	return fmt.Sprintf("[%d]", c.ID)
}

// FragmentFromWire converts one wire partial answer into a fragment
func FragmentFromWire(p protocol.PartialAnswer) AnswerFragment {
	fragment := AnswerFragment{Text: p.PartialAnswer}
	for _, c := range p.Citations {
		fragment.Citations = append(fragment.Citations, Citation{
			MediaName: c.MediaName,
			Timestamp: c.Timestamp,
		})
	}
	return fragment
}

// FragmentsFromWire converts one wire answer snapshot
func FragmentsFromWire(answer []protocol.PartialAnswer) []AnswerFragment {
	fragments := make([]AnswerFragment, 0, len(answer))
	for _, p := range answer {
		fragments = append(fragments, FragmentFromWire(p))
	}
	return fragments
}
