package chat

import (
	"regexp"
	"strings"
)

// timestampTolerance absorbs backend timestamp jitter: two citations of the
// same media merge when their timestamps differ by strictly less than this.
const timestampTolerance = 1.0

// markerPattern matches inline citation markers like [3]
var markerPattern = regexp.MustCompile(`\[\d+\]`)

// Reconciled is the render-ready view of a fragment history: the
// citation-annotated text and the deduplicated citations keyed by ID.
type Reconciled struct {
	Text      string
	Citations map[int]ProcessedCitation
}

// CitationList returns the citations in ID order
func (r Reconciled) CitationList() []ProcessedCitation {
	list := make([]ProcessedCitation, 0, len(r.Citations))
	for id := 1; id <= len(r.Citations); id++ {
		list = append(list, r.Citations[id])
	}
	return list
}

// Reconcile recomputes the deduplicated, stably-numbered view of the full
// fragment history received so far. It is a pure function of its input:
// reconciling a prefix-extended history never renumbers a previously seen
// citation, it only appends new IDs.
//
// Per fragment, any stale inline markers carried in the generated text are
// stripped and one canonical token per citation is appended in their place,
// resolved through the dedup mapping.
func Reconcile(fragments []AnswerFragment) Reconciled {
	citations := make(map[int]ProcessedCitation)
	var assigned []ProcessedCitation

	resolve := func(c Citation) ProcessedCitation {
		for _, seen := range assigned {
			if seen.MediaName == c.MediaName && abs(seen.Timestamp-c.Timestamp) < timestampTolerance {
				return seen
			}
		}
		processed := ProcessedCitation{
			ID:        len(assigned) + 1,
			MediaName: c.MediaName,
			Timestamp: c.Timestamp,
		}
		assigned = append(assigned, processed)
		citations[processed.ID] = processed
		return processed
	}

	var text strings.Builder
	for _, fragment := range fragments {
		body := strings.ReplaceAll(fragment.Text, `\n`, "\n")
		text.WriteString(markerPattern.ReplaceAllString(body, ""))
		for _, c := range fragment.Citations {
			text.WriteString(resolve(c).Token())
		}
	}

	return Reconciled{Text: text.String(), Citations: citations}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
