package protocol

// Citation points at the media segment substantiating part of an answer
type Citation struct {
	MediaName string  `json:"media_name"`
	Timestamp float64 `json:"timestamp"`
}

// PartialAnswer is one unit of server-generated text plus the citations
// backing it. Order within a snapshot is generation order.
type PartialAnswer struct {
	PartialAnswer string     `json:"partial_answer"`
	Citations     []Citation `json:"citations"`
}

// Payload is the logical request serialized into BODY chunks. Messages and
// MediaNames are pre-encoded JSON strings; the gateway decodes them a second
// time on its side.
type Payload struct {
	Messages        string `json:"messages"`
	Username        string `json:"username"`
	MediaNames      string `json:"media_names,omitempty"`
	TranscriptJobID string `json:"transcript_job_id,omitempty"`
}
