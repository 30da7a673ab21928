package api

import "time"

// TranscriptJob is one media transcription job record
type TranscriptJob struct {
	JobID     string    `json:"job_id"`
	MediaName string    `json:"media_name"`
	Status    string    `json:"status"`
	Language  string    `json:"language,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// JobsResponse is the job listing payload
type JobsResponse struct {
	Jobs []TranscriptJob `json:"jobs"`
}

// PresignedURL is a time-limited direct-access URL for media storage
type PresignedURL struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AnalysisTemplate is a server-defined prompt template for media analysis
type AnalysisTemplate struct {
	Name   string `json:"name"`
	Prompt string `json:"prompt"`
}

// TemplatesResponse is the template listing payload
type TemplatesResponse struct {
	Templates []AnalysisTemplate `json:"templates"`
}

// Subtitles is the subtitle document for one media file
type Subtitles struct {
	MediaName string `json:"media_name"`
	Format    string `json:"format"`
	Content   string `json:"content"`
}
