package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Client is a thin wrapper over the product's REST collaborators: presigned
// storage URLs, transcription job records, analysis templates, and subtitle
// retrieval. No protocol logic lives here.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new REST client
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Jobs lists all transcription job records
func (c *Client) Jobs(ctx context.Context) ([]TranscriptJob, error) {
	var response JobsResponse
	if err := c.get(ctx, "/ddb/jobs", nil, &response); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return response.Jobs, nil
}

// JobByMediaName looks up the transcription job for one media file
func (c *Client) JobByMediaName(ctx context.Context, mediaName string) (*TranscriptJob, error) {
	jobs, err := c.Jobs(ctx)
	if err != nil {
		return nil, err
	}
	for i := range jobs {
		if jobs[i].MediaName == mediaName {
			return &jobs[i], nil
		}
	}
	return nil, fmt.Errorf("no transcription job for %q", mediaName)
}

// PresignDownload requests a time-limited download URL for a stored object
func (c *Client) PresignDownload(ctx context.Context, key string) (*PresignedURL, error) {
	var presigned PresignedURL
	query := url.Values{"key": {key}, "method": {"GET"}}
	if err := c.get(ctx, "/s3-presigned", query, &presigned); err != nil {
		return nil, fmt.Errorf("failed to presign download: %w", err)
	}
	return &presigned, nil
}

// PresignUpload requests a time-limited upload URL for a stored object
func (c *Client) PresignUpload(ctx context.Context, key string) (*PresignedURL, error) {
	var presigned PresignedURL
	query := url.Values{"key": {key}, "method": {"PUT"}}
	if err := c.get(ctx, "/s3-presigned", query, &presigned); err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}
	return &presigned, nil
}

// Templates lists the server-defined analysis templates
func (c *Client) Templates(ctx context.Context) ([]AnalysisTemplate, error) {
	var response TemplatesResponse
	if err := c.get(ctx, "/llm/templates", nil, &response); err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return response.Templates, nil
}

// SubtitlesFor fetches the subtitle document for one media file
func (c *Client) SubtitlesFor(ctx context.Context, mediaName string) (*Subtitles, error) {
	var subtitles Subtitles
	query := url.Values{"media_name": {mediaName}}
	if err := c.get(ctx, "/kb/subtitles", query, &subtitles); err != nil {
		return nil, fmt.Errorf("failed to fetch subtitles: %w", err)
	}
	return &subtitles, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request failed with status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
