package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"
)

// PublishResult reports the outcome of a publish attempt. Failures are
// data, never Go errors, so approval handling can record them without
// unwinding.
type PublishResult struct {
	Success  bool                   `json:"success"`
	Response map[string]interface{} `json:"response,omitempty"`
	Err      string                 `json:"error,omitempty"`
}

// Publisher posts an approved document to the external social platform.
type Publisher interface {
	Publish(ctx context.Context, content string) PublishResult
}

// SocialClient wraps the social media platform's post endpoint.
type SocialClient struct {
	postURL    string
	httpClient *http.Client
}

// NewSocialClient creates a client for the configured post endpoint.
func NewSocialClient(postURL string) *SocialClient {
	return &SocialClient{
		postURL: postURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type socialPost struct {
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Platform  string `json:"platform"`
}

// Publish posts the content. Any failure is returned in the result.
func (c *SocialClient) Publish(ctx context.Context, content string) PublishResult {
	body, err := json.Marshal(socialPost{
		Content:   content,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Platform:  "social_media_simulator",
	})
	if err != nil {
		return PublishResult{Err: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.postURL, bytes.NewReader(body))
	if err != nil {
		return PublishResult{Err: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("social publish error: %v", err)
		return PublishResult{Err: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return PublishResult{Err: err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("social publish rejected (%d): %s", resp.StatusCode, string(respBody))
		return PublishResult{Err: string(respBody)}
	}

	var platformResp map[string]interface{}
	if err := json.Unmarshal(respBody, &platformResp); err != nil {
		platformResp = map[string]interface{}{"raw": string(respBody)}
	}
	return PublishResult{Success: true, Response: platformResp}
}
