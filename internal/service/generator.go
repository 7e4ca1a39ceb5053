package service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"prsentinel/internal/config"
)

// StreamChunk is one fragment of a streaming generation. A non-nil Err is
// the explicit in-band termination marker; consumers never infer failure
// from chunk text. The channel closes after the last chunk.
type StreamChunk struct {
	Text string
	Err  error
}

// TextGenerator produces text from a prompt, either whole or as a lazy
// chunk sequence. Implementations must respect the context.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Stream(ctx context.Context, prompt string) (<-chan StreamChunk, error)
}

// OllamaGenerator calls a local Ollama instance's /api/generate endpoint.
type OllamaGenerator struct {
	baseURL     string
	model       string
	temperature float64
	maxTokens   int

	oneShotTimeout time.Duration
	streamTimeout  time.Duration

	httpClient *http.Client
}

// NewOllamaGenerator creates a generator from config.
func NewOllamaGenerator(cfg config.GenConfig) *OllamaGenerator {
	return &OllamaGenerator{
		baseURL:        strings.TrimSuffix(cfg.BaseURL, "/"),
		model:          cfg.Model,
		temperature:    cfg.Temperature,
		maxTokens:      cfg.MaxTokens,
		oneShotTimeout: time.Duration(cfg.OneShotTimeoutSec) * time.Second,
		streamTimeout:  time.Duration(cfg.StreamTimeoutSec) * time.Second,
		// Timeouts are per-call via context; the client itself has none so
		// streaming responses aren't cut mid-read by a global deadline.
		httpClient: &http.Client{},
	}
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Generate makes a one-shot call and returns the full response text.
func (g *OllamaGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.oneShotTimeout)
	defer cancel()

	resp, err := g.post(ctx, ollamaRequest{
		Model:  g.model,
		Prompt: prompt,
		Stream: false,
		Options: ollamaOptions{
			Temperature: g.temperature,
			NumPredict:  g.maxTokens,
		},
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var out ollamaResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	return strings.TrimSpace(out.Response), nil
}

// Stream makes a streaming call and returns a channel of chunks. The
// request error (connection refused, bad status) is returned directly; any
// mid-stream failure arrives as a chunk with Err set.
func (g *OllamaGenerator) Stream(ctx context.Context, prompt string) (<-chan StreamChunk, error) {
	ctx, cancel := context.WithTimeout(ctx, g.streamTimeout)

	resp, err := g.post(ctx, ollamaRequest{
		Model:  g.model,
		Prompt: prompt,
		Stream: true,
		Options: ollamaOptions{
			Temperature: g.temperature,
			NumPredict:  g.maxTokens,
		},
	})
	if err != nil {
		cancel()
		return nil, err
	}

	chunks := make(chan StreamChunk)
	go func() {
		defer close(chunks)
		defer cancel()
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			var out ollamaResponse
			if err := json.Unmarshal(line, &out); err != nil {
				continue
			}
			if out.Response != "" {
				select {
				case chunks <- StreamChunk{Text: out.Response}:
				case <-ctx.Done():
					return
				}
			}
			if out.Done {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			select {
			case chunks <- StreamChunk{Err: err}:
			case <-ctx.Done():
			}
		}
	}()

	return chunks, nil
}

func (g *OllamaGenerator) post(ctx context.Context, apiReq ollamaRequest) (*http.Response, error) {
	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("generation API error (%d): %s", resp.StatusCode, string(b))
	}
	return resp, nil
}
