// Package judge calls an external LLM-based evaluator that re-scores a
// sampled subset of chunks for quality and semantic standalone-ness.
package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hoshizora/content-embed-worker/internal/core/domain"
)

const (
	defaultTimeout = 60 * time.Second

	headerContentType = "Content-Type"
	contentTypeJSON   = "application/json"
)

// Request carries one chunk and its parent context to the judge endpoint.
type Request struct {
	ChunkContent string `json:"chunkContent"`
	Title        string `json:"title,omitempty"`
	Category     string `json:"category,omitempty"`
	TargetType   string `json:"targetType,omitempty"`
}

// Result is the judge verdict for one chunk. A transport or endpoint
// failure is reported as Success=false with Error set; Judge never returns
// a Go error for those cases so one bad call cannot fail a whole item.
type Result struct {
	Success    bool    `json:"success"`
	Score      float64 `json:"score,omitempty"`
	Standalone bool    `json:"standalone,omitempty"`
	Reason     string  `json:"reason,omitempty"`
	Model      string  `json:"model,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// Client posts judge requests to the configured HTTP endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// Config holds judge client settings.
type Config struct {
	Endpoint string
	Timeout  time.Duration
}

// NewClient creates a judge client. An empty endpoint yields a client whose
// calls always report failure, which callers treat as "no judge signal".
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Judge evaluates one chunk.
func (c *Client) Judge(ctx context.Context, req Request) Result {
	if c.endpoint == "" {
		return Result{Success: false, Error: "judge endpoint not configured"}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return Result{Success: false, Error: fmt.Sprintf("marshal request: %v", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{Success: false, Error: fmt.Sprintf("build request: %v", err)}
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Result{Success: false, Error: fmt.Sprintf("judge request: %v", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return Result{Success: false, Error: fmt.Sprintf("judge status %d", resp.StatusCode)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{Success: false, Error: fmt.Sprintf("read response: %v", err)}
	}

	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return Result{Success: false, Error: fmt.Sprintf("decode response: %v", err)}
	}

	return result
}

// RequestFor builds a judge request for a chunk and its parent context.
func RequestFor(chunkText string, ectx domain.EnrichmentContext) Request {
	return Request{
		ChunkContent: chunkText,
		Title:        ectx.ParentTitle,
		Category:     ectx.Category,
		TargetType:   string(ectx.TargetType),
	}
}
