// Package ai is the HTTP client for the external reflection service, which
// turns a delivered letter into a short reflection prompt for the user.
//
// The client is intentionally small and emits no logs; callers decide how to
// log and how to classify failures. Provider failures carry the upstream
// status and message via ProviderError so the error taxonomy can record them
// for diagnostics (they are never shown to end users).
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/futureletters/backend/internal/domain"
)

// maxErrBody caps how much of a provider error body is retained.
const maxErrBody = 2048

// ProviderError is a non-2xx response from the reflection provider.
type ProviderError struct {
	Status int
	Body   string
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("reflection provider returned %d", e.Status)
}

// ProviderStatus returns the upstream HTTP status.
func (e *ProviderError) ProviderStatus() int { return e.Status }

// ProviderMessage returns the retained upstream response body.
func (e *ProviderError) ProviderMessage() string { return e.Body }

// Client calls the reflection provider. Safe for concurrent use.
type Client struct {
	// BaseURL is the provider endpoint root, e.g. "https://api.example.com".
	BaseURL string
	// APIKey authenticates requests; sent as a bearer token.
	APIKey string
	// HTTPClient may be replaced in tests. Defaults to a 15s-timeout client.
	HTTPClient *http.Client
}

// NewClient constructs a Client with a bounded default transport.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type promptRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Mood    string `json:"mood,omitempty"`
}

type promptResponse struct {
	Prompt string `json:"prompt"`
}

// ReflectionPrompt asks the provider for a reflection prompt over a
// delivered letter. A 5xx response is retried once; the retry policy lives
// here, with the collaborator, not in the request boundary.
func (c *Client) ReflectionPrompt(ctx context.Context, l *domain.Letter) (string, error) {
	body, err := json.Marshal(promptRequest{
		Title:   l.Title,
		Content: l.Content,
		Mood:    string(l.Mood),
	})
	if err != nil {
		return "", err
	}

	prompt, err := c.post(ctx, body)
	if err != nil {
		if pe, ok := err.(*ProviderError); ok && pe.Status >= 500 {
			return c.post(ctx, body)
		}
		return "", err
	}
	return prompt, nil
}

func (c *Client) post(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/v1/reflection-prompts", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	hc := c.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBody))
		return "", &ProviderError{Status: resp.StatusCode, Body: string(b)}
	}

	var out promptResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Prompt, nil
}
