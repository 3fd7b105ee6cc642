// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// maxPromptText caps the page text sent to the model.
	maxPromptText = 4000

	systemPrompt = `You describe web links for a bookmarking app.
Reply with a single JSON object and nothing else:
{"title": string, "description": string, "platform": string}
"title" is a short human title for the link, "description" one or two
sentences, "platform" the lower-case name of the site (for example
"youtube", "github", "medium"). Use "" for anything you cannot tell.`
)

// AIConfig holds the credentials for an OpenAI-compatible chat API.
type AIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// AIExtractor asks an OpenAI-compatible chat completions endpoint to
// describe a link. It is only consulted when scraping the page failed.
type AIExtractor struct {
	config AIConfig
	client *http.Client
}

// NewAIExtractor creates an AI extractor. Callers only add it to a chain
// when an API key is configured.
func NewAIExtractor(cfg AIConfig) *AIExtractor {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &AIExtractor{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (e *AIExtractor) Name() string { return "ai" }

// Extract sends the URL (and any page text) to the model and parses its
// JSON reply.
func (e *AIExtractor) Extract(ctx context.Context, rawURL, text string) (*Metadata, error) {
	prompt := "URL: " + rawURL
	if t := strings.TrimSpace(text); t != "" {
		prompt += "\n\nPage text:\n" + clip(t, maxPromptText)
	}

	reply, err := e.chat(ctx, chatRequest{
		Model: e.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, err
	}

	var out struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Platform    string `json:"platform"`
	}
	if err := json.Unmarshal([]byte(stripFences(reply)), &out); err != nil {
		return nil, fmt.Errorf("ai reply is not JSON: %w", err)
	}
	if strings.TrimSpace(out.Title) == "" {
		return nil, ErrNoMetadata
	}
	return &Metadata{Title: out.Title, Description: out.Description, Platform: out.Platform}, nil
}

// chat performs the HTTP call to the chat completions endpoint.
func (e *AIExtractor) chat(ctx context.Context, body chatRequest) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("ai marshal: %w", err)
	}

	url := e.config.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("ai request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.config.APIKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ai http: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", fmt.Errorf("ai read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ai API error (status %d): %s", resp.StatusCode, clip(string(respBody), 200))
	}

	var result chatResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("ai unmarshal: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("ai: no choices returned")
	}

	return result.Choices[0].Message.Content, nil
}

// stripFences removes a ```json fence some models wrap around replies.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// --- OpenAI-compatible request/response types ---

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}
