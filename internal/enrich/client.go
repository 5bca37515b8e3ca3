// Package enrich implements the optional LLM enrichment collaborator.
// Absence or failure of enrichment never blocks bean generation.
package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"harvester/internal/config"
	"harvester/internal/logging"
	"harvester/internal/surface"
)

// ErrDisabled is returned when no API key is configured.
var ErrDisabled = errors.New("enrichment disabled")

// Request carries one surface to the enrichment model.
type Request struct {
	SurfaceType string            `json:"surface_type"`
	SurfaceName string            `json:"surface_name"`
	SurfaceData map[string]string `json:"surface_data"`
	SourceCode  string            `json:"source_code"`
}

// Client calls an OpenAI-compatible chat-completions endpoint and
// paces requests against the configured RPM ceiling. Calls block while
// waiting for their slot; enrichment is strictly serialized.
type Client struct {
	hc     *http.Client
	url    string
	apiKey string
	model  string
	gate   *gate
	logger *slog.Logger
}

// New constructs a client from config. Returns ErrDisabled when no API
// key is set.
func New(cfg config.Enrichment, logger *slog.Logger) (*Client, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, ErrDisabled
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		hc:     &http.Client{Timeout: timeout},
		url:    strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions",
		apiKey: key,
		model:  cfg.Model,
		gate:   newGate(cfg.RequestsPerMinute, nil),
		logger: logging.NewComponentLogger(logger, "enrich"),
	}, nil
}

const systemPrompt = `You analyze one extracted surface of a software repository and emit a JSON object with exactly these keys: behavioral_description (string), inferred_intent (string), given_when_then (array of {given, when, then} strings), data_flow (string), priority (one of critical, high, medium, low), dependencies (array of strings). Respond with JSON only.`

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Enrich blocks for its rate slot and returns the fixed-shape document
// for one surface.
func (c *Client) Enrich(ctx context.Context, req Request) (*surface.Enrichment, error) {
	if err := c.gate.Wait(ctx); err != nil {
		return nil, err
	}

	userPayload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal enrichment request: %w", err)
	}

	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: string(userPayload)},
		},
	}
	body.ResponseFormat = &struct {
		Type string `json:"type"`
	}{Type: "json_object"}

	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("enrichment call: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read enrichment response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("enrichment call: status %d: %s", resp.StatusCode, truncate(string(payload), 200))
	}

	var chat chatResponse
	if err := json.Unmarshal(payload, &chat); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, errors.New("enrichment response has no choices")
	}

	return parseDocument(chat.Choices[0].Message.Content)
}

// parseDocument decodes the model's JSON document, tolerating markdown
// code fences around the payload.
func parseDocument(content string) (*surface.Enrichment, error) {
	trimmed := strings.TrimSpace(content)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var doc surface.Enrichment
	if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
		return nil, fmt.Errorf("decode enrichment document: %w", err)
	}
	switch doc.Priority {
	case "critical", "high", "medium", "low", "":
	default:
		doc.Priority = "medium"
	}
	return &doc, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
