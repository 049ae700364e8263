package ai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	chatModel      = "gpt-4o-mini"
	temperature    = 0.7

	systemPrompt = "You are an assistant that writes short, useful descriptions for task cards on a Kanban board."

	// fallbackDescription stands in when the upstream reply carries no text.
	fallbackDescription = "Automatically generated description."
)

// ErrNotConfigured reports a missing API key. No network call is attempted.
var ErrNotConfigured = errors.New("OPENAI_API_KEY is not configured")

// Generator produces card descriptions through the OpenAI chat completions
// endpoint. A description request is a single attempt with fixed model and
// sampling temperature; there is no retry.
type Generator struct {
	apiKey  string
	baseURL string
	client  *http.Client
	log     *log.Logger
}

// New creates a Generator. baseURL may be empty to use the public endpoint;
// tests point it at a stub server.
func New(apiKey, baseURL string, logger *log.Logger) *Generator {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Generator{
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Describe asks the model for a short description of a card with the given
// title. Upstream failures are returned with detail for server-side logging;
// callers mask them before responding.
func (g *Generator) Describe(ctx context.Context, title string) (string, error) {
	if g.apiKey == "" {
		return "", ErrNotConfigured
	}

	payload := chatRequest{
		Model: chatModel,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf("Write a short, clear description (2-4 sentences) for the card titled: %q.", title)},
		},
		Temperature: temperature,
	}
	body, err := sonic.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		g.log.WithFields(log.Fields{
			"status": resp.StatusCode,
			"body":   strings.TrimSpace(string(detail)),
		}).Error("chat completion returned non-success status")
		return "", fmt.Errorf("chat completion status %d", resp.StatusCode)
	}

	var out chatResponse
	if err := sonic.ConfigStd.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode chat completion response: %w", err)
	}
	if len(out.Choices) == 0 {
		return fallbackDescription, nil
	}
	desc := strings.TrimSpace(out.Choices[0].Message.Content)
	if desc == "" {
		return fallbackDescription, nil
	}
	return desc, nil
}
