// Package sentiment scores a user's stated opinion on a 0-100 scale by
// calling an OpenAI-compatible chat completions endpoint.
package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const systemPrompt = "The user will state their opinion about NixOS, a Linux distribution. " +
	"You have to reply with just a single integer from 0 to 100, where 100 means an infinitely " +
	"positive attitude and 0 means infinitely negative. Please don't just say 0 or 100, try to " +
	"position it on a scale."

// Client scores opinions via an OpenAI-compatible API.
type Client struct {
	apiBase string
	apiKey  string
	model   string
	http    *retryablehttp.Client
}

// NewClient builds a scorer against the given API base URL. The key may
// be empty for unauthenticated local endpoints.
func NewClient(apiBase, apiKey, model string) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.HTTPClient.Timeout = 15 * time.Second
	rc.Logger = nil // suppress retryablehttp's default logging
	return &Client{
		apiBase: strings.TrimSuffix(apiBase, "/"),
		apiKey:  apiKey,
		model:   model,
		http:    rc,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	N         int           `json:"n"`
	Messages  []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		FinishReason string      `json:"finish_reason"`
		Message      chatMessage `json:"message"`
	} `json:"choices"`
}

// ErrUnparseable is returned when the model's reply is not a 0-100 score.
type ErrUnparseable struct {
	Reply string
}

func (e *ErrUnparseable) Error() string {
	return fmt.Sprintf("model reply is not a 0-100 score: %q", e.Reply)
}

// Score asks the model to rate the opinion. The returned value is in
// [0, 100]; replies that are truncated or non-numeric yield ErrUnparseable.
func (c *Client) Score(ctx context.Context, opinion string) (int, error) {
	body, err := json.Marshal(chatRequest{
		Model:     c.model,
		MaxTokens: 5,
		N:         1,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: opinion},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("chat completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("chat completion returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return 0, fmt.Errorf("chat completion returned no choices")
	}

	choice := parsed.Choices[0]
	reply := strings.TrimSpace(choice.Message.Content)
	if choice.FinishReason != "stop" {
		return 0, &ErrUnparseable{Reply: reply}
	}

	score, err := strconv.Atoi(reply)
	if err != nil || score < 0 || score > 100 {
		return 0, &ErrUnparseable{Reply: reply}
	}
	return score, nil
}
