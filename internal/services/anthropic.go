package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	anthropicBaseURL = "https://api.anthropic.com/v1"
	anthropicVersion = "2023-06-01"

	DefaultAnthropicTemperature = 0.7
	DefaultAnthropicMaxTokens   = 2048
)

// AnthropicOracle implements Oracle against the Anthropic messages API.
type AnthropicOracle struct {
	apiKey     string
	modelName  string
	httpClient *http.Client
	retry      RetryPolicy
	logger     *slog.Logger
}

// Ensure AnthropicOracle implements Oracle interface
var _ Oracle = (*AnthropicOracle)(nil)

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicChatRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature *float64           `json:"temperature,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	Stream      bool               `json:"stream,omitempty"`
}

type anthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicChatResponse struct {
	ID         string                  `json:"id"`
	Type       string                  `json:"type"`
	Role       string                  `json:"role"`
	Content    []anthropicContentBlock `json:"content"`
	Model      string                  `json:"model"`
	StopReason string                  `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewAnthropicOracle creates an oracle backed by Anthropic Claude.
func NewAnthropicOracle(apiKey string, modelName string, logger *slog.Logger) *AnthropicOracle {
	return &AnthropicOracle{
		apiKey:    apiKey,
		modelName: modelName,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		retry:  DefaultRetryPolicy,
		logger: logger,
	}
}

// WithRetryPolicy overrides the default retry policy.
func (a *AnthropicOracle) WithRetryPolicy(p RetryPolicy) *AnthropicOracle {
	a.retry = p
	return a
}

// GenerateText returns a prose completion for the prompt.
func (a *AnthropicOracle) GenerateText(ctx context.Context, prompt string) (string, error) {
	var text string
	err := a.retry.Do(ctx, func() error {
		var callErr error
		text, callErr = a.chatCompletion(ctx, "", prompt)
		return callErr
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

const objectSystemPrompt = "You are a structured-data assistant for a narrative game engine. " +
	"Respond with a single JSON object and nothing else. " +
	"If no valid answer exists, respond with the literal token null."

// GenerateObject asks for a JSON object and decodes it into out.
func (a *AnthropicOracle) GenerateObject(ctx context.Context, prompt string, out any) error {
	var text string
	err := a.retry.Do(ctx, func() error {
		var callErr error
		text, callErr = a.chatCompletion(ctx, objectSystemPrompt, prompt)
		return callErr
	})
	if err != nil {
		return err
	}

	raw := extractJSON(text)
	if raw == "" || raw == "null" {
		return ErrNoObject
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		a.logger.Warn("Oracle object failed validation", "error", err, "raw", raw)
		return fmt.Errorf("failed to decode oracle object: %w", err)
	}
	return nil
}

// chatCompletion makes a single messages-API request.
func (a *AnthropicOracle) chatCompletion(ctx context.Context, system, prompt string) (string, error) {
	temperature := DefaultAnthropicTemperature
	req := anthropicChatRequest{
		Model:       a.modelName,
		MaxTokens:   DefaultAnthropicMaxTokens,
		Temperature: &temperature,
		Messages: []anthropicMessage{
			{Role: "user", Content: prompt},
		},
		System: system,
		Stream: false,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, anthropicBaseURL+"/messages", bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var chatResp anthropicChatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if chatResp.Error != nil {
		return "", fmt.Errorf("anthropic API error (%s): %s", chatResp.Error.Type, chatResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("anthropic API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var sb strings.Builder
	for _, block := range chatResp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	a.logger.Debug("Oracle completion",
		"model", chatResp.Model,
		"input_tokens", chatResp.Usage.InputTokens,
		"output_tokens", chatResp.Usage.OutputTokens)

	return sb.String(), nil
}

// extractJSON pulls the first balanced JSON object out of a completion,
// tolerating prose or code fences around it. Returns "null" for an
// explicit null answer and "" when nothing object-like is present.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	if text == "null" || strings.HasPrefix(text, "null\n") {
		return "null"
	}

	start := strings.Index(text, "{")
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch ch {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return text[start : i+1]
				}
			}
		}
	}
	return ""
}
