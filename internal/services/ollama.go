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

// OllamaOracle implements Oracle against a self-hosted Ollama server.
type OllamaOracle struct {
	baseURL    string
	modelName  string
	httpClient *http.Client
	retry      RetryPolicy
	logger     *slog.Logger
}

// Ensure OllamaOracle implements Oracle interface
var _ Oracle = (*OllamaOracle)(nil)

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaChatResponse struct {
	Model   string        `json:"model"`
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
	Error   string        `json:"error,omitempty"`
}

// NewOllamaOracle creates an oracle backed by an Ollama server.
func NewOllamaOracle(baseURL string, modelName string, logger *slog.Logger) *OllamaOracle {
	return &OllamaOracle{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		modelName: modelName,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		retry:  DefaultRetryPolicy,
		logger: logger,
	}
}

// WithRetryPolicy overrides the default retry policy.
func (o *OllamaOracle) WithRetryPolicy(p RetryPolicy) *OllamaOracle {
	o.retry = p
	return o
}

// EnsureModel verifies the server is reachable and the model is present,
// pulling it when missing. Intended for startup.
func (o *OllamaOracle) EnsureModel(ctx context.Context) error {
	ready, err := o.isModelReady(ctx)
	if err != nil {
		return fmt.Errorf("ollama server is not ready: %w", err)
	}
	if ready {
		o.logger.Info("Model already available", "model", o.modelName)
		return nil
	}

	o.logger.Info("Model not found, pulling it", "model", o.modelName)
	if err := o.pullModel(ctx); err != nil {
		return fmt.Errorf("failed to pull model: %w", err)
	}
	o.logger.Info("Model pulled successfully", "model", o.modelName)
	return nil
}

// GenerateText returns a prose completion for the prompt.
func (o *OllamaOracle) GenerateText(ctx context.Context, prompt string) (string, error) {
	var text string
	err := o.retry.Do(ctx, func() error {
		var callErr error
		text, callErr = o.chatCompletion(ctx, "", prompt)
		return callErr
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// GenerateObject asks for a JSON object and decodes it into out.
func (o *OllamaOracle) GenerateObject(ctx context.Context, prompt string, out any) error {
	var text string
	err := o.retry.Do(ctx, func() error {
		var callErr error
		text, callErr = o.chatCompletion(ctx, objectSystemPrompt, prompt)
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
		o.logger.Warn("Oracle object failed validation", "error", err, "raw", raw)
		return fmt.Errorf("failed to decode oracle object: %w", err)
	}
	return nil
}

// chatCompletion makes a single non-streaming chat request.
func (o *OllamaOracle) chatCompletion(ctx context.Context, system, prompt string) (string, error) {
	messages := make([]ollamaMessage, 0, 2)
	if system != "" {
		messages = append(messages, ollamaMessage{Role: "system", Content: system})
	}
	messages = append(messages, ollamaMessage{Role: "user", Content: prompt})

	body, err := json.Marshal(ollamaChatRequest{
		Model:    o.modelName,
		Messages: messages,
		Stream:   false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(httpReq)
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

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var chatResp ollamaChatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if chatResp.Error != "" {
		return "", fmt.Errorf("ollama API error: %s", chatResp.Error)
	}

	o.logger.Debug("Oracle completion", "model", chatResp.Model)
	return chatResp.Message.Content, nil
}

// isModelReady checks the server's model list for the configured model.
func (o *OllamaOracle) isModelReady(ctx context.Context) (bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/tags", nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return false, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("ollama API returned status %d", resp.StatusCode)
	}

	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return false, fmt.Errorf("failed to decode model list: %w", err)
	}

	for _, m := range tags.Models {
		if m.Name == o.modelName || strings.HasPrefix(m.Name, o.modelName+":") {
			return true, nil
		}
	}
	return false, nil
}

// pullModel downloads the configured model. Can take minutes on first
// use, so callers should pass a generous context.
func (o *OllamaOracle) pullModel(ctx context.Context) error {
	body, err := json.Marshal(map[string]any{
		"name":   o.modelName,
		"stream": false,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/pull", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("ollama API returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
