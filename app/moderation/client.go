package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"reddish/app/logger"

	"github.com/hashicorp/go-retryablehttp"
)

// ChatMessage is one message of an OpenAI-compatible chat conversation.
type ChatMessage struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is a function invocation requested by the model.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Tool advertises a function the model may call.
type Tool struct {
	Type     string      `json:"type"`
	Function FunctionDef `json:"function"`
}

type FunctionDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// ChatRequestBody represents the request payload for the chat completions API.
type ChatRequestBody struct {
	Model      string        `json:"model"`
	Messages   []ChatMessage `json:"messages"`
	Tools      []Tool        `json:"tools,omitempty"`
	ToolChoice string        `json:"tool_choice,omitempty"`
}

type ChatChoice struct {
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

// ChatResponseBody represents the structure of the API response.
type ChatResponseBody struct {
	Choices []ChatChoice `json:"choices"`
}

// Completer sends one chat turn and returns the assistant's reply.
type Completer interface {
	Complete(ctx context.Context, req ChatRequestBody) (*ChatMessage, error)
}

// Client talks to a chat-completions endpoint, retrying transient failures.
type Client struct {
	http   *retryablehttp.Client
	url    string
	apiKey string
}

// NewClient builds a client. timeout bounds each attempt; the caller's context bounds the whole call.
func NewClient(url, apiKey string, timeout time.Duration) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.HTTPClient.Timeout = timeout
	rc.Logger = retryLogger{}

	return &Client{http: rc, url: url, apiKey: apiKey}
}

// Complete posts the conversation and returns the first choice.
func (c *Client) Complete(ctx context.Context, body ChatRequestBody) (*ChatMessage, error) {
	reqBytes, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(reqBytes))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling moderation model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("non-200 response from moderation model: %d; response: %s", resp.StatusCode, string(bodyBytes))
	}

	var responseBody ChatResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&responseBody); err != nil {
		return nil, fmt.Errorf("decoding moderation response: %w", err)
	}
	if len(responseBody.Choices) == 0 {
		return nil, errors.New("no completions returned")
	}
	return &responseBody.Choices[0].Message, nil
}

// retryLogger routes retryablehttp's leveled logs into zap.
type retryLogger struct{}

func (retryLogger) Error(msg string, kv ...interface{}) { logger.Log.Sugar().Errorw(msg, kv...) }
func (retryLogger) Warn(msg string, kv ...interface{})  { logger.Log.Sugar().Warnw(msg, kv...) }
func (retryLogger) Info(msg string, kv ...interface{})  { logger.Log.Sugar().Debugw(msg, kv...) }
func (retryLogger) Debug(msg string, kv ...interface{}) { logger.Log.Sugar().Debugw(msg, kv...) }
