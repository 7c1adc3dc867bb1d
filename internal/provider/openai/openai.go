// Package openai implements the provider interface against the OpenAI
// chat-completions API, including native tool calling.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"tripweaver/config"
	"tripweaver/internal/provider"
)

const defaultAPIURL = "https://api.openai.com/v1/chat/completions"

// Client talks to the OpenAI chat-completions endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	maxTokens  int
	maxRetries int
	httpClient *http.Client
}

// New creates an OpenAI-backed provider from configuration.
func New(cfg config.LLMProvider) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultAPIURL
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		model:      model,
		maxTokens:  maxTokens,
		maxRetries: cfg.MaxRetries,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiTool struct {
	Type     string      `json:"type"`
	Function apiFunction `json:"function"`
}

type apiFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type apiRequest struct {
	Model     string       `json:"model"`
	Messages  []apiMessage `json:"messages"`
	MaxTokens int          `json:"max_tokens,omitempty"`
	Tools     []apiTool    `json:"tools,omitempty"`
}

type apiResponse struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete implements provider.Provider.
func (c *Client) Complete(ctx context.Context, messages []provider.Message, tools []provider.ToolDef) (provider.Completion, error) {
	req := apiRequest{Model: c.model, MaxTokens: c.maxTokens}
	for _, m := range messages {
		req.Messages = append(req.Messages, apiMessage{Role: string(m.Role), Content: m.Content})
	}
	for _, t := range tools {
		req.Tools = append(req.Tools, apiTool{
			Type:     "function",
			Function: apiFunction{Name: t.Name, Description: t.Description, Parameters: t.Parameters},
		})
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		comp, retryable, err := c.do(ctx, req)
		if err == nil {
			return comp, nil
		}
		lastErr = err
		if !retryable {
			break
		}
		select {
		case <-time.After(time.Duration(attempt+1) * 500 * time.Millisecond):
		case <-ctx.Done():
			return provider.Completion{}, fmt.Errorf("%w: %v", provider.ErrTimeout, ctx.Err())
		}
	}
	return provider.Completion{}, lastErr
}

func (c *Client) do(ctx context.Context, req apiRequest) (provider.Completion, bool, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return provider.Completion{}, false, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return provider.Completion{}, false, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		var ne net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
			return provider.Completion{}, false, fmt.Errorf("%w: %v", provider.ErrTimeout, err)
		}
		return provider.Completion{}, true, fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return provider.Completion{}, false, fmt.Errorf("%w: status %d", provider.ErrQuota, resp.StatusCode)
	}
	if resp.StatusCode >= 500 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return provider.Completion{}, true, fmt.Errorf("openai status %d: %s", resp.StatusCode, string(b))
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return provider.Completion{}, false, fmt.Errorf("openai status %d: %s", resp.StatusCode, string(b))
	}

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return provider.Completion{}, false, fmt.Errorf("decode response: %w", err)
	}
	if out.Error != nil {
		return provider.Completion{}, false, fmt.Errorf("openai error: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return provider.Completion{}, false, fmt.Errorf("openai returned no choices")
	}

	msg := out.Choices[0].Message
	comp := provider.Completion{Text: msg.Content}
	for _, tc := range msg.ToolCalls {
		args := map[string]any{}
		if tc.Function.Arguments != "" {
			// malformed tool arguments degrade to an empty map; the
			// orchestrator validates per tool
			_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
		}
		comp.ToolCalls = append(comp.ToolCalls, provider.ToolCall{Name: tc.Function.Name, Arguments: args})
	}
	return comp, false, nil
}
