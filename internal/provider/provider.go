// Package provider abstracts LLM completion backends. The conversation core
// treats a provider as a black box: bounded history in, text plus optional
// tool-call requests out.
package provider

import (
	"context"
	"errors"
)

// Role labels a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the conversation passed to the model.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ToolDef describes a tool the model may request.
type ToolDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ToolCall is a model-requested tool invocation.
type ToolCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// Completion is the result of one model call.
type Completion struct {
	Text      string     `json:"text"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// Distinguishable failure kinds. Callers branch with errors.Is; everything
// else is a generic provider error.
var (
	ErrQuota   = errors.New("llm quota exhausted")
	ErrTimeout = errors.New("llm request timed out")
)

// Provider is the interface all LLM backends satisfy.
type Provider interface {
	// Complete generates a completion for the given messages. Tools may be
	// nil; when present the model may return tool calls instead of (or in
	// addition to) text.
	Complete(ctx context.Context, messages []Message, tools []ToolDef) (Completion, error)
}

