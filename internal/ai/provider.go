package ai

import (
	"context"
	"fmt"
)

// Message is one chat turn. FunctionCall is set when the assistant
// elects a tool; Name is set on role "function" result messages.
type Message struct {
	Role         string
	Content      string
	Name         string
	FunctionCall *FunctionCall
}

// FunctionCall is the model's tool-call directive. Arguments is the raw
// JSON the model produced; parsing it can fail and callers must cope.
type FunctionCall struct {
	Name      string
	Arguments string
}

// Function describes one callable tool, JSON-schema parameters included.
type Function struct {
	Name        string
	Description string
	Parameters  map[string]any
}

type ChatRequest struct {
	Messages  []Message
	Functions []Function
	// FunctionCall is "auto" to let the model choose, empty to offer no tools.
	FunctionCall string
	Temperature  float64
	MaxTokens    int
}

type Provider interface {
	ChatCompletion(ctx context.Context, req ChatRequest) (Message, error)
}

// APIError is a non-2xx answer from the LLM provider. The orchestration
// layer switches on Status to pick the user-facing sentence.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("llm provider: status %d: %s", e.Status, e.Message)
}
