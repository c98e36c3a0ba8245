package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type OpenAIProvider struct {
	BaseURL string
	APIKey  string
	Model   string
	Client  *http.Client
}

type openAIFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type openAIMsg struct {
	Role         string              `json:"role"`
	Content      string              `json:"content"`
	Name         string              `json:"name,omitempty"`
	FunctionCall *openAIFunctionCall `json:"function_call,omitempty"`
}

type openAIFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type openAIChatReq struct {
	Model        string           `json:"model"`
	Messages     []openAIMsg      `json:"messages"`
	Functions    []openAIFunction `json:"functions,omitempty"`
	FunctionCall string           `json:"function_call,omitempty"`
	Temperature  float64          `json:"temperature"`
	MaxTokens    int              `json:"max_tokens,omitempty"`
}

type openAIChatResp struct {
	Choices []struct {
		Message openAIMsg `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewOpenAIProvider(baseURL, apiKey, model string) *OpenAIProvider {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAIProvider{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		Client:  &http.Client{Timeout: 90 * time.Second},
	}
}

func (p *OpenAIProvider) ChatCompletion(ctx context.Context, req ChatRequest) (Message, error) {
	if p.Client == nil {
		return Message{}, errors.New("openai: http client is nil")
	}
	if strings.TrimSpace(p.APIKey) == "" {
		return Message{}, &APIError{Status: http.StatusUnauthorized, Message: "api key is required"}
	}
	model := strings.TrimSpace(p.Model)
	if model == "" {
		return Message{}, errors.New("openai: model is required")
	}

	reqBody := openAIChatReq{
		Model:        model,
		Temperature:  req.Temperature,
		MaxTokens:    req.MaxTokens,
		FunctionCall: req.FunctionCall,
		Messages: func() []openAIMsg {
			out := make([]openAIMsg, 0, len(req.Messages))
			for _, m := range req.Messages {
				wire := openAIMsg{Role: m.Role, Content: m.Content, Name: m.Name}
				if m.FunctionCall != nil {
					wire.FunctionCall = &openAIFunctionCall{
						Name:      m.FunctionCall.Name,
						Arguments: m.FunctionCall.Arguments,
					}
				}
				out = append(out, wire)
			}
			return out
		}(),
	}
	for _, f := range req.Functions {
		reqBody.Functions = append(reqBody.Functions, openAIFunction{
			Name:        f.Name,
			Description: f.Description,
			Parameters:  f.Parameters,
		})
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return Message{}, err
	}

	url := fmt.Sprintf("%s/chat/completions", strings.TrimRight(p.BaseURL, "/"))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return Message{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.APIKey)

	resp, err := p.Client.Do(httpReq)
	if err != nil {
		return Message{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return Message{}, &APIError{Status: resp.StatusCode, Message: msg}
	}

	var decoded openAIChatResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Message{}, err
	}
	if decoded.Error != nil && decoded.Error.Message != "" {
		return Message{}, errors.New(decoded.Error.Message)
	}
	if len(decoded.Choices) == 0 {
		return Message{}, errors.New("openai: empty response")
	}

	wire := decoded.Choices[0].Message
	out := Message{Role: wire.Role, Content: wire.Content, Name: wire.Name}
	if wire.FunctionCall != nil {
		out.FunctionCall = &FunctionCall{
			Name:      wire.FunctionCall.Name,
			Arguments: wire.FunctionCall.Arguments,
		}
	}
	return out, nil
}
