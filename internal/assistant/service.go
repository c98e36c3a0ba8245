package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/corpedigital/assistant-api/internal/ai"
	"github.com/corpedigital/assistant-api/internal/conversation"
	"github.com/corpedigital/assistant-api/internal/cpf"
	"github.com/corpedigital/assistant-api/internal/logger"
	"github.com/corpedigital/assistant-api/internal/tools"
)

const (
	toolTicketLookup = "ticket_lookup"
	toolCardLookup   = "card_lookup"

	loginRequiredSentence = "Para consultar sua carteirinha, você precisa estar logado no sistema. Posso ajudar em mais alguma coisa?"
	unknownToolSentence   = "Função não encontrada"

	authErrorSentence      = "Erro de autenticação com OpenAI. Verifique a API key."
	rateLimitErrorSentence = "Limite de requisições excedido. Tente novamente em alguns instantes."
	internalErrorSentence  = "Erro interno. Tente novamente."
)

// TicketLookup fetches and renders open billing records for a CPF.
type TicketLookup interface {
	Lookup(ctx context.Context, cpf string) string
}

// CardLookup fetches and renders membership card records for a CPF.
type CardLookup interface {
	Lookup(ctx context.Context, cpf, kw string) string
}

// ConversationStore is the subset of the conversation store the
// orchestration layer needs.
type ConversationStore interface {
	Append(ctx context.Context, conversationID string, msg conversation.Message) error
	Read(ctx context.Context, conversationID string) ([]conversation.Message, error)
}

type Service struct {
	provider ai.Provider
	tickets  TicketLookup
	cards    CardLookup
	history  ConversationStore

	includeCardLookup bool
	log               *logger.Logger
	now               func() time.Time
}

func NewService(provider ai.Provider, tickets TicketLookup, cards CardLookup, history ConversationStore, includeCardLookup bool, log *logger.Logger) *Service {
	return &Service{
		provider:          provider,
		tickets:           tickets,
		cards:             cards,
		history:           history,
		includeCardLookup: includeCardLookup,
		log:               log,
		now:               time.Now,
	}
}

// Reply is the outcome of one orchestrated model exchange. Exactly one
// of Response or Error is meaningful, selected by Success.
type Reply struct {
	Success        bool
	Response       string
	Error          string
	FunctionCalled string
}

// toolResult feeds the second model call. Data carries the rendered
// lookup text; Error carries a synthesized failure sentence.
type toolResult struct {
	Success bool   `json:"success"`
	Data    string `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

type toolArgs struct {
	CPF string `json:"cpf"`
	KW  string `json:"kw"`
}

// ProcessUserMessage runs the tool-calling loop over the given history:
// one model call with the tool schemas offered, at most one tool
// dispatch, then a second call carrying the serialized tool result to
// produce the final text. Provider failures never escape as errors;
// they map to fixed user-facing sentences on the Reply.
func (s *Service) ProcessUserMessage(ctx context.Context, history []ai.Message, kw string) Reply {
	systemPrompt, err := RenderSystemPrompt(kw, s.now())
	if err != nil {
		s.log.Error("system prompt render failed", "error", err)
		return Reply{Error: internalErrorSentence}
	}

	msgs := make([]ai.Message, 0, len(history)+1)
	msgs = append(msgs, ai.Message{Role: "system", Content: systemPrompt})
	msgs = append(msgs, history...)

	// 1) first call, tools offered, model picks
	first, err := s.provider.ChatCompletion(ctx, ai.ChatRequest{
		Messages:     msgs,
		Functions:    tools.Schemas(s.includeCardLookup),
		FunctionCall: "auto",
		Temperature:  0.5,
		MaxTokens:    1000,
	})
	if err != nil {
		return s.providerFailure(err)
	}

	if first.FunctionCall == nil {
		return Reply{Success: true, Response: tools.FormatLinhaDigitavelInText(first.Content)}
	}

	// 2) dispatch the elected tool
	name := first.FunctionCall.Name
	result := s.dispatch(ctx, name, first.FunctionCall.Arguments, kw)

	serialized, err := json.Marshal(result)
	if err != nil {
		s.log.Error("tool result marshal failed", "function", name, "error", err)
		return Reply{Error: internalErrorSentence}
	}

	// 3) second call with the tool result, no tools this time
	followUp := make([]ai.Message, 0, len(msgs)+2)
	followUp = append(followUp, msgs...)
	followUp = append(followUp, first)
	followUp = append(followUp, ai.Message{
		Role:    "function",
		Name:    name,
		Content: string(serialized),
	})

	second, err := s.provider.ChatCompletion(ctx, ai.ChatRequest{
		Messages:    followUp,
		Temperature: 0.5,
		MaxTokens:   1000,
	})
	if err != nil {
		return s.providerFailure(err)
	}

	return Reply{
		Success:        true,
		Response:       tools.FormatLinhaDigitavelInText(second.Content),
		FunctionCalled: name,
	}
}

func (s *Service) dispatch(ctx context.Context, name, rawArgs, kw string) toolResult {
	var args toolArgs
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		s.log.Warn("malformed tool arguments", "function", name, "arguments", rawArgs, "error", err)
		return toolResult{Error: internalErrorSentence}
	}

	switch name {
	case toolTicketLookup:
		return toolResult{Success: true, Data: s.tickets.Lookup(ctx, args.CPF)}
	case toolCardLookup:
		kwArg := args.KW
		if kwArg == "" {
			kwArg = kw
		}
		if kwArg == "" {
			return toolResult{Error: loginRequiredSentence}
		}
		return toolResult{Success: true, Data: s.cards.Lookup(ctx, args.CPF, kwArg)}
	default:
		s.log.Warn("unknown tool elected", "function", name)
		return toolResult{Error: unknownToolSentence}
	}
}

func (s *Service) providerFailure(err error) Reply {
	s.log.Error("llm call failed", "error", err)

	var apiErr *ai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case 401:
			return Reply{Error: authErrorSentence}
		case 429:
			return Reply{Error: rateLimitErrorSentence}
		}
	}
	return Reply{Error: internalErrorSentence}
}

// TurnFailure is an orchestration failure carrying the user-facing
// sentence for the response body.
type TurnFailure struct {
	Message string
}

func (e *TurnFailure) Error() string {
	return e.Message
}

// TurnResult is the outcome of a full chat turn.
type TurnResult struct {
	ConversationID string
	Text           string
	FunctionCalled string
}

// HandleTurn runs one complete chat turn: load history, persist the
// user message, short-circuit to a greeting when this is the first
// assistant turn and no CPF was detected, otherwise run the model loop
// and persist the reply. Infrastructure errors surface as-is;
// orchestration failures come back as *TurnFailure.
func (s *Service) HandleTurn(ctx context.Context, conversationID, text, kw string) (TurnResult, error) {
	if conversationID == "" {
		conversationID = conversation.NewConversationID()
	}

	stored, err := s.history.Read(ctx, conversationID)
	if err != nil {
		return TurnResult{}, fmt.Errorf("read conversation %s: %w", conversationID, err)
	}

	firstAssistantTurn := true
	for _, m := range stored {
		if m.Role == "assistant" {
			firstAssistantTurn = false
			break
		}
	}

	segments := []string{}
	if trimmed := strings.TrimSpace(text); trimmed != "" {
		segments = append(segments, trimmed)
	} else {
		segments = append(segments, "[Mensagem vazia]")
	}

	cpfs := cpf.ExtractAll(text)
	metadata := map[string]any{}
	if len(cpfs) > 0 {
		formatted := make([]string, len(cpfs))
		for i, c := range cpfs {
			formatted[i] = cpf.Format(c)
		}
		segments = append(segments, fmt.Sprintf("CPF(s) detectado(s) nesta mensagem: %s.", strings.Join(formatted, ", ")))
		metadata["cpfs"] = cpfs
	}

	userContent := strings.Join(segments, "\n\n")
	if err := s.history.Append(ctx, conversationID, conversation.Message{
		Role:     "user",
		Content:  userContent,
		Metadata: metadata,
	}); err != nil {
		return TurnResult{}, fmt.Errorf("save user message: %w", err)
	}

	if firstAssistantTurn && len(cpfs) == 0 {
		greeting := Greeting(s.now())
		replyText := fmt.Sprintf("Olá, %s! Por favor, informe seu CPF (apenas números) para consulta. Obrigada.", greeting)

		if err := s.history.Append(ctx, conversationID, conversation.Message{
			Role:     "assistant",
			Content:  replyText,
			Metadata: map[string]any{"type": "auto_greeting", "greeting": greeting},
		}); err != nil {
			return TurnResult{}, fmt.Errorf("save greeting: %w", err)
		}
		return TurnResult{ConversationID: conversationID, Text: replyText}, nil
	}

	msgs := make([]ai.Message, 0, len(stored)+1)
	for _, m := range stored {
		msgs = append(msgs, ai.Message{Role: m.Role, Content: m.Content})
	}
	msgs = append(msgs, ai.Message{Role: "user", Content: userContent})

	result := s.ProcessUserMessage(ctx, msgs, kw)
	if !result.Success {
		return TurnResult{}, &TurnFailure{Message: result.Error}
	}

	if err := s.history.Append(ctx, conversationID, conversation.Message{
		Role:    "assistant",
		Content: result.Response,
	}); err != nil {
		return TurnResult{}, fmt.Errorf("save assistant message: %w", err)
	}

	return TurnResult{
		ConversationID: conversationID,
		Text:           result.Response,
		FunctionCalled: result.FunctionCalled,
	}, nil
}
