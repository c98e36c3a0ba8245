// Package tools implements the two business lookups the assistant can
// invoke: boleto (billing) lookup and carteirinha (membership card)
// lookup. Tools never return errors; every failure is converted into a
// user-facing Portuguese sentence so the orchestration loop always has
// a usable string to feed back to the model.
package tools

import (
	"context"

	"github.com/corpedigital/assistant-api/internal/ai"
)

// Caller sends a payload to one Corpe endpoint. Satisfied by
// *corpe.Client; tests substitute fakes.
type Caller interface {
	Send(ctx context.Context, payload any, endpointPath string) ([]byte, error)
}

// PinDeriver yields the daily PIN for a CPF. Satisfied by *pin.Service.
type PinDeriver interface {
	Derive(ctx context.Context, cpf string) (string, error)
}

// Schemas lists the function definitions advertised to the model. The
// card lookup is only offered when enabled by configuration.
func Schemas(includeCardLookup bool) []ai.Function {
	fns := []ai.Function{
		{
			Name:        "ticket_lookup",
			Description: "Consulta boletos em aberto do usuário",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"cpf": map[string]any{
						"type":        "string",
						"description": "CPF do usuário (apenas números)",
					},
				},
				"required": []string{"cpf"},
			},
		},
	}

	if includeCardLookup {
		fns = append(fns, ai.Function{
			Name:        "card_lookup",
			Description: "Consulta informações da carteirinha do usuário",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"cpf": map[string]any{
						"type":        "string",
						"description": "CPF do usuário (apenas números)",
					},
					"kw": map[string]any{
						"type":        "string",
						"description": "Chave de acesso KW",
					},
				},
				"required": []string{"cpf", "kw"},
			},
		})
	}

	return fns
}
