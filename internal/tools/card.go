package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/corpedigital/assistant-api/internal/common"
	"github.com/corpedigital/assistant-api/internal/corpe"
	"github.com/corpedigital/assistant-api/internal/logger"
)

// CredencialInvalidaSentence is the sentinel returned when the upstream
// rejects the kw session key. It is distinct from both the not-found and
// the generic technical-error sentences so the prompt logic can ask the
// user to log in again.
const CredencialInvalidaSentence = "Sua chave de acesso KW é inválida ou expirou. Por favor, faça login novamente para consultar a carteirinha."

// credentialErrorTerms are the upstream message fragments that indicate
// a rejected or expired kw. Matching is case-insensitive on message
// text; the upstream API offers no structured error code for this, so
// wording changes upstream will break the classification.
var credentialErrorTerms = []string{
	"kw inválida",
	"kw invalida",
	"acesso expirado",
	"token inválido",
	"token invalido",
	"token expirado",
}

// IsCredentialError classifies an upstream error message as a
// rejected/expired session key.
func IsCredentialError(message string) bool {
	lower := strings.ToLower(message)
	for _, term := range credentialErrorTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

type CardTool struct {
	api      Caller
	endpoint string
	log      *logger.Logger
}

func NewCardTool(api Caller, endpoint string, log *logger.Logger) *CardTool {
	return &CardTool{
		api:      api,
		endpoint: endpoint,
		log:      log.With("tool", "card_lookup"),
	}
}

type carteirinhaResp struct {
	Quantidade int `json:"quantidade"`
	Planos     []struct {
		Beneficiarios []beneficiario `json:"beneficiarios"`
	} `json:"planos"`
}

type beneficiario struct {
	Nome                 string        `json:"nome"`
	Tipo                 string        `json:"tipo"`
	CPF                  string        `json:"cpf"`
	NumeroCarteira       string        `json:"numerocarteira"`
	NumeroCarteiraOdonto string        `json:"numerocarteiraodonto"`
	DataNascimento       string        `json:"datanascimento"`
	Carteirinhas         []carteirinha `json:"carteirinhas"`
}

type carteirinha struct {
	NumeroCarteira       string `json:"numerocarteira"`
	NumeroCarteiraOdonto string `json:"numerocarteiraodonto"`
	DataNascimento       string `json:"datanascimento"`
}

func noCardSentence(cpf string) string {
	return fmt.Sprintf("Nenhuma informação da carterinha foi encontrada para o CPF %s.", cpf)
}

func cardErrorSentence(cpf string) string {
	return fmt.Sprintf("Não foi possível consultar a informação da carterinha para o CPF do cliente %s, ocorreu um erro técnico.", cpf)
}

// Lookup fetches the membership records for cpf using the caller's kw
// session key and renders them as a chat-ready reply.
func (t *CardTool) Lookup(ctx context.Context, cpf, kw string) string {
	raw, err := t.api.Send(ctx, map[string]string{"cpf": cpf, "kw": kw}, t.endpoint)
	if err != nil {
		t.log.Error("carteirinha lookup failed", "cpf", cpf, "error", err)
		if ue, ok := corpe.AsUpstreamError(err); ok {
			if IsCredentialError(ue.Message) {
				return CredencialInvalidaSentence
			}
			if ue.Status == http.StatusNotFound {
				return noCardSentence(cpf)
			}
		}
		return cardErrorSentence(cpf)
	}

	var resp carteirinhaResp
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.log.Error("carteirinha response malformed", "cpf", cpf, "error", err)
		return cardErrorSentence(cpf)
	}

	if resp.Quantidade == 0 {
		return noCardSentence(cpf)
	}

	// flatten: only beneficiaries with a card number, across every plan
	var found []beneficiario
	for _, plano := range resp.Planos {
		for _, b := range plano.Beneficiarios {
			if strings.TrimSpace(b.NumeroCarteira) != "" {
				found = append(found, b)
			}
		}
	}
	if len(found) == 0 {
		return noCardSentence(cpf)
	}

	var b strings.Builder
	b.WriteString("Informações da carteirinha encontradas:\n\n")

	for i, ben := range found {
		fmt.Fprintf(&b, "📋 Beneficiário %d:\n", i+1)
		fmt.Fprintf(&b, "• Nome: %s\n", ben.Nome)
		fmt.Fprintf(&b, "• Tipo: %s\n", ben.Tipo)
		fmt.Fprintf(&b, "• CPF: %s\n", ben.CPF)

		if len(ben.Carteirinhas) > 0 {
			for j, card := range ben.Carteirinhas {
				fmt.Fprintf(&b, "🔑 Carteirinha %d:\n", j+1)
				fmt.Fprintf(&b, "• Número da Carteira: %s\n", card.NumeroCarteira)
				if card.NumeroCarteiraOdonto != "" {
					fmt.Fprintf(&b, "   • Carteira Odonto: %s\n", card.NumeroCarteiraOdonto)
				}
				if card.DataNascimento != "" {
					fmt.Fprintf(&b, "• Data de Nascimento: %s\n", formatDataNascimento(card.DataNascimento))
				}
				b.WriteString("\n")
			}
			continue
		}

		// fallback when the card comes on the root object
		fmt.Fprintf(&b, "• Número da Carteira: %s\n", ben.NumeroCarteira)
		if ben.NumeroCarteiraOdonto != "" {
			fmt.Fprintf(&b, "• Carteira Odonto: %s\n", ben.NumeroCarteiraOdonto)
		}
		if ben.DataNascimento != "" {
			fmt.Fprintf(&b, "• Data de Nascimento: %s\n", formatDataNascimento(ben.DataNascimento))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// formatDataNascimento renders an upstream birth date as dd/mm/yyyy in
// São Paulo local time. Unparseable values pass through untouched.
func formatDataNascimento(raw string) string {
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed.In(common.SaoPaulo()).Format("02/01/2006")
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02"} {
		if parsed, err := time.ParseInLocation(layout, raw, common.SaoPaulo()); err == nil {
			return parsed.Format("02/01/2006")
		}
	}
	return raw
}
