package assistant

import (
	"strings"
	"text/template"
	"time"

	"github.com/corpedigital/assistant-api/internal/common"
)

const (
	loggedIn  = "usuário logado"
	loggedOut = "usuário não logado"
)

var systemPromptTmpl = template.Must(template.New("system-prompt").Parse(strings.TrimSpace(`
Você é a assistente virtual da Corpe. Você ajuda os usuários com consultas de boletos em aberto e informações da carteirinha do plano de saúde.

Data e hora atual (horário de Brasília): {{.DataFormatted}}
Status do login: {{.StatusLogin}}
{{- if .KW}}
Chave de acesso KW da sessão: {{.KW}}
{{- end}}

Regras:
- Sempre peça o CPF do usuário (apenas números) antes de realizar qualquer consulta.
- Use a função ticket_lookup para consultar boletos em aberto.
- Use a função card_lookup para consultar informações da carteirinha; essa consulta exige que o usuário esteja logado no sistema.
- Nunca invente dados de boletos ou de carteirinhas; responda apenas com o que as consultas retornarem.
- Responda sempre em português, de forma clara e cordial.
`)))

type promptData struct {
	KW            string
	StatusLogin   string
	DataFormatted string
}

// RenderSystemPrompt builds the system prompt for one turn. The
// timestamp is rendered in São Paulo local time as dd/mm/yyyy hh:mm:ss.
func RenderSystemPrompt(kw string, now time.Time) (string, error) {
	status := loggedOut
	if kw != "" {
		status = loggedIn
	}

	var b strings.Builder
	err := systemPromptTmpl.Execute(&b, promptData{
		KW:            kw,
		StatusLogin:   status,
		DataFormatted: now.In(common.SaoPaulo()).Format("02/01/2006 15:04:05"),
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

// Greeting returns the time-of-day salutation for São Paulo local time.
func Greeting(now time.Time) string {
	hour := now.In(common.SaoPaulo()).Hour()
	switch {
	case hour < 12:
		return "bom dia"
	case hour < 19:
		return "boa tarde"
	default:
		return "boa noite"
	}
}
