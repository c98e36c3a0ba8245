package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/corpedigital/assistant-api/internal/artifact"
	"github.com/corpedigital/assistant-api/internal/corpe"
	"github.com/corpedigital/assistant-api/internal/logger"
)

// TicketConfig carries the endpoint paths and the public base URL used
// to build download links.
type TicketConfig struct {
	ListEndpoint   string
	DetailEndpoint string
	AppURL         string
}

type TicketTool struct {
	api   Caller
	pins  PinDeriver
	cache *artifact.Cache
	cfg   TicketConfig
	log   *logger.Logger
}

func NewTicketTool(api Caller, pins PinDeriver, cache *artifact.Cache, cfg TicketConfig, log *logger.Logger) *TicketTool {
	return &TicketTool{
		api:   api,
		pins:  pins,
		cache: cache,
		cfg:   cfg,
		log:   log.With("tool", "ticket_lookup"),
	}
}

type cobrancaListResp struct {
	Quantidade int `json:"quantidade"`
	Cobrancas  []struct {
		Codigo json.Number `json:"codigo"`
	} `json:"cobrancas"`
}

type boletoDetailResp struct {
	Message        string `json:"message"`
	LinhaDigitavel string `json:"linhaDigitavel"`
	Boleto         string `json:"boleto"`
}

func noBoletoSentence(cpf string) string {
	return fmt.Sprintf("Nenhum boleto encontrado para o CPF %s.", cpf)
}

func boletoErrorSentence(cpf string) string {
	return fmt.Sprintf("Erro ao consultar o boleto do CPF %s.", cpf)
}

// Lookup fetches the open billing records for cpf and renders them as a
// chat-ready reply. Detail fetches run sequentially and fail
// independently; a single bad item never aborts the lookup.
func (t *TicketTool) Lookup(ctx context.Context, cpf string) string {
	pin, err := t.pins.Derive(ctx, cpf)
	if err != nil {
		t.log.Error("pin derivation failed", "cpf", cpf, "error", err)
		return boletoErrorSentence(cpf)
	}

	raw, err := t.api.Send(ctx, map[string]string{"cpf": cpf, "pin": pin}, t.cfg.ListEndpoint)
	if err != nil {
		t.log.Error("cobranças lookup failed", "cpf", cpf, "error", err)
		if ue, ok := corpe.AsUpstreamError(err); ok && ue.Status == http.StatusNotFound {
			return noBoletoSentence(cpf)
		}
		return boletoErrorSentence(cpf)
	}

	var list cobrancaListResp
	if err := json.Unmarshal(raw, &list); err != nil {
		t.log.Error("cobranças response malformed", "cpf", cpf, "error", err)
		return boletoErrorSentence(cpf)
	}

	if list.Quantidade == 0 || len(list.Cobrancas) == 0 {
		return noBoletoSentence(cpf)
	}

	details := make([]boletoDetailResp, 0, len(list.Cobrancas))
	for _, cobranca := range list.Cobrancas {
		payload := map[string]string{
			"cpf":            cpf,
			"codigocobranca": cobranca.Codigo.String(),
			"pin":            pin,
		}
		rawDetail, err := t.api.Send(ctx, payload, t.cfg.DetailEndpoint)
		if err != nil {
			t.log.Error("boleto detail fetch failed",
				"cpf", cpf, "codigocobranca", cobranca.Codigo.String(), "error", err)
			continue
		}
		var detail boletoDetailResp
		if err := json.Unmarshal(rawDetail, &detail); err != nil {
			t.log.Error("boleto detail malformed",
				"cpf", cpf, "codigocobranca", cobranca.Codigo.String(), "error", err)
			continue
		}
		details = append(details, detail)
	}

	if len(details) == 0 {
		return noBoletoSentence(cpf)
	}

	return t.formatTicketResponse(details)
}

func (t *TicketTool) formatTicketResponse(details []boletoDetailResp) string {
	var blocks []string
	valid := 0

	for i, detail := range details {
		if detail.Message != "" {
			blocks = append(blocks, fmt.Sprintf("❌ Boleto %d: %s\n\n", i+1, detail.Message))
			continue
		}
		if detail.LinhaDigitavel == "" || detail.Boleto == "" {
			continue
		}
		valid++

		token, err := artifact.NewToken()
		if err != nil {
			t.log.Error("token generation failed", "error", err)
			continue
		}
		t.cache.Put(token, detail.Boleto, artifact.DefaultTTL)

		downloadLink := strings.TrimRight(t.cfg.AppURL, "/") + "/api/boleto/download/" + token
		linha := FormatLinhaDigitavel(detail.LinhaDigitavel)

		var b strings.Builder
		if len(details) > 1 {
			fmt.Fprintf(&b, "✅ **Boleto %d encontrado!**\n\n", i+1)
		} else {
			b.WriteString("✅ **Boleto encontrado!**\n\n")
		}
		b.WriteString("📋 **Linha Digitável:**\n")
		fmt.Fprintf(&b, "`%s`\n\n", linha)
		b.WriteString("📄 **Download do PDF:**\n")
		fmt.Fprintf(&b, "Clique no seguinte link para baixar o boleto: %s\n\n", downloadLink)
		b.WriteString("💡 **Dica:** Você pode copiar a linha digitável acima para pagar o boleto no internet banking ou app do seu banco.\n")
		b.WriteString("⏰ **Atenção:** O link para download expira em 1 hora.\n\n")

		blocks = append(blocks, b.String())
	}

	var response string
	if valid > 1 {
		response = fmt.Sprintf("✅ **%d Boletos encontrados!**\n\n", valid)
	}
	response += strings.Join(blocks, "---\n\n")

	response = strings.TrimSpace(response)
	if response == "" {
		return "Erro ao processar informações dos boletos."
	}
	return response
}
