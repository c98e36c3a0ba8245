package handlers

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/corpedigital/assistant-api/internal/common"
)

// DownloadBoleto serves a cached boleto PDF by its one-time token.
// Expired or unknown tokens answer 404; links are short-lived on purpose.
func (h *Handler) DownloadBoleto(c *gin.Context) {
	token := c.Param("token")

	blob, ok := h.Artifacts.Get(token)
	if !ok {
		common.Fail(c, http.StatusNotFound, 40402, "Boleto não encontrado ou link expirado.")
		return
	}

	pdf, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		h.Log.Error("boleto decode failed", "token", token, "error", err)
		common.Fail(c, http.StatusInternalServerError, 50004, "Não foi possível gerar o download do boleto.")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="boleto-`+token+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
