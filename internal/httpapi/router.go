package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/corpedigital/assistant-api/internal/common"
	"github.com/corpedigital/assistant-api/internal/httpapi/handlers"
	"github.com/corpedigital/assistant-api/internal/httpapi/middleware"
	"github.com/corpedigital/assistant-api/internal/logger"
)

func NewRouter(h *handlers.Handler, log *logger.Logger) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery(log))

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.Use(middleware.RequestID())

	r.GET("/health", h.Health)

	// chat
	r.POST("/assistant/chat", h.PostChat)
	r.POST("/assistant/chat/async", h.PostChatAsync)
	r.GET("/assistant/jobs/:job_id", h.GetJob)
	r.DELETE("/assistant/conversations/:id", h.DeleteConversation)

	// boleto downloads
	r.GET("/api/boleto/download/:token", h.DownloadBoleto)

	return r
}
