package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/corpedigital/assistant-api/internal/common"
	"github.com/corpedigital/assistant-api/internal/logger"
)

const RequestIDKey = "request_id"

// RequestID tags every request with a ULID, echoed on the response so
// clients can quote it when reporting problems.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			generated, err := common.NewULID()
			if err == nil {
				id = generated
			}
		}
		c.Set(RequestIDKey, id)
		c.Header("X-Request-Id", id)
		c.Next()
	}
}

// Recovery converts panics into a uniform 500 envelope instead of a
// dropped connection.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered",
					"panic", r,
					"path", c.Request.URL.Path,
					"request_id", c.GetString(RequestIDKey),
				)
				c.Abort()
				common.Fail(c, http.StatusInternalServerError, 50000, "internal error")
			}
		}()
		c.Next()
	}
}
