package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"garden-app/internal/handler/response"
	"garden-app/pkg/logger"
)

// Recovery middleware для обработки паник и предотвращения краша приложения
func Recovery(log logger.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		log.Error("panic recovered", map[string]any{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"client_ip": c.ClientIP(),
			"panic":     fmt.Sprintf("%v", recovered),
		})

		// В production режиме не показываем детали ошибки
		message := "Произошла непредвиденная ошибка. Пожалуйста, попробуйте позже."
		if gin.Mode() == gin.DebugMode {
			message = fmt.Sprintf("%v", recovered)
		}

		response.Error(c, http.StatusInternalServerError, "internal_error", message, nil)
		c.Abort()
	})
}
