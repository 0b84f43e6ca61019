package response

import "github.com/gin-gonic/gin"

// ErrorBody описывает стандартный формат ошибки JSON-ответа.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse — обёртка ошибки: {"error": {...}}.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error отправляет JSON-ответ с ошибкой в едином формате.
func Error(c *gin.Context, status int, code, message string, details any) {
	c.JSON(status, ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}
