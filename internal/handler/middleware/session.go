package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"garden-app/internal/handler/response"
	"garden-app/internal/usecase/session"
	"garden-app/pkg/logger"
	"garden-app/pkg/tokeninfo"
)

// Ключи контекста gin, которые выставляет Session.
const (
	ContextTokenKey     = "accessToken"
	ContextTokenInfoKey = "accessTokenInfo"
)

// TokenSource отдаёт сохранённый access-токен.
type TokenSource interface {
	Token(ctx context.Context) (string, *tokeninfo.Info, error)
}

// Session пропускает запрос, только если в хранилище есть неистёкший токен.
// Иначе HTML-клиента отправляет на loginPath, JSON-клиенту отвечает 401.
// Подпись токена не проверяется: это делает API при запросе профиля.
func Session(tokens TokenSource, loginPath string, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, info, err := tokens.Token(c.Request.Context())
		switch {
		case errors.Is(err, session.ErrNoSession):
			deny(c, loginPath, "missing_session", "Вы не вошли в систему")
			return
		case err != nil:
			log.Error("read stored token", map[string]any{"err": err, "path": c.Request.URL.Path})
			response.Error(c, http.StatusInternalServerError, "storage_error", "Локальное хранилище недоступно", nil)
			c.Abort()
			return
		}

		if info != nil && info.Expired(time.Now()) {
			log.Info("stored token expired", map[string]any{"user_id": info.UserID})
			deny(c, loginPath, "session_expired", "Сессия истекла, войдите снова")
			return
		}

		c.Set(ContextTokenKey, token)
		if info != nil {
			c.Set(ContextTokenInfoKey, info)
		}
		c.Next()
	}
}

func deny(c *gin.Context, loginPath, code, message string) {
	if c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON {
		response.Error(c, http.StatusUnauthorized, code, message, nil)
		c.Abort()
		return
	}
	c.Redirect(http.StatusSeeOther, loginPath)
	c.Abort()
}
