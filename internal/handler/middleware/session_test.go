package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"garden-app/internal/handler/middleware"
	"garden-app/internal/usecase/session"
	"garden-app/pkg/logger"
	"garden-app/pkg/tokeninfo"
)

type tokenStub struct {
	token string
	info  *tokeninfo.Info
	err   error
}

func (s tokenStub) Token(context.Context) (string, *tokeninfo.Info, error) {
	return s.token, s.info, s.err
}

func serve(t *testing.T, src middleware.TokenSource, accept string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/profile", middleware.Session(src, "/login", logger.Nop()), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(middleware.ContextTokenKey))
	})

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSession(t *testing.T) {
	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)

	t.Run("stored token passes", func(t *testing.T) {
		w := serve(t, tokenStub{token: "tok", info: &tokeninfo.Info{ExpiresAt: &future}}, "")
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "tok", w.Body.String())
	})

	t.Run("opaque token passes", func(t *testing.T) {
		w := serve(t, tokenStub{token: "opaque"}, "")
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("no session redirects", func(t *testing.T) {
		w := serve(t, tokenStub{err: session.ErrNoSession}, "")
		require.Equal(t, http.StatusSeeOther, w.Code)
		require.Equal(t, "/login", w.Header().Get("Location"))
	})

	t.Run("expired token is 401 for json", func(t *testing.T) {
		w := serve(t, tokenStub{token: "tok", info: &tokeninfo.Info{ExpiresAt: &past}}, "application/json")
		require.Equal(t, http.StatusUnauthorized, w.Code)
		require.Contains(t, w.Body.String(), "session_expired")
	})

	t.Run("storage error", func(t *testing.T) {
		w := serve(t, tokenStub{err: errors.New("redis down")}, "")
		require.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
