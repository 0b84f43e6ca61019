// Package tokeninfo читает claims access-токена без проверки подписи.
// Клиент не владеет секретом, поэтому результат годится только для показа
// и диагностики, но не для авторизации.
package tokeninfo

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Info — сведения из access-токена.
type Info struct {
	UserID    string     `json:"user_id,omitempty"`    // claim user_id (так его выпускает API) или sub
	Algorithm string     `json:"alg"`                  // alg из заголовка
	IssuedAt  *time.Time `json:"issued_at,omitempty"`  // iat, если есть
	ExpiresAt *time.Time `json:"expires_at,omitempty"` // exp, если есть
}

// Expired сообщает, истёк ли токен к моменту now. Токен без exp не истекает.
func (i *Info) Expired(now time.Time) bool {
	return i.ExpiresAt != nil && !now.Before(*i.ExpiresAt)
}

// Inspect разбирает JWT без проверки подписи.
func Inspect(token string) (*Info, error) {
	claims := jwt.MapClaims{}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	info := &Info{Algorithm: parsed.Method.Alg()}

	switch v := claims["user_id"].(type) {
	case float64:
		info.UserID = strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		info.UserID = v
	}
	if info.UserID == "" {
		if sub, err := claims.GetSubject(); err == nil {
			info.UserID = sub
		}
	}

	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		t := exp.Time
		info.ExpiresAt = &t
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		t := iat.Time
		info.IssuedAt = &t
	}
	return info, nil
}
