package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"garden-app/internal/domain/registration"
	"garden-app/pkg/logger"
)

// Пути эндпоинтов входа и профиля. Пути регистрации задаёт вариант формы.
const (
	LoginPath   = "/api/auth/login"
	ProfilePath = "/api/auth/profile"
)

// maxBodySize ограничивает размер читаемого ответа.
const maxBodySize = 1 << 20 // 1 MB

var (
	// ErrMissingToken — успешный ответ без access_token.
	ErrMissingToken = errors.New("response has no access_token")

	// ErrUnauthorized — сервер не принял токен.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrResponseTooLarge — тело ответа больше maxBodySize.
	ErrResponseTooLarge = errors.New("response body too large")
)

// APIError — неуспешный ответ эндпоинта, который не является отправкой формы.
type APIError struct {
	StatusCode int
	Detail     registration.Detail
}

func (e *APIError) Error() string {
	return e.Detail.Message(fmt.Sprintf("HTTP %d", e.StatusCode))
}

// Is позволяет проверять 401 через errors.Is(err, ErrUnauthorized).
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// Client ходит в удалённый API аутентификации.
// Повторов нет: каждый вызов — ровно один HTTP-запрос.
type Client struct {
	baseURL string
	http    *http.Client
	log     logger.Logger
}

// New создаёт клиента. Если httpClient nil, используется клиент без таймаута:
// запрос выполняется до конца или до ошибки, отменить его можно только через ctx.
func New(baseURL string, httpClient *http.Client, log logger.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if log == nil {
		log = logger.Default()
	}
	return &Client{baseURL: baseURL, http: httpClient, log: log}
}

// Register отправляет готовое JSON-тело регистрации на path.
func (c *Client) Register(ctx context.Context, path string, body []byte) registration.Outcome {
	return c.postForToken(ctx, path, body)
}

// Login выполняет вход по username и паролю.
func (c *Client) Login(ctx context.Context, username, password string) registration.Outcome {
	body, err := json.Marshal(struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}{username, password})
	if err != nil {
		return registration.TransportFailure{Err: err}
	}
	return c.postForToken(ctx, LoginPath, body)
}

// Profile возвращает профиль пользователя по access-токену как непрозрачный JSON.
func (c *Client) Profile(ctx context.Context, token string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+ProfilePath, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	status, raw, err := c.do(req)
	if err != nil {
		return nil, err
	}

	if status < 200 || status > 299 {
		apiErr := &APIError{StatusCode: status}
		var body struct {
			Detail registration.Detail `json:"detail"`
		}
		if json.Unmarshal(raw, &body) == nil {
			apiErr.Detail = body.Detail
		}
		return nil, apiErr
	}

	if !json.Valid(raw) {
		return nil, fmt.Errorf("decode profile: invalid JSON")
	}
	return json.RawMessage(raw), nil
}

// postForToken выполняет POST и превращает ответ в Outcome.
// Ошибки сети и разбора тела всегда дают TransportFailure.
func (c *Client) postForToken(ctx context.Context, path string, body []byte) registration.Outcome {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return registration.TransportFailure{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	status, raw, err := c.do(req)
	if err != nil {
		return registration.TransportFailure{Err: err}
	}

	if status >= 200 && status <= 299 {
		var result registration.AuthResult
		if err := json.Unmarshal(raw, &result); err != nil {
			return registration.TransportFailure{Err: fmt.Errorf("decode success body: %w", err)}
		}
		if result.AccessToken == "" {
			return registration.TransportFailure{Err: ErrMissingToken}
		}
		return registration.Accepted{Result: result}
	}

	var errBody struct {
		Detail registration.Detail `json:"detail"`
	}
	if err := json.Unmarshal(raw, &errBody); err != nil {
		return registration.TransportFailure{Err: fmt.Errorf("decode error body (HTTP %d): %w", status, err)}
	}
	return registration.Rejected{StatusCode: status, Detail: errBody.Detail}
}

func (c *Client) do(req *http.Request) (int, []byte, error) {
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("auth api request failed", map[string]any{
			"request_id": requestID,
			"method":     req.Method,
			"path":       req.URL.Path,
			"err":        err,
		})
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return 0, nil, fmt.Errorf("read response body: %w", err)
	}
	if len(raw) > maxBodySize {
		c.log.Error("auth api response too large", map[string]any{
			"request_id": requestID,
			"path":       req.URL.Path,
			"status":     resp.StatusCode,
			"limit":      maxBodySize,
		})
		return 0, nil, fmt.Errorf("%w (HTTP %d, limit %d bytes)", ErrResponseTooLarge, resp.StatusCode, maxBodySize)
	}

	c.log.Info("auth api responded", map[string]any{
		"request_id": requestID,
		"method":     req.Method,
		"path":       req.URL.Path,
		"status":     resp.StatusCode,
	})
	return resp.StatusCode, raw, nil
}
