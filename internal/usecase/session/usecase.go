package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/sync/singleflight"

	domain "garden-app/internal/domain/registration"
	"garden-app/internal/storage"
	"garden-app/pkg/logger"
	"garden-app/pkg/tokeninfo"
)

// ErrNoSession — в хранилище нет access-токена.
var ErrNoSession = errors.New("no stored access token")

// API описывает нужные сессии эндпоинты удалённого API.
type API interface {
	Login(ctx context.Context, username, password string) domain.Outcome
	Profile(ctx context.Context, token string) (json.RawMessage, error)
}

// Service описывает usecase-слой сохранённой сессии: вход, профиль, выход.
type Service interface {
	// Login выполняет вход и при успехе сохраняет токен и пользователя.
	Login(ctx context.Context, username, password string) domain.Outcome

	// Profile запрашивает профиль по сохранённому токену.
	Profile(ctx context.Context) (json.RawMessage, error)

	// Token возвращает сохранённый токен и его разобранные claims.
	Token(ctx context.Context) (string, *tokeninfo.Info, error)

	// StoredUser возвращает сохранённый объект пользователя (или ErrNotFound).
	StoredUser(ctx context.Context) (json.RawMessage, error)

	// Logout удаляет токен и пользователя из хранилища.
	Logout(ctx context.Context) error
}

type service struct {
	api   API
	store storage.Store
	log   logger.Logger
	group singleflight.Group
}

// NewService создаёт сервис сессии.
func NewService(api API, store storage.Store, log logger.Logger) Service {
	return &service{api: api, store: store, log: log}
}

// Save записывает результат аутентификации в хранилище.
// Токен перезаписывается всегда. Если withUser, ключ user тоже перезаписывается,
// а при отсутствии user в ответе удаляется, чтобы не остался пользователь от старого токена.
// Если записать user не удалось, прежний токен восстанавливается: новый токен
// не остаётся в паре с чужим пользователем.
func Save(ctx context.Context, store storage.Store, result domain.AuthResult, withUser bool) error {
	if !withUser {
		if err := store.Set(ctx, domain.KeyAccessToken, result.AccessToken); err != nil {
			return fmt.Errorf("save access token: %w", err)
		}
		return nil
	}

	var user string
	if result.HasUser() {
		var compact bytes.Buffer
		if err := json.Compact(&compact, result.User); err != nil {
			return fmt.Errorf("encode user: %w", err)
		}
		user = compact.String()
	}

	prev, err := store.Get(ctx, domain.KeyAccessToken)
	hadPrev := err == nil
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("read access token: %w", err)
	}

	if err := store.Set(ctx, domain.KeyAccessToken, result.AccessToken); err != nil {
		return fmt.Errorf("save access token: %w", err)
	}

	if user == "" {
		err = store.Delete(ctx, domain.KeyUser)
		if err != nil {
			err = fmt.Errorf("delete stale user: %w", err)
		}
	} else {
		err = store.Set(ctx, domain.KeyUser, user)
		if err != nil {
			err = fmt.Errorf("save user: %w", err)
		}
	}
	if err == nil {
		return nil
	}

	var rollbackErr error
	if hadPrev {
		rollbackErr = store.Set(ctx, domain.KeyAccessToken, prev)
	} else {
		rollbackErr = store.Delete(ctx, domain.KeyAccessToken)
	}
	if rollbackErr != nil {
		return errors.Join(err, fmt.Errorf("restore access token: %w", rollbackErr))
	}
	return err
}

// Login выполняет вход. Неуспешные исходы возвращаются как есть, без записи в хранилище.
func (s *service) Login(ctx context.Context, username, password string) domain.Outcome {
	outcome := s.api.Login(ctx, username, password)

	accepted, ok := outcome.(domain.Accepted)
	if !ok {
		return outcome
	}

	if err := Save(ctx, s.store, accepted.Result, true); err != nil {
		s.log.Error("failed to persist login result", map[string]any{"err": err})
		return domain.TransportFailure{Err: err}
	}

	s.log.Info("logged in", map[string]any{"username": username})
	return outcome
}

// Profile запрашивает профиль. Одновременные вызовы делят один запрос к API.
func (s *service) Profile(ctx context.Context) (json.RawMessage, error) {
	token, err := s.store.Get(ctx, domain.KeyAccessToken)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("read access token: %w", err)
	}

	// Общий запрос не зависит от отмены первого вызывающего,
	// каждый вызывающий ждёт его не дольше своего ctx.
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(token, func() (any, error) {
		return s.api.Profile(shared, token)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(json.RawMessage), nil
	}
}

func (s *service) Token(ctx context.Context) (string, *tokeninfo.Info, error) {
	token, err := s.store.Get(ctx, domain.KeyAccessToken)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", nil, ErrNoSession
		}
		return "", nil, err
	}

	info, err := tokeninfo.Inspect(token)
	if err != nil {
		// Токен непрозрачен для клиента: не-JWT допустим, просто без claims.
		return token, nil, nil
	}
	return token, info, nil
}

func (s *service) StoredUser(ctx context.Context) (json.RawMessage, error) {
	raw, err := s.store.Get(ctx, domain.KeyUser)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(raw), nil
}

func (s *service) Logout(ctx context.Context) error {
	if err := s.store.Delete(ctx, domain.KeyAccessToken); err != nil {
		return fmt.Errorf("delete access token: %w", err)
	}
	if err := s.store.Delete(ctx, domain.KeyUser); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.log.Info("logged out", nil)
	return nil
}
