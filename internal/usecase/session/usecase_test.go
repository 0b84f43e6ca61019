package session_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	domain "garden-app/internal/domain/registration"
	"garden-app/internal/storage"
	"garden-app/internal/storage/memory"
	"garden-app/internal/usecase/session"
	"garden-app/pkg/logger"
)

type fakeAPI struct {
	login        domain.Outcome
	profile      json.RawMessage
	profileErr   error
	profileCalls atomic.Int32
	gate         chan struct{}
}

func (a *fakeAPI) Login(context.Context, string, string) domain.Outcome { return a.login }

func (a *fakeAPI) Profile(context.Context, string) (json.RawMessage, error) {
	a.profileCalls.Add(1)
	if a.gate != nil {
		<-a.gate
	}
	return a.profile, a.profileErr
}

func TestSave(t *testing.T) {
	ctx := context.Background()

	t.Run("token and user", func(t *testing.T) {
		store := memory.New()
		err := session.Save(ctx, store, domain.AuthResult{
			AccessToken: "tok",
			User:        json.RawMessage(`{ "id" : 1 }`),
		}, true)
		require.NoError(t, err)

		user, err := store.Get(ctx, domain.KeyUser)
		require.NoError(t, err)
		require.Equal(t, `{"id":1}`, user)
	})

	t.Run("token only variant keeps user key untouched", func(t *testing.T) {
		store := memory.New()
		require.NoError(t, store.Set(ctx, domain.KeyUser, `{"id":9}`))

		require.NoError(t, session.Save(ctx, store, domain.AuthResult{AccessToken: "tok2"}, false))

		token, err := store.Get(ctx, domain.KeyAccessToken)
		require.NoError(t, err)
		require.Equal(t, "tok2", token)
		user, err := store.Get(ctx, domain.KeyUser)
		require.NoError(t, err)
		require.Equal(t, `{"id":9}`, user)
	})

	t.Run("user variant without user drops stale user", func(t *testing.T) {
		store := memory.New()
		require.NoError(t, store.Set(ctx, domain.KeyUser, `{"id":9}`))

		require.NoError(t, session.Save(ctx, store, domain.AuthResult{AccessToken: "tok3"}, true))

		_, err := store.Get(ctx, domain.KeyUser)
		require.ErrorIs(t, err, storage.ErrNotFound)
	})
}

// brokenUserStore отказывает в записи и удалении ключа user.
type brokenUserStore struct {
	storage.Store
}

func (s brokenUserStore) Set(ctx context.Context, key, value string) error {
	if key == domain.KeyUser {
		return errors.New("disk full")
	}
	return s.Store.Set(ctx, key, value)
}

func (s brokenUserStore) Delete(ctx context.Context, key string) error {
	if key == domain.KeyUser {
		return errors.New("disk full")
	}
	return s.Store.Delete(ctx, key)
}

func TestSave_UserWriteFailureRollsBackToken(t *testing.T) {
	ctx := context.Background()

	t.Run("previous token is restored", func(t *testing.T) {
		store := memory.New()
		require.NoError(t, store.Set(ctx, domain.KeyAccessToken, "old-token"))
		require.NoError(t, store.Set(ctx, domain.KeyUser, `{"id":1}`))

		err := session.Save(ctx, brokenUserStore{store}, domain.AuthResult{
			AccessToken: "new-token",
			User:        json.RawMessage(`{"id":2}`),
		}, true)
		require.Error(t, err)

		token, err := store.Get(ctx, domain.KeyAccessToken)
		require.NoError(t, err)
		require.Equal(t, "old-token", token)
	})

	t.Run("new token is removed when there was none", func(t *testing.T) {
		store := memory.New()

		err := session.Save(ctx, brokenUserStore{store}, domain.AuthResult{
			AccessToken: "new-token",
			User:        json.RawMessage(`{"id":2}`),
		}, true)
		require.Error(t, err)

		_, err = store.Get(ctx, domain.KeyAccessToken)
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("failed stale user delete restores token", func(t *testing.T) {
		store := memory.New()
		require.NoError(t, store.Set(ctx, domain.KeyAccessToken, "old-token"))

		err := session.Save(ctx, brokenUserStore{store}, domain.AuthResult{AccessToken: "new-token"}, true)
		require.Error(t, err)

		token, err := store.Get(ctx, domain.KeyAccessToken)
		require.NoError(t, err)
		require.Equal(t, "old-token", token)
	})

	t.Run("invalid user json writes nothing", func(t *testing.T) {
		store := memory.New()

		err := session.Save(ctx, store, domain.AuthResult{
			AccessToken: "new-token",
			User:        json.RawMessage(`{"id":`),
		}, true)
		require.Error(t, err)
		require.Zero(t, store.Len())
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("accepted is persisted", func(t *testing.T) {
		store := memory.New()
		api := &fakeAPI{login: domain.Accepted{Result: domain.AuthResult{AccessToken: "tok", User: json.RawMessage(`{"id":1}`)}}}
		svc := session.NewService(api, store, logger.Nop())

		out := svc.Login(ctx, "alice", "pw")
		require.IsType(t, domain.Accepted{}, out)
		require.Equal(t, 2, store.Len())
	})

	t.Run("rejected leaves store empty", func(t *testing.T) {
		store := memory.New()
		api := &fakeAPI{login: domain.Rejected{StatusCode: 401, Detail: domain.Detail{Text: "Неверный пароль"}}}
		svc := session.NewService(api, store, logger.Nop())

		out := svc.Login(ctx, "alice", "pw")
		require.IsType(t, domain.Rejected{}, out)
		require.Zero(t, store.Len())
	})
}

func TestProfile_NoSession(t *testing.T) {
	svc := session.NewService(&fakeAPI{}, memory.New(), logger.Nop())

	_, err := svc.Profile(context.Background())
	require.ErrorIs(t, err, session.ErrNoSession)
}

func TestProfile_SharesConcurrentCalls(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.Set(ctx, domain.KeyAccessToken, "tok"))

	api := &fakeAPI{profile: json.RawMessage(`{"id":1}`), gate: make(chan struct{})}
	svc := session.NewService(api, store, logger.Nop())

	const callers = 5
	var wg sync.WaitGroup
	results := make([]json.RawMessage, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := svc.Profile(ctx)
			if err == nil {
				results[i] = p
			}
		}(i)
	}

	// Даём вызовам собраться на одном ключе
	require.Eventually(t, func() bool { return api.profileCalls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(api.gate)
	wg.Wait()

	require.LessOrEqual(t, api.profileCalls.Load(), int32(callers))
	for _, p := range results {
		require.JSONEq(t, `{"id":1}`, string(p))
	}
}

// ctxAPI запоминает, был ли отменён ctx запроса профиля к моменту ответа.
type ctxAPI struct {
	fakeAPI
	ctxErr chan error
}

func (a *ctxAPI) Profile(ctx context.Context, token string) (json.RawMessage, error) {
	p, err := a.fakeAPI.Profile(ctx, token)
	a.ctxErr <- ctx.Err()
	return p, err
}

func TestProfile_CancelledCallerDoesNotFailOthers(t *testing.T) {
	store := memory.New()
	require.NoError(t, store.Set(context.Background(), domain.KeyAccessToken, "tok"))

	api := &ctxAPI{
		fakeAPI: fakeAPI{profile: json.RawMessage(`{"id":1}`), gate: make(chan struct{})},
		ctxErr:  make(chan error, 2),
	}
	svc := session.NewService(api, store, logger.Nop())

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Profile(first)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return api.profileCalls.Load() == 1 }, time.Second, time.Millisecond)

	type result struct {
		profile json.RawMessage
		err     error
	}
	second := make(chan result, 1)
	go func() {
		p, err := svc.Profile(context.Background())
		second <- result{p, err}
	}()

	cancel()
	require.ErrorIs(t, <-firstErr, context.Canceled)

	close(api.gate)
	res := <-second
	require.NoError(t, res.err)
	require.JSONEq(t, `{"id":1}`, string(res.profile))
	require.NoError(t, <-api.ctxErr)
}

func TestProfile_PropagatesError(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.Set(ctx, domain.KeyAccessToken, "tok"))

	boom := errors.New("boom")
	svc := session.NewService(&fakeAPI{profileErr: boom}, store, logger.Nop())

	_, err := svc.Profile(ctx)
	require.ErrorIs(t, err, boom)
}

func TestToken(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := session.NewService(&fakeAPI{}, store, logger.Nop())

	_, _, err := svc.Token(ctx)
	require.ErrorIs(t, err, session.ErrNoSession)

	require.NoError(t, store.Set(ctx, domain.KeyAccessToken, "opaque-token"))
	token, info, err := svc.Token(ctx)
	require.NoError(t, err)
	require.Equal(t, "opaque-token", token)
	require.Nil(t, info)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 42,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("server-secret"))
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, domain.KeyAccessToken, signed))

	_, info, err = svc.Token(ctx)
	require.NoError(t, err)
	require.NotNil(t, info)
	require.Equal(t, "42", info.UserID)
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.Set(ctx, domain.KeyAccessToken, "tok"))
	require.NoError(t, store.Set(ctx, domain.KeyUser, `{"id":1}`))
	svc := session.NewService(&fakeAPI{}, store, logger.Nop())

	require.NoError(t, svc.Logout(ctx))
	require.Zero(t, store.Len())

	// Повторный выход не ошибка
	require.NoError(t, svc.Logout(ctx))
}
