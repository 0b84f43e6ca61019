package registration_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "garden-app/internal/domain/registration"
	"garden-app/internal/form"
	"garden-app/internal/storage"
	"garden-app/internal/storage/memory"
	reguc "garden-app/internal/usecase/registration"
	"garden-app/pkg/logger"
)

// ==== Fakes ====

type fakeAPI struct {
	mu      sync.Mutex
	calls   int
	path    string
	body    map[string]any
	outcome domain.Outcome
	// release, если задан, держит запрос до закрытия канала.
	release chan struct{}
	started chan struct{}
}

func (a *fakeAPI) Register(_ context.Context, path string, body []byte) domain.Outcome {
	a.mu.Lock()
	a.calls++
	a.path = path
	a.body = map[string]any{}
	_ = json.Unmarshal(body, &a.body)
	a.mu.Unlock()

	if a.started != nil {
		close(a.started)
	}
	if a.release != nil {
		<-a.release
	}
	return a.outcome
}

type fakeTimer struct {
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeScheduler struct {
	delays []time.Duration
	fns    []func()
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) reguc.Timer {
	t := &fakeTimer{}
	s.delays = append(s.delays, d)
	s.fns = append(s.fns, f)
	s.timers = append(s.timers, t)
	return t
}

type fakeNavigator struct {
	urls []string
}

func (n *fakeNavigator) Navigate(url string) { n.urls = append(n.urls, url) }

type failingStore struct {
	storage.Store
}

func (failingStore) Set(context.Context, string, string) error { return errors.New("disk full") }

// userFailingStore отказывает только в записи ключа user.
type userFailingStore struct {
	storage.Store
}

func (s userFailingStore) Set(ctx context.Context, key, value string) error {
	if key == domain.KeyUser {
		return errors.New("disk full")
	}
	return s.Store.Set(ctx, key, value)
}

// ==== Helpers ====

func usernameForm(username string) form.Values {
	return form.Values{
		"username":    username,
		"fio":         "  Алиса Иванова ",
		"password":    " Secret_1! ",
		"birth_date":  "1990-05-01",
		"address":     " Москва, ул. Садовая ",
		"gender":      "women",
		"interests":   "   ",
		"vk_link":     " https://vk.com/alice ",
		"blood_group": "2",
		"rh_factor":   " + ",
	}
}

type fixture struct {
	api       *fakeAPI
	store     *memory.Store
	scheduler *fakeScheduler
	navigator *fakeNavigator
	submitter *reguc.Submitter
}

func newFixture(t *testing.T, variantName string, outcome domain.Outcome) *fixture {
	t.Helper()
	variant, err := domain.LookupVariant(variantName)
	require.NoError(t, err)

	f := &fixture{
		api:       &fakeAPI{outcome: outcome},
		store:     memory.New(),
		scheduler: &fakeScheduler{},
		navigator: &fakeNavigator{},
	}
	f.submitter = reguc.NewSubmitter(f.api, f.store, logger.Nop(), reguc.Options{
		Variant:       variant,
		RedirectURL:   "profile.html",
		RedirectDelay: 2 * time.Second,
		Navigator:     f.navigator,
		Scheduler:     f.scheduler,
	})
	return f
}

func accepted(token string, user string) domain.Accepted {
	r := domain.AuthResult{AccessToken: token}
	if user != "" {
		r.User = json.RawMessage(user)
	}
	return domain.Accepted{Result: r}
}

// ==== Tests ====

func TestHandleSubmit_StripsMarkerAndBuildsPayload(t *testing.T) {
	f := newFixture(t, domain.VariantUsername, accepted("tok123", `{"id":1}`))
	var view form.View

	_, err := f.submitter.HandleSubmit(context.Background(), usernameForm("  @alice "), &view)
	require.NoError(t, err)

	require.Equal(t, 1, f.api.calls)
	require.Equal(t, "/api/auth/reg", f.api.path)
	require.Equal(t, "alice", f.api.body["username"])
	require.Equal(t, "Алиса Иванова", f.api.body["full_name"])
	require.Equal(t, " Secret_1! ", f.api.body["password"], "пароль не обрезается")
	require.Equal(t, "Москва, ул. Садовая", f.api.body["address"])
	require.Equal(t, domain.GenderFemale, f.api.body["gender"])
	require.Nil(t, f.api.body["hobby"], "пустое хобби уходит как null")
	require.Equal(t, "https://vk.com/alice", f.api.body["vk_profile"])
	require.Equal(t, "+", f.api.body["rh_factor"])
}

func TestHandleSubmit_MissingMarker_NoRequest(t *testing.T) {
	f := newFixture(t, domain.VariantUsername, accepted("tok123", ""))
	var view form.View

	out, err := f.submitter.HandleSubmit(context.Background(), usernameForm("alice"), &view)
	require.NoError(t, err)
	require.Equal(t, domain.Invalid{Message: domain.MsgMarkerRequired}, out)

	require.Zero(t, f.api.calls)
	require.True(t, view.Error.Visible)
	require.Equal(t, domain.MsgMarkerRequired, view.Error.Text)
	require.False(t, view.Success.Visible)
	require.Zero(t, f.store.Len())
}

func TestHandleSubmit_Success_StoresTokenAndSchedulesRedirect(t *testing.T) {
	f := newFixture(t, domain.VariantUsername, accepted("tok123", `{ "id": 7, "username": "alice" }`))
	var view form.View

	out, err := f.submitter.HandleSubmit(context.Background(), usernameForm("@alice"), &view)
	require.NoError(t, err)
	require.IsType(t, domain.Accepted{}, out)

	ctx := context.Background()
	token, err := f.store.Get(ctx, domain.KeyAccessToken)
	require.NoError(t, err)
	require.Equal(t, "tok123", token)

	user, err := f.store.Get(ctx, domain.KeyUser)
	require.NoError(t, err)
	require.Equal(t, `{"id":7,"username":"alice"}`, user)

	require.True(t, view.Success.Visible)
	require.Equal(t, domain.MsgRegistered, view.Success.Text)
	require.False(t, view.Error.Visible)
	require.Equal(t, &form.Redirect{URL: "profile.html", After: 2000 * time.Millisecond}, view.Redirect)

	require.Equal(t, []time.Duration{2000 * time.Millisecond}, f.scheduler.delays)
	require.Empty(t, f.navigator.urls, "переход только запланирован")
	f.scheduler.fns[0]()
	require.Equal(t, []string{"profile.html"}, f.navigator.urls)
}

func TestHandleSubmit_PhoneVariant_StoresOnlyToken(t *testing.T) {
	f := newFixture(t, domain.VariantPhone, accepted("tok-phone", ""))
	doc := usernameForm("")
	delete(doc, "username")
	doc["phone"] = " +79990001122 "
	var view form.View

	_, err := f.submitter.HandleSubmit(context.Background(), doc, &view)
	require.NoError(t, err)

	require.Equal(t, "/api/auth/register", f.api.path)
	require.Equal(t, "+79990001122", f.api.body["phone"])
	require.Equal(t, "Алиса Иванова", f.api.body["fio"])
	require.Equal(t, 1, f.store.Len())
	require.True(t, view.Success.Visible)
}

func TestHandleSubmit_RejectedList(t *testing.T) {
	var detail domain.Detail
	require.NoError(t, json.Unmarshal([]byte(`[{"msg":"bad address"},{"msg":"bad phone"}]`), &detail))
	f := newFixture(t, domain.VariantUsername, domain.Rejected{StatusCode: 422, Detail: detail})
	var view form.View

	_, err := f.submitter.HandleSubmit(context.Background(), usernameForm("@alice"), &view)
	require.NoError(t, err)
	require.True(t, view.Error.Visible)
	require.Equal(t, "bad address, bad phone", view.Error.Text)
	require.Zero(t, f.store.Len())
	require.Empty(t, f.scheduler.delays)
}

func TestHandleSubmit_RejectedString(t *testing.T) {
	f := newFixture(t, domain.VariantUsername, domain.Rejected{StatusCode: 400, Detail: domain.Detail{Text: "duplicate user"}})
	var view form.View

	_, err := f.submitter.HandleSubmit(context.Background(), usernameForm("@alice"), &view)
	require.NoError(t, err)
	require.Equal(t, "duplicate user", view.Error.Text)
}

func TestHandleSubmit_RejectedWithoutDetail(t *testing.T) {
	f := newFixture(t, domain.VariantUsername, domain.Rejected{StatusCode: 500})
	var view form.View

	_, err := f.submitter.HandleSubmit(context.Background(), usernameForm("@alice"), &view)
	require.NoError(t, err)
	require.Equal(t, domain.MsgRegistrationFailed, view.Error.Text)
}

func TestHandleSubmit_TransportFailure_NoStoreWrites(t *testing.T) {
	f := newFixture(t, domain.VariantUsername, domain.TransportFailure{Err: errors.New("connection refused")})
	var view form.View

	out, err := f.submitter.HandleSubmit(context.Background(), usernameForm("@alice"), &view)
	require.NoError(t, err)
	require.IsType(t, domain.TransportFailure{}, out)

	require.True(t, view.Error.Visible)
	require.Equal(t, domain.MsgConnectionFailed, view.Error.Text)
	require.NotContains(t, view.Error.Text, "connection refused")
	require.Zero(t, f.store.Len())
}

func TestHandleSubmit_StoreFailure_ShowsConnectionError(t *testing.T) {
	variant, err := domain.LookupVariant(domain.VariantUsername)
	require.NoError(t, err)
	api := &fakeAPI{outcome: accepted("tok123", `{"id":1}`)}
	sched := &fakeScheduler{}
	s := reguc.NewSubmitter(api, failingStore{memory.New()}, logger.Nop(), reguc.Options{
		Variant: variant, RedirectURL: "profile.html", RedirectDelay: 2 * time.Second,
		Navigator: &fakeNavigator{}, Scheduler: sched,
	})
	var view form.View

	out, err := s.HandleSubmit(context.Background(), usernameForm("@alice"), &view)
	require.NoError(t, err)
	require.IsType(t, domain.TransportFailure{}, out)
	require.Equal(t, domain.MsgConnectionFailed, view.Error.Text)
	require.False(t, view.Success.Visible)
	require.Empty(t, sched.delays)
}

func TestHandleSubmit_UserWriteFailure_KeepsPreviousSession(t *testing.T) {
	ctx := context.Background()
	variant, err := domain.LookupVariant(domain.VariantUsername)
	require.NoError(t, err)

	store := memory.New()
	require.NoError(t, store.Set(ctx, domain.KeyAccessToken, "old-token"))
	require.NoError(t, store.Set(ctx, domain.KeyUser, `{"id":1,"username":"old"}`))

	api := &fakeAPI{outcome: accepted("new-token", `{"id":2,"username":"alice"}`)}
	sched := &fakeScheduler{}
	s := reguc.NewSubmitter(api, userFailingStore{store}, logger.Nop(), reguc.Options{
		Variant: variant, RedirectURL: "profile.html", RedirectDelay: 2 * time.Second,
		Navigator: &fakeNavigator{}, Scheduler: sched,
	})
	var view form.View

	out, err := s.HandleSubmit(ctx, usernameForm("@alice"), &view)
	require.NoError(t, err)
	require.IsType(t, domain.TransportFailure{}, out)
	require.Equal(t, domain.MsgConnectionFailed, view.Error.Text)
	require.Empty(t, sched.delays)

	token, err := store.Get(ctx, domain.KeyAccessToken)
	require.NoError(t, err)
	require.Equal(t, "old-token", token)
	user, err := store.Get(ctx, domain.KeyUser)
	require.NoError(t, err)
	require.Equal(t, `{"id":1,"username":"old"}`, user)
}

func TestHandleSubmit_ResubmitResetsView(t *testing.T) {
	f := newFixture(t, domain.VariantUsername, domain.TransportFailure{Err: errors.New("timeout")})
	var view form.View

	_, err := f.submitter.HandleSubmit(context.Background(), usernameForm("@alice"), &view)
	require.NoError(t, err)
	require.True(t, view.Error.Visible)

	f.api.outcome = accepted("tok123", `{"id":1}`)
	_, err = f.submitter.HandleSubmit(context.Background(), usernameForm("@alice"), &view)
	require.NoError(t, err)
	require.False(t, view.Error.Visible)
	require.True(t, view.Success.Visible)

	// После успеха повторная отправка с ошибкой прячет элемент успеха
	_, err = f.submitter.HandleSubmit(context.Background(), usernameForm("alice"), &view)
	require.NoError(t, err)
	require.False(t, view.Success.Visible)
	require.True(t, view.Error.Visible)
	require.Nil(t, view.Redirect)
}

func TestHandleSubmit_NextSubmitCancelsPendingRedirect(t *testing.T) {
	f := newFixture(t, domain.VariantUsername, accepted("tok123", `{"id":1}`))
	var view form.View

	_, err := f.submitter.HandleSubmit(context.Background(), usernameForm("@alice"), &view)
	require.NoError(t, err)
	require.Len(t, f.scheduler.timers, 1)
	require.False(t, f.scheduler.timers[0].stopped)

	_, err = f.submitter.HandleSubmit(context.Background(), usernameForm("alice"), &view)
	require.NoError(t, err)
	require.True(t, f.scheduler.timers[0].stopped)
}

func TestHandleSubmit_MissingField_FailsFast(t *testing.T) {
	f := newFixture(t, domain.VariantUsername, accepted("tok123", ""))
	doc := usernameForm("@alice")
	delete(doc, "rh_factor")
	var view form.View

	_, err := f.submitter.HandleSubmit(context.Background(), doc, &view)
	require.ErrorIs(t, err, form.ErrFieldNotFound)
	require.Zero(t, f.api.calls)
}

func TestHandleSubmit_RejectsOverlappingSubmit(t *testing.T) {
	f := newFixture(t, domain.VariantUsername, accepted("tok123", `{"id":1}`))
	f.api.release = make(chan struct{})
	f.api.started = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		var view form.View
		_, err := f.submitter.HandleSubmit(context.Background(), usernameForm("@alice"), &view)
		done <- err
	}()
	<-f.api.started

	var second form.View
	_, err := f.submitter.HandleSubmit(context.Background(), usernameForm("@bob"), &second)
	require.ErrorIs(t, err, reguc.ErrSubmitInProgress)
	require.Equal(t, domain.MsgSubmitInProgress, second.Error.Text)

	close(f.api.release)
	require.NoError(t, <-done)
	require.Equal(t, 1, f.api.calls)
}

func TestHandleSubmit_WithoutNavigator_OnlyMarksView(t *testing.T) {
	variant, err := domain.LookupVariant(domain.VariantUsername)
	require.NoError(t, err)
	sched := &fakeScheduler{}
	s := reguc.NewSubmitter(&fakeAPI{outcome: accepted("tok", "")}, memory.New(), logger.Nop(), reguc.Options{
		Variant: variant, RedirectURL: "/profile", RedirectDelay: 2 * time.Second, Scheduler: sched,
	})
	var view form.View

	_, err = s.HandleSubmit(context.Background(), usernameForm("@alice"), &view)
	require.NoError(t, err)
	require.NotNil(t, view.Redirect)
	require.Equal(t, "/profile", view.Redirect.URL)
	require.Empty(t, sched.delays)
}
