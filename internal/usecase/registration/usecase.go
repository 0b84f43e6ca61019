package registration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	domain "garden-app/internal/domain/registration"
	"garden-app/internal/form"
	"garden-app/internal/storage"
	"garden-app/internal/usecase/session"
	"garden-app/pkg/logger"
)

// ErrSubmitInProgress — предыдущая отправка формы ещё не завершилась.
var ErrSubmitInProgress = errors.New("submission already in progress")

// API описывает эндпоинт регистрации удалённого API.
type API interface {
	Register(ctx context.Context, path string, body []byte) domain.Outcome
}

// Navigator выполняет переход на другую страницу.
type Navigator interface {
	Navigate(url string)
}

// Timer — отменяемый отложенный вызов.
type Timer interface {
	Stop() bool
}

// Scheduler откладывает вызов f на d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type clockScheduler struct{}

func (clockScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Options настраивает Submitter.
type Options struct {
	Variant       domain.Variant
	RedirectURL   string
	RedirectDelay time.Duration
	// Navigator вызывается по таймеру после успешной регистрации.
	// Если nil, переход только отмечается во View (его выполняет страница).
	Navigator Navigator
	// Scheduler по умолчанию — time.AfterFunc.
	Scheduler Scheduler
}

// Submitter обрабатывает отправку формы регистрации:
// сбор полей → проверка → запрос → обработка ответа.
type Submitter struct {
	api   API
	store storage.Store
	log   logger.Logger
	opts  Options

	inFlight atomic.Bool

	mu      sync.Mutex
	pending Timer
}

// NewSubmitter создаёт обработчик формы для одного варианта.
func NewSubmitter(api API, store storage.Store, log logger.Logger, opts Options) *Submitter {
	if opts.Scheduler == nil {
		opts.Scheduler = clockScheduler{}
	}
	if log == nil {
		log = logger.Default()
	}
	return &Submitter{api: api, store: store, log: log, opts: opts}
}

// Variant возвращает вариант формы, который обслуживает Submitter.
func (s *Submitter) Variant() domain.Variant {
	return s.opts.Variant
}

// HandleSubmit выполняет один цикл отправки формы.
//
// Ошибка возвращается только для ситуаций, которые не являются исходом
// отправки: отсутствующий элемент формы и параллельная отправка.
// Все исходы запроса (включая сетевые ошибки) возвращаются как Outcome
// и уже отражены во view.
func (s *Submitter) HandleSubmit(ctx context.Context, doc form.Document, view *form.View) (domain.Outcome, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		view.Reset()
		view.ShowError(domain.MsgSubmitInProgress)
		return nil, ErrSubmitInProgress
	}
	defer s.inFlight.Store(false)

	// Новая отправка отменяет переход, запланированный предыдущей
	s.CancelRedirect()
	view.Reset()

	payload, err := collect(s.opts.Variant.Fields, doc)
	if err != nil {
		return nil, err
	}

	if s.opts.Variant.RequireMarker {
		login, ok := domain.StripMarker(payload.Login)
		if !ok {
			view.ShowError(domain.MsgMarkerRequired)
			return domain.Invalid{Message: domain.MsgMarkerRequired}, nil
		}
		payload.Login = login
	}

	body, err := s.opts.Variant.Encode(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	s.log.Info("submitting registration", map[string]any{
		"variant": s.opts.Variant.Name,
		"login":   payload.Login,
	})

	outcome := s.api.Register(ctx, s.opts.Variant.Path, body)
	return s.apply(ctx, outcome, view), nil
}

// apply отражает исход запроса во view и хранилище.
func (s *Submitter) apply(ctx context.Context, outcome domain.Outcome, view *form.View) domain.Outcome {
	switch o := outcome.(type) {
	case domain.Accepted:
		if err := session.Save(ctx, s.store, o.Result, s.opts.Variant.StoresUser); err != nil {
			return s.fail(view, err)
		}
		view.ShowSuccess(domain.MsgRegistered)
		s.scheduleRedirect(view)
		s.log.Info("registration accepted", map[string]any{"variant": s.opts.Variant.Name})
		return o

	case domain.Rejected:
		msg := o.Message()
		view.ShowError(msg)
		s.log.Info("registration rejected", map[string]any{
			"variant": s.opts.Variant.Name,
			"status":  o.StatusCode,
			"detail":  msg,
		})
		return o

	case domain.TransportFailure:
		return s.fail(view, o.Err)

	default:
		return s.fail(view, fmt.Errorf("unexpected outcome %T", outcome))
	}
}

// fail показывает общую ошибку соединения; причина уходит только в лог.
func (s *Submitter) fail(view *form.View, err error) domain.Outcome {
	s.log.Error("registration failed", map[string]any{
		"variant": s.opts.Variant.Name,
		"err":     err,
	})
	view.ShowError(domain.MsgConnectionFailed)
	return domain.TransportFailure{Err: err}
}

func (s *Submitter) scheduleRedirect(view *form.View) {
	url, delay := s.opts.RedirectURL, s.opts.RedirectDelay
	view.ScheduleRedirect(url, delay)

	if s.opts.Navigator == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = s.opts.Scheduler.AfterFunc(delay, func() {
		s.log.Info("redirecting", map[string]any{"url": url})
		s.opts.Navigator.Navigate(url)
	})
}

// CancelRedirect отменяет запланированный переход, если он есть.
func (s *Submitter) CancelRedirect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
}

// collect читает поля формы. Свободный текст обрезается по краям;
// пароль, дата и значения select берутся как есть.
func collect(ids domain.FieldIDs, doc form.Document) (domain.Payload, error) {
	r := fieldReader{doc: doc}
	p := domain.Payload{
		Login:      r.trimmed(ids.Login),
		FullName:   r.trimmed(ids.FullName),
		Password:   r.raw(ids.Password),
		BirthDate:  r.raw(ids.BirthDate),
		Address:    r.trimmed(ids.Address),
		Gender:     domain.GenderFromSelect(r.raw(ids.Gender)),
		Hobby:      domain.OptionalString(r.trimmed(ids.Hobby)),
		SocialLink: domain.OptionalString(r.trimmed(ids.SocialLink)),
		BloodGroup: r.raw(ids.BloodGroup),
		RhFactor:   r.trimmed(ids.RhFactor),
	}
	if r.err != nil {
		return domain.Payload{}, r.err
	}
	return p, nil
}

// fieldReader запоминает первую ошибку чтения.
type fieldReader struct {
	doc form.Document
	err error
}

func (r *fieldReader) raw(id string) string {
	if r.err != nil {
		return ""
	}
	v, err := r.doc.Value(id)
	if err != nil {
		r.err = err
		return ""
	}
	return v
}

func (r *fieldReader) trimmed(id string) string {
	return strings.TrimSpace(r.raw(id))
}
