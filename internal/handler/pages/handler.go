// Package pages отдаёт HTML-страницы формы регистрации, входа и профиля.
// Каждая страница умеет отвечать и JSON-представлением (Accept: application/json).
package pages

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"garden-app/internal/apiclient"
	domain "garden-app/internal/domain/registration"
	"garden-app/internal/form"
	"garden-app/internal/handler/middleware"
	"garden-app/internal/handler/response"
	reguc "garden-app/internal/usecase/registration"
	"garden-app/internal/usecase/session"
	"garden-app/pkg/logger"
	"garden-app/pkg/tokeninfo"
)

// LoginPath — страница входа, куда ведёт охрана сессии.
const LoginPath = "/login"

const msgBrokenForm = "Форма повреждена, обновите страницу"

var bloodGroups = []string{"1", "2", "3", "4"}

// Handler обслуживает страницы формы.
type Handler struct {
	submitters     map[string]*reguc.Submitter
	defaultVariant string
	sessions       session.Service
	redirectURL    string
	redirectDelay  time.Duration
	log            logger.Logger
}

// Config — параметры страниц.
type Config struct {
	DefaultVariant string
	RedirectURL    string
	RedirectDelay  time.Duration
}

// NewHandler создаёт обработчик страниц. Для каждого варианта формы нужен свой Submitter.
func NewHandler(submitters []*reguc.Submitter, sessions session.Service, cfg Config, log logger.Logger) *Handler {
	byName := make(map[string]*reguc.Submitter, len(submitters))
	for _, s := range submitters {
		byName[s.Variant().Name] = s
	}
	return &Handler{
		submitters:     byName,
		defaultVariant: cfg.DefaultVariant,
		sessions:       sessions,
		redirectURL:    cfg.RedirectURL,
		redirectDelay:  cfg.RedirectDelay,
		log:            log,
	}
}

// RegisterForm показывает пустую форму регистрации.
func (h *Handler) RegisterForm(c *gin.Context) {
	submitter, ok := h.submitter(c, c.Query("variant"))
	if !ok {
		return
	}
	h.renderRegister(c, http.StatusOK, submitter.Variant(), form.Values{}, form.View{})
}

// Register отправляет форму регистрации в API.
//
//	@Summary		Отправить форму регистрации
//	@Description	Выполняет один цикл отправки формы: проверка, запрос к API, сохранение токена.
//	@Tags			register
//	@Accept			x-www-form-urlencoded
//	@Produce		json
//	@Param			variant		formData	string	false	"Вариант формы"	Enums(username, phone)
//	@Param			username	formData	string	false	"Username с префиксом @ (вариант username)"
//	@Param			phone		formData	string	false	"Телефон (вариант phone)"
//	@Param			fio			formData	string	true	"ФИО"
//	@Param			password	formData	string	true	"Пароль"
//	@Param			birth_date	formData	string	true	"Дата рождения"
//	@Param			address		formData	string	true	"Адрес"
//	@Param			gender		formData	string	true	"Пол"	Enums(men, women)
//	@Param			interests	formData	string	true	"Интересы"
//	@Param			vk_link		formData	string	true	"Ссылка на VK"
//	@Param			blood_group	formData	string	true	"Группа крови"
//	@Param			rh_factor	formData	string	true	"Резус-фактор"
//	@Success		200			{object}	ViewResponse
//	@Failure		400			{object}	response.ErrorResponse
//	@Failure		404			{object}	response.ErrorResponse
//	@Failure		409			{object}	ViewResponse
//	@Router			/register [post]
func (h *Handler) Register(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_request", "Некорректное тело запроса", err.Error())
		return
	}

	variant := c.Request.PostForm.Get("variant")
	if variant == "" {
		variant = c.Query("variant")
	}
	submitter, ok := h.submitter(c, variant)
	if !ok {
		return
	}

	values := form.FromURLValues(c.Request.PostForm)
	var view form.View
	outcome, err := submitter.HandleSubmit(c.Request.Context(), values, &view)

	status := http.StatusOK
	switch {
	case errors.Is(err, reguc.ErrSubmitInProgress):
		status = http.StatusConflict
	case errors.Is(err, form.ErrFieldNotFound):
		h.log.Error("register form is missing a field", map[string]any{"variant": variant, "err": err})
		view.ShowError(msgBrokenForm)
		status = http.StatusBadRequest
	case err != nil:
		h.log.Error("register submit failed", map[string]any{"variant": variant, "err": err})
		view.ShowError(domain.MsgConnectionFailed)
		status = http.StatusInternalServerError
	}

	if wantsJSON(c) {
		c.JSON(status, newViewResponse(outcome, &view))
		return
	}
	h.renderRegister(c, status, submitter.Variant(), values, view)
}

// LoginForm показывает форму входа.
func (h *Handler) LoginForm(c *gin.Context) {
	h.renderLogin(c, http.StatusOK, "", form.View{})
}

// Login выполняет вход и сохраняет токен.
//
//	@Summary	Войти
//	@Tags		session
//	@Accept		x-www-form-urlencoded
//	@Produce	json
//	@Param		username	formData	string	true	"Username (префикс @ необязателен)"
//	@Param		password	formData	string	true	"Пароль"
//	@Success	200			{object}	ViewResponse
//	@Router		/login [post]
func (h *Handler) Login(c *gin.Context) {
	username, _ := domain.StripMarker(strings.TrimSpace(c.PostForm("username")))
	password := c.PostForm("password")

	var view form.View
	outcome := h.sessions.Login(c.Request.Context(), username, password)
	switch o := outcome.(type) {
	case domain.Accepted:
		view.ShowSuccess(domain.MsgLoggedIn)
		view.ScheduleRedirect(h.redirectURL, h.redirectDelay)
	case domain.Rejected:
		view.ShowError(o.Detail.Message(domain.MsgLoginFailed))
	default:
		view.ShowError(domain.MsgConnectionFailed)
	}

	if wantsJSON(c) {
		c.JSON(http.StatusOK, newViewResponse(outcome, &view))
		return
	}
	h.renderLogin(c, http.StatusOK, username, view)
}

// Profile показывает профиль по сохранённому токену.
// Подключается за middleware.Session.
//
//	@Summary	Профиль текущего пользователя
//	@Tags		session
//	@Produce	json
//	@Success	200	{object}	ProfileResponse
//	@Failure	401	{object}	response.ErrorResponse
//	@Failure	502	{object}	response.ErrorResponse
//	@Router		/profile [get]
func (h *Handler) Profile(c *gin.Context) {
	var info *tokeninfo.Info
	if v, ok := c.Get(middleware.ContextTokenInfoKey); ok {
		info, _ = v.(*tokeninfo.Info)
	}

	profile, err := h.sessions.Profile(c.Request.Context())
	if err != nil {
		h.profileFailed(c, info, err)
		return
	}

	if wantsJSON(c) {
		c.JSON(http.StatusOK, ProfileResponse{Profile: profile, Token: info})
		return
	}
	c.HTML(http.StatusOK, "profile.html", profilePage{
		Title:  "Профиль",
		Fields: profileFields(profile),
		Token:  info,
	})
}

func (h *Handler) profileFailed(c *gin.Context, info *tokeninfo.Info, err error) {
	// Токен отклонён сервером: сессия больше не действительна
	if errors.Is(err, apiclient.ErrUnauthorized) || errors.Is(err, session.ErrNoSession) {
		if logoutErr := h.sessions.Logout(c.Request.Context()); logoutErr != nil {
			h.log.Error("logout after rejected token", map[string]any{"err": logoutErr})
		}
		if wantsJSON(c) {
			response.Error(c, http.StatusUnauthorized, "session_rejected", "Сессия недействительна, войдите снова", nil)
			return
		}
		c.Redirect(http.StatusSeeOther, LoginPath)
		return
	}

	message := domain.MsgConnectionFailed
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		message = apiErr.Error()
	}
	h.log.Error("profile request failed", map[string]any{"err": err})

	if wantsJSON(c) {
		response.Error(c, http.StatusBadGateway, "profile_unavailable", message, nil)
		return
	}

	// Показываем хотя бы пользователя, сохранённого при регистрации
	var fields []profileField
	if stored, storedErr := h.sessions.StoredUser(c.Request.Context()); storedErr == nil {
		fields = profileFields(stored)
	}
	var view form.View
	view.ShowError(message)
	c.HTML(http.StatusBadGateway, "profile.html", profilePage{
		Title:  "Профиль",
		Fields: fields,
		Token:  info,
		View:   view,
	})
}

// Logout удаляет сохранённую сессию.
//
//	@Summary	Выйти
//	@Tags		session
//	@Success	204
//	@Failure	500	{object}	response.ErrorResponse
//	@Router		/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	if err := h.sessions.Logout(c.Request.Context()); err != nil {
		h.log.Error("logout failed", map[string]any{"err": err})
		response.Error(c, http.StatusInternalServerError, "storage_error", "Не удалось удалить сессию", nil)
		return
	}
	if wantsJSON(c) {
		c.Status(http.StatusNoContent)
		return
	}
	c.Redirect(http.StatusSeeOther, LoginPath)
}

// submitter находит Submitter варианта; пустое имя означает вариант по умолчанию.
func (h *Handler) submitter(c *gin.Context, variant string) (*reguc.Submitter, bool) {
	if variant == "" {
		variant = h.defaultVariant
	}
	s, ok := h.submitters[variant]
	if !ok {
		response.Error(c, http.StatusNotFound, "unknown_variant",
			fmt.Sprintf("Неизвестный вариант формы: %q", variant), nil)
		return nil, false
	}
	return s, true
}

func (h *Handler) renderRegister(c *gin.Context, status int, variant domain.Variant, values form.Values, view form.View) {
	// Пароль обратно в страницу не возвращается
	delete(values, variant.Fields.Password)

	names := make([]string, 0, len(h.submitters))
	for name := range h.submitters {
		names = append(names, name)
	}
	sort.Strings(names)

	c.HTML(status, "register.html", registerPage{
		Title:       "Регистрация",
		Refresh:     refresh(&view),
		Variant:     variant,
		Variants:    names,
		BloodGroups: bloodGroups,
		Values:      values,
		View:        view,
	})
}

func (h *Handler) renderLogin(c *gin.Context, status int, username string, view form.View) {
	c.HTML(status, "login.html", loginPage{
		Title:    "Вход",
		Refresh:  refresh(&view),
		Username: username,
		View:     view,
	})
}

func wantsJSON(c *gin.Context) bool {
	return c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON
}

// profileFields раскладывает JSON-объект профиля в отсортированные пары ключ-значение.
func profileFields(raw json.RawMessage) []profileField {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return []profileField{{Key: "profile", Value: string(raw)}}
	}

	fields := make([]profileField, 0, len(obj))
	for k, v := range obj {
		fields = append(fields, profileField{Key: k, Value: formatValue(v)})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Key < fields[j].Key })
	return fields
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "не указано"
	case string:
		return x
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}
