package pages

import (
	"strconv"

	domain "garden-app/internal/domain/registration"
	"garden-app/internal/form"
	"garden-app/pkg/tokeninfo"
)

// ElementResponse — состояние элемента страницы.
type ElementResponse struct {
	Text    string `json:"text"`
	Display string `json:"display" example:"none"`
}

// RedirectResponse — запланированный переход.
type RedirectResponse struct {
	URL     string `json:"url" example:"profile.html"`
	AfterMS int64  `json:"after_ms" example:"2000"`
}

// ViewResponse — JSON-представление страницы после отправки формы.
type ViewResponse struct {
	Outcome        string            `json:"outcome" example:"accepted"`
	ErrorMessage   ElementResponse   `json:"errorMessage"`
	SuccessMessage ElementResponse   `json:"successMessage"`
	Redirect       *RedirectResponse `json:"redirect,omitempty"`
}

func newViewResponse(outcome domain.Outcome, view *form.View) ViewResponse {
	resp := ViewResponse{
		Outcome:        outcomeName(outcome),
		ErrorMessage:   ElementResponse{Text: view.Error.Text, Display: view.Error.Display()},
		SuccessMessage: ElementResponse{Text: view.Success.Text, Display: view.Success.Display()},
	}
	if r := view.Redirect; r != nil {
		resp.Redirect = &RedirectResponse{URL: r.URL, AfterMS: r.After.Milliseconds()}
	}
	return resp
}

func outcomeName(o domain.Outcome) string {
	switch o.(type) {
	case domain.Invalid:
		return "invalid"
	case domain.Accepted:
		return "accepted"
	case domain.Rejected:
		return "rejected"
	case domain.TransportFailure:
		return "transport_failure"
	default:
		return ""
	}
}

// refresh строит значение meta refresh: "<секунды>;url=<адрес>".
func refresh(view *form.View) string {
	if view.Redirect == nil {
		return ""
	}
	secs := strconv.FormatFloat(view.Redirect.After.Seconds(), 'f', -1, 64)
	return secs + ";url=" + view.Redirect.URL
}

type registerPage struct {
	Title       string
	Refresh     string
	Variant     domain.Variant
	Variants    []string
	BloodGroups []string
	Values      form.Values
	View        form.View
}

type loginPage struct {
	Title    string
	Refresh  string
	Username string
	View     form.View
}

type profileField struct {
	Key   string
	Value string
}

type profilePage struct {
	Title   string
	Refresh string
	Fields  []profileField
	Token   *tokeninfo.Info
	View    form.View
}

// ProfileResponse — JSON-ответ страницы профиля.
type ProfileResponse struct {
	Profile any             `json:"profile" swaggertype:"object"`
	Token   *tokeninfo.Info `json:"token,omitempty"`
}
