package form

import "time"

// Element — элемент страницы с текстом и видимостью (style.display).
type Element struct {
	Text    string
	Visible bool
}

// Display возвращает значение CSS-свойства display.
func (e Element) Display() string {
	if e.Visible {
		return "block"
	}
	return "none"
}

// Redirect — запланированный переход на другую страницу.
type Redirect struct {
	URL   string
	After time.Duration
}

// View хранит состояние элементов ошибки и успеха одной страницы.
type View struct {
	Error    Element
	Success  Element
	Redirect *Redirect
}

// Reset скрывает оба элемента и снимает запланированный переход.
func (v *View) Reset() {
	v.Error.Visible = false
	v.Success.Visible = false
	v.Redirect = nil
}

// ShowError показывает элемент ошибки с текстом.
func (v *View) ShowError(text string) {
	v.Error = Element{Text: text, Visible: true}
}

// ShowSuccess показывает элемент успеха с текстом.
func (v *View) ShowSuccess(text string) {
	v.Success = Element{Text: text, Visible: true}
}

// ScheduleRedirect отмечает, что через after страница уйдёт на url.
func (v *View) ScheduleRedirect(url string, after time.Duration) {
	v.Redirect = &Redirect{URL: url, After: after}
}
