package registration

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Outcome — результат одной отправки формы.
// Конкретные типы: Invalid, Accepted, Rejected, TransportFailure.
type Outcome interface {
	outcome()
}

// Invalid — форма не прошла проверку на клиенте, запрос не отправлялся.
type Invalid struct {
	Message string
}

// Accepted — сервер принял запрос и выдал токен.
type Accepted struct {
	Result AuthResult
}

// Rejected — сервер ответил неуспешным HTTP-статусом.
type Rejected struct {
	StatusCode int
	Detail     Detail
}

// TransportFailure — запрос не дошёл, ответ не разобран или не сохранён.
type TransportFailure struct {
	Err error
}

func (Invalid) outcome()          {}
func (Accepted) outcome()         {}
func (Rejected) outcome()         {}
func (TransportFailure) outcome() {}

// Message возвращает текст ошибки регистрации для пользователя.
func (r Rejected) Message() string {
	return r.Detail.Message(MsgRegistrationFailed)
}

// DetailItem — одна структурированная ошибка валидации сервера.
type DetailItem struct {
	Msg  string `json:"msg"`
	Type string `json:"type,omitempty"`
	Loc  []any  `json:"loc,omitempty"`
}

// Detail — поле detail ответа с ошибкой: строка или список {msg}.
type Detail struct {
	Text  string
	Items []DetailItem
}

// UnmarshalJSON разбирает оба вида detail. Прочие формы (объект, число,
// список строк) считаются отсутствующим detail.
func (d *Detail) UnmarshalJSON(data []byte) error {
	*d = Detail{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}

	switch trimmed[0] {
	case '"':
		return json.Unmarshal(trimmed, &d.Text)
	case '[':
		// Список не из объектов {msg} тоже считается отсутствующим detail
		if err := json.Unmarshal(trimmed, &d.Items); err != nil {
			d.Items = nil
		}
		return nil
	default:
		return nil
	}
}

// IsZero сообщает, что detail отсутствует или пуст.
func (d Detail) IsZero() bool {
	return d.Text == "" && len(d.Items) == 0
}

// Message возвращает текст для показа: сообщения списка через ", ",
// строку как есть, иначе fallback.
func (d Detail) Message(fallback string) string {
	if len(d.Items) > 0 {
		msgs := make([]string, 0, len(d.Items))
		for _, item := range d.Items {
			if item.Msg == "" {
				continue
			}
			msgs = append(msgs, item.Msg)
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, ", ")
		}
		return fallback
	}
	if d.Text != "" {
		return d.Text
	}
	return fallback
}
