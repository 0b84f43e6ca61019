package registration

import (
	"encoding/json"
	"strings"
)

// Сообщения, которые видит пользователь. Диагностика пишется только в лог.
const (
	MsgMarkerRequired     = "Username должен начинаться с @"
	MsgRegistrationFailed = "Ошибка регистрации"
	MsgRegistered         = "Регистрация успешна! Перенаправление..."
	MsgConnectionFailed   = "Ошибка соединения с сервером. Убедитесь, что backend запущен."
	MsgSubmitInProgress   = "Отправка уже выполняется, дождитесь ответа сервера"
	MsgLoginFailed        = "Ошибка входа"
	MsgLoggedIn           = "Вход выполнен! Перенаправление..."
)

// Ключи постоянного локального хранилища.
const (
	KeyAccessToken = "access_token"
	KeyUser        = "user"
)

// UsernameMarker — обязательный префикс username в форме.
// Сервер ожидает username без него.
const UsernameMarker = "@"

// Значения пола, которые принимает API.
const (
	GenderMale   = "Мужской"
	GenderFemale = "Женский"
)

// GenderFromSelect переводит значение select-контрола в подпись для API.
// Контрол двухзначный: всё, что не "men", считается женским полом.
func GenderFromSelect(value string) string {
	if value == "men" {
		return GenderMale
	}
	return GenderFemale
}

// Payload описывает данные регистрации, собранные с формы.
// Имена JSON-полей зависят от варианта формы (см. Variant).
type Payload struct {
	Login      string // username (без @) или телефон
	FullName   string
	Password   string
	BirthDate  string
	Address    string
	Gender     string
	Hobby      *string // nil, если поле пустое
	SocialLink *string // nil, если поле пустое
	BloodGroup string
	RhFactor   string
}

// OptionalString возвращает nil для пустой строки.
func OptionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StripMarker убирает маркер @ из username. Второе значение — был ли маркер.
func StripMarker(username string) (string, bool) {
	if !strings.HasPrefix(username, UsernameMarker) {
		return username, false
	}
	return strings.TrimPrefix(username, UsernameMarker), true
}

// AuthResult — успешный ответ API аутентификации.
// User не разбирается: это непрозрачная запись, которая сохраняется как есть.
type AuthResult struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type,omitempty"`
	User        json.RawMessage `json:"user,omitempty"`
}

// HasUser сообщает, прислал ли сервер объект пользователя.
func (r AuthResult) HasUser() bool {
	trimmed := strings.TrimSpace(string(r.User))
	return trimmed != "" && trimmed != "null"
}
