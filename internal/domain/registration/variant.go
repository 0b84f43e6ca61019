package registration

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownVariant возвращается для неизвестного имени варианта формы.
var ErrUnknownVariant = errors.New("unknown form variant")

// FieldIDs — идентификаторы элементов формы для каждого поля.
type FieldIDs struct {
	Login      string
	FullName   string
	Password   string
	BirthDate  string
	Address    string
	Gender     string
	Hobby      string
	SocialLink string
	BloodGroup string
	RhFactor   string
}

// Variant описывает одну из двух форм регистрации.
// Варианты расходятся в именах полей, пути эндпоинта и составе ответа;
// ни один из них не считается основным.
type Variant struct {
	Name string
	// Path — путь эндпоинта относительно базового URL API.
	Path string
	// Fields — идентификаторы элементов на странице.
	Fields FieldIDs
	// RequireMarker — username обязан начинаться с @.
	RequireMarker bool
	// StoresUser — ответ содержит объект user, который нужно сохранить.
	StoresUser bool
}

// Имена вариантов.
const (
	VariantUsername = "username"
	VariantPhone    = "phone"
)

var variants = map[string]Variant{
	VariantUsername: {
		Name: VariantUsername,
		Path: "/api/auth/reg",
		Fields: FieldIDs{
			Login:      "username",
			FullName:   "fio",
			Password:   "password",
			BirthDate:  "birth_date",
			Address:    "address",
			Gender:     "gender",
			Hobby:      "interests",
			SocialLink: "vk_link",
			BloodGroup: "blood_group",
			RhFactor:   "rh_factor",
		},
		RequireMarker: true,
		StoresUser:    true,
	},
	VariantPhone: {
		Name: VariantPhone,
		Path: "/api/auth/register",
		Fields: FieldIDs{
			Login:      "phone",
			FullName:   "fio",
			Password:   "password",
			BirthDate:  "birth_date",
			Address:    "address",
			Gender:     "gender",
			Hobby:      "interests",
			SocialLink: "vk_link",
			BloodGroup: "blood_group",
			RhFactor:   "rh_factor",
		},
	},
}

// LookupVariant возвращает вариант формы по имени.
func LookupVariant(name string) (Variant, error) {
	v, ok := variants[name]
	if !ok {
		return Variant{}, fmt.Errorf("%w: %q", ErrUnknownVariant, name)
	}
	return v, nil
}

// VariantNames возвращает имена всех вариантов в стабильном порядке.
func VariantNames() []string {
	names := make([]string, 0, len(variants))
	for name := range variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// usernameBody — тело запроса варианта username (схема UserRegistration).
type usernameBody struct {
	Username   string  `json:"username"`
	FullName   string  `json:"full_name"`
	Password   string  `json:"password"`
	BirthDate  string  `json:"birth_date"`
	Address    string  `json:"address"`
	Gender     string  `json:"gender"`
	Hobby      *string `json:"hobby"`
	VKProfile  *string `json:"vk_profile"`
	BloodGroup string  `json:"blood_group"`
	RhFactor   string  `json:"rh_factor"`
}

// phoneBody — тело запроса варианта phone.
type phoneBody struct {
	Phone      string  `json:"phone"`
	FIO        string  `json:"fio"`
	Password   string  `json:"password"`
	BirthDate  string  `json:"birth_date"`
	Address    string  `json:"address"`
	Gender     string  `json:"gender"`
	Hobby      *string `json:"hobby"`
	VKLink     *string `json:"vk_link"`
	BloodGroup string  `json:"blood_group"`
	RhFactor   string  `json:"rh_factor"`
}

// Encode сериализует payload в JSON с именами полей этого варианта.
// Пустые необязательные поля уходят как null.
func (v Variant) Encode(p Payload) ([]byte, error) {
	switch v.Name {
	case VariantUsername:
		return json.Marshal(usernameBody{
			Username:   p.Login,
			FullName:   p.FullName,
			Password:   p.Password,
			BirthDate:  p.BirthDate,
			Address:    p.Address,
			Gender:     p.Gender,
			Hobby:      p.Hobby,
			VKProfile:  p.SocialLink,
			BloodGroup: p.BloodGroup,
			RhFactor:   p.RhFactor,
		})
	case VariantPhone:
		return json.Marshal(phoneBody{
			Phone:      p.Login,
			FIO:        p.FullName,
			Password:   p.Password,
			BirthDate:  p.BirthDate,
			Address:    p.Address,
			Gender:     p.Gender,
			Hobby:      p.Hobby,
			VKLink:     p.SocialLink,
			BloodGroup: p.BloodGroup,
			RhFactor:   p.RhFactor,
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, v.Name)
	}
}
