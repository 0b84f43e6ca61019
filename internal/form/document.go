package form

import (
	"errors"
	"fmt"
	"io"
	"net/url"

	"gopkg.in/yaml.v3"
)

// ErrFieldNotFound возвращается, если на странице нет элемента с нужным id.
// Это ошибка разметки, а не пользовательского ввода.
var ErrFieldNotFound = errors.New("form field not found")

// Document — источник значений полей формы по их идентификаторам.
type Document interface {
	Value(id string) (string, error)
}

// Values — документ на основе map: id элемента -> значение.
type Values map[string]string

// Value возвращает значение элемента или ErrFieldNotFound.
func (v Values) Value(id string) (string, error) {
	value, ok := v[id]
	if !ok {
		return "", fmt.Errorf("%w: #%s", ErrFieldNotFound, id)
	}
	return value, nil
}

// FromURLValues строит документ из данных отправленной HTML-формы.
// Браузер присылает все поля формы, в том числе пустые.
func FromURLValues(u url.Values) Values {
	values := make(Values, len(u))
	for key, vals := range u {
		if len(vals) == 0 {
			values[key] = ""
			continue
		}
		values[key] = vals[0]
	}
	return values
}

// LoadYAML читает документ из YAML вида `id: value`.
// Пустые значения и null превращаются в пустую строку.
func LoadYAML(r io.Reader) (Values, error) {
	var nodes map[string]yaml.Node
	if err := yaml.NewDecoder(r).Decode(&nodes); err != nil {
		if errors.Is(err, io.EOF) {
			return Values{}, nil
		}
		return nil, fmt.Errorf("decode form yaml: %w", err)
	}

	values := make(Values, len(nodes))
	for id, node := range nodes {
		if node.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("form field %q: expected scalar value", id)
		}
		if node.Tag == "!!null" {
			values[id] = ""
			continue
		}
		values[id] = node.Value
	}
	return values, nil
}
