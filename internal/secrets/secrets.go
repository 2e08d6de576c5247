package secrets

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// ErrNotFound — секрет с таким именем не зарегистрирован.
var ErrNotFound = errors.New("secret not found")

// Redacted — строка, подставляемая вместо значения секрета при
// логировании и форматировании.
const Redacted = "***"

// Value — значение секрета.
//
// Value никогда не попадает в логи в открытом виде: String, GoString
// и LogValue возвращают заглушку. Открыть значение можно только
// явным вызовом Reveal — в месте, где секрет действительно нужен
// (окружение шага, заголовок HTTP-запроса).
type Value struct {
	raw string
}

// NewValue оборачивает секрет в Value.
func NewValue(raw string) Value {
	return Value{raw: raw}
}

// Reveal возвращает значение секрета в открытом виде.
func (v Value) Reveal() string {
	return v.raw
}

// IsZero возвращает true для пустого секрета.
func (v Value) IsZero() bool {
	return v.raw == ""
}

// String реализует fmt.Stringer с редактированием значения.
func (v Value) String() string {
	return Redacted
}

// GoString реализует fmt.GoStringer с редактированием значения.
func (v Value) GoString() string {
	return "secrets.Value(" + Redacted + ")"
}

// LogValue реализует slog.LogValuer с редактированием значения.
func (v Value) LogValue() slog.Value {
	return slog.StringValue(Redacted)
}

// Source — источник секретов по имени.
type Source interface {
	// Get возвращает секрет по имени.
	// Возвращает ErrNotFound, если секрет не зарегистрирован.
	Get(name string) (Value, error)
}

// EnvSource — источник секретов из переменных окружения процесса.
//
// Секрет NAME читается из переменной {Prefix}NAME: worker с префиксом
// "CI_SECRET_" найдёт CODECOV_TOKEN в CI_SECRET_CODECOV_TOKEN.
type EnvSource struct {
	// Prefix — префикс переменных окружения.
	Prefix string
}

// Get возвращает секрет из окружения.
func (s *EnvSource) Get(name string) (Value, error) {
	raw, ok := os.LookupEnv(s.Prefix + name)
	if !ok {
		return Value{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return NewValue(raw), nil
}

// StaticSource — источник секретов из фиксированной map. Используется
// в тестах и для секретов из конфигурации.
type StaticSource map[string]string

// Get возвращает секрет из map.
func (s StaticSource) Get(name string) (Value, error) {
	raw, ok := s[name]
	if !ok {
		return Value{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return NewValue(raw), nil
}

// Resolve разрешает список имён секретов через источник.
// Возвращает ошибку при первом отсутствующем секрете.
func Resolve(src Source, names []string) (map[string]Value, error) {
	resolved := make(map[string]Value, len(names))
	for _, name := range names {
		value, err := src.Get(name)
		if err != nil {
			return nil, err
		}
		resolved[name] = value
	}
	return resolved, nil
}

// RedactAll заменяет все вхождения значений секретов в тексте на
// заглушку. Применяется к выводу шагов перед сохранением.
func RedactAll(text string, values map[string]Value) string {
	for _, value := range values {
		if value.IsZero() {
			continue
		}
		text = strings.ReplaceAll(text, value.Reveal(), Redacted)
	}
	return text
}
