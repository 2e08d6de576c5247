package secrets

import (
	"errors"
	"fmt"
	"testing"
)

func TestValue_Redaction(t *testing.T) {
	v := NewValue("super-secret")

	if got := fmt.Sprintf("%s", v); got != Redacted {
		t.Errorf("%%s should redact, got %q", got)
	}
	if got := fmt.Sprintf("%v", v); got != Redacted {
		t.Errorf("%%v should redact, got %q", got)
	}
	if got := fmt.Sprintf("%#v", v); got != "secrets.Value("+Redacted+")" {
		t.Errorf("%%#v should redact, got %q", got)
	}

	// Reveal — единственный способ получить значение
	if v.Reveal() != "super-secret" {
		t.Errorf("Reveal should return raw value, got %q", v.Reveal())
	}
}

func TestEnvSource(t *testing.T) {
	t.Setenv("CI_SECRET_CODECOV_TOKEN", "tok-123")

	src := &EnvSource{Prefix: "CI_SECRET_"}

	v, err := src.Get("CODECOV_TOKEN")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Reveal() != "tok-123" {
		t.Errorf("expected tok-123, got %q", v.Reveal())
	}

	_, err = src.Get("MISSING")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStaticSource(t *testing.T) {
	src := StaticSource{"API_KEY": "key-1"}

	v, err := src.Get("API_KEY")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Reveal() != "key-1" {
		t.Errorf("expected key-1, got %q", v.Reveal())
	}

	if _, err := src.Get("OTHER"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestResolve(t *testing.T) {
	src := StaticSource{"A": "1", "B": "2"}

	resolved, err := Resolve(src, []string{"A", "B"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resolved) != 2 {
		t.Errorf("expected 2 secrets, got %d", len(resolved))
	}
	if resolved["A"].Reveal() != "1" || resolved["B"].Reveal() != "2" {
		t.Error("resolved values do not match source")
	}

	// Отсутствующий секрет — ошибка целиком
	if _, err := Resolve(src, []string{"A", "MISSING"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRedactAll(t *testing.T) {
	values := map[string]Value{
		"TOKEN": NewValue("tok-123"),
		"EMPTY": {},
	}

	got := RedactAll("uploading with tok-123 done", values)
	want := "uploading with " + Redacted + " done"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	// Пустой секрет не должен ломать текст
	if got := RedactAll("plain output", values); got != "plain output" {
		t.Errorf("expected unchanged text, got %q", got)
	}
}
