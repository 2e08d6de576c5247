package actions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/report"
	"github.com/shaiso/Conveyor/internal/secrets"
)

// fakeRunner записывает выполненные скрипты и возвращает заранее
// заданный результат.
type fakeRunner struct {
	scripts []string
	envs    []map[string]string
	outcome ExecOutcome
	err     error
}

func (r *fakeRunner) Exec(_ context.Context, script string, env map[string]string) (ExecOutcome, error) {
	r.scripts = append(r.scripts, script)
	r.envs = append(r.envs, env)
	return r.outcome, r.err
}

// fakeSink собирает сохранённые артефакты в память.
type fakeSink struct {
	saved map[string][]byte // "name/fileName" → содержимое
}

func (s *fakeSink) Save(name, fileName string, r io.Reader) error {
	if s.saved == nil {
		s.saved = make(map[string][]byte)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.saved[name+"/"+fileName] = data
	return nil
}

func testInvocation(t *testing.T) *Invocation {
	t.Helper()
	return &Invocation{
		StepName:    "step",
		Workspace:   t.TempDir(),
		Event:       domain.TriggerEvent{Kind: domain.TriggerPush, Branch: "main", SHA: "abc123"},
		RepoURL:     "https://git.example.com/toolbelt.git",
		ProjectName: "toolbelt",
		Env:         map[string]string{"CI": "true"},
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestRegistry_Get(t *testing.T) {
	reg := NewRegistry(RegistryConfig{})

	for _, ref := range []string{
		"checkout@v1",
		"toolchain@v1",
		"upload-artifact@v1",
		"codecov-upload@v1",
		"doc-coverage@v1",
	} {
		if _, err := reg.Get(ref); err != nil {
			t.Errorf("expected %s to be registered: %v", ref, err)
		}
	}

	if _, err := reg.Get("unknown@v1"); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("expected ErrUnknownAction, got %v", err)
	}
}

func TestSplitRef(t *testing.T) {
	name, version := SplitRef("checkout@v1")
	if name != "checkout" || version != "v1" {
		t.Errorf("expected checkout/v1, got %s/%s", name, version)
	}

	name, version = SplitRef("checkout")
	if name != "checkout" || version != "" {
		t.Errorf("expected checkout with empty version, got %s/%s", name, version)
	}
}

func TestCheckoutAction(t *testing.T) {
	runner := &fakeRunner{}
	inv := testInvocation(t)
	inv.Runner = runner

	action := &CheckoutAction{}
	_, err := action.Run(context.Background(), inv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(runner.scripts) != 1 {
		t.Fatalf("expected 1 script, got %d", len(runner.scripts))
	}
	if !strings.Contains(runner.scripts[0], "git clone") {
		t.Errorf("expected git clone, got %q", runner.scripts[0])
	}
	if !strings.Contains(runner.scripts[0], "git checkout abc123") {
		t.Errorf("expected checkout of event SHA, got %q", runner.scripts[0])
	}
}

func TestCheckoutAction_CommandFailed(t *testing.T) {
	runner := &fakeRunner{outcome: ExecOutcome{ExitCode: 128, Output: "fatal: not found"}}
	inv := testInvocation(t)
	inv.Runner = runner

	action := &CheckoutAction{}
	_, err := action.Run(context.Background(), inv)
	if !errors.Is(err, ErrCommandFailed) {
		t.Errorf("expected ErrCommandFailed, got %v", err)
	}
}

func TestToolchainAction_Stickiness(t *testing.T) {
	runner := &fakeRunner{}
	inv := testInvocation(t)
	inv.Runner = runner
	inv.With = map[string]any{"toolchain": "nightly"}

	action := &ToolchainAction{}
	result, err := action.Run(context.Background(), inv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Выбранный toolchain должен распространиться на последующие шаги
	if result.Env["RUSTUP_TOOLCHAIN"] != "nightly" {
		t.Errorf("expected RUSTUP_TOOLCHAIN=nightly, got %v", result.Env)
	}
	if !strings.Contains(runner.scripts[0], "rustup toolchain install nightly") {
		t.Errorf("expected nightly install, got %q", runner.scripts[0])
	}
}

func TestToolchainAction_Components(t *testing.T) {
	runner := &fakeRunner{}
	inv := testInvocation(t)
	inv.Runner = runner
	inv.With = map[string]any{"components": []any{"rustfmt", "clippy"}}

	action := &ToolchainAction{}
	result, err := action.Run(context.Background(), inv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Env["RUSTUP_TOOLCHAIN"] != "stable" {
		t.Errorf("expected default stable toolchain, got %v", result.Env)
	}
	if !strings.Contains(runner.scripts[0], "rustup component add --toolchain stable rustfmt clippy") {
		t.Errorf("expected component add, got %q", runner.scripts[0])
	}
}

func TestUploadArtifactAction_Rename(t *testing.T) {
	inv := testInvocation(t)
	sink := &fakeSink{}
	inv.Artifacts = sink
	inv.With = map[string]any{
		"name":   "coverage-report",
		"path":   "cobertura.xml",
		"rename": "test-coverage.xml",
	}

	// Исходный файл в workspace
	if err := os.WriteFile(filepath.Join(inv.Workspace, "cobertura.xml"),
		[]byte("<coverage/>"), 0o644); err != nil {
		t.Fatalf("failed to write source file: %v", err)
	}

	action := &UploadArtifactAction{}
	if _, err := action.Run(context.Background(), inv); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Артефакт сохранён под новым именем, исходного нет
	if _, ok := sink.saved["coverage-report/test-coverage.xml"]; !ok {
		t.Errorf("expected renamed artifact, saved: %v", sink.saved)
	}
	if _, ok := sink.saved["coverage-report/cobertura.xml"]; ok {
		t.Error("original file name should not be saved")
	}
	if !bytes.Equal(sink.saved["coverage-report/test-coverage.xml"], []byte("<coverage/>")) {
		t.Error("artifact content mismatch")
	}
}

func TestUploadArtifactAction_MissingConfig(t *testing.T) {
	tests := []struct {
		name string
		with map[string]any
	}{
		{"no name", map[string]any{"path": "a.txt"}},
		{"no path", map[string]any{"name": "report"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := testInvocation(t)
			inv.Artifacts = &fakeSink{}
			inv.With = tt.with

			action := &UploadArtifactAction{}
			if _, err := action.Run(context.Background(), inv); !errors.Is(err, ErrBadConfig) {
				t.Errorf("expected ErrBadConfig, got %v", err)
			}
		})
	}
}

func TestCodecovUploadAction(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	inv := testInvocation(t)
	inv.With = map[string]any{"file": "test-coverage.xml"}
	inv.Secrets = map[string]secrets.Value{
		"CODECOV_TOKEN": secrets.NewValue("tok-1"),
	}

	if err := os.WriteFile(filepath.Join(inv.Workspace, "test-coverage.xml"),
		[]byte("<coverage/>"), 0o644); err != nil {
		t.Fatalf("failed to write report: %v", err)
	}

	action := &CodecovUploadAction{
		Client: report.NewCodecovClient(report.CodecovConfig{BaseURL: server.URL}),
	}
	if _, err := action.Run(context.Background(), inv); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAuth != "token tok-1" {
		t.Errorf("expected secret token in header, got %q", gotAuth)
	}
}

func TestCodecovUploadAction_MissingSecret(t *testing.T) {
	inv := testInvocation(t)
	inv.With = map[string]any{"file": "test-coverage.xml"}

	action := &CodecovUploadAction{
		Client: report.NewCodecovClient(report.CodecovConfig{}),
	}
	if _, err := action.Run(context.Background(), inv); !errors.Is(err, ErrMissingSecret) {
		t.Errorf("expected ErrMissingSecret, got %v", err)
	}
}

func TestDocCoverageAction(t *testing.T) {
	var gotMetric report.CoverageMetric
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotMetric); err != nil {
			t.Errorf("failed to decode metric: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	runner := &fakeRunner{outcome: ExecOutcome{
		Output: "| File | Documented | Total | Percentage |\n| Total | 10 | 8 | 80.0% |\n",
	}}

	inv := testInvocation(t)
	inv.Runner = runner
	inv.With = map[string]any{"report": "doc-coverage.txt"}

	action := &DocCoverageAction{
		Metrics: report.NewMetricsClient(report.MetricsConfig{Endpoint: server.URL}),
	}
	result, err := action.Run(context.Background(), inv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Метрика опубликована с именем проекта, процент уходит строкой
	// в том виде, в каком он стоит в отчёте
	if gotMetric.Name != "toolbelt" || gotMetric.Percent != "80.0%" {
		t.Errorf("unexpected metric: %+v", gotMetric)
	}

	// Отчёт сохранён в workspace
	data, err := os.ReadFile(filepath.Join(inv.Workspace, "doc-coverage.txt"))
	if err != nil {
		t.Fatalf("report file should exist: %v", err)
	}
	if !strings.Contains(string(data), "| Total") {
		t.Errorf("report content mismatch: %q", data)
	}

	if !strings.Contains(result.Output, "80.0%") {
		t.Errorf("expected percent in output, got %q", result.Output)
	}
}

func TestDocCoverageAction_NoTotalLine(t *testing.T) {
	runner := &fakeRunner{outcome: ExecOutcome{Output: "no table here"}}

	inv := testInvocation(t)
	inv.Runner = runner
	inv.With = map[string]any{"report": "doc-coverage.txt"}

	action := &DocCoverageAction{
		Metrics: report.NewMetricsClient(report.MetricsConfig{}),
	}
	if _, err := action.Run(context.Background(), inv); !errors.Is(err, report.ErrNoTotalLine) {
		t.Errorf("expected ErrNoTotalLine, got %v", err)
	}
}
