package worker

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/shaiso/Conveyor/internal/actions"
	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/secrets"
)

// testWorker создаёт Worker для тестов выполнения шагов (без БД и MQ).
func testWorker(t *testing.T, src secrets.Source) *Worker {
	t.Helper()

	if src == nil {
		src = secrets.StaticSource{}
	}

	return New(Config{
		Secrets: src,
		WorkDir: t.TempDir(),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func testJobContext() (*domain.Job, *domain.Run, *domain.Pipeline) {
	run := &domain.Run{
		ID:         uuid.New(),
		PipelineID: uuid.New(),
		Event: domain.TriggerEvent{
			Kind:   domain.TriggerPush,
			Branch: "main",
			SHA:    "abc123",
		},
	}
	job := &domain.Job{
		ID:      uuid.New(),
		RunID:   run.ID,
		JobName: "build",
	}
	pipeline := &domain.Pipeline{
		ID:      run.PipelineID,
		Name:    "toolbelt",
		RepoURL: "https://example.com/toolbelt.git",
	}
	return job, run, pipeline
}

// --- ShellRunner Tests ---

func TestShellRunner_Exec(t *testing.T) {
	runner := &ShellRunner{Dir: t.TempDir()}

	outcome, err := runner.Exec(context.Background(), "echo hello", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.ExitCode != 0 {
		t.Errorf("expected exit code 0, got %d", outcome.ExitCode)
	}
	if !strings.Contains(outcome.Output, "hello") {
		t.Errorf("expected output to contain hello, got %q", outcome.Output)
	}
}

func TestShellRunner_Exec_ExitCode(t *testing.T) {
	runner := &ShellRunner{Dir: t.TempDir()}

	outcome, err := runner.Exec(context.Background(), "exit 3", nil)
	if err != nil {
		t.Fatalf("non-zero exit should not be an error: %v", err)
	}
	if outcome.ExitCode != 3 {
		t.Errorf("expected exit code 3, got %d", outcome.ExitCode)
	}
}

func TestShellRunner_Exec_Env(t *testing.T) {
	runner := &ShellRunner{Dir: t.TempDir()}

	outcome, err := runner.Exec(context.Background(), "echo $GREETING", map[string]string{
		"GREETING": "privet",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(outcome.Output, "privet") {
		t.Errorf("expected env var in output, got %q", outcome.Output)
	}
}

// --- executeSteps Tests ---

func TestExecuteSteps_AllSucceed(t *testing.T) {
	w := testWorker(t, nil)
	job, run, pipeline := testJobContext()

	def := &domain.JobDef{
		Steps: []domain.StepDef{
			{Name: "first", Run: "echo one"},
			{Name: "second", Run: "echo two"},
		},
	}

	results, exitCode, errMsg := w.executeSteps(context.Background(), job, run, pipeline, def, t.TempDir())

	if errMsg != "" {
		t.Fatalf("unexpected error: %s", errMsg)
	}
	if exitCode != 0 {
		t.Errorf("expected exit code 0, got %d", exitCode)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 step results, got %d", len(results))
	}
	for _, r := range results {
		if r.Status != domain.StepStatusSucceeded {
			t.Errorf("step %s: expected SUCCEEDED, got %s", r.Name, r.Status)
		}
	}
}

func TestExecuteSteps_ShortCircuit(t *testing.T) {
	w := testWorker(t, nil)
	job, run, pipeline := testJobContext()

	def := &domain.JobDef{
		Steps: []domain.StepDef{
			{Name: "ok", Run: "echo one"},
			{Name: "boom", Run: "exit 3"},
			{Name: "never", Run: "echo never"},
		},
	}

	results, exitCode, errMsg := w.executeSteps(context.Background(), job, run, pipeline, def, t.TempDir())

	if errMsg == "" {
		t.Fatal("expected failure")
	}
	if exitCode != 3 {
		t.Errorf("expected exit code 3, got %d", exitCode)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 step results, got %d", len(results))
	}

	if results[0].Status != domain.StepStatusSucceeded {
		t.Errorf("step ok: expected SUCCEEDED, got %s", results[0].Status)
	}
	if results[1].Status != domain.StepStatusFailed {
		t.Errorf("step boom: expected FAILED, got %s", results[1].Status)
	}
	// Шаг после упавшего не выполняется
	if results[2].Status != domain.StepStatusSkipped {
		t.Errorf("step never: expected SKIPPED, got %s", results[2].Status)
	}
	if results[2].Output != "" {
		t.Errorf("skipped step should have no output, got %q", results[2].Output)
	}
}

func TestExecuteSteps_JobEnv(t *testing.T) {
	w := testWorker(t, nil)
	job, run, pipeline := testJobContext()

	def := &domain.JobDef{
		Env: map[string]string{"MODE": "release"},
		Steps: []domain.StepDef{
			{Name: "job-env", Run: "echo mode=$MODE"},
			// env шага перекрывает env job
			{Name: "step-env", Run: "echo mode=$MODE", Env: map[string]string{"MODE": "debug"}},
		},
	}

	results, _, errMsg := w.executeSteps(context.Background(), job, run, pipeline, def, t.TempDir())

	if errMsg != "" {
		t.Fatalf("unexpected error: %s", errMsg)
	}
	if !strings.Contains(results[0].Output, "mode=release") {
		t.Errorf("expected job env, got %q", results[0].Output)
	}
	if !strings.Contains(results[1].Output, "mode=debug") {
		t.Errorf("expected step env override, got %q", results[1].Output)
	}
}

func TestExecuteSteps_CIEnv(t *testing.T) {
	w := testWorker(t, nil)
	job, run, pipeline := testJobContext()

	def := &domain.JobDef{
		Steps: []domain.StepDef{
			{Name: "ci-env", Run: "echo branch=$CI_BRANCH sha=$CI_SHA project=$CI_PROJECT"},
		},
	}

	results, _, errMsg := w.executeSteps(context.Background(), job, run, pipeline, def, t.TempDir())

	if errMsg != "" {
		t.Fatalf("unexpected error: %s", errMsg)
	}
	out := results[0].Output
	if !strings.Contains(out, "branch=main") || !strings.Contains(out, "sha=abc123") || !strings.Contains(out, "project=toolbelt") {
		t.Errorf("expected CI variables in output, got %q", out)
	}
}

func TestExecuteSteps_StickyActionEnv(t *testing.T) {
	w := testWorker(t, nil)
	job, run, pipeline := testJobContext()

	// Действие добавляет переменную для последующих шагов
	w.registry.Register("setenv@v1", actionFunc(func(ctx context.Context, inv *actions.Invocation) (*actions.Result, error) {
		return &actions.Result{Env: map[string]string{"RUSTUP_TOOLCHAIN": "nightly"}}, nil
	}))

	def := &domain.JobDef{
		Steps: []domain.StepDef{
			{Uses: "setenv@v1"},
			{Name: "after", Run: "echo toolchain=$RUSTUP_TOOLCHAIN"},
		},
	}

	results, _, errMsg := w.executeSteps(context.Background(), job, run, pipeline, def, t.TempDir())

	if errMsg != "" {
		t.Fatalf("unexpected error: %s", errMsg)
	}
	if !strings.Contains(results[1].Output, "toolchain=nightly") {
		t.Errorf("action env should propagate to later steps, got %q", results[1].Output)
	}
}

func TestExecuteSteps_SecretsRedacted(t *testing.T) {
	w := testWorker(t, secrets.StaticSource{"API_TOKEN": "s3cr3t-value"})
	job, run, pipeline := testJobContext()

	def := &domain.JobDef{
		Steps: []domain.StepDef{
			{Name: "leak", Run: "echo token=$API_TOKEN", Secrets: []string{"API_TOKEN"}},
		},
	}

	results, _, errMsg := w.executeSteps(context.Background(), job, run, pipeline, def, t.TempDir())

	if errMsg != "" {
		t.Fatalf("unexpected error: %s", errMsg)
	}
	if strings.Contains(results[0].Output, "s3cr3t-value") {
		t.Error("secret value must not appear in step output")
	}
	if !strings.Contains(results[0].Output, secrets.Redacted) {
		t.Errorf("expected redacted output, got %q", results[0].Output)
	}
}

func TestExecuteSteps_MissingSecret(t *testing.T) {
	w := testWorker(t, secrets.StaticSource{})
	job, run, pipeline := testJobContext()

	def := &domain.JobDef{
		Steps: []domain.StepDef{
			{Name: "needs-secret", Run: "echo hi", Secrets: []string{"MISSING"}},
		},
	}

	results, _, errMsg := w.executeSteps(context.Background(), job, run, pipeline, def, t.TempDir())

	if errMsg == "" {
		t.Fatal("expected failure for missing secret")
	}
	if results[0].Status != domain.StepStatusFailed {
		t.Errorf("expected FAILED, got %s", results[0].Status)
	}
}

func TestExecuteSteps_UnknownAction(t *testing.T) {
	w := testWorker(t, nil)
	job, run, pipeline := testJobContext()

	def := &domain.JobDef{
		Steps: []domain.StepDef{
			{Uses: "no-such-action@v1"},
		},
	}

	results, _, errMsg := w.executeSteps(context.Background(), job, run, pipeline, def, t.TempDir())

	if errMsg == "" {
		t.Fatal("expected failure for unknown action")
	}
	if results[0].Status != domain.StepStatusFailed {
		t.Errorf("expected FAILED, got %s", results[0].Status)
	}
}

// --- stepEnv Tests ---

func TestStepEnv_Priority(t *testing.T) {
	env := stepEnv(
		map[string]string{"A": "job", "B": "job", "C": "job"},
		map[string]string{"B": "sticky", "C": "sticky"},
		map[string]string{"C": "step"},
		map[string]secrets.Value{"D": secrets.NewValue("secret")},
	)

	if env["A"] != "job" {
		t.Errorf("A: expected job, got %s", env["A"])
	}
	if env["B"] != "sticky" {
		t.Errorf("B: expected sticky, got %s", env["B"])
	}
	if env["C"] != "step" {
		t.Errorf("C: expected step, got %s", env["C"])
	}
	if env["D"] != "secret" {
		t.Errorf("D: expected secret, got %s", env["D"])
	}
}

// --- Worker Tests ---

func TestNew_Defaults(t *testing.T) {
	w := New(Config{})

	if w.registry == nil {
		t.Error("registry should default to NewRegistry")
	}
	if w.secrets == nil {
		t.Error("secrets source should have a default")
	}
	if w.workDir == "" {
		t.Error("workDir should have a default")
	}
	if w.prefetch != defaultPrefetch {
		t.Errorf("expected default prefetch %d, got %d", defaultPrefetch, w.prefetch)
	}
}

func TestWorker_IsStopped(t *testing.T) {
	w := New(Config{})

	if w.IsStopped() {
		t.Error("should not be stopped initially")
	}

	w.stoppedMu.Lock()
	w.stopped = true
	w.stoppedMu.Unlock()

	if !w.IsStopped() {
		t.Error("should be stopped")
	}
}

// actionFunc адаптирует функцию к интерфейсу actions.Action.
type actionFunc func(ctx context.Context, inv *actions.Invocation) (*actions.Result, error)

func (f actionFunc) Run(ctx context.Context, inv *actions.Invocation) (*actions.Result, error) {
	return f(ctx, inv)
}
