package engine

import (
	"errors"
	"os"
	"testing"

	"github.com/shaiso/Conveyor/internal/domain"
)

func TestParse_ReferencePipeline(t *testing.T) {
	data, err := os.ReadFile("testdata/toolbelt.yaml")
	if err != nil {
		t.Fatalf("failed to read testdata: %v", err)
	}

	spec, err := Parse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if spec.Name != "toolbelt" {
		t.Errorf("expected name toolbelt, got %s", spec.Name)
	}
	if len(spec.On) != 1 || spec.On[0] != domain.TriggerPush {
		t.Errorf("expected on [push], got %v", spec.On)
	}
	if len(spec.Jobs) != 5 {
		t.Errorf("expected 5 jobs, got %d", len(spec.Jobs))
	}

	for _, name := range []string{"build", "test", "coverage", "doc-coverage", "clippy"} {
		if _, ok := spec.Jobs[name]; !ok {
			t.Errorf("expected job %s to exist", name)
		}
	}

	// Проверяем разбор шагов coverage
	coverage := spec.Jobs["coverage"]
	if len(coverage.Steps) != 6 {
		t.Fatalf("expected 6 steps in coverage, got %d", len(coverage.Steps))
	}

	upload := coverage.Steps[4]
	if !upload.IsAction() || upload.Uses != "upload-artifact@v1" {
		t.Errorf("expected upload-artifact action, got %+v", upload)
	}
	if upload.With["rename"] != "test-coverage.xml" {
		t.Errorf("expected rename test-coverage.xml, got %v", upload.With["rename"])
	}

	codecov := coverage.Steps[5]
	if len(codecov.Secrets) != 1 || codecov.Secrets[0] != "CODECOV_TOKEN" {
		t.Errorf("expected secrets [CODECOV_TOKEN], got %v", codecov.Secrets)
	}

	// Шаг clippy получает токен для аутентификации на хосте репозитория
	clippy := spec.Jobs["clippy"]
	lint := clippy.Steps[len(clippy.Steps)-1]
	if len(lint.Secrets) != 1 || lint.Secrets[0] != "GITHUB_TOKEN" {
		t.Errorf("expected secrets [GITHUB_TOKEN], got %v", lint.Secrets)
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("jobs: [not a map"))
	if !errors.Is(err, ErrInvalidYAML) {
		t.Errorf("expected ErrInvalidYAML, got %v", err)
	}
}

func TestValidate_EmptyJobs(t *testing.T) {
	tests := []struct {
		name string
		spec *domain.PipelineSpec
	}{
		{"nil spec", nil},
		{"no jobs", &domain.PipelineSpec{Name: "empty"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Validate(tt.spec); !errors.Is(err, ErrEmptyJobs) {
				t.Errorf("expected ErrEmptyJobs, got %v", err)
			}
		})
	}
}

func TestValidate_EmptySteps(t *testing.T) {
	spec := &domain.PipelineSpec{
		Jobs: map[string]domain.JobDef{
			"build": {},
		},
	}

	err := Validate(spec)
	if !errors.Is(err, ErrEmptySteps) {
		t.Errorf("expected ErrEmptySteps, got %v", err)
	}

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if verr.JobName != "build" {
		t.Errorf("expected job build in error, got %s", verr.JobName)
	}
}

func TestValidate_StepKind(t *testing.T) {
	tests := []struct {
		name string
		step domain.StepDef
	}{
		{"neither run nor uses", domain.StepDef{Name: "noop"}},
		{"both run and uses", domain.StepDef{Run: "true", Uses: "checkout@v1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := &domain.PipelineSpec{
				Jobs: map[string]domain.JobDef{
					"build": {Steps: []domain.StepDef{tt.step}},
				},
			}
			if err := Validate(spec); !errors.Is(err, ErrStepKind) {
				t.Errorf("expected ErrStepKind, got %v", err)
			}
		})
	}
}

func TestValidate_UnknownTrigger(t *testing.T) {
	spec := &domain.PipelineSpec{
		On: []string{"pull_request"},
		Jobs: map[string]domain.JobDef{
			"build": jobDef(),
		},
	}

	if err := Validate(spec); !errors.Is(err, ErrUnknownTrigger) {
		t.Errorf("expected ErrUnknownTrigger, got %v", err)
	}
}

func TestValidate_MissingDependency(t *testing.T) {
	spec := &domain.PipelineSpec{
		Jobs: map[string]domain.JobDef{
			"test": jobDef("build"),
		},
	}

	if err := Validate(spec); !errors.Is(err, ErrMissingDependency) {
		t.Errorf("expected ErrMissingDependency, got %v", err)
	}
}

func TestValidate_SelfDependency(t *testing.T) {
	spec := &domain.PipelineSpec{
		Jobs: map[string]domain.JobDef{
			"build": jobDef("build"),
		},
	}

	if err := Validate(spec); !errors.Is(err, ErrSelfDependency) {
		t.Errorf("expected ErrSelfDependency, got %v", err)
	}
}

func TestValidate_Cycle(t *testing.T) {
	spec := &domain.PipelineSpec{
		Jobs: map[string]domain.JobDef{
			"a": jobDef("b"),
			"b": jobDef("a"),
		},
	}

	if err := Validate(spec); !errors.Is(err, ErrCyclicDependency) {
		t.Errorf("expected ErrCyclicDependency, got %v", err)
	}
}
