package engine

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/shaiso/Conveyor/internal/domain"
)

// Допустимые триггеры pipeline.
var validTriggers = map[string]bool{
	domain.TriggerPush:     true,
	domain.TriggerSchedule: true,
	domain.TriggerManual:   true,
}

// Parse разбирает YAML-спецификацию pipeline и валидирует её.
//
// Возвращает ValidationError с контекстом (job, поле), если
// спецификация синтаксически корректна, но семантически невалидна.
func Parse(data []byte) (*domain.PipelineSpec, error) {
	var spec domain.PipelineSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidYAML, err)
	}

	if err := Validate(&spec); err != nil {
		return nil, err
	}

	return &spec, nil
}

// Validate выполняет полную валидацию PipelineSpec.
//
// Проверяет:
// - Наличие jobs
// - Непустоту шагов каждого job
// - Ровно одно из run/uses на шаг
// - Валидность зависимостей (needs)
// - Известность триггеров (on)
// - Отсутствие циклов (делегируется DAG)
func Validate(spec *domain.PipelineSpec) error {
	if spec == nil || len(spec.Jobs) == 0 {
		return ErrEmptyJobs
	}

	for _, trigger := range spec.On {
		if !validTriggers[trigger] {
			return NewValidationError("", "on",
				fmt.Sprintf("unknown trigger: %s", trigger), ErrUnknownTrigger)
		}
	}

	for name, job := range spec.Jobs {
		if err := validateJob(name, &job, spec.Jobs); err != nil {
			return err
		}
	}

	// Проверяем на циклы построением DAG
	if _, err := BuildDAG(spec); err != nil {
		return err
	}

	return nil
}

// validateJob валидирует один job.
func validateJob(name string, job *domain.JobDef, jobs map[string]domain.JobDef) error {
	if name == "" {
		return NewValidationError("", "name", "job has empty name", ErrEmptyJobName)
	}

	if len(job.Steps) == 0 {
		return NewValidationError(name, "steps", "job has no steps", ErrEmptySteps)
	}

	for i := range job.Steps {
		step := &job.Steps[i]
		if step.IsCommand() == step.IsAction() {
			return NewValidationError(name, "steps",
				fmt.Sprintf("step %q must have exactly one of run or uses", step.DisplayName()),
				ErrStepKind)
		}
	}

	for _, dep := range job.Needs {
		if dep == name {
			return NewValidationError(name, "needs",
				"job depends on itself", ErrSelfDependency)
		}
		if _, ok := jobs[dep]; !ok {
			return NewValidationError(name, "needs",
				fmt.Sprintf("depends on unknown job: %s", dep), ErrMissingDependency)
		}
	}

	return nil
}

// IsValidTrigger проверяет, является ли триггер допустимым.
func IsValidTrigger(trigger string) bool {
	return validTriggers[trigger]
}
