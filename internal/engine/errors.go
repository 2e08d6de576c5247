package engine

import "errors"

// Ошибки валидации PipelineSpec.
var (
	// ErrEmptyJobs — pipeline не содержит jobs.
	ErrEmptyJobs = errors.New("pipeline spec has no jobs")

	// ErrEmptySteps — job не содержит шагов.
	ErrEmptySteps = errors.New("job has no steps")

	// ErrEmptyJobName — job не имеет имени.
	ErrEmptyJobName = errors.New("job has empty name")

	// ErrStepKind — шаг должен иметь ровно одно из run/uses.
	ErrStepKind = errors.New("step must have exactly one of run or uses")

	// ErrUnknownTrigger — неизвестный триггер в on.
	ErrUnknownTrigger = errors.New("unknown trigger")

	// ErrMissingDependency — job зависит от несуществующего job.
	ErrMissingDependency = errors.New("job depends on unknown job")

	// ErrCyclicDependency — обнаружен цикл в зависимостях.
	ErrCyclicDependency = errors.New("cyclic dependency detected")

	// ErrSelfDependency — job зависит от самого себя.
	ErrSelfDependency = errors.New("job depends on itself")
)

// Ошибки парсинга.
var (
	// ErrInvalidYAML — спецификация не является валидным YAML.
	ErrInvalidYAML = errors.New("invalid pipeline YAML")
)

// ValidationError — ошибка валидации с контекстом.
type ValidationError struct {
	JobName string // имя job, где произошла ошибка
	Field   string // поле, вызвавшее ошибку
	Message string // описание ошибки
	Err     error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	if e.JobName != "" {
		return "job " + e.JobName + ": " + e.Message
	}
	return e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError создаёт новую ошибку валидации.
func NewValidationError(jobName, field, message string, err error) *ValidationError {
	return &ValidationError{
		JobName: jobName,
		Field:   field,
		Message: message,
		Err:     err,
	}
}
