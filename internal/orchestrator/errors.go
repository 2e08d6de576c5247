package orchestrator

import "errors"

// Ошибки оркестратора.
var (
	// ErrRunNotFound — run не найден в БД.
	ErrRunNotFound = errors.New("run not found")

	// ErrPipelineNotFound — pipeline или pipeline_version не найден.
	ErrPipelineNotFound = errors.New("pipeline not found")

	// ErrInvalidPipelineSpec — PipelineSpec не прошёл валидацию.
	ErrInvalidPipelineSpec = errors.New("invalid pipeline spec")

	// ErrRunAlreadyActive — run уже обрабатывается.
	ErrRunAlreadyActive = errors.New("run already being processed")

	// ErrRunNotPending — run не в статусе PENDING.
	ErrRunNotPending = errors.New("run is not in PENDING status")

	// ErrJobNotFound — job не найден.
	ErrJobNotFound = errors.New("job not found")
)
