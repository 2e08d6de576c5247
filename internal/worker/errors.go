package worker

import "errors"

// Sentinel errors пакета worker.
var (
	// ErrJobNotFound — job не найден в БД.
	ErrJobNotFound = errors.New("job not found")

	// ErrJobNotQueued — job уже не в статусе QUEUED
	// (забран другим worker или доставлен повторно).
	ErrJobNotQueued = errors.New("job is not queued")

	// ErrJobNotInSpec — job отсутствует в спецификации своей версии pipeline.
	ErrJobNotInSpec = errors.New("job is not in pipeline spec")
)
