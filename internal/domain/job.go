package domain

import (
	"time"

	"github.com/google/uuid"
)

// Job — единица выполнения внутри run.
//
// Каждый job из спецификации pipeline порождает ровно одну запись Job
// на каждый run. Jobs без зависимостей стартуют параллельно; job с
// needs ждёт успешного завершения всех своих зависимостей.
//
// Жизненный цикл:
//
//	QUEUED -> RUNNING -> SUCCEEDED
//	                  -> FAILED
//	QUEUED -> SKIPPED (зависимость завершилась с FAILED/SKIPPED)
type Job struct {
	// ID — уникальный идентификатор job.
	ID uuid.UUID `json:"id"`

	// RunID — ссылка на run, которому принадлежит job.
	RunID uuid.UUID `json:"run_id"`

	// JobName — имя job из спецификации pipeline (ключ в jobs).
	JobName string `json:"job_name"`

	// Status — текущий статус выполнения.
	Status JobStatus `json:"status"`

	// Steps — результаты выполненных шагов в порядке выполнения.
	// Заполняется worker после завершения job.
	Steps []StepResult `json:"steps,omitempty"`

	// ExitCode — код завершения первого упавшего шага (0 при успехе).
	ExitCode int `json:"exit_code"`

	// StartedAt — время начала выполнения на worker.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// Error — текст ошибки, если job завершился с FAILED.
	Error string `json:"error,omitempty"`

	// CreatedAt — время создания job.
	CreatedAt time.Time `json:"created_at"`
}

// StepResult — результат выполнения одного шага внутри job.
type StepResult struct {
	// Name — отображаемое имя шага.
	Name string `json:"name"`

	// Kind — вид шага: "run" (shell-команда) или "uses" (действие).
	Kind string `json:"kind"`

	// Status — итоговый статус шага.
	Status StepStatus `json:"status"`

	// ExitCode — код завершения shell-команды (для run-шагов).
	ExitCode int `json:"exit_code"`

	// Output — объединённый stdout/stderr шага.
	Output string `json:"output,omitempty"`

	// Error — текст ошибки, если шаг завершился с FAILED.
	Error string `json:"error,omitempty"`
}

// Duration возвращает продолжительность выполнения job.
func (j *Job) Duration() time.Duration {
	if j.StartedAt == nil || j.FinishedAt == nil {
		return 0
	}
	return j.FinishedAt.Sub(*j.StartedAt)
}

// IsFinished возвращает true, если job завершён (в любом статусе).
func (j *Job) IsFinished() bool {
	return j.Status.IsTerminal()
}

// MarkRunning переводит job в статус RUNNING.
func (j *Job) MarkRunning() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
}

// MarkSucceeded переводит job в статус SUCCEEDED.
func (j *Job) MarkSucceeded() {
	now := time.Now()
	j.Status = JobStatusSucceeded
	j.FinishedAt = &now
}

// MarkFailed переводит job в статус FAILED с ошибкой.
func (j *Job) MarkFailed(exitCode int, err string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.ExitCode = exitCode
	j.FinishedAt = &now
	j.Error = err
}

// MarkSkipped переводит job в статус SKIPPED без выполнения.
func (j *Job) MarkSkipped(reason string) {
	now := time.Now()
	j.Status = JobStatusSkipped
	j.FinishedAt = &now
	j.Error = reason
}
