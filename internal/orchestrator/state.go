package orchestrator

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/engine"
)

// RunState — состояние выполнения одного run в памяти.
//
// RunState создаётся когда Orchestrator начинает обработку run
// и удаляется когда run завершается (SUCCEEDED/FAILED/CANCELLED).
//
// Содержит:
//   - Кэш данных из БД (Run, PipelineVersion)
//   - Построенный DAG jobs
//   - Отслеживание статуса каждого job
type RunState struct {
	// Run — данные run из БД.
	Run *domain.Run

	// PipelineVersion — версия pipeline со спецификацией.
	PipelineVersion *domain.PipelineVersion

	// DAG — граф зависимостей jobs.
	DAG *engine.DAG

	// succeeded — успешно завершённые jobs (jobName → true).
	succeeded map[string]bool

	// running — jobs в процессе выполнения (jobName → true).
	running map[string]bool

	// failed — упавшие jobs (jobName → true).
	failed map[string]bool

	// skipped — пропущенные jobs (jobName → true).
	skipped map[string]bool

	// jobs — записи jobs этого run (jobName → Job).
	jobs map[string]*domain.Job

	// mu — мьютекс для потокобезопасного доступа.
	mu sync.RWMutex
}

// NewRunState создаёт новый RunState.
func NewRunState(run *domain.Run, version *domain.PipelineVersion) *RunState {
	return &RunState{
		Run:             run,
		PipelineVersion: version,
		succeeded:       make(map[string]bool),
		running:         make(map[string]bool),
		failed:          make(map[string]bool),
		skipped:         make(map[string]bool),
		jobs:            make(map[string]*domain.Job),
	}
}

// Initialize инициализирует RunState: валидирует спецификацию и строит DAG.
func (s *RunState) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	spec := &s.PipelineVersion.Spec

	if err := engine.Validate(spec); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPipelineSpec, err)
	}

	dag, err := engine.BuildDAG(spec)
	if err != nil {
		return fmt.Errorf("build DAG: %w", err)
	}
	s.DAG = dag

	return nil
}

// GetReadyJobs возвращает jobs, готовые к выполнению.
// Job готов, если все его зависимости завершились успешно и он ещё не запущен.
func (s *RunState) GetReadyJobs() []*engine.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.DAG.GetReadyNodes(s.succeeded, s.running, s.settledLocked())
}

// GetBlockedJobs возвращает jobs, которые никогда не выполнятся:
// их зависимость упала или была пропущена.
func (s *RunState) GetBlockedJobs() []*engine.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.DAG.GetBlockedNodes(s.succeeded, s.running, s.settledLocked())
}

// settledLocked объединяет failed и skipped. Вызывается под mu.
func (s *RunState) settledLocked() map[string]bool {
	settled := make(map[string]bool, len(s.failed)+len(s.skipped))
	for name := range s.failed {
		settled[name] = true
	}
	for name := range s.skipped {
		settled[name] = true
	}
	return settled
}

// MarkJobRunning помечает job как выполняющийся.
func (s *RunState) MarkJobRunning(jobName string, job *domain.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running[jobName] = true
	s.jobs[jobName] = job
}

// MarkJobSucceeded помечает job как успешно завершённый.
func (s *RunState) MarkJobSucceeded(jobName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.running, jobName)
	s.succeeded[jobName] = true
}

// MarkJobFailed помечает job как упавший.
func (s *RunState) MarkJobFailed(jobName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.running, jobName)
	s.failed[jobName] = true
}

// MarkJobSkipped помечает job как пропущенный.
func (s *RunState) MarkJobSkipped(jobName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.running, jobName)
	s.skipped[jobName] = true
}

// GetJob возвращает запись job по имени.
func (s *RunState) GetJob(jobName string) *domain.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.jobs[jobName]
}

// SetJob устанавливает запись job.
func (s *RunState) SetJob(jobName string, job *domain.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs[jobName] = job
}

// IsComplete проверяет, все ли jobs дошли до терминального статуса.
func (s *RunState) IsComplete() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.DAG.IsComplete(s.succeeded, s.settledLocked())
}

// HasFailed проверяет, есть ли упавшие или пропущенные jobs.
// Run успешен только когда КАЖДЫЙ job завершился успешно.
func (s *RunState) HasFailed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.failed) > 0 || len(s.skipped) > 0
}

// GetFailedJobs возвращает список упавших jobs.
func (s *RunState) GetFailedJobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]string, 0, len(s.failed))
	for name := range s.failed {
		jobs = append(jobs, name)
	}
	return jobs
}

// RunID возвращает ID run.
func (s *RunState) RunID() uuid.UUID {
	return s.Run.ID
}

// PipelineID возвращает ID pipeline.
func (s *RunState) PipelineID() uuid.UUID {
	return s.Run.PipelineID
}

// Stats возвращает статистику выполнения.
func (s *RunState) Stats() RunStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := s.DAG.Size()
	return RunStats{
		TotalJobs:     total,
		SucceededJobs: len(s.succeeded),
		RunningJobs:   len(s.running),
		FailedJobs:    len(s.failed),
		SkippedJobs:   len(s.skipped),
		PendingJobs:   total - len(s.succeeded) - len(s.running) - len(s.failed) - len(s.skipped),
	}
}

// RunStats — статистика выполнения run.
type RunStats struct {
	TotalJobs     int
	SucceededJobs int
	RunningJobs   int
	FailedJobs    int
	SkippedJobs   int
	PendingJobs   int
}

// RestoreFromJobs восстанавливает состояние из списка jobs (после рестарта).
func (s *RunState) RestoreFromJobs(jobs []domain.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range jobs {
		job := &jobs[i]
		s.jobs[job.JobName] = job

		switch job.Status {
		case domain.JobStatusSucceeded:
			s.succeeded[job.JobName] = true

		case domain.JobStatusFailed:
			s.failed[job.JobName] = true

		case domain.JobStatusSkipped:
			s.skipped[job.JobName] = true

		case domain.JobStatusRunning:
			s.running[job.JobName] = true

		case domain.JobStatusQueued:
			// Job в очереди — будет обработан worker
		}
	}
}
