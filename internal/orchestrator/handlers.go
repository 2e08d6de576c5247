package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/mq"
	"github.com/shaiso/Conveyor/internal/repo"
	"github.com/shaiso/Conveyor/internal/telemetry"
)

// handleRunPending обрабатывает событие о новом pending run.
func (o *Orchestrator) handleRunPending(ctx context.Context, delivery *mq.Delivery) error {
	// Парсим payload
	payload, err := mq.ParsePayload[mq.RunPendingPayload](&delivery.Message)
	if err != nil {
		o.logger.Error("failed to parse run.pending payload", "error", err)
		return err
	}

	o.logger.Debug("received run.pending event", "run_id", payload.RunID)

	// Проверяем, не обрабатывается ли уже
	if o.isRunActive(payload.RunID) {
		o.logger.Debug("run already active, skipping", "run_id", payload.RunID)
		return nil
	}

	// Обрабатываем run
	if err := o.processRun(ctx, payload.RunID); err != nil {
		// Двойная доставка и polling-гонка — не ошибки
		if errors.Is(err, ErrRunNotPending) || errors.Is(err, ErrRunAlreadyActive) {
			o.logger.Debug("run not processed", "run_id", payload.RunID, "reason", err)
			return nil
		}
		o.logger.Error("failed to process run", "run_id", payload.RunID, "error", err)
		return err
	}

	return nil
}

// handleJobCompleted обрабатывает событие о завершённом job.
func (o *Orchestrator) handleJobCompleted(ctx context.Context, delivery *mq.Delivery) error {
	// Парсим payload
	payload, err := mq.ParsePayload[mq.JobCompletedPayload](&delivery.Message)
	if err != nil {
		o.logger.Error("failed to parse job.completed payload", "error", err)
		return err
	}

	o.logger.Debug("received job.completed event",
		"job_id", payload.JobID,
		"run_id", payload.RunID,
		"job_name", payload.JobName,
		"status", payload.Status,
	)

	// Обрабатываем завершение job
	if err := o.processJobCompleted(ctx, payload); err != nil {
		o.logger.Error("failed to process job completion",
			"job_id", payload.JobID,
			"run_id", payload.RunID,
			"error", err,
		)
		return err
	}

	return nil
}

// processRun обрабатывает новый run.
func (o *Orchestrator) processRun(ctx context.Context, runID uuid.UUID) error {
	// 1. Загружаем run из БД
	run, err := o.runRepo.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return fmt.Errorf("get run: %w", err)
	}

	// 2. Проверяем статус
	if run.Status != domain.RunStatusPending {
		return ErrRunNotPending
	}

	// 3. Загружаем PipelineVersion
	version, err := o.pipelineRepo.GetVersion(ctx, run.PipelineID, run.Version)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return o.failRun(ctx, run, fmt.Sprintf("pipeline version not found: %s v%d", run.PipelineID, run.Version))
		}
		return fmt.Errorf("get pipeline version: %w", err)
	}

	// 4. Создаём RunState
	state := NewRunState(run, version)

	// 5. Инициализируем (валидация спецификации, DAG)
	if err := state.Initialize(); err != nil {
		return o.failRun(ctx, run, fmt.Sprintf("initialization failed: %v", err))
	}

	// 6. Добавляем в активные runs
	if err := o.addActiveRun(state); err != nil {
		return err
	}

	// 7. Переводим run в RUNNING
	run.MarkRunning()
	if err := o.runRepo.Update(ctx, run); err != nil {
		o.removeActiveRun(runID)
		return fmt.Errorf("update run to running: %w", err)
	}
	telemetry.RunsStarted.Inc()

	// 8. Создаём все jobs run'а сразу как QUEUED
	if err := o.createJobs(ctx, state); err != nil {
		o.removeActiveRun(runID)
		return fmt.Errorf("create jobs: %w", err)
	}

	o.logger.Info("run started",
		"run_id", runID,
		"pipeline_id", run.PipelineID,
		"version", run.Version,
		"jobs", state.DAG.Size(),
	)

	// 9. Диспатчим готовые jobs (корни DAG)
	if err := o.dispatchReadyJobs(ctx, state); err != nil {
		o.logger.Error("failed to dispatch initial jobs", "run_id", runID, "error", err)
		// Не удаляем из активных — попробуем при следующем событии
	}

	return nil
}

// createJobs создаёт записи jobs для всех узлов DAG одной транзакцией.
//
// Jobs создаются заранее в статусе QUEUED: worker переводит job в RUNNING
// атомарно (QUEUED → RUNNING), что защищает от двойной доставки сообщения.
func (o *Orchestrator) createJobs(ctx context.Context, state *RunState) error {
	now := time.Now()

	jobs := make([]domain.Job, 0, state.DAG.Size())
	for _, node := range state.DAG.Order {
		jobs = append(jobs, domain.Job{
			ID:        uuid.New(),
			RunID:     state.RunID(),
			JobName:   node.Name,
			Status:    domain.JobStatusQueued,
			CreatedAt: now,
		})
	}

	if err := o.jobRepo.CreateBatch(ctx, jobs); err != nil {
		return err
	}

	for i := range jobs {
		state.SetJob(jobs[i].JobName, &jobs[i])
	}

	return nil
}

// processJobCompleted обрабатывает завершение job.
func (o *Orchestrator) processJobCompleted(ctx context.Context, payload mq.JobCompletedPayload) error {
	// 1. Получаем активный RunState
	state := o.getActiveRun(payload.RunID)

	// Если run не в памяти, пытаемся восстановить
	if state == nil {
		var err error
		state, err = o.restoreRunState(ctx, payload.RunID)
		if err != nil {
			return fmt.Errorf("restore run state: %w", err)
		}
		if state == nil {
			// Run уже завершён или не существует
			o.logger.Debug("run not active and cannot restore", "run_id", payload.RunID)
			return nil
		}
	}

	// 2. Обновляем состояние job
	if payload.Status == string(domain.JobStatusSucceeded) {
		state.MarkJobSucceeded(payload.JobName)
		o.logger.Debug("job succeeded",
			"run_id", payload.RunID,
			"job_name", payload.JobName,
		)
	} else {
		state.MarkJobFailed(payload.JobName)
		o.logger.Warn("job failed",
			"run_id", payload.RunID,
			"job_name", payload.JobName,
			"error", payload.Error,
		)
	}

	// 3. Каскадно пропускаем jobs, чьи зависимости не выполнятся.
	// Независимые ветки DAG продолжают работать.
	if err := o.skipBlockedJobs(ctx, state); err != nil {
		return fmt.Errorf("skip blocked jobs: %w", err)
	}

	// 4. Проверяем завершение run: run терминален, когда каждый job
	// дошёл до терминального статуса
	if state.IsComplete() {
		return o.completeRun(ctx, state, !state.HasFailed())
	}

	// 5. Диспатчим следующие готовые jobs
	return o.dispatchReadyJobs(ctx, state)
}

// skipBlockedJobs помечает SKIPPED все jobs, чья зависимость упала или
// была пропущена. Повторяет до фикспоинта: пропуск job'а блокирует его
// зависимые jobs транзитивно.
func (o *Orchestrator) skipBlockedJobs(ctx context.Context, state *RunState) error {
	for {
		blocked := state.GetBlockedJobs()
		if len(blocked) == 0 {
			return nil
		}

		for _, node := range blocked {
			job := state.GetJob(node.Name)
			if job == nil {
				return fmt.Errorf("%w: %s", ErrJobNotFound, node.Name)
			}

			job.MarkSkipped("dependency failed or skipped")
			if err := o.jobRepo.Update(ctx, job); err != nil {
				return fmt.Errorf("update job %s to skipped: %w", node.Name, err)
			}

			state.MarkJobSkipped(node.Name)

			o.logger.Info("job skipped",
				"run_id", state.RunID(),
				"job_name", node.Name,
			)
		}
	}
}

// dispatchReadyJobs публикует job.ready для готовых jobs.
func (o *Orchestrator) dispatchReadyJobs(ctx context.Context, state *RunState) error {
	readyJobs := state.GetReadyJobs()

	if len(readyJobs) == 0 {
		return nil
	}

	o.logger.Debug("dispatching ready jobs",
		"run_id", state.RunID(),
		"count", len(readyJobs),
	)

	for _, node := range readyJobs {
		if err := o.dispatchJob(ctx, state, node.Name); err != nil {
			o.logger.Error("failed to dispatch job",
				"run_id", state.RunID(),
				"job_name", node.Name,
				"error", err,
			)
			// Продолжаем с другими jobs
		}
	}

	return nil
}

// dispatchJob публикует job.ready для одного job.
func (o *Orchestrator) dispatchJob(ctx context.Context, state *RunState, jobName string) error {
	job := state.GetJob(jobName)
	if job == nil {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobName)
	}

	// Помечаем job как диспатченный в памяти.
	// В БД статус останется QUEUED, пока worker не заберёт job.
	state.MarkJobRunning(jobName, job)

	// Публикуем событие для Worker
	if err := o.publisher.PublishJobReady(ctx, job.ID, state.RunID()); err != nil {
		o.logger.Warn("failed to publish job.ready",
			"job_id", job.ID,
			"run_id", state.RunID(),
			"error", err,
		)
		// Job остался QUEUED в БД — подхватится после рестарта через restore
	}

	o.logger.Debug("job dispatched",
		"job_id", job.ID,
		"run_id", state.RunID(),
		"job_name", jobName,
	)

	return nil
}

// completeRun завершает run (успешно или с ошибкой).
func (o *Orchestrator) completeRun(ctx context.Context, state *RunState, success bool) error {
	run := state.Run

	if success {
		run.MarkSucceeded()
		o.logger.Info("run succeeded",
			"run_id", run.ID,
			"duration", run.Duration(),
		)
	} else {
		failedJobs := state.GetFailedJobs()
		errMsg := fmt.Sprintf("jobs failed: %v", failedJobs)
		run.MarkFailed(errMsg)
		o.logger.Warn("run failed",
			"run_id", run.ID,
			"failed_jobs", failedJobs,
			"duration", run.Duration(),
		)
	}

	// Обновляем в БД
	if err := o.runRepo.Update(ctx, run); err != nil {
		return fmt.Errorf("update run status: %w", err)
	}

	telemetry.RunsCompleted.WithLabelValues(string(run.Status)).Inc()

	// Удаляем из активных
	o.removeActiveRun(run.ID)

	return nil
}

// failRun переводит run в статус FAILED.
func (o *Orchestrator) failRun(ctx context.Context, run *domain.Run, errMsg string) error {
	run.MarkFailed(errMsg)

	if err := o.runRepo.Update(ctx, run); err != nil {
		return fmt.Errorf("update run to failed: %w", err)
	}
	telemetry.RunsCompleted.WithLabelValues(string(run.Status)).Inc()

	o.logger.Warn("run failed early",
		"run_id", run.ID,
		"error", errMsg,
	)

	return fmt.Errorf("run failed: %s", errMsg)
}

// restoreRunState восстанавливает RunState из БД.
// Используется когда job.completed приходит для run, которого нет в памяти
// (после рестарта Orchestrator).
func (o *Orchestrator) restoreRunState(ctx context.Context, runID uuid.UUID) (*RunState, error) {
	// Загружаем run
	run, err := o.runRepo.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, nil // Run не существует
		}
		return nil, fmt.Errorf("get run: %w", err)
	}

	// Если run уже завершён — ничего не делаем
	if run.IsFinished() {
		return nil, nil
	}

	// Загружаем PipelineVersion
	version, err := o.pipelineRepo.GetVersion(ctx, run.PipelineID, run.Version)
	if err != nil {
		return nil, fmt.Errorf("get pipeline version: %w", err)
	}

	// Создаём и инициализируем state
	state := NewRunState(run, version)
	if err := state.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize state: %w", err)
	}

	// Загружаем jobs и восстанавливаем состояние
	jobs, err := o.jobRepo.ListByRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	state.RestoreFromJobs(jobs)

	// Добавляем в активные
	if err := o.addActiveRun(state); err != nil {
		if errors.Is(err, ErrRunAlreadyActive) {
			// Кто-то уже восстановил — возвращаем его
			return o.getActiveRun(runID), nil
		}
		return nil, err
	}

	o.logger.Info("run state restored",
		"run_id", runID,
		"stats", state.Stats(),
	)

	return state, nil
}
