package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Conveyor/internal/actions"
	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/mq"
	"github.com/shaiso/Conveyor/internal/repo"
	"github.com/shaiso/Conveyor/internal/secrets"
	"github.com/shaiso/Conveyor/internal/telemetry"
)

// handleJobReady обрабатывает событие о новом job из очереди jobs.ready.
func (w *Worker) handleJobReady(ctx context.Context, delivery *mq.Delivery) error {
	// Парсим payload
	payload, err := mq.ParsePayload[mq.JobReadyPayload](&delivery.Message)
	if err != nil {
		w.logger.Error("failed to parse job.ready payload", "error", err)
		return err
	}

	w.logger.Debug("received job.ready event",
		"job_id", payload.JobID,
		"run_id", payload.RunID,
	)

	// Обрабатываем job
	if err := w.processJob(ctx, payload.JobID); err != nil {
		// Ожидаемые ситуации — не возвращаем ошибку (ack)
		if errors.Is(err, ErrJobNotFound) || errors.Is(err, ErrJobNotQueued) {
			w.logger.Debug("job not processed", "job_id", payload.JobID, "reason", err)
			return nil
		}
		w.logger.Error("failed to process job", "job_id", payload.JobID, "error", err)
		return err
	}

	return nil
}

// processJob забирает job, выполняет его шаги и публикует результат.
func (w *Worker) processJob(ctx context.Context, jobID uuid.UUID) error {
	// 1. Забираем job атомарно: QUEUED → RUNNING.
	// Повторная доставка или второй worker получат ErrInvalidState.
	if err := w.jobRepo.MarkRunningIfQueued(ctx, jobID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
		}
		if errors.Is(err, repo.ErrInvalidState) {
			return ErrJobNotQueued
		}
		return fmt.Errorf("claim job: %w", err)
	}

	// 2. Загружаем job
	job, err := w.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("get job: %w", err)
	}

	// 3. Загружаем run, pipeline и версию спецификации
	run, err := w.runRepo.GetByID(ctx, job.RunID)
	if err != nil {
		return w.failJob(ctx, job, 1, fmt.Sprintf("load run: %v", err))
	}

	pipeline, err := w.pipelineRepo.GetByID(ctx, run.PipelineID)
	if err != nil {
		return w.failJob(ctx, job, 1, fmt.Sprintf("load pipeline: %v", err))
	}

	version, err := w.pipelineRepo.GetVersion(ctx, run.PipelineID, run.Version)
	if err != nil {
		return w.failJob(ctx, job, 1, fmt.Sprintf("load pipeline version: %v", err))
	}

	def, ok := version.Spec.Jobs[job.JobName]
	if !ok {
		return w.failJob(ctx, job, 1, fmt.Sprintf("%v: %s", ErrJobNotInSpec, job.JobName))
	}

	w.logger.Info("job started",
		"job_id", job.ID,
		"run_id", job.RunID,
		"job_name", job.JobName,
		"steps", len(def.Steps),
	)

	// 4. Готовим workspace: каждый job получает свой каталог,
	// после выполнения каталог удаляется
	workspace := filepath.Join(w.workDir, run.ID.String(), job.JobName)
	if err := os.MkdirAll(workspace, 0o755); err != nil {
		return w.failJob(ctx, job, 1, fmt.Sprintf("create workspace: %v", err))
	}
	defer func() {
		if err := os.RemoveAll(workspace); err != nil {
			w.logger.Warn("failed to remove workspace", "path", workspace, "error", err)
		}
	}()

	// 5. Выполняем шаги
	results, exitCode, errMsg := w.executeSteps(ctx, job, run, pipeline, &def, workspace)

	// 6. Фиксируем результат job
	job.Steps = results
	if errMsg == "" {
		job.MarkSucceeded()
	} else {
		job.MarkFailed(exitCode, errMsg)
	}

	if err := w.jobRepo.Update(ctx, job); err != nil {
		return fmt.Errorf("update job: %w", err)
	}

	telemetry.JobsCompleted.WithLabelValues(string(job.Status)).Inc()
	telemetry.JobDuration.Observe(job.Duration().Seconds())

	if errMsg == "" {
		w.logger.Info("job succeeded",
			"job_id", job.ID,
			"run_id", job.RunID,
			"job_name", job.JobName,
			"duration", job.Duration(),
		)
	} else {
		w.logger.Warn("job failed",
			"job_id", job.ID,
			"run_id", job.RunID,
			"job_name", job.JobName,
			"error", errMsg,
		)
	}

	// 7. Публикуем событие для Orchestrator
	return w.publishCompletion(ctx, job, errMsg)
}

// executeSteps выполняет шаги job последовательно.
//
// Первый упавший шаг останавливает job: оставшиеся шаги получают
// статус SKIPPED и не выполняются. Возвращает результаты всех шагов,
// код завершения упавшего шага и текст ошибки (пустой при успехе).
func (w *Worker) executeSteps(
	ctx context.Context,
	job *domain.Job,
	run *domain.Run,
	pipeline *domain.Pipeline,
	def *domain.JobDef,
	workspace string,
) ([]domain.StepResult, int, string) {
	logger := w.logger.With("run_id", run.ID, "job_name", job.JobName)
	runner := &ShellRunner{Dir: workspace}

	// Базовое окружение job: стандартные CI-переменные плюс env из
	// спецификации job
	jobEnv := map[string]string{
		"CI":         "true",
		"CI_EVENT":   run.Event.Kind,
		"CI_BRANCH":  run.Event.Branch,
		"CI_SHA":     run.Event.SHA,
		"CI_PROJECT": pipeline.Name,
	}
	for key, value := range def.Env {
		jobEnv[key] = value
	}

	// sticky — переменные, добавленные действиями для последующих шагов
	// (выбор toolchain действует до конца job)
	sticky := make(map[string]string)

	results := make([]domain.StepResult, 0, len(def.Steps))
	failedCode := 0
	failedMsg := ""

	for i := range def.Steps {
		step := &def.Steps[i]

		kind := "run"
		if step.IsAction() {
			kind = "uses"
		}

		// После падения шага оставшиеся не выполняются
		if failedMsg != "" {
			results = append(results, domain.StepResult{
				Name:   step.DisplayName(),
				Kind:   kind,
				Status: domain.StepStatusSkipped,
			})
			continue
		}

		result := w.executeStep(ctx, step, kind, job, run, pipeline, runner, workspace, jobEnv, sticky, logger)
		results = append(results, result)

		if result.Status == domain.StepStatusFailed {
			failedCode = result.ExitCode
			if failedCode == 0 {
				failedCode = 1
			}
			failedMsg = fmt.Sprintf("step %q failed: %s", step.DisplayName(), result.Error)
		}
	}

	return results, failedCode, failedMsg
}

// executeStep выполняет один шаг job.
func (w *Worker) executeStep(
	ctx context.Context,
	step *domain.StepDef,
	kind string,
	job *domain.Job,
	run *domain.Run,
	pipeline *domain.Pipeline,
	runner *ShellRunner,
	workspace string,
	jobEnv map[string]string,
	sticky map[string]string,
	logger *slog.Logger,
) domain.StepResult {
	result := domain.StepResult{
		Name: step.DisplayName(),
		Kind: kind,
	}

	// Разрешаем секреты, объявленные шагом
	resolved, err := secrets.Resolve(w.secrets, step.Secrets)
	if err != nil {
		result.Status = domain.StepStatusFailed
		result.Error = err.Error()
		return result
	}

	// Окружение шага: env job < env действий < env шага < секреты
	env := stepEnv(jobEnv, sticky, step.Env, resolved)

	// Таймаут шага
	stepCtx := ctx
	if step.TimeoutSec > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, time.Duration(step.TimeoutSec)*time.Second)
		defer cancel()
	}

	logger.Info("step started", "step", step.DisplayName(), "kind", kind)

	if step.IsCommand() {
		outcome, execErr := runner.Exec(stepCtx, step.Run, env)
		result.ExitCode = outcome.ExitCode
		result.Output = secrets.RedactAll(outcome.Output, resolved)

		switch {
		case execErr != nil:
			result.Status = domain.StepStatusFailed
			result.Error = secrets.RedactAll(execErr.Error(), resolved)
		case outcome.ExitCode != 0:
			result.Status = domain.StepStatusFailed
			result.Error = fmt.Sprintf("command exited with %d", outcome.ExitCode)
		default:
			result.Status = domain.StepStatusSucceeded
		}
		return result
	}

	// Шаг-действие
	action, err := w.registry.Get(step.Uses)
	if err != nil {
		result.Status = domain.StepStatusFailed
		result.Error = err.Error()
		return result
	}

	inv := &actions.Invocation{
		RunID:       run.ID,
		JobID:       job.ID,
		StepName:    step.DisplayName(),
		With:        step.With,
		Env:         env,
		Workspace:   workspace,
		Event:       run.Event,
		RepoURL:     pipeline.RepoURL,
		ProjectName: pipeline.Name,
		Secrets:     resolved,
		Artifacts:   &artifactSink{worker: w, ctx: ctx, job: job},
		Runner:      runner,
		Logger:      logger.With("step", step.DisplayName()),
	}

	actionResult, err := action.Run(stepCtx, inv)
	if err != nil {
		result.Status = domain.StepStatusFailed
		result.Error = secrets.RedactAll(err.Error(), resolved)
		return result
	}

	if actionResult != nil {
		result.Output = secrets.RedactAll(actionResult.Output, resolved)

		// Действие расширяет окружение последующих шагов
		for key, value := range actionResult.Env {
			sticky[key] = value
		}
	}

	result.Status = domain.StepStatusSucceeded
	return result
}

// failJob переводит job в FAILED без выполнения шагов.
func (w *Worker) failJob(ctx context.Context, job *domain.Job, exitCode int, errMsg string) error {
	job.MarkFailed(exitCode, errMsg)

	if err := w.jobRepo.Update(ctx, job); err != nil {
		return fmt.Errorf("update job to failed: %w", err)
	}

	telemetry.JobsCompleted.WithLabelValues(string(job.Status)).Inc()

	w.logger.Warn("job failed early",
		"job_id", job.ID,
		"run_id", job.RunID,
		"error", errMsg,
	)

	return w.publishCompletion(ctx, job, errMsg)
}

// publishCompletion публикует событие job.completed.
func (w *Worker) publishCompletion(ctx context.Context, job *domain.Job, errMsg string) error {
	if w.publisher == nil {
		w.logger.Warn("publisher not available, skipping job.completed publish",
			"job_id", job.ID,
		)
		return nil
	}

	payload := mq.JobCompletedPayload{
		JobID:   job.ID,
		RunID:   job.RunID,
		JobName: job.JobName,
		Status:  string(job.Status),
		Error:   errMsg,
	}

	if err := w.publisher.PublishJobCompleted(ctx, payload); err != nil {
		w.logger.Warn("failed to publish job.completed",
			"job_id", job.ID,
			"error", err,
		)
		// Не возвращаем ошибку — job обновлён в БД, оркестратор
		// восстановит состояние из БД
	}

	return nil
}

// artifactSink сохраняет артефакты job: файл в хранилище плюс
// запись метаданных в БД.
type artifactSink struct {
	worker *Worker
	ctx    context.Context
	job    *domain.Job
}

// Save реализует actions.ArtifactSink.
func (s *artifactSink) Save(name, fileName string, r io.Reader) error {
	path, size, err := s.worker.artifacts.Save(s.job.RunID, s.job.ID, name, fileName, r)
	if err != nil {
		return err
	}

	art := &domain.Artifact{
		ID:          uuid.New(),
		RunID:       s.job.RunID,
		JobID:       s.job.ID,
		JobName:     s.job.JobName,
		Name:        name,
		FileName:    fileName,
		Size:        size,
		StoragePath: path,
		CreatedAt:   time.Now(),
	}

	if err := s.worker.artifactRepo.Create(s.ctx, art); err != nil {
		return fmt.Errorf("save artifact metadata: %w", err)
	}

	return nil
}

// stepEnv собирает эффективное окружение шага.
// Приоритет (низший → высший): env job, env действий, env шага, секреты.
func stepEnv(
	jobEnv map[string]string,
	sticky map[string]string,
	env map[string]string,
	resolved map[string]secrets.Value,
) map[string]string {
	merged := make(map[string]string, len(jobEnv)+len(sticky)+len(env)+len(resolved))
	for key, value := range jobEnv {
		merged[key] = value
	}
	for key, value := range sticky {
		merged[key] = value
	}
	for key, value := range env {
		merged[key] = value
	}
	for name, value := range resolved {
		merged[name] = value.Reveal()
	}
	return merged
}
