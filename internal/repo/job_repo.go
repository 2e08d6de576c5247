package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Conveyor/internal/domain"
)

// JobRepo — репозиторий для работы с jobs.
type JobRepo struct {
	pool *pgxpool.Pool
}

// NewJobRepo создаёт новый JobRepo.
func NewJobRepo(pool *pgxpool.Pool) *JobRepo {
	return &JobRepo{pool: pool}
}

// Create создаёт новый job.
func (r *JobRepo) Create(ctx context.Context, job *domain.Job) error {
	query := `
		INSERT INTO jobs (id, run_id, job_name, status, exit_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		job.ID,
		job.RunID,
		job.JobName,
		job.Status,
		job.ExitCode,
		job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// CreateBatch создаёт все jobs одного run в одной транзакции.
func (r *JobRepo) CreateBatch(ctx context.Context, jobs []domain.Job) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO jobs (id, run_id, job_name, status, exit_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for i := range jobs {
		job := &jobs[i]
		if _, err := tx.Exec(ctx, query,
			job.ID,
			job.RunID,
			job.JobName,
			job.Status,
			job.ExitCode,
			job.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert job %s: %w", job.JobName, err)
		}
	}

	return tx.Commit(ctx)
}

// GetByID возвращает job по ID.
func (r *JobRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	query := `
		SELECT id, run_id, job_name, status, steps, exit_code,
		       started_at, finished_at, error, created_at
		FROM jobs
		WHERE id = $1
	`
	return r.scanJob(r.pool.QueryRow(ctx, query, id))
}

// ListByRun возвращает все jobs одного run.
func (r *JobRepo) ListByRun(ctx context.Context, runID uuid.UUID) ([]domain.Job, error) {
	query := `
		SELECT id, run_id, job_name, status, steps, exit_code,
		       started_at, finished_at, error, created_at
		FROM jobs
		WHERE run_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("list jobs by run: %w", err)
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		job, err := r.scanJobFromRows(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// Update обновляет job.
func (r *JobRepo) Update(ctx context.Context, job *domain.Job) error {
	stepsJSON, err := json.Marshal(job.Steps)
	if err != nil {
		return fmt.Errorf("marshal steps: %w", err)
	}

	query := `
		UPDATE jobs
		SET status = $2, steps = $3, exit_code = $4,
		    started_at = $5, finished_at = $6, error = $7
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		job.ID,
		job.Status,
		stepsJSON,
		job.ExitCode,
		job.StartedAt,
		job.FinishedAt,
		nullString(job.Error),
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkRunningIfQueued атомарно переводит job из QUEUED в RUNNING.
// Возвращает ErrInvalidState, если job уже не в QUEUED: так второй
// worker не подхватит job при повторной доставке сообщения.
func (r *JobRepo) MarkRunningIfQueued(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE jobs
		SET status = 'RUNNING', started_at = NOW()
		WHERE id = $1 AND status = 'QUEUED'
	`
	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("mark job running: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrInvalidState
	}
	return nil
}

// --- Helpers ---

func (r *JobRepo) scanJob(row pgx.Row) (*domain.Job, error) {
	var job domain.Job
	var stepsJSON []byte
	var jobError *string

	err := row.Scan(
		&job.ID,
		&job.RunID,
		&job.JobName,
		&job.Status,
		&stepsJSON,
		&job.ExitCode,
		&job.StartedAt,
		&job.FinishedAt,
		&jobError,
		&job.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan job: %w", err)
	}

	if stepsJSON != nil {
		if err := json.Unmarshal(stepsJSON, &job.Steps); err != nil {
			return nil, fmt.Errorf("unmarshal steps: %w", err)
		}
	}
	if jobError != nil {
		job.Error = *jobError
	}

	return &job, nil
}

func (r *JobRepo) scanJobFromRows(rows pgx.Rows) (*domain.Job, error) {
	var job domain.Job
	var stepsJSON []byte
	var jobError *string

	err := rows.Scan(
		&job.ID,
		&job.RunID,
		&job.JobName,
		&job.Status,
		&stepsJSON,
		&job.ExitCode,
		&job.StartedAt,
		&job.FinishedAt,
		&jobError,
		&job.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan job: %w", err)
	}

	if stepsJSON != nil {
		if err := json.Unmarshal(stepsJSON, &job.Steps); err != nil {
			return nil, fmt.Errorf("unmarshal steps: %w", err)
		}
	}
	if jobError != nil {
		job.Error = *jobError
	}

	return &job, nil
}
