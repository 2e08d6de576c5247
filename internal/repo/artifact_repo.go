package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Conveyor/internal/domain"
)

// ArtifactRepo — репозиторий метаданных артефактов.
//
// Содержимое артефактов лежит в файловом хранилище (internal/artifact);
// здесь — только записи для поиска и листинга.
type ArtifactRepo struct {
	pool *pgxpool.Pool
}

// NewArtifactRepo создаёт новый ArtifactRepo.
func NewArtifactRepo(pool *pgxpool.Pool) *ArtifactRepo {
	return &ArtifactRepo{pool: pool}
}

// Create создаёт запись артефакта.
// Уникальность тройки (run_id, job_id, name) обеспечивает БД:
// при конфликте возвращается ErrAlreadyExists.
func (r *ArtifactRepo) Create(ctx context.Context, artifact *domain.Artifact) error {
	query := `
		INSERT INTO artifacts (id, run_id, job_id, job_name, name, file_name,
		                       size, storage_path, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		artifact.ID,
		artifact.RunID,
		artifact.JobID,
		artifact.JobName,
		artifact.Name,
		artifact.FileName,
		artifact.Size,
		artifact.StoragePath,
		artifact.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: %s", ErrAlreadyExists, artifact.Name)
		}
		return fmt.Errorf("insert artifact: %w", err)
	}
	return nil
}

// GetByID возвращает артефакт по ID.
func (r *ArtifactRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Artifact, error) {
	query := `
		SELECT id, run_id, job_id, job_name, name, file_name, size, storage_path, created_at
		FROM artifacts
		WHERE id = $1
	`
	var a domain.Artifact
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&a.ID,
		&a.RunID,
		&a.JobID,
		&a.JobName,
		&a.Name,
		&a.FileName,
		&a.Size,
		&a.StoragePath,
		&a.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get artifact by id: %w", err)
	}
	return &a, nil
}

// ListByRun возвращает все артефакты одного run.
func (r *ArtifactRepo) ListByRun(ctx context.Context, runID uuid.UUID) ([]domain.Artifact, error) {
	query := `
		SELECT id, run_id, job_id, job_name, name, file_name, size, storage_path, created_at
		FROM artifacts
		WHERE run_id = $1
		ORDER BY created_at ASC
	`
	return r.list(ctx, query, runID)
}

// ListByName возвращает артефакты run с указанным именем.
// Возвращает все совпадения: артефакты с одинаковым именем из
// разных jobs сосуществуют.
func (r *ArtifactRepo) ListByName(ctx context.Context, runID uuid.UUID, name string) ([]domain.Artifact, error) {
	query := `
		SELECT id, run_id, job_id, job_name, name, file_name, size, storage_path, created_at
		FROM artifacts
		WHERE run_id = $1 AND name = $2
		ORDER BY created_at ASC
	`
	return r.list(ctx, query, runID, name)
}

// DeleteByRun удаляет записи артефактов run.
func (r *ArtifactRepo) DeleteByRun(ctx context.Context, runID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM artifacts WHERE run_id = $1`, runID)
	if err != nil {
		return fmt.Errorf("delete artifacts by run: %w", err)
	}
	return nil
}

// list выполняет запрос и сканирует артефакты.
func (r *ArtifactRepo) list(ctx context.Context, query string, args ...any) ([]domain.Artifact, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []domain.Artifact
	for rows.Next() {
		var a domain.Artifact
		if err := rows.Scan(
			&a.ID,
			&a.RunID,
			&a.JobID,
			&a.JobName,
			&a.Name,
			&a.FileName,
			&a.Size,
			&a.StoragePath,
			&a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, rows.Err()
}
