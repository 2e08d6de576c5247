package api

import (
	"log/slog"

	"github.com/shaiso/Conveyor/internal/artifact"
	"github.com/shaiso/Conveyor/internal/mq"
	"github.com/shaiso/Conveyor/internal/repo"
)

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	pipelineRepo *repo.PipelineRepo
	runRepo      *repo.RunRepo
	jobRepo      *repo.JobRepo
	artifactRepo *repo.ArtifactRepo
	scheduleRepo *repo.ScheduleRepo
	artifacts    *artifact.Store
	publisher    *mq.Publisher
	logger       *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	PipelineRepo *repo.PipelineRepo
	RunRepo      *repo.RunRepo
	JobRepo      *repo.JobRepo
	ArtifactRepo *repo.ArtifactRepo
	ScheduleRepo *repo.ScheduleRepo
	Artifacts    *artifact.Store
	Publisher    *mq.Publisher
	Logger       *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		pipelineRepo: cfg.PipelineRepo,
		runRepo:      cfg.RunRepo,
		jobRepo:      cfg.JobRepo,
		artifactRepo: cfg.ArtifactRepo,
		scheduleRepo: cfg.ScheduleRepo,
		artifacts:    cfg.Artifacts,
		publisher:    cfg.Publisher,
		logger:       cfg.Logger,
	}
}
