package worker

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/shaiso/Conveyor/internal/actions"
	"github.com/shaiso/Conveyor/internal/artifact"
	"github.com/shaiso/Conveyor/internal/mq"
	"github.com/shaiso/Conveyor/internal/repo"
	"github.com/shaiso/Conveyor/internal/secrets"
)

// Default configuration values.
const (
	defaultPrefetch     = 1
	defaultSecretPrefix = "CI_SECRET_"
)

// Worker выполняет jobs.
//
// Worker — stateless компонент системы, который:
//   - Получает jobs из очереди RabbitMQ
//   - Атомарно забирает job (QUEUED → RUNNING) — защита от двойной доставки
//   - Выполняет шаги job последовательно в изолированном workspace
//   - Сохраняет артефакты и редактирует секреты в выводе
//   - Отправляет результат обратно в очередь jobs.completed
//
// Workers масштабируются горизонтально — несколько экземпляров
// могут потреблять из одной очереди.
type Worker struct {
	// Repositories
	jobRepo      *repo.JobRepo
	runRepo      *repo.RunRepo
	pipelineRepo *repo.PipelineRepo
	artifactRepo *repo.ArtifactRepo

	// MQ
	publisher *mq.Publisher
	conn      *mq.Connection

	// Выполнение шагов
	registry  *actions.Registry
	artifacts *artifact.Store
	secrets   secrets.Source
	workDir   string

	// Consumer
	consumer *mq.Consumer

	// Configuration
	prefetch int

	// Lifecycle
	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	stopped    bool
	stoppedMu  sync.RWMutex
}

// Config — конфигурация Worker.
type Config struct {
	// Repositories
	JobRepo      *repo.JobRepo
	RunRepo      *repo.RunRepo
	PipelineRepo *repo.PipelineRepo
	ArtifactRepo *repo.ArtifactRepo

	// MQ
	Publisher *mq.Publisher
	Conn      *mq.Connection

	// Registry — реестр встроенных действий.
	Registry *actions.Registry

	// Artifacts — файловое хранилище артефактов.
	Artifacts *artifact.Store

	// Secrets — источник секретов (default: окружение с CI_SECRET_).
	Secrets secrets.Source

	// WorkDir — корень для workspace jobs (default: TMPDIR/conveyor).
	WorkDir string

	// Prefetch — количество jobs, обрабатываемых параллельно (default: 1).
	Prefetch int

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Worker.
func New(cfg Config) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	registry := cfg.Registry
	if registry == nil {
		registry = actions.NewRegistry(actions.RegistryConfig{})
	}

	src := cfg.Secrets
	if src == nil {
		src = &secrets.EnvSource{Prefix: defaultSecretPrefix}
	}

	workDir := cfg.WorkDir
	if workDir == "" {
		workDir = filepath.Join(os.TempDir(), "conveyor")
	}

	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = defaultPrefetch
	}

	return &Worker{
		jobRepo:      cfg.JobRepo,
		runRepo:      cfg.RunRepo,
		pipelineRepo: cfg.PipelineRepo,
		artifactRepo: cfg.ArtifactRepo,
		publisher:    cfg.Publisher,
		conn:         cfg.Conn,
		registry:     registry,
		artifacts:    cfg.Artifacts,
		secrets:      src,
		workDir:      workDir,
		prefetch:     prefetch,
		logger:       logger,
	}
}

// Start запускает Worker: consumer для jobs.ready.
func (w *Worker) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	w.logger.Info("starting worker",
		"work_dir", w.workDir,
		"prefetch", w.prefetch,
	)

	// Создаём consumer
	w.consumer = mq.NewConsumer(w.conn, w.logger, mq.ConsumerConfig{
		Queue:    string(mq.QueueJobsReady),
		Handler:  w.handleJobReady,
		Prefetch: w.prefetch,
	})

	// Запускаем consumer
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := w.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("job consumer error", "error", err)
		}
	}()

	w.logger.Info("worker started")
	return nil
}

// Stop останавливает Worker.
func (w *Worker) Stop() {
	w.stoppedMu.Lock()
	w.stopped = true
	w.stoppedMu.Unlock()

	w.logger.Info("stopping worker...")

	if w.cancelFunc != nil {
		w.cancelFunc()
	}

	if w.consumer != nil {
		w.consumer.Stop()
	}

	// Ждём завершения горутин
	w.wg.Wait()

	w.logger.Info("worker stopped")
}

// IsStopped проверяет, остановлен ли Worker.
func (w *Worker) IsStopped() bool {
	w.stoppedMu.RLock()
	defer w.stoppedMu.RUnlock()
	return w.stopped
}
