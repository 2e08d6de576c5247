package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики Prometheus. Регистрируются в глобальном registry,
// экспортируются через promhttp в main каждого сервиса.
var (
	// RunsStarted — количество запущенных runs.
	RunsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "conveyor",
		Name:      "runs_started_total",
		Help:      "Total number of pipeline runs started.",
	})

	// RunsCompleted — количество завершённых runs по статусам.
	RunsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "conveyor",
		Name:      "runs_completed_total",
		Help:      "Total number of pipeline runs completed, by final status.",
	}, []string{"status"})

	// JobsCompleted — количество завершённых jobs по статусам.
	JobsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "conveyor",
		Name:      "jobs_completed_total",
		Help:      "Total number of jobs completed, by final status.",
	}, []string{"status"})

	// JobDuration — длительность выполнения jobs.
	JobDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "conveyor",
		Name:      "job_duration_seconds",
		Help:      "Job execution duration in seconds.",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
	})

	// SchedulesFired — количество сработавших расписаний.
	SchedulesFired = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "conveyor",
		Name:      "schedules_fired_total",
		Help:      "Total number of schedule firings that created a run.",
	})
)
