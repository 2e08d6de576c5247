package orchestrator

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Conveyor/internal/domain"
)

// jobDef создаёт минимальный валидный JobDef с зависимостями.
func jobDef(needs ...string) domain.JobDef {
	return domain.JobDef{
		Steps: []domain.StepDef{{Run: "true"}},
		Needs: needs,
	}
}

// specVersion создаёт PipelineVersion из набора jobs.
func specVersion(jobs map[string]domain.JobDef) *domain.PipelineVersion {
	return &domain.PipelineVersion{
		Spec: domain.PipelineSpec{
			Name: "test",
			Jobs: jobs,
		},
	}
}

// --- RunState Tests ---

func TestNewRunState(t *testing.T) {
	run := &domain.Run{ID: uuid.New()}
	version := &domain.PipelineVersion{}

	state := NewRunState(run, version)

	if state.Run != run {
		t.Error("Run should be set")
	}
	if state.PipelineVersion != version {
		t.Error("PipelineVersion should be set")
	}
	if state.succeeded == nil {
		t.Error("succeeded map should be initialized")
	}
	if state.running == nil {
		t.Error("running map should be initialized")
	}
	if state.failed == nil {
		t.Error("failed map should be initialized")
	}
	if state.skipped == nil {
		t.Error("skipped map should be initialized")
	}
	if state.jobs == nil {
		t.Error("jobs map should be initialized")
	}
}

func TestRunState_Initialize_EmptySpec(t *testing.T) {
	run := &domain.Run{ID: uuid.New()}
	version := specVersion(map[string]domain.JobDef{})

	state := NewRunState(run, version)
	err := state.Initialize()

	// Empty spec should fail validation
	if err == nil {
		t.Error("expected error for empty spec")
	}
}

func TestRunState_Initialize_ValidSpec(t *testing.T) {
	run := &domain.Run{ID: uuid.New()}
	version := specVersion(map[string]domain.JobDef{
		"build": jobDef(),
		"test":  jobDef("build"),
	})

	state := NewRunState(run, version)
	err := state.Initialize()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if state.DAG == nil {
		t.Error("DAG should be built")
	}
	if state.DAG.Size() != 2 {
		t.Errorf("expected 2 nodes, got %d", state.DAG.Size())
	}
}

func TestRunState_MarkJobRunning(t *testing.T) {
	run := &domain.Run{ID: uuid.New()}
	state := NewRunState(run, &domain.PipelineVersion{})
	job := &domain.Job{ID: uuid.New(), JobName: "build"}

	state.MarkJobRunning("build", job)

	if state.GetJob("build") != job {
		t.Error("job should be stored")
	}
}

func TestRunState_MarkJobSucceeded(t *testing.T) {
	run := &domain.Run{ID: uuid.New()}
	version := specVersion(map[string]domain.JobDef{
		"build": jobDef(),
	})
	state := NewRunState(run, version)
	_ = state.Initialize()

	// Mark as running first
	job := &domain.Job{ID: uuid.New(), JobName: "build"}
	state.MarkJobRunning("build", job)

	state.MarkJobSucceeded("build")

	if !state.IsComplete() {
		t.Error("single-job run should be complete")
	}
	if state.HasFailed() {
		t.Error("state should not have failures")
	}
}

func TestRunState_MarkJobFailed(t *testing.T) {
	run := &domain.Run{ID: uuid.New()}
	version := specVersion(map[string]domain.JobDef{
		"build": jobDef(),
	})
	state := NewRunState(run, version)
	_ = state.Initialize()

	job := &domain.Job{ID: uuid.New(), JobName: "build"}
	state.MarkJobRunning("build", job)

	state.MarkJobFailed("build")

	if !state.HasFailed() {
		t.Error("state should have failed jobs")
	}

	failedJobs := state.GetFailedJobs()
	if len(failedJobs) != 1 || failedJobs[0] != "build" {
		t.Error("build should be in failed jobs")
	}
}

func TestRunState_SkippedCountsAsFailure(t *testing.T) {
	// Run успешен только когда КАЖДЫЙ job успешен:
	// пропущенный job тоже делает run FAILED.
	run := &domain.Run{ID: uuid.New()}
	version := specVersion(map[string]domain.JobDef{
		"build": jobDef(),
		"test":  jobDef("build"),
	})
	state := NewRunState(run, version)
	_ = state.Initialize()

	state.MarkJobFailed("build")
	state.MarkJobSkipped("test")

	if !state.IsComplete() {
		t.Error("run should be complete when all jobs are settled")
	}
	if !state.HasFailed() {
		t.Error("run with skipped jobs should count as failed")
	}
}

func TestRunState_GetReadyJobs(t *testing.T) {
	run := &domain.Run{ID: uuid.New()}
	version := specVersion(map[string]domain.JobDef{
		"build":    jobDef(),
		"clippy":   jobDef(),
		"coverage": jobDef("build", "clippy"),
	})
	state := NewRunState(run, version)
	_ = state.Initialize()

	// Initially build and clippy are ready
	ready := state.GetReadyJobs()
	if len(ready) != 2 {
		t.Errorf("expected 2 ready jobs, got %d", len(ready))
	}

	readyNames := make(map[string]bool)
	for _, node := range ready {
		readyNames[node.Name] = true
	}
	if !readyNames["build"] || !readyNames["clippy"] {
		t.Error("build and clippy should be ready")
	}

	// Mark build as running
	state.MarkJobRunning("build", &domain.Job{})

	ready = state.GetReadyJobs()
	if len(ready) != 1 {
		t.Errorf("expected 1 ready job, got %d", len(ready))
	}
	if ready[0].Name != "clippy" {
		t.Errorf("expected clippy to be ready, got %s", ready[0].Name)
	}

	// Complete both build and clippy
	state.MarkJobSucceeded("build")
	state.MarkJobSucceeded("clippy")

	ready = state.GetReadyJobs()
	if len(ready) != 1 {
		t.Errorf("expected 1 ready job, got %d", len(ready))
	}
	if ready[0].Name != "coverage" {
		t.Errorf("expected coverage to be ready, got %s", ready[0].Name)
	}
}

func TestRunState_GetBlockedJobs_Cascade(t *testing.T) {
	// build → test → coverage: падение build блокирует test,
	// пропуск test блокирует coverage.
	run := &domain.Run{ID: uuid.New()}
	version := specVersion(map[string]domain.JobDef{
		"build":    jobDef(),
		"test":     jobDef("build"),
		"coverage": jobDef("test"),
	})
	state := NewRunState(run, version)
	_ = state.Initialize()

	state.MarkJobFailed("build")

	blocked := state.GetBlockedJobs()
	if len(blocked) != 1 || blocked[0].Name != "test" {
		t.Fatalf("expected test to be blocked, got %v", blocked)
	}

	state.MarkJobSkipped("test")

	blocked = state.GetBlockedJobs()
	if len(blocked) != 1 || blocked[0].Name != "coverage" {
		t.Fatalf("expected coverage to be blocked, got %v", blocked)
	}

	state.MarkJobSkipped("coverage")

	if len(state.GetBlockedJobs()) != 0 {
		t.Error("no jobs should remain blocked")
	}
	if !state.IsComplete() {
		t.Error("run should be complete after cascade")
	}
}

func TestRunState_FailureDoesNotBlockSiblings(t *testing.T) {
	// Независимая ветка DAG продолжает работать после падения соседа.
	run := &domain.Run{ID: uuid.New()}
	version := specVersion(map[string]domain.JobDef{
		"build":  jobDef(),
		"test":   jobDef("build"),
		"clippy": jobDef(),
	})
	state := NewRunState(run, version)
	_ = state.Initialize()

	state.MarkJobFailed("build")

	// clippy остаётся готовым
	ready := state.GetReadyJobs()
	if len(ready) != 1 || ready[0].Name != "clippy" {
		t.Fatalf("expected clippy to stay ready, got %v", ready)
	}

	// Run ещё не завершён
	if state.IsComplete() {
		t.Error("run should not be complete while clippy is pending")
	}
}

func TestRunState_Stats(t *testing.T) {
	run := &domain.Run{ID: uuid.New()}
	version := specVersion(map[string]domain.JobDef{
		"build":  jobDef(),
		"test":   jobDef(),
		"clippy": jobDef(),
	})
	state := NewRunState(run, version)
	_ = state.Initialize()

	// Initial stats
	stats := state.Stats()
	if stats.TotalJobs != 3 {
		t.Errorf("expected 3 total jobs, got %d", stats.TotalJobs)
	}
	if stats.PendingJobs != 3 {
		t.Errorf("expected 3 pending jobs, got %d", stats.PendingJobs)
	}
	if stats.RunningJobs != 0 {
		t.Errorf("expected 0 running jobs, got %d", stats.RunningJobs)
	}

	// Mark build running
	state.MarkJobRunning("build", &domain.Job{})
	stats = state.Stats()
	if stats.RunningJobs != 1 {
		t.Errorf("expected 1 running job, got %d", stats.RunningJobs)
	}
	if stats.PendingJobs != 2 {
		t.Errorf("expected 2 pending jobs, got %d", stats.PendingJobs)
	}

	// Complete build, fail test, skip clippy
	state.MarkJobSucceeded("build")
	state.MarkJobFailed("test")
	state.MarkJobSkipped("clippy")
	stats = state.Stats()
	if stats.SucceededJobs != 1 {
		t.Errorf("expected 1 succeeded job, got %d", stats.SucceededJobs)
	}
	if stats.FailedJobs != 1 {
		t.Errorf("expected 1 failed job, got %d", stats.FailedJobs)
	}
	if stats.SkippedJobs != 1 {
		t.Errorf("expected 1 skipped job, got %d", stats.SkippedJobs)
	}
	if stats.PendingJobs != 0 {
		t.Errorf("expected 0 pending jobs, got %d", stats.PendingJobs)
	}
}

func TestRunState_RestoreFromJobs(t *testing.T) {
	run := &domain.Run{ID: uuid.New()}
	version := specVersion(map[string]domain.JobDef{
		"build":    jobDef(),
		"test":     jobDef(),
		"clippy":   jobDef(),
		"coverage": jobDef(),
	})
	state := NewRunState(run, version)
	_ = state.Initialize()

	// Simulate jobs from DB
	jobs := []domain.Job{
		{ID: uuid.New(), JobName: "build", Status: domain.JobStatusSucceeded},
		{ID: uuid.New(), JobName: "test", Status: domain.JobStatusFailed},
		{ID: uuid.New(), JobName: "clippy", Status: domain.JobStatusRunning},
		{ID: uuid.New(), JobName: "coverage", Status: domain.JobStatusQueued},
	}

	state.RestoreFromJobs(jobs)

	// Check test is failed
	if !state.HasFailed() {
		t.Error("state should have failed jobs")
	}
	failedJobs := state.GetFailedJobs()
	if len(failedJobs) != 1 || failedJobs[0] != "test" {
		t.Error("test should be in failed jobs")
	}

	// Check jobs are stored
	if state.GetJob("build") == nil {
		t.Error("build job should be stored")
	}

	// Run is not complete: clippy running, coverage queued
	if state.IsComplete() {
		t.Error("should not be complete with running and queued jobs")
	}

	stats := state.Stats()
	if stats.SucceededJobs != 1 || stats.RunningJobs != 1 || stats.PendingJobs != 1 {
		t.Errorf("unexpected stats after restore: %+v", stats)
	}
}

func TestRunState_RunID(t *testing.T) {
	runID := uuid.New()
	run := &domain.Run{ID: runID}
	state := NewRunState(run, &domain.PipelineVersion{})

	if state.RunID() != runID {
		t.Error("RunID should return run ID")
	}
}

func TestRunState_PipelineID(t *testing.T) {
	pipelineID := uuid.New()
	run := &domain.Run{ID: uuid.New(), PipelineID: pipelineID}
	state := NewRunState(run, &domain.PipelineVersion{})

	if state.PipelineID() != pipelineID {
		t.Error("PipelineID should return pipeline ID")
	}
}

// --- Orchestrator Tests ---

func TestNew(t *testing.T) {
	orch := New(Config{})

	if orch.activeRuns == nil {
		t.Error("activeRuns should be initialized")
	}
	if orch.pollInterval != defaultPollInterval {
		t.Errorf("expected default poll interval %v, got %v", defaultPollInterval, orch.pollInterval)
	}
	if orch.batchSize != defaultBatchSize {
		t.Errorf("expected default batch size %d, got %d", defaultBatchSize, orch.batchSize)
	}
}

func TestNew_CustomConfig(t *testing.T) {
	orch := New(Config{
		PollInterval: 5 * time.Second,
		BatchSize:    50,
	})

	if orch.pollInterval != 5*time.Second {
		t.Errorf("expected poll interval 5s, got %v", orch.pollInterval)
	}
	if orch.batchSize != 50 {
		t.Errorf("expected batch size 50, got %d", orch.batchSize)
	}
}

func TestOrchestrator_ActiveRuns(t *testing.T) {
	orch := New(Config{})

	runID := uuid.New()
	state := &RunState{
		Run: &domain.Run{ID: runID},
	}

	// Initially no active runs
	if orch.ActiveRunsCount() != 0 {
		t.Error("should have no active runs initially")
	}
	if orch.isRunActive(runID) {
		t.Error("run should not be active initially")
	}

	// Add active run
	err := orch.addActiveRun(state)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if orch.ActiveRunsCount() != 1 {
		t.Error("should have 1 active run")
	}
	if !orch.isRunActive(runID) {
		t.Error("run should be active")
	}
	if orch.getActiveRun(runID) != state {
		t.Error("getActiveRun should return the state")
	}

	// Try to add same run again
	err = orch.addActiveRun(state)
	if err != ErrRunAlreadyActive {
		t.Errorf("expected ErrRunAlreadyActive, got %v", err)
	}

	// Remove active run
	orch.removeActiveRun(runID)

	if orch.ActiveRunsCount() != 0 {
		t.Error("should have no active runs after removal")
	}
	if orch.isRunActive(runID) {
		t.Error("run should not be active after removal")
	}
}

func TestOrchestrator_GetActiveRunStats(t *testing.T) {
	orch := New(Config{})

	runID := uuid.New()
	run := &domain.Run{ID: runID}
	version := specVersion(map[string]domain.JobDef{
		"build": jobDef(),
	})
	state := NewRunState(run, version)
	_ = state.Initialize()

	// No stats for non-existent run
	_, ok := orch.GetActiveRunStats(runID)
	if ok {
		t.Error("should not find stats for non-active run")
	}

	// Add run and get stats
	_ = orch.addActiveRun(state)
	stats, ok := orch.GetActiveRunStats(runID)
	if !ok {
		t.Fatal("should find stats for active run")
	}
	if stats.TotalJobs != 1 {
		t.Errorf("expected 1 total job, got %d", stats.TotalJobs)
	}
}

func TestOrchestrator_IsStopped(t *testing.T) {
	orch := New(Config{})

	if orch.IsStopped() {
		t.Error("should not be stopped initially")
	}

	// Set stopped state directly (simulating Stop() call)
	orch.stoppedMu.Lock()
	orch.stopped = true
	orch.stoppedMu.Unlock()

	if !orch.IsStopped() {
		t.Error("should be stopped")
	}
}
