package artifact

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestStore_SaveAndOpen(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	runID := uuid.New()
	jobID := uuid.New()

	path, size, err := store.Save(runID, jobID, "coverage-report", "test-coverage.xml",
		strings.NewReader("<coverage/>"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if size != int64(len("<coverage/>")) {
		t.Errorf("expected size %d, got %d", len("<coverage/>"), size)
	}
	if !strings.HasSuffix(path, "test-coverage.xml") {
		t.Errorf("expected path to end with renamed file, got %s", path)
	}

	rc, err := store.Open(runID, jobID, "coverage-report", "test-coverage.xml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(content) != "<coverage/>" {
		t.Errorf("unexpected content: %q", content)
	}
}

func TestStore_SaveTwice(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	runID := uuid.New()
	jobID := uuid.New()

	if _, _, err := store.Save(runID, jobID, "report", "a.txt", strings.NewReader("first")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Повторная запись той же тройки — ошибка
	_, _, err = store.Save(runID, jobID, "report", "b.txt", strings.NewReader("second"))
	if !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestStore_SameNameDifferentJobs(t *testing.T) {
	// Два job одного run сохраняют артефакт с одинаковым именем —
	// обе записи сосуществуют.
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	runID := uuid.New()
	coverageJob := uuid.New()
	docJob := uuid.New()

	if _, _, err := store.Save(runID, coverageJob, "coverage-report", "test-coverage.xml",
		strings.NewReader("xml")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := store.Save(runID, docJob, "coverage-report", "doc-coverage.txt",
		strings.NewReader("txt")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !store.Exists(runID, coverageJob, "coverage-report") {
		t.Error("coverage job artifact should exist")
	}
	if !store.Exists(runID, docJob, "coverage-report") {
		t.Error("doc job artifact should exist")
	}

	rc, err := store.Open(runID, docJob, "coverage-report", "doc-coverage.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rc.Close()

	content, _ := io.ReadAll(rc)
	if string(content) != "txt" {
		t.Errorf("expected doc job content, got %q", content)
	}
}

func TestStore_OpenMissing(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = store.Open(uuid.New(), uuid.New(), "missing", "file.txt")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_RemoveRun(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	runID := uuid.New()
	jobID := uuid.New()

	if _, _, err := store.Save(runID, jobID, "report", "a.txt", strings.NewReader("x")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := store.RemoveRun(runID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if store.Exists(runID, jobID, "report") {
		t.Error("artifact should be gone after RemoveRun")
	}
}
