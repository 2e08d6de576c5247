package api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/shaiso/Conveyor/internal/domain"
)

// ListRunArtifacts возвращает артефакты run.
// GET /api/v1/runs/{id}/artifacts?name=...
func (h *Handler) ListRunArtifacts(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run id")
		return
	}

	// Проверяем, что run существует
	_, err = h.runRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "run not found") {
		return
	}

	name := r.URL.Query().Get("name")

	var artifacts []domain.Artifact
	if name != "" {
		artifacts, err = h.artifactRepo.ListByName(r.Context(), id, name)
	} else {
		artifacts, err = h.artifactRepo.ListByRun(r.Context(), id)
	}
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]ArtifactResponse, len(artifacts))
	for i, a := range artifacts {
		result[i] = ArtifactFromDomain(a)
	}

	List(w, result, len(result))
}

// GetArtifact возвращает метаданные артефакта.
// GET /api/v1/artifacts/{id}
func (h *Handler) GetArtifact(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid artifact id")
		return
	}

	a, err := h.artifactRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "artifact not found") {
		return
	}

	Success(w, ArtifactFromDomain(*a))
}

// DownloadArtifact отдаёт содержимое артефакта.
// GET /api/v1/artifacts/{id}/download
func (h *Handler) DownloadArtifact(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid artifact id")
		return
	}

	a, err := h.artifactRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "artifact not found") {
		return
	}

	f, err := h.artifacts.Open(a.RunID, a.JobID, a.Name, a.FileName)
	if err != nil {
		h.logger.Error("failed to open artifact file",
			"artifact_id", a.ID, "path", a.StoragePath, "error", err)
		NotFound(w, "artifact file not found in storage")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.FileName))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", a.Size))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, f); err != nil {
		h.logger.Warn("artifact download interrupted", "artifact_id", a.ID, "error", err)
	}
}
