package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"

	"github.com/google/uuid"

	"github.com/shaiso/Conveyor/internal/domain"
)

// PushEvent принимает push-событие от репозитория и запускает pipeline,
// если последняя версия спецификации подписана на триггер push.
//
// Дедупликация: повторная доставка того же события (pipeline + SHA)
// возвращает уже созданный run вместо нового.
//
// POST /api/v1/events/push
func (h *Handler) PushEvent(w http.ResponseWriter, r *http.Request) {
	var req PushEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if req.Pipeline == "" {
		BadRequest(w, "pipeline is required")
		return
	}
	if req.Branch == "" {
		BadRequest(w, "branch is required")
		return
	}
	if req.SHA == "" {
		BadRequest(w, "sha is required")
		return
	}

	pipeline, err := h.pipelineRepo.GetByName(r.Context(), req.Pipeline)
	if HandleRepoError(w, h.logger, err, "pipeline not found") {
		return
	}

	if !pipeline.IsActive {
		InvalidState(w, "pipeline is not active")
		return
	}

	version, err := h.pipelineRepo.GetLatestVersion(r.Context(), pipeline.ID)
	if HandleRepoError(w, h.logger, err, "pipeline has no versions") {
		return
	}

	if !slices.Contains(version.Spec.On, domain.TriggerPush) {
		InvalidState(w, "pipeline is not triggered by push")
		return
	}

	idempotencyKey := fmt.Sprintf("push_%s_%s", req.Branch, req.SHA)
	existingRun, err := h.runRepo.GetByIdempotencyKey(r.Context(), pipeline.ID, idempotencyKey)
	if lookupFailed(err) {
		InternalError(w, h.logger, err)
		return
	}
	if existingRun != nil {
		Success(w, RunFromDomain(*existingRun))
		return
	}

	run := &domain.Run{
		ID:         uuid.New(),
		PipelineID: pipeline.ID,
		Version:    version.Version,
		Status:     domain.RunStatusPending,
		Event: domain.TriggerEvent{
			Kind:   domain.TriggerPush,
			Branch: req.Branch,
			SHA:    req.SHA,
			Actor:  req.Actor,
		},
		IdempotencyKey: idempotencyKey,
	}

	if err := h.runRepo.Create(r.Context(), run); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	if h.publisher != nil {
		if err := h.publisher.PublishRunPending(r.Context(), run.ID); err != nil {
			h.logger.Warn("failed to publish run.pending", "run_id", run.ID, "error", err)
		}
	}

	Accepted(w, RunFromDomain(*run))
}
