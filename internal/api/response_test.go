package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shaiso/Conveyor/internal/repo"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSuccess_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(rec, map[string]string{"name": "toolbelt"})

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected json content type, got %q", ct)
	}

	var resp DataResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	data, ok := resp.Data.(map[string]any)
	if !ok {
		t.Fatalf("expected object in data, got %T", resp.Data)
	}
	if data["name"] != "toolbelt" {
		t.Errorf("expected name 'toolbelt', got %v", data["name"])
	}
}

func TestCreated_Status(t *testing.T) {
	rec := httptest.NewRecorder()
	Created(rec, nil)

	if rec.Code != http.StatusCreated {
		t.Errorf("expected status 201, got %d", rec.Code)
	}
}

func TestAccepted_Status(t *testing.T) {
	rec := httptest.NewRecorder()
	Accepted(rec, nil)

	if rec.Code != http.StatusAccepted {
		t.Errorf("expected status 202, got %d", rec.Code)
	}
}

func TestList_Total(t *testing.T) {
	rec := httptest.NewRecorder()
	List(rec, []string{"a", "b"}, 2)

	var resp ListResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 2 {
		t.Errorf("expected total 2, got %d", resp.Total)
	}
}

func TestError_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	BadRequest(rec, "name is required")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}

	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Error.Code != ErrCodeBadRequest {
		t.Errorf("expected code BAD_REQUEST, got %s", resp.Error.Code)
	}
	if resp.Error.Message != "name is required" {
		t.Errorf("unexpected message: %q", resp.Error.Message)
	}
}

func TestHandleRepoError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   ErrorCode
	}{
		{"not found", repo.ErrNotFound, http.StatusNotFound, ErrCodeNotFound},
		{"wrapped not found", fmt.Errorf("get run: %w", repo.ErrNotFound), http.StatusNotFound, ErrCodeNotFound},
		{"already exists", repo.ErrAlreadyExists, http.StatusConflict, ErrCodeConflict},
		{"invalid state", repo.ErrInvalidState, http.StatusUnprocessableEntity, ErrCodeInvalidState},
		{"unknown error", errors.New("connection refused"), http.StatusInternalServerError, ErrCodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()

			handled := HandleRepoError(rec, testLogger(), tt.err, "not found")
			if !handled {
				t.Fatal("expected error to be handled")
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}

			var resp ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Error.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, resp.Error.Code)
			}
		})
	}
}

func TestHandleRepoError_NilError(t *testing.T) {
	rec := httptest.NewRecorder()

	if HandleRepoError(rec, testLogger(), nil, "") {
		t.Error("nil error must not be handled")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("nil error must not write a response, got status %d", rec.Code)
	}
}

func TestLookupFailed(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"not found", repo.ErrNotFound, false},
		{"wrapped not found", fmt.Errorf("get run: %w", repo.ErrNotFound), false},
		{"storage failure", errors.New("connection refused"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := lookupFailed(tt.err); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestMustParseInt(t *testing.T) {
	tests := []struct {
		input      string
		defaultVal int64
		want       int64
	}{
		{"10", 50, 10},
		{"0", 50, 0},
		{"abc", 50, 50},
		{"", 50, 50},
	}

	for _, tt := range tests {
		if got := mustParseInt(tt.input, tt.defaultVal); got != tt.want {
			t.Errorf("mustParseInt(%q, %d) = %d, want %d", tt.input, tt.defaultVal, got, tt.want)
		}
	}
}
