package cli

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_ListPipelines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/pipelines" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"id":"p1","name":"toolbelt","repo_url":"https://example.com/toolbelt.git","is_active":true}],"total":1}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)

	pipelines, err := client.ListPipelines()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pipelines) != 1 {
		t.Fatalf("expected 1 pipeline, got %d", len(pipelines))
	}
	if pipelines[0].Name != "toolbelt" {
		t.Errorf("expected name 'toolbelt', got %q", pipelines[0].Name)
	}
}

func TestClient_GetRun_DataEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"id":"r1","status":"SUCCEEDED","event":{"kind":"push","branch":"main"}}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)

	run, err := client.GetRun("r1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run.Status != "SUCCEEDED" {
		t.Errorf("expected status SUCCEEDED, got %q", run.Status)
	}
	if run.Event.Branch != "main" {
		t.Errorf("expected branch 'main', got %q", run.Event.Branch)
	}
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"code":"NOT_FOUND","message":"pipeline not found"}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)

	_, err := client.GetPipeline("missing")
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := err.Error(); got != "NOT_FOUND: pipeline not found" {
		t.Errorf("unexpected error message: %q", got)
	}
}
