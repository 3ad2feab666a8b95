package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Toymakerftw/job-pipeline/internal/pipeline"
)

func newTestMux(run func(ctx context.Context) (pipeline.Summary, error)) (*http.ServeMux, *atomic.Value) {
	status := new(atomic.Value)
	status.Store(RunStatus{})
	return NewMux(Deps{Run: run, Status: status, Log: zerolog.Nop()}), status
}

func TestRunOnce_Success(t *testing.T) {
	mux, status := newTestMux(func(ctx context.Context) (pipeline.Summary, error) {
		return pipeline.Summary{Fetched: 5, Added: 2}, nil
	})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/run", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var sum pipeline.Summary
	if err := json.NewDecoder(rec.Body).Decode(&sum); err != nil {
		t.Fatal(err)
	}
	if sum.Added != 2 {
		t.Errorf("expected summary in body, got %+v", sum)
	}

	st := status.Load().(RunStatus)
	if st.Running || st.LastError != "" || st.LastAdded != 2 || st.LastOkAt == "" {
		t.Errorf("unexpected status after success: %+v", st)
	}
}

func TestRunOnce_Failure(t *testing.T) {
	mux, status := newTestMux(func(ctx context.Context) (pipeline.Summary, error) {
		return pipeline.Summary{}, errors.New("store unavailable")
	})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/run", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}

	st := status.Load().(RunStatus)
	if st.LastError != "store unavailable" {
		t.Errorf("expected error recorded in status, got %+v", st)
	}
}

func TestRunOnce_ConflictWhileRunning(t *testing.T) {
	mux, status := newTestMux(func(ctx context.Context) (pipeline.Summary, error) {
		return pipeline.Summary{}, nil
	})
	status.Store(RunStatus{Running: true})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/run", nil))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestRun_MethodNotAllowed(t *testing.T) {
	mux, _ := newTestMux(nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/run", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestStatusAndHealth(t *testing.T) {
	mux, status := newTestMux(nil)
	status.Store(RunStatus{LastAdded: 7})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: expected 200, got %d", rec.Code)
	}
	var st RunStatus
	if err := json.NewDecoder(rec.Body).Decode(&st); err != nil {
		t.Fatal(err)
	}
	if st.LastAdded != 7 {
		t.Errorf("unexpected status body: %+v", st)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", rec.Code)
	}
}
