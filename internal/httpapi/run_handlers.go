package httpapi

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/Toymakerftw/job-pipeline/internal/pipeline"
)

// runTimeout bounds one whole invocation; the external trigger sees a 500
// rather than a hang if the run outlives it.
const runTimeout = 15 * time.Minute

// RunStatus is the last-run metadata /status reports.
type RunStatus struct {
	LastRunAt string `json:"last_run_at"`
	LastOkAt  string `json:"last_ok_at"`
	LastError string `json:"last_error"`
	LastAdded int    `json:"last_added"`
	Running   bool   `json:"running"`
}

type Deps struct {
	Run    func(ctx context.Context) (pipeline.Summary, error)
	Status *atomic.Value // holds RunStatus
	Log    zerolog.Logger
}

type RunHandler struct {
	Run    func(ctx context.Context) (pipeline.Summary, error)
	Status *atomic.Value
	Log    zerolog.Logger
}

// RunOnce executes one pipeline run synchronously and reports a binary
// outcome: 200 with the run summary, or 500 with the error. Overlapping
// trigger invocations get a 409; real serialization stays the scheduler's
// job.
func (h RunHandler) RunOnce(w http.ResponseWriter, r *http.Request) {
	st, _ := h.Status.Load().(RunStatus)
	if st.Running {
		writeJSONStatus(w, http.StatusConflict, map[string]any{"error": "run already in progress"})
		return
	}

	now := time.Now().Format(time.RFC3339)
	h.Status.Store(RunStatus{LastRunAt: now, LastOkAt: st.LastOkAt, Running: true})

	ctx, cancel := context.WithTimeout(r.Context(), runTimeout)
	defer cancel()

	sum, err := h.Run(ctx)

	next := RunStatus{
		LastRunAt: now,
		LastOkAt:  st.LastOkAt,
		LastAdded: sum.Added,
	}
	if err != nil {
		next.LastError = err.Error()
		h.Status.Store(next)
		h.Log.Error().Err(err).Msg("run failed")
		writeJSONStatus(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	next.LastOkAt = time.Now().Format(time.RFC3339)
	h.Status.Store(next)
	writeJSON(w, sum)
}

func (h RunHandler) LastStatus(w http.ResponseWriter, r *http.Request) {
	st, _ := h.Status.Load().(RunStatus)
	writeJSON(w, st)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"ok": true, "time": time.Now().Format(time.RFC3339)})
}
