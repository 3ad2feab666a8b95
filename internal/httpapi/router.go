// Package httpapi is the trigger surface an external scheduler hits: one
// endpoint to run the pipeline, one to read the last run's outcome, and a
// health probe.
package httpapi

import "net/http"

func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	rh := RunHandler{Run: d.Run, Status: d.Status, Log: d.Log}
	mux.HandleFunc("/run", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: rh.RunOnce,
	}))
	mux.HandleFunc("/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: rh.LastStatus,
	}))

	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: healthHandler,
	}))

	return mux
}
