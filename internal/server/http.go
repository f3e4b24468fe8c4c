package server

import (
	"encoding/json"
	"net/http"

	"cubedraft/internal/domain"
)

// Handler exposes the read-only admin surface: health, active queues and
// per-pod bracket status. Mutations only ever arrive through the chat
// dispatcher.
func (s *DraftServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /api/queues", s.handleQueues)
	mux.HandleFunc("GET /api/pods/{name}/status", s.handlePodStatus)
	return mux
}

func (s *DraftServer) handleQueues(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ListActive())
}

func (s *DraftServer) handlePodStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.GetStatus(r.Context(), r.PathValue("name"))
	if err != nil {
		if domain.IsValidation(err) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "row store unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
