package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hperssn/yofit/internal/domain"
	"github.com/hperssn/yofit/internal/player"
	"github.com/hperssn/yofit/internal/runner"
	"github.com/hperssn/yofit/internal/storage"
)

func sessionErrorStatus(err error) int {
	switch {
	case errors.Is(err, runner.ErrSessionNotFound), errors.Is(err, runner.ErrNoSnapshot):
		return http.StatusNotFound
	case errors.Is(err, runner.ErrSessionExists), errors.Is(err, runner.ErrSessionStopped):
		return http.StatusConflict
	case errors.Is(err, runner.ErrInvalidStep):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClassID string `json:"classId"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ClassID == "" {
		respondError(w, "classId is required", http.StatusBadRequest)
		return
	}

	class, err := s.repo.GetClass(r.Context(), req.ClassID)
	if errors.Is(err, storage.ErrNotFound) {
		respondError(w, "Class not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("get class %s: %v", req.ClassID, err)
		respondError(w, "Failed to start session", http.StatusInternalServerError)
		return
	}
	if class.Premium && !s.requireAccess(w, r) {
		return
	}

	session := domain.NewSession("", GetUserID(r), class)

	if err := s.sessions.StartSession(session); err != nil {
		respondError(w, err.Error(), http.StatusConflict)
		return
	}
	respondJSON(w, session, http.StatusCreated)
}

func (s *Server) sessionStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.repo.GetSessionStats(r.Context(), GetUserID(r))
	if err != nil {
		log.Printf("session stats: %v", err)
		respondError(w, "Failed to fetch stats", http.StatusInternalServerError)
		return
	}
	respondJSON(w, stats, http.StatusOK)
}

// ownSession hides sessions that belong to other users.
func (s *Server) ownSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := s.sessions.GetSession(chi.URLParam(r, "id"))
		if !ok || session.UserID != GetUserID(r) {
			respondError(w, "session not found", http.StatusNotFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	session, ok := s.sessions.GetSession(id)
	if !ok {
		respondError(w, "session not found", http.StatusNotFound)
		return
	}

	respondJSON(w, session, http.StatusOK)
}

type sessionStatus struct {
	ID        string       `json:"id"`
	Completed bool         `json:"completed"`
	Current   int          `json:"currentStep"`
	State     player.State `json:"state"`
}

func (s *Server) getSessionStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	session, ok := s.sessions.GetSession(id)
	if !ok {
		respondError(w, "session not found", http.StatusNotFound)
		return
	}
	st, err := s.sessions.State(id)
	if err != nil {
		respondError(w, err.Error(), sessionErrorStatus(err))
		return
	}

	respondJSON(w, sessionStatus{
		ID:        session.ID,
		Completed: st.Status == player.StatusComplete,
		Current:   st.ActiveIndex,
		State:     st,
	}, http.StatusOK)
}

type sessionCommand func(ctx context.Context, id string) (player.State, error)

func (s *Server) command(fn sessionCommand) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := fn(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, err.Error(), sessionErrorStatus(err))
			return
		}
		respondJSON(w, st, http.StatusOK)
	}
}

func (s *Server) goToStep(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	stepIdx, err := parseStepIndex(r)
	if err != nil {
		respondError(w, "invalid step index", http.StatusBadRequest)
		return
	}

	st, err := s.sessions.GoTo(r.Context(), id, stepIdx)
	if err != nil {
		respondError(w, err.Error(), sessionErrorStatus(err))
		return
	}
	respondJSON(w, st, http.StatusOK)
}

func (s *Server) stopSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.sessions.StopSession(r.Context(), id); err != nil {
		respondError(w, err.Error(), sessionErrorStatus(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) resumeSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	session, err := s.sessions.ResumeSession(r.Context(), id, GetUserID(r))
	if err != nil {
		respondError(w, err.Error(), sessionErrorStatus(err))
		return
	}
	respondJSON(w, session, http.StatusOK)
}

func parseStepIndex(r *http.Request) (int, error) {
	idxStr := chi.URLParam(r, "idx")
	return strconv.Atoi(idxStr)
}
