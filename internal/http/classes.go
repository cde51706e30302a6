package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hperssn/yofit/internal/domain"
	"github.com/hperssn/yofit/internal/storage"
)

const msgAccessRequired = "Active subscription or trial required"

func (s *Server) listClasses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := storage.ClassFilter{
		Goal:  q.Get("goal"),
		Level: q.Get("level"),
	}
	if filter.Goal == "" && q.Get("recommended") == "true" {
		filter.Goal = s.profileGoal(r)
	}

	if filter.Level != "" {
		if _, err := domain.ParseLevel(filter.Level); err != nil {
			respondError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			respondError(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		filter.Limit = limit
	}

	classes, err := s.repo.ListClasses(r.Context(), filter)
	if err != nil {
		log.Printf("list classes: %v", err)
		respondError(w, "Failed to fetch classes", http.StatusInternalServerError)
		return
	}
	if classes == nil {
		classes = []domain.YogaClass{}
	}

	respondJSON(w, map[string]any{
		"classes": classes,
		"total":   len(classes),
	}, http.StatusOK)
}

// requireAccess writes a 403 and returns false unless the caller's
// subscription currently unlocks premium content.
func (s *Server) requireAccess(w http.ResponseWriter, r *http.Request) bool {
	sub, err := s.repo.GetSubscription(r.Context(), GetUserID(r))
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		log.Printf("get subscription: %v", err)
		respondError(w, "Failed to check subscription", http.StatusInternalServerError)
		return false
	}
	if !sub.HasAccess(s.now()) {
		respondError(w, msgAccessRequired, http.StatusForbidden)
		return false
	}
	return true
}

func (s *Server) getClass(w http.ResponseWriter, r *http.Request) {
	if !s.requireAccess(w, r) {
		return
	}

	id := chi.URLParam(r, "id")
	class, err := s.repo.GetClass(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		respondError(w, "Class not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("get class %s: %v", id, err)
		respondError(w, "Failed to fetch class", http.StatusInternalServerError)
		return
	}

	progress, err := s.repo.GetProgress(r.Context(), GetUserID(r), id)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		log.Printf("get progress %s: %v", id, err)
	}

	respondJSON(w, map[string]any{
		"class":    class,
		"progress": progress,
	}, http.StatusOK)
}

func (s *Server) completeClass(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		Duration int `json:"duration"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Duration < 0 {
		respondError(w, "duration must not be negative", http.StatusBadRequest)
		return
	}

	if _, err := s.repo.GetClass(r.Context(), id); errors.Is(err, storage.ErrNotFound) {
		respondError(w, "Class not found", http.StatusNotFound)
		return
	} else if err != nil {
		log.Printf("get class %s: %v", id, err)
		respondError(w, "Failed to mark as complete", http.StatusInternalServerError)
		return
	}

	now := s.now()
	progress := &domain.Progress{
		UserID:          GetUserID(r),
		ClassID:         id,
		CompletedAt:     &now,
		DurationMinutes: req.Duration,
	}
	if err := s.repo.MarkComplete(r.Context(), progress); err != nil {
		log.Printf("mark complete %s: %v", id, err)
		respondError(w, "Failed to mark as complete", http.StatusInternalServerError)
		return
	}

	respondJSON(w, map[string]any{
		"success":  true,
		"progress": progress,
	}, http.StatusOK)
}
