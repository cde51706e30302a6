package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/hperssn/yofit/internal/domain"
	"github.com/hperssn/yofit/internal/storage"
)

func (s *Server) getTrial(w http.ResponseWriter, r *http.Request) {
	sub, err := s.repo.GetSubscription(r.Context(), GetUserID(r))
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		log.Printf("get subscription: %v", err)
		respondError(w, "Failed to fetch trial status", http.StatusInternalServerError)
		return
	}

	now := s.now()
	respondJSON(w, map[string]any{
		"subscription":  sub,
		"isTrialActive": sub.TrialActive(now),
		"daysRemaining": sub.TrialDaysRemaining(now),
	}, http.StatusOK)
}

func (s *Server) startTrial(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Plan string `json:"plan"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	plan, err := domain.ParsePlan(req.Plan)
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	sub := domain.NewTrial(GetUserID(r), plan, s.now())
	err = s.repo.CreateSubscription(r.Context(), sub)
	if errors.Is(err, storage.ErrSubscriptionExists) {
		respondError(w, "User already has an active subscription or trial", http.StatusBadRequest)
		return
	}
	if err != nil {
		log.Printf("create trial: %v", err)
		respondError(w, "Failed to activate trial", http.StatusInternalServerError)
		return
	}

	log.Printf("trial started for %s on plan %s", sub.UserID, sub.Plan)
	respondJSON(w, map[string]any{
		"success":      true,
		"subscription": sub,
		"message":      "Trial activated successfully",
	}, http.StatusOK)
}
