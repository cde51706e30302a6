package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/hperssn/yofit/internal/domain"
	"github.com/hperssn/yofit/internal/storage"
)

// measurement accepts a JSON number or a numeric string. Zero, an empty
// string and null all mean "not provided".
type measurement struct {
	value *float64
}

func (m *measurement) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	var f float64
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("not a number: %q", s)
		}
		f = v
	} else if err := json.Unmarshal(data, &f); err != nil {
		return err
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return fmt.Errorf("out of range: %v", f)
	}
	if f != 0 {
		m.value = &f
	}
	return nil
}

type profileRequest struct {
	Goal   *string     `json:"goal"`
	BMI    measurement `json:"bmi"`
	Weight measurement `json:"weight"`
	Height measurement `json:"height"`
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.repo.GetProfile(r.Context(), GetUserID(r))
	if errors.Is(err, storage.ErrNotFound) {
		respondError(w, "Profile not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("get profile: %v", err)
		respondError(w, "Failed to get profile", http.StatusInternalServerError)
		return
	}

	respondJSON(w, map[string]any{"profile": profile}, http.StatusOK)
}

// updateProfile stores the onboarding answers. Fields missing from the body
// keep their stored value; the first update creates the profile.
func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	update := domain.ProfileUpdate{
		BMI:    req.BMI.value,
		Weight: req.Weight.value,
		Height: req.Height.value,
	}
	if req.Goal != nil && *req.Goal != "" {
		goal, err := domain.ParseGoal(*req.Goal)
		if err != nil {
			respondError(w, err.Error(), http.StatusBadRequest)
			return
		}
		update.Goal = &goal
	}

	userID := GetUserID(r)
	profile, err := s.repo.GetProfile(r.Context(), userID)
	if errors.Is(err, storage.ErrNotFound) {
		profile = &domain.Profile{UserID: userID}
	} else if err != nil {
		log.Printf("get profile: %v", err)
		respondError(w, "Failed to update profile", http.StatusInternalServerError)
		return
	}

	profile.Apply(update, s.now())
	if err := s.repo.UpsertProfile(r.Context(), profile); err != nil {
		log.Printf("update profile: %v", err)
		respondError(w, "Failed to update profile", http.StatusInternalServerError)
		return
	}

	respondJSON(w, map[string]any{
		"success": true,
		"profile": profile,
	}, http.StatusOK)
}

// profileGoal returns the stored goal of the caller, or "" for anonymous
// callers and users without one.
func (s *Server) profileGoal(r *http.Request) string {
	userID := GetUserID(r)
	if userID == "" {
		return ""
	}

	profile, err := s.repo.GetProfile(r.Context(), userID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Printf("get profile: %v", err)
		}
		return ""
	}
	return profile.Goal
}
