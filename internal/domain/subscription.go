package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var ErrInvalidPlan = errors.New("invalid plan")

const TrialDays = 14

type Plan string

const (
	PlanStarter Plan = "starter"
	PlanPro     Plan = "pro"
	PlanElite   Plan = "elite"
)

func ParsePlan(s string) (Plan, error) {
	if s == "" {
		return PlanStarter, nil
	}
	switch p := Plan(s); p {
	case PlanStarter, PlanPro, PlanElite:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPlan, s)
}

type SubscriptionStatus string

const (
	StatusActive   SubscriptionStatus = "active"
	StatusTrialing SubscriptionStatus = "trialing"
	StatusCanceled SubscriptionStatus = "canceled"
)

type Subscription struct {
	UserID             string             `json:"userId"`
	Plan               Plan               `json:"plan"`
	Status             SubscriptionStatus `json:"status"`
	BillingCycle       string             `json:"billingCycle"`
	CurrentPeriodStart time.Time          `json:"currentPeriodStart"`
	CurrentPeriodEnd   time.Time          `json:"currentPeriodEnd"`
	TrialEndsAt        *time.Time         `json:"trialEndsAt,omitempty"`
	CancelAtPeriodEnd  bool               `json:"cancelAtPeriodEnd"`
}

func NewTrial(userID string, plan Plan, now time.Time) *Subscription {
	if plan == "" {
		plan = PlanStarter
	}
	ends := now.AddDate(0, 0, TrialDays)

	return &Subscription{
		UserID:             userID,
		Plan:               plan,
		Status:             StatusTrialing,
		BillingCycle:       "monthly",
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   ends,
		TrialEndsAt:        &ends,
	}
}

func (s *Subscription) TrialActive(now time.Time) bool {
	return s != nil && s.TrialEndsAt != nil && s.TrialEndsAt.After(now)
}

// HasAccess reports whether premium content is unlocked: an active
// subscription, or a trial that has not ended yet.
func (s *Subscription) HasAccess(now time.Time) bool {
	if s == nil {
		return false
	}
	switch s.Status {
	case StatusActive:
		return true
	case StatusTrialing:
		return s.TrialActive(now)
	}
	return false
}

func (s *Subscription) TrialDaysRemaining(now time.Time) int {
	if !s.TrialActive(now) {
		return 0
	}
	return int(math.Ceil(s.TrialEndsAt.Sub(now).Hours() / 24))
}

type Progress struct {
	UserID          string     `json:"userId"`
	ClassID         string     `json:"classId"`
	Completed       bool       `json:"completed"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	DurationMinutes int        `json:"duration"`
}
