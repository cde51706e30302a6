package domain

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidGoal = errors.New("invalid goal")

func ParseGoal(s string) (string, error) {
	switch s {
	case GoalWeightLoss, GoalFlexibility, GoalStrength, GoalStress:
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidGoal, s)
}

// Profile holds the onboarding answers of a user. Measurements are nil
// until the user provides them.
type Profile struct {
	UserID    string    `json:"userId"`
	Goal      string    `json:"goal,omitempty"`
	BMI       *float64  `json:"bmi,omitempty"`
	Weight    *float64  `json:"weight,omitempty"`
	Height    *float64  `json:"height,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProfileUpdate lists the fields to change; nil fields are left as they are.
type ProfileUpdate struct {
	Goal   *string
	BMI    *float64
	Weight *float64
	Height *float64
}

func (p *Profile) Apply(u ProfileUpdate, now time.Time) {
	if u.Goal != nil {
		p.Goal = *u.Goal
	}
	if u.BMI != nil {
		p.BMI = u.BMI
	}
	if u.Weight != nil {
		p.Weight = u.Weight
	}
	if u.Height != nil {
		p.Height = u.Height
	}
	p.UpdatedAt = now
}
