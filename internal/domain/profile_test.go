package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseGoal(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"weight_loss", false},
		{"flexibility", false},
		{"strength", false},
		{"stress", false},
		{"", true},
		{"cardio", true},
	}

	for _, tt := range tests {
		_, err := ParseGoal(tt.in)
		if tt.wantErr && !errors.Is(err, ErrInvalidGoal) {
			t.Errorf("ParseGoal(%q) err = %v, want ErrInvalidGoal", tt.in, err)
		}
		if !tt.wantErr && err != nil {
			t.Errorf("ParseGoal(%q) unexpected error: %v", tt.in, err)
		}
	}
}

func TestProfileApplyLeavesMissingFields(t *testing.T) {
	weight, height := 62.0, 168.0
	p := &Profile{UserID: "u1", Goal: GoalStress, Weight: &weight, Height: &height}

	bmi := 21.9
	goal := GoalStrength
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	p.Apply(ProfileUpdate{Goal: &goal, BMI: &bmi}, now)

	if p.Goal != GoalStrength {
		t.Fatalf("goal = %q, want %q", p.Goal, GoalStrength)
	}
	if p.BMI == nil || *p.BMI != bmi {
		t.Fatalf("bmi not applied: %v", p.BMI)
	}
	if p.Weight == nil || *p.Weight != 62 || p.Height == nil || *p.Height != 168 {
		t.Fatalf("measurements changed: weight=%v height=%v", p.Weight, p.Height)
	}
	if !p.UpdatedAt.Equal(now) {
		t.Fatalf("UpdatedAt = %v, want %v", p.UpdatedAt, now)
	}
}
