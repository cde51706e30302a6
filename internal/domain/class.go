package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/hperssn/yofit/internal/player"
)

var (
	ErrInvalidLevel = errors.New("invalid class level")
	ErrInvalidClass = errors.New("invalid class")
)

type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
	LevelAll          Level = "all"
)

func ParseLevel(s string) (Level, error) {
	switch l := Level(s); l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced, LevelAll:
		return l, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidLevel, s)
}

const (
	GoalWeightLoss  = "weight_loss"
	GoalFlexibility = "flexibility"
	GoalStrength    = "strength"
	GoalStress      = "stress"
)

type YogaClass struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	InstructorName  string    `json:"instructorName"`
	DurationMinutes int       `json:"duration"`
	Level           Level     `json:"level"`
	Category        string    `json:"category"`
	Goals           []string  `json:"goals"`
	VideoURL        string    `json:"videoUrl"`
	ThumbnailURL    string    `json:"thumbnailUrl"`
	Premium         bool      `json:"premium"`
	Sequence        []Step    `json:"sequence,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

func (c *YogaClass) HasGoal(goal string) bool {
	for _, g := range c.Goals {
		if g == goal {
			return true
		}
	}
	return false
}

func (c *YogaClass) Validate() error {
	if c.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidClass)
	}
	if c.DurationMinutes <= 0 {
		return fmt.Errorf("%w: %s: duration must be positive", ErrInvalidClass, c.Title)
	}
	if _, err := ParseLevel(string(c.Level)); err != nil {
		return fmt.Errorf("%s: %w", c.Title, err)
	}
	for i, s := range c.Sequence {
		if !s.Kind.Valid() {
			return fmt.Errorf("%w: %s: step %d has unknown kind %q", ErrInvalidClass, c.Title, i, s.Kind)
		}
		if s.Duration <= 0 {
			return fmt.Errorf("%s: step %d: %w", c.Title, i, player.ErrInvalidDuration)
		}
	}
	return nil
}
