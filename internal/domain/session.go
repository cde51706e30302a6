package domain

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/hperssn/yofit/internal/player"
)

const transitionSec = 5

type Session struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	ClassID     string    `json:"classId"`
	Title       string    `json:"title"`
	Steps       []Step    `json:"steps"`
	CurrentIdx  int       `json:"currentIdx"`
	StartedAt   time.Time `json:"startedAt"`
	Completed   bool      `json:"completed"`
	CompletedAt time.Time `json:"completedAt,omitempty"`
}

func (s *Session) TotalSeconds() int {
	total := 0
	for _, st := range s.Steps {
		total += st.Duration
	}
	return total
}

func warmupStepCount(targetSec int, r *rand.Rand) int {
	switch {
	case targetSec < 240:
		return 5 + r.Intn(2)
	case targetSec < 600:
		return 4 + r.Intn(2)
	case targetSec < 900:
		return 3 + r.Intn(2)
	default:
		return 2 + r.Intn(2)
	}
}

func maxWarmupDuration(targetSec int) int {
	max := int(float64(targetSec) * 0.15)

	if max > 40 {
		return 40
	}
	if max < 5 {
		return 5
	}
	return max
}

func restDuration(targetSec int) int {
	rest := targetSec / 10
	if rest > 300 {
		return 300
	}
	if rest < 5 {
		return 5
	}
	return rest
}

// GenerateSequence builds a default class flow for targetSec: short warm-up
// poses, a transition, the main hold and a closing rest.
func GenerateSequence(targetSec int, r *rand.Rand) []Step {
	warmups := warmupStepCount(targetSec, r)
	maxWarmup := maxWarmupDuration(targetSec)
	rest := restDuration(targetSec)

	steps := make([]Step, 0, warmups+3)
	used := 0

	for i := 0; i < warmups; i++ {
		d := r.Intn(maxWarmup) + 1
		used += d
		steps = append(steps, Step{
			Kind:        player.KindPose,
			Duration:    d,
			Label:       fmt.Sprintf("Warm-up flow %d", i+1),
			Instruction: "Move with the breath and ease into the practice.",
		})
	}

	steps = append(steps, Step{
		Kind:        player.KindTransition,
		Duration:    transitionSec,
		Label:       "Transition",
		Instruction: "Come back to standing and set up for the main flow.",
	})
	used += transitionSec

	main := targetSec - used - rest
	if main < 1 {
		main = 1
	}
	steps = append(steps,
		Step{
			Kind:        player.KindPose,
			Duration:    main,
			Label:       "Main flow",
			Instruction: "Follow the instructor through the main sequence.",
		},
		Step{
			Kind:        player.KindRest,
			Duration:    rest,
			Label:       "Savasana",
			Instruction: "Lie down, close your eyes and let the body rest.",
		},
	)

	for i := range steps {
		steps[i].Index = i
	}
	return steps
}

func NewSession(id string, userID string, class *YogaClass) *Session {
	if id == "" {
		id = uuid.New().String()
	}

	var steps []Step
	if len(class.Sequence) > 0 {
		steps = make([]Step, len(class.Sequence))
		copy(steps, class.Sequence)
		for i := range steps {
			steps[i].Index = i
			steps[i].StartedAt = time.Time{}
			steps[i].Completed = false
		}
	} else {
		r := rand.New(rand.NewSource(time.Now().UnixNano()))
		steps = GenerateSequence(class.DurationMinutes*60, r)
	}

	return &Session{
		ID:         id,
		UserID:     userID,
		ClassID:    class.ID,
		Title:      class.Title,
		Steps:      steps,
		CurrentIdx: 0,
		StartedAt:  time.Now(),
		Completed:  false,
	}
}
