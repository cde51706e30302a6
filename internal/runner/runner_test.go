package runner

import (
	"testing"

	"github.com/hperssn/yofit/internal/domain"
	"github.com/hperssn/yofit/internal/player"
)

func testRunner() *sessionRunner {
	return newSessionRunner(&domain.Session{
		ID: "s",
		Steps: []domain.Step{
			{Kind: player.KindPose, Duration: 3, Label: "Mountain"},
			{Kind: player.KindRest, Duration: 2, Label: "Savasana"},
		},
	})
}

func TestSessionRunner_PublishDoesNotBlock(t *testing.T) {
	r := testRunner()

	ch, cancel := r.subscribe(r.event(EventState, player.State{}))
	defer cancel()

	for i := 0; i < subscriberBuffer*3; i++ {
		r.publish(r.event(EventState, player.State{ActiveIndex: 1}))
	}

	if got := len(ch); got != subscriberBuffer {
		t.Fatalf("expected full buffer of %d events, got %d", subscriberBuffer, got)
	}
	first := <-ch
	if first.Step.Label != "Mountain" {
		t.Fatalf("initial event should describe first step, got %q", first.Step.Label)
	}
}

func TestSessionRunner_CancelIsIdempotent(t *testing.T) {
	r := testRunner()

	ch, cancel := r.subscribe(r.event(EventState, player.State{}))
	cancel()
	cancel()
	r.closeSubscribers()

	<-ch
	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel")
	}
}

func TestSessionRunner_OnChangeTracksProgress(t *testing.T) {
	r := testRunner()

	r.onChange(player.State{ActiveIndex: 1, RemainingSeconds: 2, IsRunning: true, Status: player.StatusRunning})

	if !r.session.Steps[0].Completed {
		t.Fatalf("first step should be completed")
	}
	if r.session.Steps[1].Completed {
		t.Fatalf("active step should not be completed")
	}
	if r.session.Steps[1].StartedAt.IsZero() {
		t.Fatalf("active step should record its start")
	}
	if r.session.CurrentIdx != 1 {
		t.Fatalf("CurrentIdx = %d want 1", r.session.CurrentIdx)
	}

	r.onChange(player.State{ActiveIndex: 1, Status: player.StatusComplete})
	for i, s := range r.session.Steps {
		if !s.Completed {
			t.Fatalf("step %d should be completed", i)
		}
	}
}
