package finchat

import (
	"testing"
	"time"

	"github.com/asim800/finchat/internal/conversation"
)

func turnsAt(start time.Time, n int) []Turn {
	turns := make([]Turn, n)
	for i := range turns {
		turns[i] = conversation.Turn{
			ID:        "t",
			Role:      RoleUser,
			Timestamp: start,
		}
	}
	return turns
}

func TestDefaultEngagementScorerEmpty(t *testing.T) {
	if got := DefaultEngagementScorer(nil, time.Now()); got != 0 {
		t.Errorf("score for empty log = %v, want 0", got)
	}
}

func TestDefaultEngagementScorerMonotonicInTurns(t *testing.T) {
	now := time.Now()
	prev := 0.0
	for n := 1; n <= 12; n++ {
		got := DefaultEngagementScorer(turnsAt(now, n), now)
		if got < prev {
			t.Errorf("score decreased at %d turns: %v < %v", n, got, prev)
		}
		if got < 0 || got > 1 {
			t.Errorf("score out of range at %d turns: %v", n, got)
		}
		prev = got
	}
}

func TestDefaultEngagementScorerDecaysWithAge(t *testing.T) {
	now := time.Now()
	fresh := DefaultEngagementScorer(turnsAt(now.Add(-30*time.Minute), 3), now)
	stale := DefaultEngagementScorer(turnsAt(now.Add(-10*time.Hour), 3), now)
	if stale > fresh {
		t.Errorf("older conversation scored higher: %v > %v", stale, fresh)
	}
}

func TestDefaultEngagementScorerClamped(t *testing.T) {
	now := time.Now()
	got := DefaultEngagementScorer(turnsAt(now, 50), now)
	if got != 1 {
		t.Errorf("score for 50 fresh turns = %v, want clamped to 1", got)
	}
}
