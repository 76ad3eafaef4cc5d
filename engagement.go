package finchat

import "time"

// EngagementScorer computes a conversation's engagement score in [0,1] from
// its turn log. The exact formula is policy, not contract, and is replaceable
// via Config; any implementation must be monotonically non-decreasing in
// turn count and non-increasing in time since the conversation started
// (beyond the initial grace period).
type EngagementScorer func(turns []Turn, now time.Time) float64

// DefaultEngagementScorer scores 0.1 per turn plus a recency term that decays
// hyperbolically after the first hour, clamped to [0,1].
func DefaultEngagementScorer(turns []Turn, now time.Time) float64 {
	if len(turns) == 0 {
		return 0
	}

	countTerm := float64(len(turns)) * 0.1

	hoursSinceStart := now.Sub(turns[0].Timestamp).Hours()
	if hoursSinceStart < 1 {
		hoursSinceStart = 1
	}
	recencyTerm := 1.0 / hoursSinceStart

	return clamp01(countTerm + recencyTerm)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
