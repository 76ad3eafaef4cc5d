package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/asim800/finchat"
	"github.com/asim800/finchat/internal/conversation"
)

func sampleConversation(turnCount int, gap time.Duration) finchat.Conversation {
	conv := conversation.New("u1", "s1")
	start := time.Now().Add(-time.Duration(turnCount) * gap)
	for i := 0; i < turnCount; i++ {
		role := finchat.RoleUser
		content := "tell me about diversified portfolios please"
		if i%2 == 1 {
			role = finchat.RoleAssistant
			content = "A diversified portfolio spreads risk across asset classes. Would you like an example?"
		}
		turn := conversation.NewTurn(role, content)
		turn.Timestamp = start.Add(time.Duration(i) * gap)
		conv.Turns = append(conv.Turns, turn)
	}
	conv.EngagementScore = 0.6
	return conv
}

func TestScoreAllMetricsInRange(t *testing.T) {
	s := NewScorer()
	scores := s.Score(sampleConversation(8, time.Minute))

	wantMetrics := []string{
		"conversation_length", "response_quality", "user_engagement",
		"conversation_flow", "stickiness",
	}
	for _, name := range wantMetrics {
		score, ok := scores[name]
		if !ok {
			t.Errorf("metric %q missing", name)
			continue
		}
		if score < 0 || score > 1 {
			t.Errorf("metric %q = %v, want in [0,1]", name, score)
		}
	}
}

func TestConversationLengthDiminishingReturns(t *testing.T) {
	short := scoreConversationLength(sampleConversation(4, time.Minute))
	long := scoreConversationLength(sampleConversation(40, time.Minute))
	if short >= long {
		t.Errorf("longer conversation scored lower: %v >= %v", short, long)
	}
	if long != 1.0 {
		t.Errorf("40-turn conversation = %v, want saturated at 1.0", long)
	}
}

func TestConversationFlowPenalizesRepeatedRoles(t *testing.T) {
	alternating := sampleConversation(6, time.Minute)

	repeated := conversation.New("u1", "s1")
	now := time.Now()
	for i := 0; i < 6; i++ {
		turn := conversation.NewTurn(finchat.RoleUser, "hello?")
		turn.Timestamp = now.Add(time.Duration(i) * time.Minute)
		repeated.Turns = append(repeated.Turns, turn)
	}

	if scoreConversationFlow(repeated) >= scoreConversationFlow(alternating) {
		t.Error("monologue scored at least as well as alternating dialogue")
	}
}

func TestEmptyConversationScoresZero(t *testing.T) {
	empty := conversation.New("u1", "s1")
	if got := scoreResponseQuality(empty); got != 0 {
		t.Errorf("response_quality = %v, want 0", got)
	}
	if got := scoreUserEngagement(empty); got != 0 {
		t.Errorf("user_engagement = %v, want 0", got)
	}
	if got := scoreConversationFlow(empty); got != 0 {
		t.Errorf("conversation_flow = %v, want 0", got)
	}
}

func TestOverallIsWeightedMean(t *testing.T) {
	s := NewScorer()
	scores := map[string]float64{
		"conversation_length": 1.0,
		"response_quality":    1.0,
		"user_engagement":     1.0,
		"conversation_flow":   1.0,
		"stickiness":          1.0,
	}
	if got := s.Overall(scores); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("Overall(all ones) = %v, want 1.0", got)
	}
	if got := s.Overall(map[string]float64{}); got != 0 {
		t.Errorf("Overall(empty) = %v, want 0", got)
	}
}

func TestAddCustomMetric(t *testing.T) {
	s := NewScorer()
	s.AddMetric(Metric{
		Name:   "always_half",
		Weight: 1.0,
		Score:  func(finchat.Conversation) float64 { return 0.5 },
	})

	scores := s.Score(sampleConversation(4, time.Minute))
	if scores["always_half"] != 0.5 {
		t.Errorf("custom metric = %v, want 0.5", scores["always_half"])
	}
}

func TestEvaluateSummaryStatistics(t *testing.T) {
	s := NewScorer()
	convs := []finchat.Conversation{
		sampleConversation(2, time.Minute),
		sampleConversation(10, time.Minute),
		sampleConversation(20, time.Minute),
	}

	summary := s.Evaluate(convs)
	if summary.TotalConversations != 3 {
		t.Errorf("TotalConversations = %d, want 3", summary.TotalConversations)
	}
	if len(summary.IndividualScores) != 3 {
		t.Fatalf("IndividualScores = %d entries, want 3", len(summary.IndividualScores))
	}

	stats, ok := summary.MetricStats["overall"]
	if !ok {
		t.Fatal("overall stats missing")
	}
	if stats.Min > stats.Median || stats.Median > stats.Max {
		t.Errorf("stats ordering broken: %+v", stats)
	}
	if stats.Mean < 0 || stats.Mean > 1 {
		t.Errorf("overall mean = %v, want in [0,1]", stats.Mean)
	}
}

func TestEvaluateEmpty(t *testing.T) {
	summary := NewScorer().Evaluate(nil)
	if summary.TotalConversations != 0 || len(summary.MetricStats) != 0 {
		t.Errorf("summary for no conversations = %+v", summary)
	}
}

func TestSuggestionsForWeakMetrics(t *testing.T) {
	s := NewScorer()
	summary := Summary{
		MetricStats: map[string]MetricStats{
			"conversation_length": {Mean: 0.1},
			"response_quality":    {Mean: 0.9},
		},
	}
	suggestions := s.Suggestions(summary)
	if len(suggestions) != 1 {
		t.Fatalf("Suggestions() = %v, want exactly one", suggestions)
	}
}
