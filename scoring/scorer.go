// Package scoring evaluates persisted conversations after the fact. It is a
// consumer of the turn log, not part of the loop: the loop only maintains the
// per-conversation engagement score, and this package derives the richer
// weighted metrics from stored history.
package scoring

import (
	"math"
	"sort"
	"strings"

	"github.com/asim800/finchat"
)

// Metric is one weighted scoring dimension. Score must return a value in
// [0,1]; out-of-range results are clamped.
type Metric struct {
	Name        string
	Description string
	Weight      float64
	Score       func(conv finchat.Conversation) float64
}

// Scorer evaluates conversations across a weighted metric set.
type Scorer struct {
	metrics []Metric
}

// NewScorer creates a scorer with the default engagement and quality metrics.
func NewScorer() *Scorer {
	return &Scorer{metrics: defaultMetrics()}
}

// AddMetric registers a custom metric alongside the defaults.
func (s *Scorer) AddMetric(m Metric) {
	s.metrics = append(s.metrics, m)
}

func defaultMetrics() []Metric {
	return []Metric{
		{
			Name:        "conversation_length",
			Description: "Number of exchanges in a conversation",
			Weight:      0.2,
			Score:       scoreConversationLength,
		},
		{
			Name:        "response_quality",
			Description: "Response relevance and helpfulness",
			Weight:      0.3,
			Score:       scoreResponseQuality,
		},
		{
			Name:        "user_engagement",
			Description: "User's active participation",
			Weight:      0.2,
			Score:       scoreUserEngagement,
		},
		{
			Name:        "conversation_flow",
			Description: "Natural conversation progression",
			Weight:      0.15,
			Score:       scoreConversationFlow,
		},
		{
			Name:        "stickiness",
			Description: "Return behavior and session duration",
			Weight:      0.15,
			Score:       scoreStickiness,
		},
	}
}

// Diminishing returns after 20 turns.
func scoreConversationLength(conv finchat.Conversation) float64 {
	return math.Min(1.0, float64(len(conv.Turns))/20.0)
}

func scoreResponseQuality(conv finchat.Conversation) float64 {
	var assistant []finchat.Turn
	for _, t := range conv.Turns {
		if t.Role == finchat.RoleAssistant {
			assistant = append(assistant, t)
		}
	}
	if len(assistant) == 0 {
		return 0
	}

	var totalLen float64
	questions := 0
	for _, t := range assistant {
		totalLen += float64(len(t.Content))
		if strings.Contains(t.Content, "?") {
			questions++
		}
	}
	lengthScore := math.Min(1.0, totalLen/float64(len(assistant))/500.0)
	questionScore := math.Min(1.0, float64(questions)/float64(len(assistant)))

	return lengthScore*0.6 + questionScore*0.4
}

func scoreUserEngagement(conv finchat.Conversation) float64 {
	var user []finchat.Turn
	assistantQuestions := 0
	for _, t := range conv.Turns {
		switch t.Role {
		case finchat.RoleUser:
			user = append(user, t)
		case finchat.RoleAssistant:
			if strings.Contains(t.Content, "?") {
				assistantQuestions++
			}
		}
	}
	if len(user) == 0 {
		return 0
	}

	var totalLen float64
	for _, t := range user {
		totalLen += float64(len(t.Content))
	}
	lengthScore := math.Min(1.0, totalLen/float64(len(user))/100.0)

	// Follow-up user messages count as responses to assistant questions.
	responses := float64(len(user) - 1)
	responseRate := math.Min(1.0, responses/math.Max(1, float64(assistantQuestions)))

	return lengthScore*0.4 + responseRate*0.6
}

func scoreConversationFlow(conv finchat.Conversation) float64 {
	turns := conv.Turns
	if len(turns) < 2 {
		return 0
	}

	// Penalize the same role speaking twice in a row.
	patternScore := 1.0
	for i := 1; i < len(turns); i++ {
		if turns[i].Role == turns[i-1].Role {
			patternScore -= 0.1
		}
	}
	patternScore = math.Max(0, patternScore)

	// Penalize gaps over ten minutes or under a second.
	timingScore := 1.0
	for i := 1; i < len(turns); i++ {
		gap := turns[i].Timestamp.Sub(turns[i-1].Timestamp).Seconds()
		if gap > 600 || gap < 1 {
			timingScore -= 0.05
		}
	}
	timingScore = math.Max(0, timingScore)

	return patternScore*0.7 + timingScore*0.3
}

func scoreStickiness(conv finchat.Conversation) float64 {
	durationScore := 0.5
	if len(conv.Turns) >= 2 {
		minutes := conv.Turns[len(conv.Turns)-1].Timestamp.Sub(conv.Turns[0].Timestamp).Minutes()
		// Optimal sessions run 5-15 minutes.
		if minutes <= 15 {
			durationScore = minutes / 15.0
		} else {
			durationScore = math.Max(0.5, 1.0-(minutes-15)/30.0)
		}
	}

	return conv.EngagementScore*0.6 + durationScore*0.4
}

// Score evaluates one conversation across all metrics, clamped to [0,1].
func (s *Scorer) Score(conv finchat.Conversation) map[string]float64 {
	scores := make(map[string]float64, len(s.metrics))
	for _, m := range s.metrics {
		scores[m.Name] = clamp01(m.Score(conv))
	}
	return scores
}

// Overall computes the weighted mean of a metric score map.
func (s *Scorer) Overall(scores map[string]float64) float64 {
	var weightedSum, totalWeight float64
	for _, m := range s.metrics {
		score, ok := scores[m.Name]
		if !ok {
			continue
		}
		weightedSum += score * m.Weight
		totalWeight += m.Weight
	}
	if totalWeight == 0 {
		return 0
	}
	return weightedSum / totalWeight
}

// MetricStats summarizes one metric's distribution across conversations.
type MetricStats struct {
	Mean   float64
	Median float64
	StdDev float64
	Min    float64
	Max    float64
}

// Summary aggregates evaluation results across conversations.
type Summary struct {
	TotalConversations int
	MetricStats        map[string]MetricStats
	IndividualScores   []map[string]float64
}

// Evaluate scores each conversation and aggregates per-metric statistics,
// including the weighted overall score under the "overall" key.
func (s *Scorer) Evaluate(convs []finchat.Conversation) Summary {
	summary := Summary{
		TotalConversations: len(convs),
		MetricStats:        map[string]MetricStats{},
	}
	if len(convs) == 0 {
		return summary
	}

	byMetric := map[string][]float64{}
	for _, conv := range convs {
		scores := s.Score(conv)
		scores["overall"] = s.Overall(scores)
		summary.IndividualScores = append(summary.IndividualScores, scores)
		for name, score := range scores {
			byMetric[name] = append(byMetric[name], score)
		}
	}

	for name, values := range byMetric {
		summary.MetricStats[name] = computeStats(values)
	}
	return summary
}

// Suggestions derives improvement hints from weak metric means.
func (s *Scorer) Suggestions(summary Summary) []string {
	var out []string
	below := func(name string, threshold float64) bool {
		stats, ok := summary.MetricStats[name]
		return ok && stats.Mean < threshold
	}

	if below("conversation_length", 0.5) {
		out = append(out, "Consider asking more follow-up questions to extend conversations")
	}
	if below("response_quality", 0.6) {
		out = append(out, "Improve response quality by providing more detailed and helpful answers")
	}
	if below("user_engagement", 0.5) {
		out = append(out, "Encourage more user participation with engaging questions and prompts")
	}
	if below("conversation_flow", 0.7) {
		out = append(out, "Work on maintaining natural conversation flow and timing")
	}
	if below("stickiness", 0.5) {
		out = append(out, "Focus on building rapport and creating memorable interactions")
	}
	return out
}

func computeStats(values []float64) MetricStats {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(len(sorted))

	var median float64
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		median = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		median = sorted[mid]
	}

	var stddev float64
	if len(sorted) > 1 {
		var sq float64
		for _, v := range sorted {
			sq += (v - mean) * (v - mean)
		}
		stddev = math.Sqrt(sq / float64(len(sorted)-1))
	}

	return MetricStats{
		Mean:   mean,
		Median: median,
		StdDev: stddev,
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
	}
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
