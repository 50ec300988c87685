package utils

import "math"

// ScoreWeights blends task completion and day-to-day consistency into a
// single focus score. The 0.4/0.6 split is a product decision, not a
// derived statistic; it is a variable so product can retune it without
// touching the aggregation code.
type ScoreWeights struct {
	TaskCompletion float64
	Consistency    float64
}

var DefaultScoreWeights = ScoreWeights{
	TaskCompletion: 0.4,
	Consistency:    0.6,
}

// FocusScore returns the weighted blend rounded to a whole percent and
// clamped to [0, 100].
func FocusScore(taskCompletionRate, consistencyScore int, w ScoreWeights) int {
	score := math.Round(float64(taskCompletionRate)*w.TaskCompletion + float64(consistencyScore)*w.Consistency)
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return int(score)
}
