package evaluation

// Stats summarises a submission-level view of the per-question states.
type Stats struct {
	TotalAwarded  float64 `json:"total_awarded"`
	TotalPossible float64 `json:"total_possible"`
	Percentage    float64 `json:"percentage"`
	Evaluated     int     `json:"questions_evaluated"`
	Pending       int     `json:"questions_pending"`
}

// Aggregate computes submission statistics from a snapshot of answer states.
// Pure and deterministic; cheap enough to recompute on every edit.
func Aggregate(answers []AnswerState) Stats {
	stats := Stats{}
	for _, answer := range answers {
		stats.TotalAwarded += answer.AwardedMarks
		stats.TotalPossible += answer.Question.MaxMarks
		if answer.NeedsReview() {
			stats.Pending++
		} else {
			stats.Evaluated++
		}
	}

	if stats.TotalPossible > 0 {
		stats.Percentage = stats.TotalAwarded / stats.TotalPossible * 100
	}

	return stats
}
