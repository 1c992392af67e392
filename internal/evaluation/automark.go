package evaluation

// AutoMarks computes the awarded marks implied by a verdict. Correct means
// full credit, incorrect means zero, pending leaves a manually entered
// partial score untouched so a grader can revert without losing it.
//
// The tie between verdict and marks is applied at the moment of the verdict
// change, not continuously enforced: a later direct numeric edit (partial
// credit after marking correct) is a deliberate override and stands.
func AutoMarks(state AnswerState, verdict Verdict) float64 {
	switch verdict {
	case VerdictCorrect:
		return state.Question.MaxMarks
	case VerdictIncorrect:
		return 0
	default:
		return state.AwardedMarks
	}
}
