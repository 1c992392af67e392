package evaluation

// QuestionType distinguishes how an answer is evaluated. Multiple-choice
// answers are resolved against the answer key at load time; free-text and
// code answers require manual review.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionFreeText       QuestionType = "free_text"
	QuestionCode           QuestionType = "code"
)

// QuestionRef is the read-only view of a question an answer state refers to.
// The session owns the answer collection; questions are referenced, not owned.
type QuestionRef struct {
	ID       uint
	Type     QuestionType
	Text     string
	MaxMarks float64
	Options  []string
}

// AnswerState is the per-question evaluation record. StudentAnswer is
// immutable once loaded; marks, verdict and comment change through the
// session's mutators only.
type AnswerState struct {
	Question       QuestionRef
	StudentAnswer  string
	AttachmentURL  string
	AwardedMarks   float64
	Verdict        Verdict
	TeacherComment string
}

// IsOverMax reports whether the awarded marks exceed the question maximum.
// A blocking data-integrity violation for submit.
func (a AnswerState) IsOverMax() bool {
	return a.AwardedMarks > a.Question.MaxMarks
}

// NeedsReview reports whether the answer still awaits a manual verdict.
// Multiple-choice answers never do; their verdict is settled at load time.
func (a AnswerState) NeedsReview() bool {
	return a.Question.Type != QuestionMultipleChoice && a.Verdict == VerdictPending
}
