package evaluation

import "context"

// StudentInfo identifies the student whose submission is being evaluated.
type StudentInfo struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Class string `json:"class"`
}

// Snapshot is the loaded state of a submission as returned by the data
// layer. Multiple-choice verdicts arrive pre-resolved against the answer
// key; the session treats them as settled input.
type Snapshot struct {
	SubmissionID       uint
	AssignmentID       uint
	AssignmentTitle    string
	AssignmentMaxMarks float64
	Student            StudentInfo
	PriorFeedback      string
	Finalized          bool
	Answers            []AnswerState
}

// AnswerRecord carries the persisted fields of one evaluated answer.
type AnswerRecord struct {
	QuestionID     uint    `json:"question_id"`
	AwardedMarks   float64 `json:"awarded_marks"`
	Verdict        Verdict `json:"verdict"`
	TeacherComment string  `json:"teacher_comment"`
}

// Record is the payload handed to the repository on submit.
type Record struct {
	Answers  []AnswerRecord `json:"answers"`
	Feedback string         `json:"feedback"`
}

// Repository is the persistence collaborator the session talks to.
// Implementations fail with ErrSubmissionNotFound, ErrValidationRejected or
// plain transport errors; retry policy lives with the caller, never here.
type Repository interface {
	FetchSubmission(ctx context.Context, id uint) (Snapshot, error)
	PersistEvaluation(ctx context.Context, id uint, record Record) error
}
