package evaluation

import (
	"context"
	"fmt"
	"time"
)

// DraftStore is keyed blob persistence for in-progress sessions. No
// transactional guarantees; last write wins. Load returns ErrDraftNotFound
// when the key is absent.
type DraftStore interface {
	Save(ctx context.Context, key string, blob []byte) error
	Load(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// DraftKey derives the storage key for a submission's evaluation draft.
func DraftKey(submissionID uint) string {
	return fmt.Sprintf("evaluation_draft_%d", submissionID)
}

// draftSnapshot is the serialized form of a session's mutable state. Student
// answers and question metadata are not stored; they are immutable and come
// back from the repository on load.
type draftSnapshot struct {
	SubmissionID    uint          `json:"submission_id"`
	SavedAt         time.Time     `json:"saved_at"`
	OverallFeedback string        `json:"overall_feedback"`
	Answers         []draftAnswer `json:"answers"`
}

type draftAnswer struct {
	QuestionID     uint    `json:"question_id"`
	AwardedMarks   float64 `json:"awarded_marks"`
	Verdict        Verdict `json:"verdict"`
	TeacherComment string  `json:"teacher_comment"`
}
