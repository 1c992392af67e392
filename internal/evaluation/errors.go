package evaluation

import (
	"errors"
	"fmt"
)

// ErrOutOfRange indicates awarded marks fall outside [0, max].
var ErrOutOfRange = errors.New("awarded marks out of range")

// ErrInvalidForType indicates a verdict change on a question type that does not allow it.
var ErrInvalidForType = errors.New("verdict not editable for this question type")

// ErrInvalidVerdict indicates an unrecognised verdict value.
var ErrInvalidVerdict = errors.New("invalid verdict")

// ErrSessionFinalized indicates the evaluation has been submitted and is read-only.
var ErrSessionFinalized = errors.New("evaluation session finalized")

// ErrSessionBusy indicates a submit is in flight and mutations are rejected.
var ErrSessionBusy = errors.New("evaluation session busy")

// ErrSessionNotLoaded indicates the session has not finished loading.
var ErrSessionNotLoaded = errors.New("evaluation session not loaded")

// ErrSessionLoaded indicates a duplicate load on an already populated session.
var ErrSessionLoaded = errors.New("evaluation session already loaded")

// ErrQuestionNotFound indicates the session holds no answer for the question.
var ErrQuestionNotFound = errors.New("question not part of this submission")

// ErrSubmissionNotFound is returned by Repository implementations when the
// submission does not exist.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrValidationRejected is returned by Repository implementations when the
// server-side re-check of the persisted evaluation fails.
var ErrValidationRejected = errors.New("evaluation rejected by server-side validation")

// ErrDraftNotFound is returned by DraftStore implementations when no draft
// exists under the requested key.
var ErrDraftNotFound = errors.New("draft not found")

// NotReadyError blocks a submit and reports why, so callers can explain the
// rejection per category.
type NotReadyError struct {
	OverMax int
	Pending int
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("evaluation not ready to submit: %d answers over max, %d pending review", e.OverMax, e.Pending)
}
