package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Status is the session's lifecycle phase.
type Status string

const (
	// StatusLoading means the repository fetch has not completed yet.
	StatusLoading Status = "loading"
	// StatusReady means the session accepts grading actions (or is
	// finalized and read-only; see Finalized).
	StatusReady Status = "ready"
	// StatusSubmitting means a persist is in flight; mutations are rejected.
	StatusSubmitting Status = "submitting"
	// StatusLoadError means the initial fetch failed; Load may be retried.
	StatusLoadError Status = "load_error"
)

// Session orchestrates a single evaluation sitting over one submission. It
// owns the answer states exclusively: callers read snapshots and go through
// the mutators, which apply the validation and auto-marking rules inline so
// every marks change is a single traceable call.
//
// The session is not safe for concurrent use; callers serialize access.
type Session struct {
	submissionID uint
	repo         Repository
	drafts       DraftStore
	now          func() time.Time

	status    Status
	finalized bool
	loadErr   error

	assignmentID       uint
	assignmentTitle    string
	assignmentMaxMarks float64
	student            StudentInfo
	answers            []AnswerState
	overallFeedback    string
}

// NewSession creates a session in the Loading state. Call Load to populate it.
func NewSession(submissionID uint, repo Repository, drafts DraftStore) *Session {
	return &Session{
		submissionID: submissionID,
		repo:         repo,
		drafts:       drafts,
		now:          time.Now,
		status:       StatusLoading,
	}
}

// Load fetches the submission and builds the per-question states. Allowed
// from Loading and LoadError (retry); a populated session rejects the call.
func (s *Session) Load(ctx context.Context) error {
	switch s.status {
	case StatusSubmitting:
		return ErrSessionBusy
	case StatusReady:
		return ErrSessionLoaded
	}

	s.status = StatusLoading
	snapshot, err := s.repo.FetchSubmission(ctx, s.submissionID)
	if err != nil {
		s.status = StatusLoadError
		s.loadErr = err
		return err
	}

	s.assignmentID = snapshot.AssignmentID
	s.assignmentTitle = snapshot.AssignmentTitle
	s.assignmentMaxMarks = snapshot.AssignmentMaxMarks
	s.student = snapshot.Student
	s.overallFeedback = snapshot.PriorFeedback
	s.finalized = snapshot.Finalized
	s.answers = make([]AnswerState, len(snapshot.Answers))
	copy(s.answers, snapshot.Answers)
	s.loadErr = nil
	s.status = StatusReady

	return nil
}

// SubmissionID returns the submission this session evaluates.
func (s *Session) SubmissionID() uint { return s.submissionID }

// AssignmentID returns the owning assignment's identifier.
func (s *Session) AssignmentID() uint { return s.assignmentID }

// AssignmentTitle returns the owning assignment's title.
func (s *Session) AssignmentTitle() string { return s.assignmentTitle }

// AssignmentMaxMarks returns the assignment-wide maximum supplied at load.
func (s *Session) AssignmentMaxMarks() float64 { return s.assignmentMaxMarks }

// Student returns the submitting student's info.
func (s *Session) Student() StudentInfo { return s.student }

// Status returns the current lifecycle phase.
func (s *Session) Status() Status { return s.status }

// Finalized reports whether the evaluation has been submitted for good.
func (s *Session) Finalized() bool { return s.finalized }

// LoadError returns the error of the last failed load, if any.
func (s *Session) LoadError() error { return s.loadErr }

// OverallFeedback returns the submission-level feedback text.
func (s *Session) OverallFeedback() string { return s.overallFeedback }

// Answers returns a copy of the per-question states in assignment order.
func (s *Session) Answers() []AnswerState {
	snapshot := make([]AnswerState, len(s.answers))
	copy(snapshot, s.answers)
	return snapshot
}

// Answer looks up a single state by question identifier.
func (s *Session) Answer(questionID uint) (AnswerState, bool) {
	if idx := s.indexOf(questionID); idx >= 0 {
		return s.answers[idx], true
	}
	return AnswerState{}, false
}

// Stats aggregates the current states into submission-level statistics.
func (s *Session) Stats() Stats {
	return Aggregate(s.answers)
}

// SetAwardedMarks updates one answer's marks after range validation. A
// rejected edit leaves the prior value untouched.
func (s *Session) SetAwardedMarks(questionID uint, value float64) error {
	if err := s.mutationGate(); err != nil {
		return err
	}

	idx := s.indexOf(questionID)
	if idx < 0 {
		return ErrQuestionNotFound
	}

	if err := ValidateMarks(value, s.answers[idx].Question.MaxMarks); err != nil {
		return err
	}

	s.answers[idx].AwardedMarks = value
	return nil
}

// SetVerdict records a correctness judgment and applies the implied marks.
// Multiple-choice verdicts are fixed at load time and cannot be edited.
func (s *Session) SetVerdict(questionID uint, verdict Verdict) error {
	if err := s.mutationGate(); err != nil {
		return err
	}

	if !verdict.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidVerdict, string(verdict))
	}

	idx := s.indexOf(questionID)
	if idx < 0 {
		return ErrQuestionNotFound
	}

	if s.answers[idx].Question.Type == QuestionMultipleChoice {
		return ErrInvalidForType
	}

	// Auto-marked values are within range by construction; no re-validation.
	s.answers[idx].AwardedMarks = AutoMarks(s.answers[idx], verdict)
	s.answers[idx].Verdict = verdict
	return nil
}

// SetComment updates one answer's teacher comment.
func (s *Session) SetComment(questionID uint, text string) error {
	if err := s.mutationGate(); err != nil {
		return err
	}

	idx := s.indexOf(questionID)
	if idx < 0 {
		return ErrQuestionNotFound
	}

	s.answers[idx].TeacherComment = text
	return nil
}

// SetOverallFeedback updates the submission-level feedback.
func (s *Session) SetOverallFeedback(text string) error {
	if err := s.mutationGate(); err != nil {
		return err
	}

	s.overallFeedback = text
	return nil
}

// IsSubmitReady reports whether every answer is within range and reviewed.
// Unreviewed free-text/code answers must not silently score zero.
func (s *Session) IsSubmitReady() bool {
	overMax, pending := s.blockingCounts()
	return overMax == 0 && pending == 0
}

// Submit persists the evaluation and finalizes the session. It fails fast
// without a repository call when not ready, and a repository failure returns
// the session to in-progress with all state intact, so a retry is always
// possible.
func (s *Session) Submit(ctx context.Context) error {
	if s.finalized {
		return ErrSessionFinalized
	}
	switch s.status {
	case StatusSubmitting:
		return ErrSessionBusy
	case StatusLoading, StatusLoadError:
		return ErrSessionNotLoaded
	}

	if overMax, pending := s.blockingCounts(); overMax > 0 || pending > 0 {
		return &NotReadyError{OverMax: overMax, Pending: pending}
	}

	record := Record{
		Answers:  make([]AnswerRecord, 0, len(s.answers)),
		Feedback: s.overallFeedback,
	}
	for _, answer := range s.answers {
		record.Answers = append(record.Answers, AnswerRecord{
			QuestionID:     answer.Question.ID,
			AwardedMarks:   answer.AwardedMarks,
			Verdict:        answer.Verdict,
			TeacherComment: answer.TeacherComment,
		})
	}

	s.status = StatusSubmitting
	if err := s.repo.PersistEvaluation(ctx, s.submissionID, record); err != nil {
		s.status = StatusReady
		return err
	}

	s.status = StatusReady
	s.finalized = true
	return nil
}

// SaveDraft snapshots the mutable session state to the draft store.
// Available only while in progress.
func (s *Session) SaveDraft(ctx context.Context) error {
	if err := s.mutationGate(); err != nil {
		return err
	}

	snapshot := draftSnapshot{
		SubmissionID:    s.submissionID,
		SavedAt:         s.now().UTC(),
		OverallFeedback: s.overallFeedback,
		Answers:         make([]draftAnswer, 0, len(s.answers)),
	}
	for _, answer := range s.answers {
		snapshot.Answers = append(snapshot.Answers, draftAnswer{
			QuestionID:     answer.Question.ID,
			AwardedMarks:   answer.AwardedMarks,
			Verdict:        answer.Verdict,
			TeacherComment: answer.TeacherComment,
		})
	}

	blob, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	return s.drafts.Save(ctx, DraftKey(s.submissionID), blob)
}

// LoadDraft replaces the mutable session state with a stored snapshot. The
// caller confirms the overwrite with the user beforehand; the session does
// not second-guess it. Fails with ErrDraftNotFound when no draft exists.
func (s *Session) LoadDraft(ctx context.Context) error {
	if err := s.mutationGate(); err != nil {
		return err
	}

	blob, err := s.drafts.Load(ctx, DraftKey(s.submissionID))
	if err != nil {
		return err
	}

	var snapshot draftSnapshot
	if err := json.Unmarshal(blob, &snapshot); err != nil {
		return fmt.Errorf("corrupt evaluation draft: %w", err)
	}

	for _, saved := range snapshot.Answers {
		idx := s.indexOf(saved.QuestionID)
		if idx < 0 {
			continue
		}
		s.answers[idx].AwardedMarks = saved.AwardedMarks
		s.answers[idx].Verdict = saved.Verdict
		s.answers[idx].TeacherComment = saved.TeacherComment
	}
	s.overallFeedback = snapshot.OverallFeedback

	return nil
}

// DiscardDraft removes any stored snapshot for this submission.
func (s *Session) DiscardDraft(ctx context.Context) error {
	return s.drafts.Delete(ctx, DraftKey(s.submissionID))
}

func (s *Session) mutationGate() error {
	if s.finalized {
		return ErrSessionFinalized
	}
	switch s.status {
	case StatusSubmitting:
		return ErrSessionBusy
	case StatusLoading, StatusLoadError:
		return ErrSessionNotLoaded
	}
	return nil
}

func (s *Session) blockingCounts() (overMax, pending int) {
	for _, answer := range s.answers {
		if answer.IsOverMax() {
			overMax++
		}
		if answer.NeedsReview() {
			pending++
		}
	}
	return overMax, pending
}

func (s *Session) indexOf(questionID uint) int {
	for idx := range s.answers {
		if s.answers[idx].Question.ID == questionID {
			return idx
		}
	}
	return -1
}
