package dto

import (
	"github.com/satyadur/nexora-api/internal/evaluation"
)

// EvaluationMarksRequest sets the awarded marks of one answer.
type EvaluationMarksRequest struct {
	AwardedMarks float64 `json:"awarded_marks" validate:"gte=0"`
}

// EvaluationVerdictRequest records a correctness judgment for one answer.
type EvaluationVerdictRequest struct {
	Verdict string `json:"verdict" validate:"required,oneof=correct incorrect pending"`
}

// EvaluationCommentRequest updates one answer's teacher comment.
type EvaluationCommentRequest struct {
	Comment string `json:"comment"`
}

// EvaluationFeedbackRequest updates the submission-level feedback.
type EvaluationFeedbackRequest struct {
	Feedback string `json:"feedback"`
}

// EvaluationAnswerView serializes one per-question grading state.
type EvaluationAnswerView struct {
	QuestionID     uint     `json:"question_id"`
	QuestionType   string   `json:"question_type"`
	QuestionText   string   `json:"question_text"`
	MaxMarks       float64  `json:"max_marks"`
	Options        []string `json:"options,omitempty"`
	StudentAnswer  string   `json:"student_answer"`
	AttachmentURL  string   `json:"attachment_url,omitempty"`
	AwardedMarks   float64  `json:"awarded_marks"`
	Verdict        string   `json:"verdict"`
	TeacherComment string   `json:"teacher_comment"`
	IsOverMax      bool     `json:"is_over_max"`
	NeedsReview    bool     `json:"needs_review"`
}

// EvaluationSessionResponse is the full session view the grading UI renders.
type EvaluationSessionResponse struct {
	SubmissionID       uint                   `json:"submission_id"`
	AssignmentID       uint                   `json:"assignment_id"`
	AssignmentTitle    string                 `json:"assignment_title"`
	AssignmentMaxMarks float64                `json:"assignment_max_marks"`
	Student            StudentLite            `json:"student"`
	Status             string                 `json:"status"`
	Finalized          bool                   `json:"finalized"`
	SubmitReady        bool                   `json:"submit_ready"`
	OverallFeedback    string                 `json:"overall_feedback"`
	Answers            []EvaluationAnswerView `json:"answers"`
	Stats              evaluation.Stats       `json:"stats"`
}

// NewEvaluationAnswerView converts an engine answer state into a DTO.
func NewEvaluationAnswerView(state evaluation.AnswerState) EvaluationAnswerView {
	return EvaluationAnswerView{
		QuestionID:     state.Question.ID,
		QuestionType:   string(state.Question.Type),
		QuestionText:   state.Question.Text,
		MaxMarks:       state.Question.MaxMarks,
		Options:        state.Question.Options,
		StudentAnswer:  state.StudentAnswer,
		AttachmentURL:  state.AttachmentURL,
		AwardedMarks:   state.AwardedMarks,
		Verdict:        string(state.Verdict),
		TeacherComment: state.TeacherComment,
		IsOverMax:      state.IsOverMax(),
		NeedsReview:    state.NeedsReview(),
	}
}

// NewEvaluationSessionResponse snapshots a session for API clients.
func NewEvaluationSessionResponse(session *evaluation.Session) EvaluationSessionResponse {
	answers := session.Answers()
	views := make([]EvaluationAnswerView, 0, len(answers))
	for _, state := range answers {
		views = append(views, NewEvaluationAnswerView(state))
	}

	student := session.Student()

	return EvaluationSessionResponse{
		SubmissionID:       session.SubmissionID(),
		AssignmentID:       session.AssignmentID(),
		AssignmentTitle:    session.AssignmentTitle(),
		AssignmentMaxMarks: session.AssignmentMaxMarks(),
		Student: StudentLite{
			ID:    student.ID,
			Name:  student.Name,
			Email: student.Email,
			Class: student.Class,
		},
		Status:          string(session.Status()),
		Finalized:       session.Finalized(),
		SubmitReady:     session.IsSubmitReady(),
		OverallFeedback: session.OverallFeedback(),
		Answers:         views,
		Stats:           session.Stats(),
	}
}
