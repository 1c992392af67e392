package dto

import (
	"time"

	"github.com/satyadur/nexora-api/internal/models"
)

// AnswerCreateRequest carries one student response in a submission payload.
type AnswerCreateRequest struct {
	QuestionID uint   `json:"question_id" validate:"required,gt=0"`
	Answer     string `json:"answer" validate:"required"`
}

// SubmissionCreateRequest describes the payload for handing in an assignment.
type SubmissionCreateRequest struct {
	AssignmentID uint                  `json:"assignment_id" validate:"required,gt=0"`
	StudentID    uint                  `json:"student_id" validate:"required,gt=0"`
	Answers      []AnswerCreateRequest `json:"answers" validate:"required,min=1,dive"`
}

// SubmissionFilter describes query string filters for listing submissions.
type SubmissionFilter struct {
	AssignmentID *uint   `query:"assignment_id"`
	StudentID    *uint   `query:"student_id"`
	Status       *string `query:"status" validate:"omitempty,oneof=in_progress evaluated"`
}

// AnswerResponse serializes one answer with its grading state.
type AnswerResponse struct {
	ID             uint     `json:"id"`
	QuestionID     uint     `json:"question_id"`
	QuestionText   string   `json:"question_text"`
	QuestionType   string   `json:"question_type"`
	MaxMarks       float64  `json:"max_marks"`
	StudentAnswer  string   `json:"student_answer"`
	AttachmentURL  string   `json:"attachment_url,omitempty"`
	AwardedMarks   float64  `json:"awarded_marks"`
	Verdict        string   `json:"verdict"`
	TeacherComment string   `json:"teacher_comment"`
	Options        []string `json:"options,omitempty"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID              uint             `json:"id"`
	AssignmentID    uint             `json:"assignment_id"`
	StudentID       uint             `json:"student_id"`
	Status          string           `json:"status"`
	OverallFeedback string           `json:"overall_feedback"`
	EvaluatedAt     *time.Time       `json:"evaluated_at"`
	EvaluatedBy     *uint            `json:"evaluated_by"`
	Answers         []AnswerResponse `json:"answers"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	Assignment      AssignmentLite   `json:"assignment"`
	Student         StudentLite      `json:"student"`
}

// AssignmentLite summarizes an assignment in submission responses.
type AssignmentLite struct {
	ID       uint      `json:"id"`
	Title    string    `json:"title"`
	DueDate  time.Time `json:"due_date"`
	MaxMarks float64   `json:"max_marks"`
}

// StudentLite summarizes a student without exposing full profile data.
type StudentLite struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Class string `json:"class"`
}

// NewAnswerResponse converts an answer model into a DTO.
func NewAnswerResponse(model models.Answer) AnswerResponse {
	question := NewQuestionResponse(model.Question)

	return AnswerResponse{
		ID:             model.ID,
		QuestionID:     model.QuestionID,
		QuestionText:   question.Text,
		QuestionType:   question.Type,
		MaxMarks:       question.MaxMarks,
		StudentAnswer:  model.StudentAnswer,
		AttachmentURL:  model.AttachmentURL,
		AwardedMarks:   model.AwardedMarks,
		Verdict:        model.Verdict,
		TeacherComment: model.TeacherComment,
		Options:        question.Options,
	}
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	response := SubmissionResponse{
		ID:              model.ID,
		AssignmentID:    model.AssignmentID,
		StudentID:       model.StudentID,
		Status:          model.Status,
		OverallFeedback: model.OverallFeedback,
		EvaluatedAt:     model.EvaluatedAt,
		EvaluatedBy:     model.EvaluatedBy,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}

	for _, answer := range model.Answers {
		response.Answers = append(response.Answers, NewAnswerResponse(answer))
	}

	if model.Assignment.ID != 0 {
		response.Assignment = AssignmentLite{
			ID:       model.Assignment.ID,
			Title:    model.Assignment.Title,
			DueDate:  model.Assignment.DueDate,
			MaxMarks: model.Assignment.MaxMarks,
		}
	}

	if model.Student.ID != 0 {
		response.Student = StudentLite{
			ID:    model.Student.ID,
			Name:  model.Student.Name,
			Email: model.Student.Email,
			Class: model.Student.Class,
		}
	}

	return response
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(submissions []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}
