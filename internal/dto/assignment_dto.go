package dto

import (
	"encoding/json"
	"time"

	"github.com/satyadur/nexora-api/internal/models"
)

// QuestionCreateRequest describes one question inside an assignment payload.
type QuestionCreateRequest struct {
	Type      string   `json:"type" validate:"required,oneof=multiple_choice free_text code"`
	Text      string   `json:"text" validate:"required,min=3"`
	MaxMarks  float64  `json:"max_marks" validate:"required,gt=0"`
	Options   []string `json:"options" validate:"omitempty,min=2,dive,required"`
	AnswerKey string   `json:"answer_key"`
}

// AssignmentCreateRequest describes the payload for creating a new assignment.
type AssignmentCreateRequest struct {
	Title       string                  `form:"title" json:"title" validate:"required,min=3"`
	Description string                  `form:"description" json:"description" validate:"required,min=10"`
	DueDate     string                  `form:"due_date" json:"due_date" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Questions   []QuestionCreateRequest `json:"questions" validate:"required,min=1,dive"`
}

// AssignmentUpdateRequest describes the payload for updating an assignment.
// Questions cannot be edited once any submission exists; only metadata moves.
type AssignmentUpdateRequest struct {
	Title       *string `form:"title" json:"title" validate:"omitempty,min=3"`
	Description *string `form:"description" json:"description" validate:"omitempty,min=10"`
	DueDate     *string `form:"due_date" json:"due_date" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// QuestionResponse serializes a question without leaking the answer key.
type QuestionResponse struct {
	ID       uint     `json:"id"`
	Position int      `json:"position"`
	Type     string   `json:"type"`
	Text     string   `json:"text"`
	MaxMarks float64  `json:"max_marks"`
	Options  []string `json:"options,omitempty"`
}

// AssignmentResponse is the serialized representation returned to API clients.
type AssignmentResponse struct {
	ID          uint               `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	DueDate     time.Time          `json:"due_date"`
	FileURL     string             `json:"file_url"`
	MaxMarks    float64            `json:"max_marks"`
	Questions   []QuestionResponse `json:"questions"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// NewQuestionResponse converts a question model into a DTO.
func NewQuestionResponse(model models.Question) QuestionResponse {
	var options []string
	if len(model.Options) > 0 {
		_ = json.Unmarshal(model.Options, &options)
	}

	return QuestionResponse{
		ID:       model.ID,
		Position: model.Position,
		Type:     model.Type,
		Text:     model.Text,
		MaxMarks: model.MaxMarks,
		Options:  options,
	}
}

// NewAssignmentResponse converts a model into a DTO.
func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	questions := make([]QuestionResponse, 0, len(model.Questions))
	for _, question := range model.Questions {
		questions = append(questions, NewQuestionResponse(question))
	}

	return AssignmentResponse{
		ID:          model.ID,
		Title:       model.Title,
		Description: model.Description,
		DueDate:     model.DueDate,
		FileURL:     model.FileURL,
		MaxMarks:    model.MaxMarks,
		Questions:   questions,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// NewAssignmentResponseSlice converts a slice of models into DTOs.
func NewAssignmentResponseSlice(assignments []models.Assignment) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, NewAssignmentResponse(assignment))
	}

	return responses
}
