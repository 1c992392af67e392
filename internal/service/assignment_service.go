package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/satyadur/nexora-api/internal/dto"
	"github.com/satyadur/nexora-api/internal/models"
	"github.com/satyadur/nexora-api/internal/repository"
)

// ErrAssignmentNotFound indicates the requested assignment does not exist.
var ErrAssignmentNotFound = errors.New("assignment not found")

// ErrInvalidQuestionBank indicates an imported question bank document failed
// schema or content validation.
var ErrInvalidQuestionBank = errors.New("invalid question bank document")

// FileUploader abstracts uploading binary data and returning a URL.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// questionBankSchema validates imported question bank documents before any
// row is touched.
const questionBankSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["title", "description", "due_date", "questions"],
  "properties": {
    "title": {"type": "string", "minLength": 3},
    "description": {"type": "string", "minLength": 10},
    "due_date": {"type": "string"},
    "questions": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["type", "text", "max_marks"],
        "properties": {
          "type": {"enum": ["multiple_choice", "free_text", "code"]},
          "text": {"type": "string", "minLength": 3},
          "max_marks": {"type": "number", "exclusiveMinimum": 0},
          "options": {"type": "array", "items": {"type": "string"}},
          "answer_key": {"type": "string"}
        }
      }
    }
  }
}`

// AssignmentService exposes assignment domain use cases.
type AssignmentService interface {
	List(ctx context.Context, filter repository.AssignmentFilter) ([]dto.AssignmentResponse, int64, error)
	Get(ctx context.Context, id uint) (dto.AssignmentResponse, error)
	Create(ctx context.Context, payload dto.AssignmentCreateRequest, file *multipart.FileHeader) (dto.AssignmentResponse, error)
	Update(ctx context.Context, id uint, payload dto.AssignmentUpdateRequest, file *multipart.FileHeader) (dto.AssignmentResponse, error)
	Delete(ctx context.Context, id uint) error
	ImportQuestionBank(ctx context.Context, raw []byte) (dto.AssignmentResponse, error)
}

type assignmentService struct {
	repo       repository.AssignmentRepository
	validator  *validator.Validate
	uploader   FileUploader
	bankSchema *jsonschema.Schema
	logger     zerolog.Logger
	now        func() time.Time
}

// NewAssignmentService builds a new assignment service.
func NewAssignmentService(repo repository.AssignmentRepository, validate *validator.Validate, uploader FileUploader, logger zerolog.Logger) AssignmentService {
	schema := jsonschema.MustCompileString("question_bank.json", questionBankSchema)

	return &assignmentService{
		repo:       repo,
		validator:  validate,
		uploader:   uploader,
		bankSchema: schema,
		logger:     logger.With().Str("component", "assignment_service").Logger(),
		now:        time.Now,
	}
}

func (s *assignmentService) List(ctx context.Context, filter repository.AssignmentFilter) ([]dto.AssignmentResponse, int64, error) {
	assignments, total, err := s.repo.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	return dto.NewAssignmentResponseSlice(assignments), total, nil
}

func (s *assignmentService) Get(ctx context.Context, id uint) (dto.AssignmentResponse, error) {
	assignment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}

		return dto.AssignmentResponse{}, err
	}

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Create(ctx context.Context, payload dto.AssignmentCreateRequest, file *multipart.FileHeader) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	dueDate, err := time.Parse(time.RFC3339, payload.DueDate)
	if err != nil {
		return dto.AssignmentResponse{}, fmt.Errorf("invalid due date: %w", err)
	}

	if !dueDate.After(s.now()) {
		return dto.AssignmentResponse{}, fmt.Errorf("due date must be in the future")
	}

	questions, err := buildQuestions(payload.Questions)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment := models.Assignment{
		Title:       payload.Title,
		Description: payload.Description,
		DueDate:     dueDate,
		Questions:   questions,
	}
	assignment.MaxMarks = assignment.SumQuestionMarks()

	if file != nil {
		url, err := s.uploadFile(ctx, file)
		if err != nil {
			return dto.AssignmentResponse{}, err
		}
		assignment.FileURL = url
	}

	if err := s.repo.Create(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Int("questions", len(questions)).Msg("assignment created")

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Update(ctx context.Context, id uint, payload dto.AssignmentUpdateRequest, file *multipart.FileHeader) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}

		return dto.AssignmentResponse{}, err
	}

	if payload.Title != nil {
		assignment.Title = *payload.Title
	}

	if payload.Description != nil {
		assignment.Description = *payload.Description
	}

	if payload.DueDate != nil {
		dueDate, err := time.Parse(time.RFC3339, *payload.DueDate)
		if err != nil {
			return dto.AssignmentResponse{}, fmt.Errorf("invalid due date: %w", err)
		}

		if !dueDate.After(s.now()) {
			return dto.AssignmentResponse{}, fmt.Errorf("due date must be in the future")
		}

		assignment.DueDate = dueDate
	}

	if file != nil {
		url, err := s.uploadFile(ctx, file)
		if err != nil {
			return dto.AssignmentResponse{}, err
		}
		assignment.FileURL = url
	}

	if err := s.repo.Update(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Msg("assignment updated")

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}

	s.logger.Info().Uint("assignment_id", id).Msg("assignment deleted")
	return nil
}

// ImportQuestionBank creates an assignment from an exported question bank
// document. The document is validated against a JSON schema first, then the
// questions run through the same content checks as the create path.
func (s *assignmentService) ImportQuestionBank(ctx context.Context, raw []byte) (dto.AssignmentResponse, error) {
	var document interface{}
	if err := json.Unmarshal(raw, &document); err != nil {
		return dto.AssignmentResponse{}, fmt.Errorf("%w: %v", ErrInvalidQuestionBank, err)
	}

	if err := s.bankSchema.Validate(document); err != nil {
		return dto.AssignmentResponse{}, fmt.Errorf("%w: %v", ErrInvalidQuestionBank, err)
	}

	var payload dto.AssignmentCreateRequest
	if err := json.Unmarshal(raw, &payload); err != nil {
		return dto.AssignmentResponse{}, fmt.Errorf("%w: %v", ErrInvalidQuestionBank, err)
	}

	response, err := s.Create(ctx, payload, nil)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", response.ID).Msg("question bank imported")
	return response, nil
}

func (s *assignmentService) uploadFile(ctx context.Context, file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer src.Close()

	url, err := s.uploader.Upload(ctx, file.Filename, src)
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	return url, nil
}

// buildQuestions converts the request questions into models, enforcing the
// multiple-choice content rules the struct tags cannot express.
func buildQuestions(requests []dto.QuestionCreateRequest) ([]models.Question, error) {
	questions := make([]models.Question, 0, len(requests))
	for idx, request := range requests {
		question := models.Question{
			Position: idx + 1,
			Type:     request.Type,
			Text:     strings.TrimSpace(request.Text),
			MaxMarks: request.MaxMarks,
		}

		if request.Type == models.QuestionTypeMultipleChoice {
			if len(request.Options) < 2 {
				return nil, fmt.Errorf("question %d: multiple choice needs at least two options", idx+1)
			}
			if strings.TrimSpace(request.AnswerKey) == "" {
				return nil, fmt.Errorf("question %d: multiple choice needs an answer key", idx+1)
			}
			if !containsFold(request.Options, request.AnswerKey) {
				return nil, fmt.Errorf("question %d: answer key must be one of the options", idx+1)
			}

			blob, err := json.Marshal(request.Options)
			if err != nil {
				return nil, err
			}
			question.Options = datatypes.JSON(blob)
			question.AnswerKey = strings.TrimSpace(request.AnswerKey)
		} else if len(request.Options) > 0 || strings.TrimSpace(request.AnswerKey) != "" {
			return nil, fmt.Errorf("question %d: options and answer key are only valid for multiple choice", idx+1)
		}

		questions = append(questions, question)
	}

	return questions, nil
}

func containsFold(haystack []string, needle string) bool {
	target := strings.TrimSpace(needle)
	for _, candidate := range haystack {
		if strings.EqualFold(strings.TrimSpace(candidate), target) {
			return true
		}
	}
	return false
}
