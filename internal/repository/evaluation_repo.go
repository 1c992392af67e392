package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/satyadur/nexora-api/internal/evaluation"
	"github.com/satyadur/nexora-api/internal/models"
)

// EvaluationRepository adapts the submission tables to the evaluation
// engine's persistence contract. WithGrader binds the acting teacher so a
// finalized evaluation records who graded it.
type EvaluationRepository interface {
	evaluation.Repository
	WithGrader(actorID uint) EvaluationRepository
}

type evaluationRepository struct {
	db       *gorm.DB
	graderID uint
}

// NewEvaluationRepository builds the GORM-backed adapter.
func NewEvaluationRepository(db *gorm.DB) EvaluationRepository {
	return &evaluationRepository{db: db}
}

func (r *evaluationRepository) WithGrader(actorID uint) EvaluationRepository {
	bound := *r
	bound.graderID = actorID
	return &bound
}

// FetchSubmission loads a submission and builds the engine snapshot.
// Multiple-choice verdicts still pending are resolved here against the
// answer key; already settled verdicts are returned as stored, not silently
// rewritten.
func (r *evaluationRepository) FetchSubmission(ctx context.Context, id uint) (evaluation.Snapshot, error) {
	var submission models.Submission
	err := r.db.WithContext(ctx).
		Preload("Assignment").
		Preload("Student").
		Preload("Answers").
		Preload("Answers.Question").
		First(&submission, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return evaluation.Snapshot{}, evaluation.ErrSubmissionNotFound
		}
		return evaluation.Snapshot{}, err
	}

	answers := make([]evaluation.AnswerState, 0, len(submission.Answers))
	for _, answer := range submission.Answers {
		state := evaluation.AnswerState{
			Question: evaluation.QuestionRef{
				ID:       answer.QuestionID,
				Type:     evaluation.QuestionType(answer.Question.Type),
				Text:     answer.Question.Text,
				MaxMarks: answer.Question.MaxMarks,
				Options:  decodeOptions(answer.Question.Options),
			},
			StudentAnswer:  answer.StudentAnswer,
			AttachmentURL:  answer.AttachmentURL,
			AwardedMarks:   answer.AwardedMarks,
			Verdict:        evaluation.Verdict(answer.Verdict),
			TeacherComment: answer.TeacherComment,
		}

		if answer.Question.IsMultipleChoice() && state.Verdict == evaluation.VerdictPending {
			if strings.EqualFold(strings.TrimSpace(answer.StudentAnswer), strings.TrimSpace(answer.Question.AnswerKey)) {
				state.Verdict = evaluation.VerdictCorrect
				state.AwardedMarks = answer.Question.MaxMarks
			} else {
				state.Verdict = evaluation.VerdictIncorrect
				state.AwardedMarks = 0
			}
		}

		answers = append(answers, state)
	}

	sort.SliceStable(answers, func(i, j int) bool {
		return questionPosition(submission, answers[i].Question.ID) < questionPosition(submission, answers[j].Question.ID)
	})

	maxMarks := submission.Assignment.MaxMarks
	if maxMarks <= 0 {
		for _, answer := range answers {
			maxMarks += answer.Question.MaxMarks
		}
	}

	return evaluation.Snapshot{
		SubmissionID:       submission.ID,
		AssignmentID:       submission.AssignmentID,
		AssignmentTitle:    submission.Assignment.Title,
		AssignmentMaxMarks: maxMarks,
		Student: evaluation.StudentInfo{
			ID:    submission.Student.ID,
			Name:  submission.Student.Name,
			Email: submission.Student.Email,
			Class: submission.Student.Class,
		},
		PriorFeedback: submission.OverallFeedback,
		Finalized:     submission.IsEvaluated(),
		Answers:       answers,
	}, nil
}

// PersistEvaluation writes the record transactionally after re-checking the
// engine's invariants server-side. Finalizing an already evaluated
// submission is rejected.
func (r *evaluationRepository) PersistEvaluation(ctx context.Context, id uint, record evaluation.Record) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var submission models.Submission
		if err := tx.Preload("Answers").Preload("Answers.Question").First(&submission, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return evaluation.ErrSubmissionNotFound
			}
			return err
		}

		if submission.IsEvaluated() {
			return fmt.Errorf("%w: submission already evaluated", evaluation.ErrValidationRejected)
		}

		byQuestion := make(map[uint]models.Answer, len(submission.Answers))
		for _, answer := range submission.Answers {
			byQuestion[answer.QuestionID] = answer
		}

		for _, entry := range record.Answers {
			answer, ok := byQuestion[entry.QuestionID]
			if !ok {
				return fmt.Errorf("%w: unknown question %d", evaluation.ErrValidationRejected, entry.QuestionID)
			}
			if !entry.Verdict.Valid() || entry.Verdict == evaluation.VerdictPending {
				return fmt.Errorf("%w: question %d not reviewed", evaluation.ErrValidationRejected, entry.QuestionID)
			}
			if err := evaluation.ValidateMarks(entry.AwardedMarks, answer.Question.MaxMarks); err != nil {
				return fmt.Errorf("%w: question %d marks out of range", evaluation.ErrValidationRejected, entry.QuestionID)
			}

			updates := map[string]interface{}{
				"awarded_marks":   entry.AwardedMarks,
				"verdict":         string(entry.Verdict),
				"teacher_comment": entry.TeacherComment,
			}
			if err := tx.Model(&models.Answer{}).Where("id = ?", answer.ID).Updates(updates).Error; err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		updates := map[string]interface{}{
			"status":           models.SubmissionStatusEvaluated,
			"overall_feedback": record.Feedback,
			"evaluated_at":     now,
		}
		if r.graderID != 0 {
			updates["evaluated_by"] = r.graderID
		}

		return tx.Model(&models.Submission{}).Where("id = ?", submission.ID).Updates(updates).Error
	})
}

func decodeOptions(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	var options []string
	if err := json.Unmarshal(raw, &options); err != nil {
		return nil
	}
	return options
}

func questionPosition(submission models.Submission, questionID uint) int {
	for _, answer := range submission.Answers {
		if answer.QuestionID == questionID {
			return answer.Question.Position
		}
	}
	return int(questionID)
}
