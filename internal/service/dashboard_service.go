package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/satyadur/nexora-api/internal/dto"
	"github.com/satyadur/nexora-api/internal/evaluation"
	"github.com/satyadur/nexora-api/internal/models"
	"github.com/satyadur/nexora-api/internal/repository"
)

const teacherDashboardCacheKey = "dashboard:teacher:grading"

// TeacherDashboardService aggregates grading workload across assignments.
type TeacherDashboardService interface {
	GetDashboard(ctx context.Context) (dto.TeacherDashboardResponse, error)
	Invalidate(ctx context.Context)
}

type teacherDashboardService struct {
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
	now         func() time.Time
}

// NewTeacherDashboardService builds the dashboard aggregator.
func NewTeacherDashboardService(assignments repository.AssignmentRepository, submissions repository.SubmissionRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) TeacherDashboardService {
	return &teacherDashboardService{
		assignments: assignments,
		submissions: submissions,
		cache:       cache,
		cacheTTL:    ttl,
		logger:      logger.With().Str("component", "teacher_dashboard_service").Logger(),
		now:         time.Now,
	}
}

func (s *teacherDashboardService) GetDashboard(ctx context.Context) (dto.TeacherDashboardResponse, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, teacherDashboardCacheKey).Result(); err == nil {
			var response dto.TeacherDashboardResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				response.CacheHit = true
				s.logger.Debug().Msg("teacher dashboard cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read dashboard cache")
		}
	}

	assignments, err := s.assignments.List(ctx)
	if err != nil {
		return dto.TeacherDashboardResponse{}, err
	}

	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{})
	if err != nil {
		return dto.TeacherDashboardResponse{}, err
	}

	response := s.buildResponse(assignments, submissions)

	if s.cache != nil {
		payload, err := json.Marshal(response)
		if err == nil {
			if err := s.cache.Set(ctx, teacherDashboardCacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store dashboard cache")
			}
		}
	}

	return response, nil
}

// Invalidate drops the cached dashboard, typically after an evaluation is
// finalized so progress numbers stay fresh.
func (s *teacherDashboardService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, teacherDashboardCacheKey).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate dashboard cache")
	}
}

func (s *teacherDashboardService) buildResponse(assignments []models.Assignment, submissions []models.Submission) dto.TeacherDashboardResponse {
	byAssignment := make(map[uint][]models.Submission)
	for _, submission := range submissions {
		byAssignment[submission.AssignmentID] = append(byAssignment[submission.AssignmentID], submission)
	}

	response := dto.TeacherDashboardResponse{
		Assignments: make([]dto.GradingProgress, 0, len(assignments)),
		GeneratedAt: s.now().UTC(),
	}

	var percentageTotal float64
	var percentageCount int

	for _, assignment := range assignments {
		progress := dto.GradingProgress{
			AssignmentID: assignment.ID,
			Title:        assignment.Title,
			DueDate:      assignment.DueDate,
		}

		var assignmentPercentage float64
		var evaluated int

		for _, submission := range byAssignment[assignment.ID] {
			progress.Submissions++
			if !submission.IsEvaluated() {
				progress.AwaitingReview++
				continue
			}

			evaluated++
			stats := submissionStats(submission)
			assignmentPercentage += stats.Percentage
			percentageTotal += stats.Percentage
			percentageCount++
		}

		progress.Evaluated = evaluated
		if evaluated > 0 {
			progress.AveragePercentage = assignmentPercentage / float64(evaluated)
		}

		response.TotalSubmissions += progress.Submissions
		response.TotalEvaluated += progress.Evaluated
		response.TotalAwaiting += progress.AwaitingReview
		response.Assignments = append(response.Assignments, progress)
	}

	if percentageCount > 0 {
		response.AveragePercentage = percentageTotal / float64(percentageCount)
	}

	return response
}

// submissionStats aggregates a stored submission with the same rules the
// grading engine applies to live sessions.
func submissionStats(submission models.Submission) evaluation.Stats {
	states := make([]evaluation.AnswerState, 0, len(submission.Answers))
	for _, answer := range submission.Answers {
		states = append(states, evaluation.AnswerState{
			Question: evaluation.QuestionRef{
				ID:       answer.QuestionID,
				Type:     evaluation.QuestionType(answer.Question.Type),
				MaxMarks: answer.Question.MaxMarks,
			},
			AwardedMarks: answer.AwardedMarks,
			Verdict:      evaluation.Verdict(answer.Verdict),
		})
	}

	return evaluation.Aggregate(states)
}
