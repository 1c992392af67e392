package service

import (
	"context"
	"errors"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/satyadur/nexora-api/internal/dto"
	"github.com/satyadur/nexora-api/internal/evaluation"
	"github.com/satyadur/nexora-api/internal/observability"
	"github.com/satyadur/nexora-api/internal/repository"
)

// ErrEvaluationSessionNotFound means no open session exists for the
// submission; the caller must open one first.
var ErrEvaluationSessionNotFound = errors.New("evaluation session not found")

const evaluationTracerName = "github.com/satyadur/nexora-api/internal/service/evaluation"

// EvaluationService manages the grading sessions teachers work in. One
// session exists per submission at a time; the engine underneath is
// single-threaded, so the service serializes all access per session.
type EvaluationService interface {
	Open(ctx context.Context, submissionID uint, actor ActivityActor) (dto.EvaluationSessionResponse, error)
	Get(ctx context.Context, submissionID uint) (dto.EvaluationSessionResponse, error)
	SetMarks(ctx context.Context, submissionID, questionID uint, payload dto.EvaluationMarksRequest) (dto.EvaluationSessionResponse, error)
	SetVerdict(ctx context.Context, submissionID, questionID uint, payload dto.EvaluationVerdictRequest) (dto.EvaluationSessionResponse, error)
	SetComment(ctx context.Context, submissionID, questionID uint, payload dto.EvaluationCommentRequest) (dto.EvaluationSessionResponse, error)
	SetFeedback(ctx context.Context, submissionID uint, payload dto.EvaluationFeedbackRequest) (dto.EvaluationSessionResponse, error)
	SaveDraft(ctx context.Context, submissionID uint) error
	RestoreDraft(ctx context.Context, submissionID uint) (dto.EvaluationSessionResponse, error)
	DiscardDraft(ctx context.Context, submissionID uint) error
	Submit(ctx context.Context, submissionID uint, actor ActivityActor) (dto.EvaluationSessionResponse, error)
	Close(ctx context.Context, submissionID uint)
}

type sessionEntry struct {
	mu      sync.Mutex
	session *evaluation.Session
}

type evaluationService struct {
	repo      repository.EvaluationRepository
	drafts    evaluation.DraftStore
	activity  ActivityRecorder
	publisher EventPublisher
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger

	mu       sync.Mutex
	sessions map[uint]*sessionEntry
}

// NewEvaluationService constructs the session manager.
func NewEvaluationService(repo repository.EvaluationRepository, drafts evaluation.DraftStore, activity ActivityRecorder, publisher EventPublisher, logger zerolog.Logger) EvaluationService {
	return &evaluationService{
		repo:      repo,
		drafts:    drafts,
		activity:  activity,
		publisher: publisher,
		sanitizer: bluemonday.UGCPolicy(),
		logger:    logger.With().Str("component", "evaluation_service").Logger(),
		sessions:  make(map[uint]*sessionEntry),
	}
}

// Open loads a submission into a fresh session bound to the acting grader.
// Reopening an already open submission returns the existing session so two
// browser tabs see the same state.
func (s *evaluationService) Open(ctx context.Context, submissionID uint, actor ActivityActor) (dto.EvaluationSessionResponse, error) {
	tracer := otel.Tracer(evaluationTracerName)
	ctx, span := tracer.Start(ctx, "evaluation.open")
	span.SetAttributes(
		attribute.Int64("evaluation.submission_id", int64(submissionID)),
		attribute.Int64("evaluation.actor_id", int64(actor.ID)),
	)
	defer span.End()

	s.mu.Lock()
	entry, exists := s.sessions[submissionID]
	if !exists {
		entry = &sessionEntry{
			session: evaluation.NewSession(submissionID, s.repo.WithGrader(actor.ID), s.drafts),
		}
		s.sessions[submissionID] = entry
		observability.EvaluationSessionsOpen().Inc()
	}
	s.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if err := entry.session.Load(ctx); err != nil && !errors.Is(err, evaluation.ErrSessionLoaded) {
		// Drop the failed entry so the next open retries the fetch.
		s.mu.Lock()
		if s.sessions[submissionID] == entry {
			delete(s.sessions, submissionID)
			observability.EvaluationSessionsOpen().Dec()
		}
		s.mu.Unlock()

		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_load_failed")
		return dto.EvaluationSessionResponse{}, err
	}

	return dto.NewEvaluationSessionResponse(entry.session), nil
}

// Get returns the current state of an open session.
func (s *evaluationService) Get(ctx context.Context, submissionID uint) (dto.EvaluationSessionResponse, error) {
	entry, err := s.entry(submissionID)
	if err != nil {
		return dto.EvaluationSessionResponse{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return dto.NewEvaluationSessionResponse(entry.session), nil
}

// SetMarks updates one answer's awarded marks.
func (s *evaluationService) SetMarks(ctx context.Context, submissionID, questionID uint, payload dto.EvaluationMarksRequest) (dto.EvaluationSessionResponse, error) {
	return s.mutate(ctx, submissionID, "evaluation.set_marks", func(session *evaluation.Session) error {
		return session.SetAwardedMarks(questionID, payload.AwardedMarks)
	})
}

// SetVerdict records a correctness judgment for one answer.
func (s *evaluationService) SetVerdict(ctx context.Context, submissionID, questionID uint, payload dto.EvaluationVerdictRequest) (dto.EvaluationSessionResponse, error) {
	verdict, err := evaluation.ParseVerdict(payload.Verdict)
	if err != nil {
		return dto.EvaluationSessionResponse{}, err
	}

	return s.mutate(ctx, submissionID, "evaluation.set_verdict", func(session *evaluation.Session) error {
		return session.SetVerdict(questionID, verdict)
	})
}

// SetComment updates one answer's teacher comment. The text is sanitized
// before it reaches the session; it is rendered back to students later.
func (s *evaluationService) SetComment(ctx context.Context, submissionID, questionID uint, payload dto.EvaluationCommentRequest) (dto.EvaluationSessionResponse, error) {
	clean := s.sanitizer.Sanitize(payload.Comment)
	return s.mutate(ctx, submissionID, "evaluation.set_comment", func(session *evaluation.Session) error {
		return session.SetComment(questionID, clean)
	})
}

// SetFeedback updates the submission-level feedback, sanitized like comments.
func (s *evaluationService) SetFeedback(ctx context.Context, submissionID uint, payload dto.EvaluationFeedbackRequest) (dto.EvaluationSessionResponse, error) {
	clean := s.sanitizer.Sanitize(payload.Feedback)
	return s.mutate(ctx, submissionID, "evaluation.set_feedback", func(session *evaluation.Session) error {
		return session.SetOverallFeedback(clean)
	})
}

// SaveDraft snapshots the in-progress session to the draft store.
func (s *evaluationService) SaveDraft(ctx context.Context, submissionID uint) error {
	entry, err := s.entry(submissionID)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if err := entry.session.SaveDraft(ctx); err != nil {
		return err
	}

	observability.EvaluationDraftsSaved().Inc()
	s.logger.Debug().Uint("submission_id", submissionID).Msg("evaluation draft saved")
	return nil
}

// RestoreDraft overwrites the session's working state with the stored draft.
// The handler confirms the overwrite with the user first.
func (s *evaluationService) RestoreDraft(ctx context.Context, submissionID uint) (dto.EvaluationSessionResponse, error) {
	return s.mutateCtx(ctx, submissionID, "evaluation.restore_draft", func(ctx context.Context, session *evaluation.Session) error {
		return session.LoadDraft(ctx)
	})
}

// DiscardDraft removes any stored draft for the submission.
func (s *evaluationService) DiscardDraft(ctx context.Context, submissionID uint) error {
	entry, err := s.entry(submissionID)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.session.DiscardDraft(ctx)
}

// Submit finalizes the evaluation: persists it, clears the draft, records
// the activity and broadcasts the finalize event.
func (s *evaluationService) Submit(ctx context.Context, submissionID uint, actor ActivityActor) (dto.EvaluationSessionResponse, error) {
	tracer := otel.Tracer(evaluationTracerName)
	ctx, span := tracer.Start(ctx, "evaluation.submit")
	span.SetAttributes(
		attribute.Int64("evaluation.submission_id", int64(submissionID)),
		attribute.Int64("evaluation.actor_id", int64(actor.ID)),
	)
	defer span.End()

	entry, err := s.entry(submissionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session_not_found")
		return dto.EvaluationSessionResponse{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if err := entry.session.Submit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submit_failed")
		return dto.EvaluationSessionResponse{}, err
	}

	observability.EvaluationsFinalized().Inc()

	// The evaluation is durable from here; cleanup failures are logged only.
	if err := entry.session.DiscardDraft(ctx); err != nil && !errors.Is(err, evaluation.ErrDraftNotFound) {
		s.logger.Warn().Err(err).Uint("submission_id", submissionID).Msg("failed to discard evaluation draft after submit")
	}

	stats := entry.session.Stats()
	if s.activity != nil {
		submission := submissionID
		if _, err := s.activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     "evaluation.finalized",
			EntityType: "submission",
			EntityID:   &submission,
			Metadata: map[string]interface{}{
				"assignment_id":  entry.session.AssignmentID(),
				"total_awarded":  stats.TotalAwarded,
				"total_possible": stats.TotalPossible,
				"percentage":     stats.Percentage,
			},
		}); err != nil {
			s.logger.Warn().Err(err).Uint("submission_id", submissionID).Msg("failed to record evaluation activity")
		}
	}

	if s.publisher != nil {
		event := EvaluationFinalizedEvent{
			SubmissionID:  submissionID,
			AssignmentID:  entry.session.AssignmentID(),
			StudentID:     entry.session.Student().ID,
			EvaluatedBy:   actor.ID,
			TotalAwarded:  stats.TotalAwarded,
			TotalPossible: stats.TotalPossible,
			Percentage:    stats.Percentage,
		}
		if err := s.publisher.PublishEvaluationFinalized(ctx, event); err != nil {
			s.logger.Warn().Err(err).Uint("submission_id", submissionID).Msg("failed to publish evaluation finalized event")
		}
	}

	s.logger.Info().
		Uint("submission_id", submissionID).
		Uint("actor_id", actor.ID).
		Float64("total_awarded", stats.TotalAwarded).
		Float64("percentage", stats.Percentage).
		Msg("evaluation finalized")

	return dto.NewEvaluationSessionResponse(entry.session), nil
}

// Close drops the in-memory session. Unsaved edits are lost; drafts persist.
func (s *evaluationService) Close(ctx context.Context, submissionID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[submissionID]; exists {
		delete(s.sessions, submissionID)
		observability.EvaluationSessionsOpen().Dec()
	}
}

func (s *evaluationService) entry(submissionID uint) (*sessionEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.sessions[submissionID]
	if !exists {
		return nil, ErrEvaluationSessionNotFound
	}
	return entry, nil
}

func (s *evaluationService) mutate(ctx context.Context, submissionID uint, spanName string, apply func(*evaluation.Session) error) (dto.EvaluationSessionResponse, error) {
	return s.mutateCtx(ctx, submissionID, spanName, func(_ context.Context, session *evaluation.Session) error {
		return apply(session)
	})
}

func (s *evaluationService) mutateCtx(ctx context.Context, submissionID uint, spanName string, apply func(context.Context, *evaluation.Session) error) (dto.EvaluationSessionResponse, error) {
	tracer := otel.Tracer(evaluationTracerName)
	ctx, span := tracer.Start(ctx, spanName)
	span.SetAttributes(attribute.Int64("evaluation.submission_id", int64(submissionID)))
	defer span.End()

	entry, err := s.entry(submissionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session_not_found")
		return dto.EvaluationSessionResponse{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if err := apply(ctx, entry.session); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "mutation_rejected")
		return dto.EvaluationSessionResponse{}, err
	}

	return dto.NewEvaluationSessionResponse(entry.session), nil
}
