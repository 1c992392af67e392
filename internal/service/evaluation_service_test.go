package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/satyadur/nexora-api/internal/dto"
	"github.com/satyadur/nexora-api/internal/evaluation"
	"github.com/satyadur/nexora-api/internal/models"
	"github.com/satyadur/nexora-api/internal/repository"
)

type fakeEvaluationRepo struct {
	snapshot   evaluation.Snapshot
	fetchErr   error
	persistErr error
	persisted  *evaluation.Record
	graderID   uint
}

func (f *fakeEvaluationRepo) WithGrader(actorID uint) repository.EvaluationRepository {
	f.graderID = actorID
	return f
}

func (f *fakeEvaluationRepo) FetchSubmission(_ context.Context, id uint) (evaluation.Snapshot, error) {
	if f.fetchErr != nil {
		return evaluation.Snapshot{}, f.fetchErr
	}
	if id != f.snapshot.SubmissionID {
		return evaluation.Snapshot{}, evaluation.ErrSubmissionNotFound
	}
	return f.snapshot, nil
}

func (f *fakeEvaluationRepo) PersistEvaluation(_ context.Context, _ uint, record evaluation.Record) error {
	if f.persistErr != nil {
		return f.persistErr
	}
	f.persisted = &record
	return nil
}

type serviceDraftStore struct {
	data map[string][]byte
}

func newServiceDraftStore() *serviceDraftStore {
	return &serviceDraftStore{data: make(map[string][]byte)}
}

func (m *serviceDraftStore) Save(_ context.Context, key string, blob []byte) error {
	m.data[key] = append([]byte(nil), blob...)
	return nil
}

func (m *serviceDraftStore) Load(_ context.Context, key string) ([]byte, error) {
	blob, ok := m.data[key]
	if !ok {
		return nil, evaluation.ErrDraftNotFound
	}
	return blob, nil
}

func (m *serviceDraftStore) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

type capturePublisher struct {
	events []EvaluationFinalizedEvent
}

func (c *capturePublisher) PublishEvaluationFinalized(_ context.Context, event EvaluationFinalizedEvent) error {
	c.events = append(c.events, event)
	return nil
}

type stubRecorder struct {
	entries []ActivityEntry
}

func (s *stubRecorder) Record(_ context.Context, entry ActivityEntry) (models.ActivityLog, error) {
	s.entries = append(s.entries, entry)
	return models.ActivityLog{}, nil
}

func gradingSnapshot() evaluation.Snapshot {
	return evaluation.Snapshot{
		SubmissionID:       7,
		AssignmentID:       3,
		AssignmentTitle:    "Chemistry Quiz",
		AssignmentMaxMarks: 15,
		Student:            evaluation.StudentInfo{ID: 21, Name: "Mira Patel", Email: "mira@example.com", Class: "10B"},
		Answers: []evaluation.AnswerState{
			{
				Question: evaluation.QuestionRef{
					ID:       1,
					Type:     evaluation.QuestionMultipleChoice,
					Text:     "Symbol for sodium?",
					MaxMarks: 5,
					Options:  []string{"Na", "So", "Sn"},
				},
				StudentAnswer: "Na",
				AwardedMarks:  5,
				Verdict:       evaluation.VerdictCorrect,
			},
			{
				Question: evaluation.QuestionRef{
					ID:       2,
					Type:     evaluation.QuestionFreeText,
					Text:     "Explain covalent bonding.",
					MaxMarks: 10,
				},
				StudentAnswer: "Atoms share electron pairs.",
				Verdict:       evaluation.VerdictPending,
			},
		},
	}
}

func newEvaluationFixture() (*evaluationService, *fakeEvaluationRepo, *serviceDraftStore, *capturePublisher, *stubRecorder) {
	repo := &fakeEvaluationRepo{snapshot: gradingSnapshot()}
	drafts := newServiceDraftStore()
	publisher := &capturePublisher{}
	recorder := &stubRecorder{}
	svc := NewEvaluationService(repo, drafts, recorder, publisher, testLogger()).(*evaluationService)
	return svc, repo, drafts, publisher, recorder
}

func TestEvaluationServiceOpenAndSubmit(t *testing.T) {
	svc, repo, _, publisher, recorder := newEvaluationFixture()
	ctx := context.Background()
	actor := ActivityActor{ID: 42, Role: "teacher"}

	opened, err := svc.Open(ctx, 7, actor)
	require.NoError(t, err)
	require.Equal(t, uint(42), repo.graderID)
	require.False(t, opened.SubmitReady)

	_, err = svc.SetVerdict(ctx, 7, 2, dto.EvaluationVerdictRequest{Verdict: "correct"})
	require.NoError(t, err)

	_, err = svc.SetFeedback(ctx, 7, dto.EvaluationFeedbackRequest{Feedback: "Solid work."})
	require.NoError(t, err)

	final, err := svc.Submit(ctx, 7, actor)
	require.NoError(t, err)
	require.True(t, final.Finalized)
	require.InDelta(t, 15.0, final.Stats.TotalAwarded, 1e-9)

	require.NotNil(t, repo.persisted)
	require.Equal(t, "Solid work.", repo.persisted.Feedback)

	require.Len(t, publisher.events, 1)
	require.Equal(t, uint(7), publisher.events[0].SubmissionID)
	require.Equal(t, uint(42), publisher.events[0].EvaluatedBy)
	require.InDelta(t, 100.0, publisher.events[0].Percentage, 1e-9)

	require.Len(t, recorder.entries, 1)
	require.Equal(t, "evaluation.finalized", recorder.entries[0].Action)
}

func TestEvaluationServiceMutateWithoutOpen(t *testing.T) {
	svc, _, _, _, _ := newEvaluationFixture()

	_, err := svc.SetMarks(context.Background(), 7, 2, dto.EvaluationMarksRequest{AwardedMarks: 4})
	require.ErrorIs(t, err, ErrEvaluationSessionNotFound)
}

func TestEvaluationServiceOpenRetriesAfterLoadFailure(t *testing.T) {
	svc, repo, _, _, _ := newEvaluationFixture()
	ctx := context.Background()
	actor := ActivityActor{ID: 42, Role: "teacher"}

	repo.fetchErr = errors.New("connection refused")
	_, err := svc.Open(ctx, 7, actor)
	require.Error(t, err)

	// The failed entry is dropped, so a later open retries the fetch.
	repo.fetchErr = nil
	opened, err := svc.Open(ctx, 7, actor)
	require.NoError(t, err)
	require.Equal(t, uint(7), opened.SubmissionID)
}

func TestEvaluationServiceSubmitNotReady(t *testing.T) {
	svc, repo, _, _, _ := newEvaluationFixture()
	ctx := context.Background()
	actor := ActivityActor{ID: 42, Role: "teacher"}

	_, err := svc.Open(ctx, 7, actor)
	require.NoError(t, err)

	_, err = svc.Submit(ctx, 7, actor)
	var notReady *evaluation.NotReadyError
	require.ErrorAs(t, err, &notReady)
	require.Equal(t, 1, notReady.Pending)
	require.Nil(t, repo.persisted)
}

func TestEvaluationServiceDraftSurvivesClose(t *testing.T) {
	svc, _, _, _, _ := newEvaluationFixture()
	ctx := context.Background()
	actor := ActivityActor{ID: 42, Role: "teacher"}

	_, err := svc.Open(ctx, 7, actor)
	require.NoError(t, err)

	_, err = svc.SetMarks(ctx, 7, 2, dto.EvaluationMarksRequest{AwardedMarks: 8})
	require.NoError(t, err)
	require.NoError(t, svc.SaveDraft(ctx, 7))

	svc.Close(ctx, 7)

	reopened, err := svc.Open(ctx, 7, actor)
	require.NoError(t, err)
	require.InDelta(t, 0.0, answerMarks(t, reopened, 2), 1e-9)

	restored, err := svc.RestoreDraft(ctx, 7)
	require.NoError(t, err)
	require.InDelta(t, 8.0, answerMarks(t, restored, 2), 1e-9)
}

func TestEvaluationServiceSanitizesComments(t *testing.T) {
	svc, _, _, _, _ := newEvaluationFixture()
	ctx := context.Background()
	actor := ActivityActor{ID: 42, Role: "teacher"}

	_, err := svc.Open(ctx, 7, actor)
	require.NoError(t, err)

	response, err := svc.SetComment(ctx, 7, 2, dto.EvaluationCommentRequest{
		Comment: `<script>alert(1)</script>Good reasoning.`,
	})
	require.NoError(t, err)

	comment := answerComment(t, response, 2)
	require.NotContains(t, comment, "<script>")
	require.Contains(t, comment, "Good reasoning.")
}

func answerMarks(t *testing.T, response dto.EvaluationSessionResponse, questionID uint) float64 {
	t.Helper()
	for _, answer := range response.Answers {
		if answer.QuestionID == questionID {
			return answer.AwardedMarks
		}
	}
	t.Fatalf("question %d not in response", questionID)
	return 0
}

func answerComment(t *testing.T, response dto.EvaluationSessionResponse, questionID uint) string {
	t.Helper()
	for _, answer := range response.Answers {
		if answer.QuestionID == questionID {
			return answer.TeacherComment
		}
	}
	t.Fatalf("question %d not in response", questionID)
	return ""
}
