package evaluation

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	snapshot     Snapshot
	fetchErr     error
	persistErr   error
	fetchCalls   int
	persistCalls int
	persisted    Record
}

func (f *fakeRepo) FetchSubmission(ctx context.Context, id uint) (Snapshot, error) {
	f.fetchCalls++
	if f.fetchErr != nil {
		return Snapshot{}, f.fetchErr
	}
	return f.snapshot, nil
}

func (f *fakeRepo) PersistEvaluation(ctx context.Context, id uint, record Record) error {
	f.persistCalls++
	if f.persistErr != nil {
		return f.persistErr
	}
	f.persisted = record
	return nil
}

type memoryDraftStore struct {
	blobs map[string][]byte
}

func newMemoryDraftStore() *memoryDraftStore {
	return &memoryDraftStore{blobs: map[string][]byte{}}
}

func (m *memoryDraftStore) Save(ctx context.Context, key string, blob []byte) error {
	stored := make([]byte, len(blob))
	copy(stored, blob)
	m.blobs[key] = stored
	return nil
}

func (m *memoryDraftStore) Load(ctx context.Context, key string) ([]byte, error) {
	blob, ok := m.blobs[key]
	if !ok {
		return nil, ErrDraftNotFound
	}
	return blob, nil
}

func (m *memoryDraftStore) Delete(ctx context.Context, key string) error {
	delete(m.blobs, key)
	return nil
}

func twoQuestionSnapshot() Snapshot {
	return Snapshot{
		SubmissionID:       7,
		AssignmentID:       3,
		AssignmentTitle:    "Midterm",
		AssignmentMaxMarks: 15,
		Student:            StudentInfo{ID: 11, Name: "Amina", Email: "amina@example.com"},
		Answers: []AnswerState{
			{
				Question:      QuestionRef{ID: 1, Type: QuestionMultipleChoice, MaxMarks: 5, Options: []string{"A", "B", "C"}},
				StudentAnswer: "B",
				AwardedMarks:  5,
				Verdict:       VerdictCorrect,
			},
			{
				Question:      QuestionRef{ID: 2, Type: QuestionFreeText, MaxMarks: 10},
				StudentAnswer: "Photosynthesis converts light into chemical energy.",
				AwardedMarks:  0,
				Verdict:       VerdictPending,
			},
		},
	}
}

func loadedSession(t *testing.T, repo *fakeRepo) *Session {
	t.Helper()
	session := NewSession(repo.snapshot.SubmissionID, repo, newMemoryDraftStore())
	require.NoError(t, session.Load(context.Background()))
	return session
}

func TestSessionFullFlow(t *testing.T) {
	repo := &fakeRepo{snapshot: twoQuestionSnapshot()}
	session := loadedSession(t, repo)

	require.Equal(t, StatusReady, session.Status())
	require.False(t, session.IsSubmitReady())

	require.NoError(t, session.SetVerdict(2, VerdictCorrect))
	answer, ok := session.Answer(2)
	require.True(t, ok)
	require.Equal(t, 10.0, answer.AwardedMarks)

	require.True(t, session.IsSubmitReady())

	stats := session.Stats()
	require.Equal(t, 15.0, stats.TotalAwarded)
	require.Equal(t, 15.0, stats.TotalPossible)
	require.Equal(t, 100.0, stats.Percentage)
	require.Equal(t, 2, stats.Evaluated)
	require.Equal(t, 0, stats.Pending)
}

func TestSessionOverMaxRejected(t *testing.T) {
	repo := &fakeRepo{snapshot: twoQuestionSnapshot()}
	session := loadedSession(t, repo)

	readyBefore := session.IsSubmitReady()

	err := session.SetAwardedMarks(1, 7)
	require.ErrorIs(t, err, ErrOutOfRange)

	answer, _ := session.Answer(1)
	require.Equal(t, 5.0, answer.AwardedMarks)
	require.Equal(t, readyBefore, session.IsSubmitReady())
}

func TestSessionVerdictRejectedForMultipleChoice(t *testing.T) {
	repo := &fakeRepo{snapshot: twoQuestionSnapshot()}
	session := loadedSession(t, repo)

	for _, verdict := range []Verdict{VerdictCorrect, VerdictIncorrect, VerdictPending} {
		err := session.SetVerdict(1, verdict)
		require.ErrorIs(t, err, ErrInvalidForType)
	}

	answer, _ := session.Answer(1)
	require.Equal(t, VerdictCorrect, answer.Verdict)
	require.False(t, answer.NeedsReview())
}

func TestSessionSubmitNotReady(t *testing.T) {
	repo := &fakeRepo{snapshot: twoQuestionSnapshot()}
	session := loadedSession(t, repo)

	err := session.Submit(context.Background())
	var notReady *NotReadyError
	require.ErrorAs(t, err, &notReady)
	require.Equal(t, 0, notReady.OverMax)
	require.Equal(t, 1, notReady.Pending)
	require.Equal(t, 0, repo.persistCalls)
	require.Equal(t, StatusReady, session.Status())
}

func TestSessionSubmitFailureRecovery(t *testing.T) {
	repo := &fakeRepo{snapshot: twoQuestionSnapshot()}
	session := loadedSession(t, repo)
	require.NoError(t, session.SetVerdict(2, VerdictIncorrect))
	require.NoError(t, session.SetComment(2, "missing the second half"))

	before := session.Answers()

	networkErr := errors.New("connection reset")
	repo.persistErr = networkErr
	err := session.Submit(context.Background())
	require.ErrorIs(t, err, networkErr)
	require.Equal(t, StatusReady, session.Status())
	require.False(t, session.Finalized())
	require.Equal(t, before, session.Answers())

	repo.persistErr = nil
	require.NoError(t, session.Submit(context.Background()))
	require.True(t, session.Finalized())
	require.Equal(t, 2, repo.persistCalls)
	require.Len(t, repo.persisted.Answers, 2)
}

func TestSessionFinalizedImmutable(t *testing.T) {
	repo := &fakeRepo{snapshot: twoQuestionSnapshot()}
	session := loadedSession(t, repo)
	require.NoError(t, session.SetVerdict(2, VerdictCorrect))
	require.NoError(t, session.Submit(context.Background()))

	before := session.Answers()
	feedback := session.OverallFeedback()

	require.ErrorIs(t, session.SetAwardedMarks(2, 3), ErrSessionFinalized)
	require.ErrorIs(t, session.SetVerdict(2, VerdictIncorrect), ErrSessionFinalized)
	require.ErrorIs(t, session.SetComment(2, "late edit"), ErrSessionFinalized)
	require.ErrorIs(t, session.SetOverallFeedback("late edit"), ErrSessionFinalized)
	require.ErrorIs(t, session.SaveDraft(context.Background()), ErrSessionFinalized)
	require.ErrorIs(t, session.Submit(context.Background()), ErrSessionFinalized)

	require.Equal(t, before, session.Answers())
	require.Equal(t, feedback, session.OverallFeedback())
}

func TestSessionLoadErrorRetry(t *testing.T) {
	repo := &fakeRepo{snapshot: twoQuestionSnapshot(), fetchErr: errors.New("timeout")}
	session := NewSession(7, repo, newMemoryDraftStore())

	err := session.Load(context.Background())
	require.Error(t, err)
	require.Equal(t, StatusLoadError, session.Status())
	require.Equal(t, err, session.LoadError())

	require.ErrorIs(t, session.SetAwardedMarks(1, 3), ErrSessionNotLoaded)
	require.ErrorIs(t, session.Submit(context.Background()), ErrSessionNotLoaded)

	repo.fetchErr = nil
	require.NoError(t, session.Load(context.Background()))
	require.Equal(t, StatusReady, session.Status())
	require.NoError(t, session.LoadError())

	// A populated session rejects a duplicate load.
	require.ErrorIs(t, session.Load(context.Background()), ErrSessionLoaded)
	require.Equal(t, 2, repo.fetchCalls)
}

func TestSessionUnknownQuestion(t *testing.T) {
	repo := &fakeRepo{snapshot: twoQuestionSnapshot()}
	session := loadedSession(t, repo)

	require.ErrorIs(t, session.SetAwardedMarks(99, 1), ErrQuestionNotFound)
	require.ErrorIs(t, session.SetVerdict(99, VerdictCorrect), ErrQuestionNotFound)
	require.ErrorIs(t, session.SetComment(99, "?"), ErrQuestionNotFound)
}

func TestSubmitReadinessRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 200; trial++ {
		count := rng.Intn(6)
		answers := make([]AnswerState, 0, count)
		for i := 0; i < count; i++ {
			qType := QuestionFreeText
			verdict := Verdict([]Verdict{VerdictCorrect, VerdictIncorrect, VerdictPending}[rng.Intn(3)])
			if rng.Intn(3) == 0 {
				qType = QuestionMultipleChoice
				if verdict == VerdictPending {
					verdict = VerdictIncorrect
				}
			}
			max := float64(rng.Intn(10) + 1)
			marks := float64(rng.Intn(14)) // may exceed max
			answers = append(answers, AnswerState{
				Question:     QuestionRef{ID: uint(i + 1), Type: qType, MaxMarks: max},
				AwardedMarks: marks,
				Verdict:      verdict,
			})
		}

		repo := &fakeRepo{snapshot: Snapshot{SubmissionID: 1, Answers: answers}}
		session := loadedSession(t, repo)

		expected := true
		for _, answer := range answers {
			if answer.IsOverMax() || answer.NeedsReview() {
				expected = false
				break
			}
		}
		require.Equal(t, expected, session.IsSubmitReady(), "trial %d", trial)
	}
}
