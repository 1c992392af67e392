package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/satyadur/nexora-api/internal/models"
	"github.com/satyadur/nexora-api/internal/repository"
)

type memoryActivityLogRepo struct {
	entries []models.ActivityLog
}

func (m *memoryActivityLogRepo) Create(_ context.Context, entry *models.ActivityLog) error {
	entry.ID = uint(len(m.entries) + 1)
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memoryActivityLogRepo) List(_ context.Context, filter repository.ActivityLogFilter) ([]models.ActivityLog, int64, error) {
	return m.entries, int64(len(m.entries)), nil
}

func TestActivityServiceRecordNormalizesFields(t *testing.T) {
	repo := &memoryActivityLogRepo{}
	svc := NewActivityService(repo, testLogger())

	entity := uint(7)
	entry, err := svc.Record(context.Background(), ActivityEntry{
		ActorID:    42,
		ActorRole:  "  Teacher ",
		Action:     " Evaluation.Finalized ",
		EntityType: "Submission",
		EntityID:   &entity,
	})
	require.NoError(t, err)
	require.Equal(t, "teacher", entry.ActorRole)
	require.Equal(t, "evaluation.finalized", entry.Action)
	require.Equal(t, "submission", entry.EntityType)
}

func TestActivityServiceRecordRedactsSensitiveMetadata(t *testing.T) {
	repo := &memoryActivityLogRepo{}
	svc := NewActivityService(repo, testLogger())

	entry, err := svc.Record(context.Background(), ActivityEntry{
		ActorID:    42,
		Action:     "evaluation.finalized",
		EntityType: "submission",
		Metadata: map[string]interface{}{
			"student_email": "mira@example.com",
			"percentage":    87.5,
		},
	})
	require.NoError(t, err)
	require.Equal(t, "***", entry.Metadata["student_email"])
	require.Equal(t, 87.5, entry.Metadata["percentage"])
}

func TestActivityServiceRecordRequiresAction(t *testing.T) {
	repo := &memoryActivityLogRepo{}
	svc := NewActivityService(repo, testLogger())

	_, err := svc.Record(context.Background(), ActivityEntry{EntityType: "submission"})
	require.Error(t, err)
}
