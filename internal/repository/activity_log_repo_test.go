package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/fasilkom-dev/siakad-api/internal/models"
)

func TestActivityLogRepositoryListFiltersAndPaginates(t *testing.T) {
	db := setupWorkflowTestDB(t)
	repo := NewActivityLogRepository(db)

	entries := []models.ActivityLog{
		{ActorID: 7, ActorRole: "student", Action: "application.submitted", EntityType: "application", Metadata: datatypes.JSONMap{"category": "internship"}},
		{ActorID: 21, ActorRole: "staff", Action: "application.approved", EntityType: "application", Metadata: datatypes.JSONMap{}},
		{ActorID: 21, ActorRole: "staff", Action: "document.status_changed", EntityType: "document", Metadata: datatypes.JSONMap{}},
	}
	for i := range entries {
		require.NoError(t, repo.Create(context.Background(), &entries[i]))
	}

	all, total, err := repo.List(context.Background(), ActivityLogFilter{})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, all, 3)

	actorID := uint(21)
	byActor, total, err := repo.List(context.Background(), ActivityLogFilter{ActorID: &actorID})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, byActor, 2)

	byAction, total, err := repo.List(context.Background(), ActivityLogFilter{Action: "application.submitted"})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, uint(7), byAction[0].ActorID)

	paged, total, err := repo.List(context.Background(), ActivityLogFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Equal(t, int64(3), total, "total counts all matches, not just the page")
	require.Len(t, paged, 1)
}

func TestActivityLogRepositoryMetadataRoundTrip(t *testing.T) {
	db := setupWorkflowTestDB(t)
	repo := NewActivityLogRepository(db)

	entityID := uint(12)
	entry := models.ActivityLog{
		ActorID:    21,
		ActorRole:  "staff",
		Action:     "application.rejected",
		EntityType: "application",
		EntityID:   &entityID,
		Metadata:   datatypes.JSONMap{"from_status": "in-review", "student_id": float64(7)},
	}
	require.NoError(t, repo.Create(context.Background(), &entry))

	listed, _, err := repo.List(context.Background(), ActivityLogFilter{Action: "application.rejected"})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.NotNil(t, listed[0].EntityID)
	require.Equal(t, entityID, *listed[0].EntityID)
	require.Equal(t, "in-review", listed[0].Metadata["from_status"])
}
