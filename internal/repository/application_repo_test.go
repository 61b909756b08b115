package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fasilkom-dev/siakad-api/internal/models"
)

func setupWorkflowTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Student{},
		&models.Supervisor{},
		&models.Application{},
		&models.Document{},
		&models.ReviewHistory{},
		&models.ActivityLog{},
	))

	// The shared in-memory database survives across connections, so start clean.
	for _, table := range []string{"review_histories", "documents", "applications", "activity_logs", "supervisors", "students"} {
		require.NoError(t, db.Exec("DELETE FROM "+table).Error)
	}

	return db
}

func createTestStudent(t *testing.T, db *gorm.DB, name, nim string) models.Student {
	t.Helper()
	student := models.Student{Name: name, NIM: nim, Email: nim + "@kampus.ac.id"}
	require.NoError(t, db.Create(&student).Error)
	return student
}

func TestApplicationRepositoryCreateWithEligibilityPassesExistingRows(t *testing.T) {
	db := setupWorkflowTestDB(t)
	repo := NewApplicationRepository(db)
	student := createTestStudent(t, db, "Budi Santoso", "1904001")

	first := models.Application{
		StudentID:   student.ID,
		Category:    models.CategoryInternship,
		Title:       "KKP at PT Telkom",
		Status:      models.StatusPending,
		SubmittedAt: time.Now(),
	}
	require.NoError(t, repo.CreateWithEligibility(context.Background(), &first, func(existing []models.Application) error {
		require.Empty(t, existing)
		return nil
	}))
	require.NotZero(t, first.ID)

	blocked := errors.New("blocked")
	second := models.Application{
		StudentID:   student.ID,
		Category:    models.CategoryInternship,
		Title:       "KKP at Gojek",
		Status:      models.StatusPending,
		SubmittedAt: time.Now(),
	}
	err := repo.CreateWithEligibility(context.Background(), &second, func(existing []models.Application) error {
		require.Len(t, existing, 1)
		require.Equal(t, first.ID, existing[0].ID)
		return blocked
	})
	require.ErrorIs(t, err, blocked)

	var count int64
	require.NoError(t, db.Model(&models.Application{}).Count(&count).Error)
	require.Equal(t, int64(1), count, "rejected insert must roll back")
}

func TestApplicationRepositoryCreateWithEligibilityScopesByCategory(t *testing.T) {
	db := setupWorkflowTestDB(t)
	repo := NewApplicationRepository(db)
	student := createTestStudent(t, db, "Budi Santoso", "1904001")

	internship := models.Application{
		StudentID:   student.ID,
		Category:    models.CategoryInternship,
		Title:       "KKP at PT Telkom",
		Status:      models.StatusPending,
		SubmittedAt: time.Now(),
	}
	require.NoError(t, repo.CreateWithEligibility(context.Background(), &internship, nil))

	thesis := models.Application{
		StudentID:   student.ID,
		Category:    models.CategoryThesis,
		Title:       "Distributed cache coherence",
		Status:      models.StatusPending,
		SubmittedAt: time.Now(),
	}
	require.NoError(t, repo.CreateWithEligibility(context.Background(), &thesis, func(existing []models.Application) error {
		require.Empty(t, existing, "other categories must not leak into the check")
		return nil
	}))
}

func TestApplicationRepositoryListFiltersAndSearch(t *testing.T) {
	db := setupWorkflowTestDB(t)
	repo := NewApplicationRepository(db)

	budi := createTestStudent(t, db, "Budi Santoso", "1904001")
	sari := createTestStudent(t, db, "Sari Dewi", "1904002")

	now := time.Now()
	apps := []models.Application{
		{StudentID: budi.ID, Category: models.CategoryInternship, Title: "KKP at PT Telkom", Status: models.StatusPending, SubmittedAt: now.Add(-2 * time.Hour)},
		{StudentID: budi.ID, Category: models.CategoryThesis, Title: "Cache coherence study", Status: models.StatusApproved, SubmittedAt: now.Add(-time.Hour)},
		{StudentID: sari.ID, Category: models.CategoryInternship, Title: "KKP at Tokopedia", Status: models.StatusInReview, SubmittedAt: now},
	}
	for i := range apps {
		require.NoError(t, db.Create(&apps[i]).Error)
	}

	byStudent, err := repo.List(context.Background(), ApplicationFilter{StudentID: &budi.ID})
	require.NoError(t, err)
	require.Len(t, byStudent, 2)
	require.Equal(t, "Cache coherence study", byStudent[0].Title, "newest submission first")

	thesis := models.CategoryThesis
	byCategory, err := repo.List(context.Background(), ApplicationFilter{Category: &thesis})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)

	inReview := models.StatusInReview
	byStatus, err := repo.List(context.Background(), ApplicationFilter{Status: &inReview})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	require.Equal(t, sari.ID, byStatus[0].StudentID)

	byTitle, err := repo.List(context.Background(), ApplicationFilter{Search: "tokopedia"})
	require.NoError(t, err)
	require.Len(t, byTitle, 1)

	byName, err := repo.List(context.Background(), ApplicationFilter{Search: "sari"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	require.Equal(t, "KKP at Tokopedia", byName[0].Title)
}

func TestApplicationRepositoryGetByIDPreloads(t *testing.T) {
	db := setupWorkflowTestDB(t)
	repo := NewApplicationRepository(db)
	student := createTestStudent(t, db, "Budi Santoso", "1904001")

	supervisor := models.Supervisor{Name: "Dr. Ratna", Email: "ratna@kampus.ac.id", Active: true}
	require.NoError(t, db.Create(&supervisor).Error)

	now := time.Now()
	application := models.Application{
		StudentID:    student.ID,
		Category:     models.CategoryThesis,
		Title:        "Cache coherence study",
		Status:       models.StatusApproved,
		SupervisorID: &supervisor.ID,
		SubmittedAt:  now.Add(-24 * time.Hour),
	}
	require.NoError(t, db.Create(&application).Error)

	docs := []models.Document{
		{ApplicationID: application.ID, Name: "second.pdf", Status: models.DocumentUnverified, UploadedAt: now},
		{ApplicationID: application.ID, Name: "first.pdf", Status: models.DocumentVerified, UploadedAt: now.Add(-time.Hour)},
	}
	for i := range docs {
		require.NoError(t, db.Create(&docs[i]).Error)
	}

	history := models.ReviewHistory{
		ApplicationID: application.ID,
		FromStatus:    models.StatusPending,
		ToStatus:      models.StatusApproved,
		ReviewerID:    21,
	}
	require.NoError(t, db.Create(&history).Error)

	loaded, err := repo.GetByID(context.Background(), application.ID)
	require.NoError(t, err)

	require.Equal(t, student.Name, loaded.Student.Name)
	require.NotNil(t, loaded.Supervisor)
	require.Equal(t, supervisor.Name, loaded.Supervisor.Name)

	require.Len(t, loaded.Documents, 2)
	require.Equal(t, "first.pdf", loaded.Documents[0].Name, "documents ordered by upload time")

	require.Len(t, loaded.History, 1)
	require.Equal(t, models.StatusApproved, loaded.History[0].ToStatus)
}

func TestApplicationRepositoryUpdateWithLockPersistsRowAndAppendedRecords(t *testing.T) {
	db := setupWorkflowTestDB(t)
	repo := NewApplicationRepository(db)
	student := createTestStudent(t, db, "Budi Santoso", "1904001")

	application := models.Application{
		StudentID:   student.ID,
		Category:    models.CategoryInternship,
		Title:       "KKP at PT Telkom",
		Status:      models.StatusPending,
		SubmittedAt: time.Now(),
	}
	require.NoError(t, db.Create(&application).Error)

	updated, err := repo.UpdateWithLock(context.Background(), application.ID, func(application *models.Application) error {
		reviewedAt := time.Now()
		reviewer := uint(21)
		application.Status = models.StatusApproved
		application.ReviewedAt = &reviewedAt
		application.ReviewedBy = &reviewer
		application.Documents = append(application.Documents, models.Document{
			Name:       "Acceptance Letter",
			Type:       "acceptance-letter",
			Status:     models.DocumentVerified,
			UploadedAt: reviewedAt,
		})
		application.History = append(application.History, models.ReviewHistory{
			FromStatus: models.StatusPending,
			ToStatus:   models.StatusApproved,
			ReviewerID: reviewer,
		})
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusApproved, updated.Status)
	require.NotZero(t, updated.Documents[0].ID)
	require.NotZero(t, updated.History[0].ID)

	reloaded, err := repo.GetByID(context.Background(), application.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusApproved, reloaded.Status)
	require.Len(t, reloaded.Documents, 1)
	require.Equal(t, "acceptance-letter", reloaded.Documents[0].Type)
	require.Len(t, reloaded.History, 1)
	require.Equal(t, models.StatusApproved, reloaded.History[0].ToStatus)
}

func TestApplicationRepositoryUpdateWithLockRollsBackOnError(t *testing.T) {
	db := setupWorkflowTestDB(t)
	repo := NewApplicationRepository(db)
	student := createTestStudent(t, db, "Budi Santoso", "1904001")

	application := models.Application{
		StudentID:   student.ID,
		Category:    models.CategoryInternship,
		Title:       "KKP at PT Telkom",
		Status:      models.StatusPending,
		SubmittedAt: time.Now(),
	}
	require.NoError(t, db.Create(&application).Error)

	boom := errors.New("stale status")
	_, err := repo.UpdateWithLock(context.Background(), application.ID, func(application *models.Application) error {
		application.Status = models.StatusApproved
		application.Documents = append(application.Documents, models.Document{
			Name:       "Acceptance Letter",
			Type:       "acceptance-letter",
			Status:     models.DocumentVerified,
			UploadedAt: time.Now(),
		})
		application.History = append(application.History, models.ReviewHistory{
			FromStatus: models.StatusPending,
			ToStatus:   models.StatusApproved,
			ReviewerID: 21,
		})
		return boom
	})
	require.ErrorIs(t, err, boom)

	reloaded, err := repo.GetByID(context.Background(), application.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, reloaded.Status, "aborted mutation must not change the row")
	require.Empty(t, reloaded.Documents)
	require.Empty(t, reloaded.History)
}

func TestApplicationRepositoryUpdateWithLockMissing(t *testing.T) {
	db := setupWorkflowTestDB(t)
	repo := NewApplicationRepository(db)

	_, err := repo.UpdateWithLock(context.Background(), 404, func(*models.Application) error { return nil })
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestApplicationRepositoryGetByIDMissing(t *testing.T) {
	db := setupWorkflowTestDB(t)
	repo := NewApplicationRepository(db)

	_, err := repo.GetByID(context.Background(), 404)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestApplicationRepositoryCountByStatus(t *testing.T) {
	db := setupWorkflowTestDB(t)
	repo := NewApplicationRepository(db)
	student := createTestStudent(t, db, "Budi Santoso", "1904001")

	now := time.Now()
	statuses := []models.ApplicationStatus{
		models.StatusPending, models.StatusPending, models.StatusInReview, models.StatusApproved,
	}
	for i, status := range statuses {
		app := models.Application{
			StudentID:   student.ID,
			Category:    models.CategoryInternship,
			Title:       "Submission",
			Status:      status,
			SubmittedAt: now.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(&app).Error)
	}

	internship := models.CategoryInternship
	counts, err := repo.CountByStatus(context.Background(), ApplicationFilter{Category: &internship})
	require.NoError(t, err)
	require.Equal(t, int64(2), counts[models.StatusPending])
	require.Equal(t, int64(1), counts[models.StatusInReview])
	require.Equal(t, int64(1), counts[models.StatusApproved])
	require.Zero(t, counts[models.StatusRejected])
}
