package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fasilkom-dev/siakad-api/internal/models"
)

func createTestApplication(t *testing.T, db *gorm.DB, studentID uint, category models.ApplicationCategory) models.Application {
	t.Helper()
	application := models.Application{
		StudentID:   studentID,
		Category:    category,
		Title:       "Submission",
		Status:      models.StatusPending,
		SubmittedAt: time.Now(),
	}
	require.NoError(t, db.Create(&application).Error)
	return application
}

func TestDocumentRepositoryListByApplicationOrdered(t *testing.T) {
	db := setupWorkflowTestDB(t)
	repo := NewDocumentRepository(db)
	student := createTestStudent(t, db, "Budi Santoso", "1904001")
	application := createTestApplication(t, db, student.ID, models.CategoryInternship)

	now := time.Now()
	newer := models.Document{ApplicationID: application.ID, Name: "newer.pdf", Status: models.DocumentUnverified, UploadedAt: now}
	older := models.Document{ApplicationID: application.ID, Name: "older.pdf", Status: models.DocumentVerified, UploadedAt: now.Add(-time.Hour)}
	require.NoError(t, repo.Create(context.Background(), &newer))
	require.NoError(t, repo.Create(context.Background(), &older))

	listed, err := repo.ListByApplication(context.Background(), application.ID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	require.Equal(t, "older.pdf", listed[0].Name)
	require.Equal(t, "newer.pdf", listed[1].Name)
}

func TestDocumentRepositoryGetByIDScopedToApplication(t *testing.T) {
	db := setupWorkflowTestDB(t)
	repo := NewDocumentRepository(db)
	student := createTestStudent(t, db, "Budi Santoso", "1904001")
	first := createTestApplication(t, db, student.ID, models.CategoryInternship)
	second := createTestApplication(t, db, student.ID, models.CategoryThesis)

	document := models.Document{ApplicationID: first.ID, Name: "surat.pdf", Status: models.DocumentUnverified, UploadedAt: time.Now()}
	require.NoError(t, repo.Create(context.Background(), &document))

	found, err := repo.GetByID(context.Background(), first.ID, document.ID)
	require.NoError(t, err)
	require.Equal(t, "surat.pdf", found.Name)

	_, err = repo.GetByID(context.Background(), second.ID, document.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDocumentRepositoryUpdatePersistsStatus(t *testing.T) {
	db := setupWorkflowTestDB(t)
	repo := NewDocumentRepository(db)
	student := createTestStudent(t, db, "Budi Santoso", "1904001")
	application := createTestApplication(t, db, student.ID, models.CategoryInternship)

	document := models.Document{ApplicationID: application.ID, Name: "transkrip.pdf", Status: models.DocumentUnverified, UploadedAt: time.Now()}
	require.NoError(t, repo.Create(context.Background(), &document))

	document.Status = models.DocumentVerified
	require.NoError(t, repo.Update(context.Background(), &document))

	reloaded, err := repo.GetByID(context.Background(), application.ID, document.ID)
	require.NoError(t, err)
	require.Equal(t, models.DocumentVerified, reloaded.Status)
}
