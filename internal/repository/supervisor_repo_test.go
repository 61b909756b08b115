package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fasilkom-dev/siakad-api/internal/models"
)

func TestSupervisorRepositoryFirstActive(t *testing.T) {
	db := setupWorkflowTestDB(t)
	repo := NewSupervisorRepository(db)

	inactive := models.Supervisor{Name: "Dr. Agus", Email: "agus@kampus.ac.id", Active: false}
	active := models.Supervisor{Name: "Dr. Ratna", Email: "ratna@kampus.ac.id", Active: true}
	later := models.Supervisor{Name: "Dr. Wati", Email: "wati@kampus.ac.id", Active: true}
	require.NoError(t, db.Create(&inactive).Error)
	require.NoError(t, db.Create(&active).Error)
	require.NoError(t, db.Create(&later).Error)

	found, err := repo.FirstActive(context.Background())
	require.NoError(t, err)
	require.Equal(t, active.ID, found.ID, "lowest-id active supervisor wins")
}

func TestSupervisorRepositoryFirstActiveMissing(t *testing.T) {
	db := setupWorkflowTestDB(t)
	repo := NewSupervisorRepository(db)

	inactive := models.Supervisor{Name: "Dr. Agus", Email: "agus@kampus.ac.id", Active: false}
	require.NoError(t, db.Create(&inactive).Error)

	_, err := repo.FirstActive(context.Background())
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestStudentRepositoryGetByID(t *testing.T) {
	db := setupWorkflowTestDB(t)
	repo := NewStudentRepository(db)

	student := createTestStudent(t, db, "Budi Santoso", "1904001")

	found, err := repo.GetByID(context.Background(), student.ID)
	require.NoError(t, err)
	require.Equal(t, "Budi Santoso", found.Name)

	_, err = repo.GetByID(context.Background(), 404)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
