package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/fasilkom-dev/siakad-api/internal/models"
)

// SupervisorRepository provides access to supervisor records.
type SupervisorRepository interface {
	GetByID(ctx context.Context, id uint) (models.Supervisor, error)
	// FirstActive returns the default supervisor used by the approval cascade
	// when an application reaches approved without one assigned.
	FirstActive(ctx context.Context) (models.Supervisor, error)
}

type supervisorRepository struct {
	db *gorm.DB
}

// NewSupervisorRepository constructs a supervisor repository.
func NewSupervisorRepository(db *gorm.DB) SupervisorRepository {
	return &supervisorRepository{db: db}
}

func (r *supervisorRepository) GetByID(ctx context.Context, id uint) (models.Supervisor, error) {
	var supervisor models.Supervisor
	if err := r.db.WithContext(ctx).First(&supervisor, id).Error; err != nil {
		return models.Supervisor{}, err
	}

	return supervisor, nil
}

func (r *supervisorRepository) FirstActive(ctx context.Context) (models.Supervisor, error) {
	var supervisor models.Supervisor
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("id ASC").
		First(&supervisor).Error; err != nil {
		return models.Supervisor{}, err
	}

	return supervisor, nil
}
