package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/fasilkom-dev/siakad-api/internal/models"
)

// DocumentRepository defines data operations for application documents.
type DocumentRepository interface {
	ListByApplication(ctx context.Context, applicationID uint) ([]models.Document, error)
	GetByID(ctx context.Context, applicationID, documentID uint) (models.Document, error)
	Create(ctx context.Context, document *models.Document) error
	Update(ctx context.Context, document *models.Document) error
}

type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository instantiates the repository.
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) ListByApplication(ctx context.Context, applicationID uint) ([]models.Document, error) {
	var documents []models.Document
	if err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("uploaded_at ASC, id ASC").
		Find(&documents).Error; err != nil {
		return nil, err
	}

	return documents, nil
}

func (r *documentRepository) GetByID(ctx context.Context, applicationID, documentID uint) (models.Document, error) {
	var document models.Document
	if err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		First(&document, documentID).Error; err != nil {
		return models.Document{}, err
	}

	return document, nil
}

func (r *documentRepository) Create(ctx context.Context, document *models.Document) error {
	return r.db.WithContext(ctx).Create(document).Error
}

func (r *documentRepository) Update(ctx context.Context, document *models.Document) error {
	return r.db.WithContext(ctx).Save(document).Error
}
