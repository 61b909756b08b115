package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fasilkom-dev/siakad-api/internal/models"
)

// ApplicationFilter narrows application queries.
type ApplicationFilter struct {
	StudentID *uint
	Category  *models.ApplicationCategory
	Status    *models.ApplicationStatus
	Search    string
}

// EligibilityCheck inspects a student's existing applications inside the
// create transaction and returns an error to abort the insert.
type EligibilityCheck func(existing []models.Application) error

// ApplicationMutation is applied to a locked application row inside the
// update transaction. Documents or history entries appended with a zero ID
// are persisted in the same transaction; returning an error rolls the whole
// mutation back.
type ApplicationMutation func(application *models.Application) error

// ApplicationRepository defines data operations for applications.
type ApplicationRepository interface {
	List(ctx context.Context, filter ApplicationFilter) ([]models.Application, error)
	GetByID(ctx context.Context, id uint) (models.Application, error)
	CreateWithEligibility(ctx context.Context, application *models.Application, check EligibilityCheck) error
	UpdateWithLock(ctx context.Context, id uint, mutate ApplicationMutation) (models.Application, error)
	CountByStatus(ctx context.Context, filter ApplicationFilter) (map[models.ApplicationStatus]int64, error)
}

type applicationRepository struct {
	db *gorm.DB
}

// NewApplicationRepository instantiates the repository.
func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func withAssociations(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Application{}).
		Preload("Student").
		Preload("Supervisor").
		Preload("Documents", func(db *gorm.DB) *gorm.DB {
			return db.Order("documents.uploaded_at ASC, documents.id ASC")
		}).
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("review_histories.created_at ASC")
		})
}

func (r *applicationRepository) baseQuery(ctx context.Context) *gorm.DB {
	return withAssociations(r.db.WithContext(ctx))
}

func applyFilter(query *gorm.DB, filter ApplicationFilter) *gorm.DB {
	if filter.StudentID != nil {
		query = query.Where("applications.student_id = ?", *filter.StudentID)
	}

	if filter.Category != nil {
		query = query.Where("applications.category = ?", *filter.Category)
	}

	if filter.Status != nil {
		query = query.Where("applications.status = ?", *filter.Status)
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.
			Joins("JOIN students ON students.id = applications.student_id").
			Where("LOWER(applications.title) LIKE ? OR LOWER(students.name) LIKE ?", pattern, pattern)
	}

	return query
}

func (r *applicationRepository) List(ctx context.Context, filter ApplicationFilter) ([]models.Application, error) {
	query := applyFilter(r.baseQuery(ctx), filter)

	var applications []models.Application
	if err := query.Order("applications.submitted_at DESC").Find(&applications).Error; err != nil {
		return nil, err
	}

	return applications, nil
}

func (r *applicationRepository) GetByID(ctx context.Context, id uint) (models.Application, error) {
	var application models.Application
	if err := r.baseQuery(ctx).First(&application, id).Error; err != nil {
		return models.Application{}, err
	}

	return application, nil
}

// CreateWithEligibility reads the student's existing applications and inserts
// the new record in one transaction, locking the existing rows so two
// concurrent submissions cannot both pass the check.
func (r *applicationRepository) CreateWithEligibility(ctx context.Context, application *models.Application, check EligibilityCheck) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&models.Application{}).
			Where("student_id = ?", application.StudentID).
			Where("category = ?", application.Category)

		// sqlite has no row locks; the serialized writer makes this safe in tests.
		if tx.Dialector.Name() == "postgres" {
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var existing []models.Application
		if err := query.Find(&existing).Error; err != nil {
			return err
		}

		if check != nil {
			if err := check(existing); err != nil {
				return err
			}
		}

		return tx.Create(application).Error
	})
}

// UpdateWithLock re-reads the application inside a transaction, applies the
// mutation against the fresh row and persists the result together with any
// documents or history entries the mutation appended. The row lock serializes
// concurrent mutations on the same application, so status checks inside the
// mutation always see the committed state.
func (r *applicationRepository) UpdateWithLock(ctx context.Context, id uint, mutate ApplicationMutation) (models.Application, error) {
	var application models.Application
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := withAssociations(tx)

		// sqlite has no row locks; the serialized writer makes this safe in tests.
		if tx.Dialector.Name() == "postgres" {
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		if err := query.First(&application, id).Error; err != nil {
			return err
		}

		if err := mutate(&application); err != nil {
			return err
		}

		if err := tx.Omit(clause.Associations).Save(&application).Error; err != nil {
			return err
		}

		for i := range application.Documents {
			if application.Documents[i].ID != 0 {
				continue
			}
			application.Documents[i].ApplicationID = application.ID
			if err := tx.Create(&application.Documents[i]).Error; err != nil {
				return err
			}
		}

		for i := range application.History {
			if application.History[i].ID != 0 {
				continue
			}
			application.History[i].ApplicationID = application.ID
			if err := tx.Create(&application.History[i]).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return models.Application{}, err
	}

	return application, nil
}

func (r *applicationRepository) CountByStatus(ctx context.Context, filter ApplicationFilter) (map[models.ApplicationStatus]int64, error) {
	query := applyFilter(r.db.WithContext(ctx).Model(&models.Application{}), filter)

	var rows []struct {
		Status models.ApplicationStatus
		Total  int64
	}
	if err := query.Select("applications.status AS status, COUNT(*) AS total").
		Group("applications.status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[models.ApplicationStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}

	return counts, nil
}
