package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/fasilkom-dev/siakad-api/internal/dto"
	"github.com/fasilkom-dev/siakad-api/internal/models"
	"github.com/fasilkom-dev/siakad-api/internal/repository"
)

// ErrDocumentNotFound indicates the document could not be located under the application.
var ErrDocumentNotFound = errors.New("document not found")

// FileUploader abstracts uploading binary data and returning a URL.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// DocumentService manages the per-application document ledger.
type DocumentService interface {
	Attach(ctx context.Context, applicationID uint, payload dto.DocumentAttachRequest, file *multipart.FileHeader, actor ActivityActor) (dto.DocumentResponse, error)
	SetStatus(ctx context.Context, applicationID, documentID uint, payload dto.DocumentStatusRequest, actor ActivityActor) (dto.DocumentResponse, error)
	List(ctx context.Context, applicationID uint) ([]dto.DocumentResponse, error)
}

type documentService struct {
	documents    repository.DocumentRepository
	applications repository.ApplicationRepository
	validator    *validator.Validate
	uploader     FileUploader
	activity     ActivityRecorder
	revalidator  Revalidator
	logger       zerolog.Logger
	now          func() time.Time
}

// NewDocumentService constructs a DocumentService instance.
func NewDocumentService(
	documents repository.DocumentRepository,
	applications repository.ApplicationRepository,
	validate *validator.Validate,
	uploader FileUploader,
	activity ActivityRecorder,
	revalidator Revalidator,
	logger zerolog.Logger,
) DocumentService {
	return &documentService{
		documents:    documents,
		applications: applications,
		validator:    validate,
		uploader:     uploader,
		activity:     activity,
		revalidator:  revalidator,
		logger:       logger.With().Str("component", "document_service").Logger(),
		now:          time.Now,
	}
}

func (s *documentService) Attach(ctx context.Context, applicationID uint, payload dto.DocumentAttachRequest, file *multipart.FileHeader, actor ActivityActor) (dto.DocumentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DocumentResponse{}, err
	}

	if file == nil {
		return dto.DocumentResponse{}, fmt.Errorf("document file is required")
	}

	application, err := s.applications.GetByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DocumentResponse{}, ErrApplicationNotFound
		}
		return dto.DocumentResponse{}, err
	}

	if err := validateDocumentType(file); err != nil {
		return dto.DocumentResponse{}, err
	}

	reader, err := file.Open()
	if err != nil {
		return dto.DocumentResponse{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	uploadURL, err := s.uploader.Upload(ctx, file.Filename, reader)
	if err != nil {
		return dto.DocumentResponse{}, fmt.Errorf("failed to upload file: %w", err)
	}

	status := models.DocumentUnverified
	if payload.Status != "" {
		status = models.DocumentStatus(payload.Status)
	}

	document := models.Document{
		ApplicationID: application.ID,
		Name:          file.Filename,
		Type:          payload.Type,
		FileURL:       uploadURL,
		Status:        status,
		UploadedAt:    s.now(),
	}

	if err := s.documents.Create(ctx, &document); err != nil {
		return dto.DocumentResponse{}, err
	}

	s.recordActivity(ctx, actor, "document.attached", document.ID, map[string]interface{}{
		"application_id": application.ID,
		"type":           payload.Type,
	})
	s.invalidateFor(ctx, application)

	s.logger.Info().Uint("document_id", document.ID).Uint("application_id", application.ID).Msg("document attached")

	return dto.NewDocumentResponse(document), nil
}

// SetStatus updates a single document's verification state. The parent
// application's status is never touched here.
func (s *documentService) SetStatus(ctx context.Context, applicationID, documentID uint, payload dto.DocumentStatusRequest, actor ActivityActor) (dto.DocumentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DocumentResponse{}, err
	}

	application, err := s.applications.GetByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DocumentResponse{}, ErrApplicationNotFound
		}
		return dto.DocumentResponse{}, err
	}

	document, err := s.documents.GetByID(ctx, applicationID, documentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DocumentResponse{}, ErrDocumentNotFound
		}
		return dto.DocumentResponse{}, err
	}

	document.Status = models.DocumentStatus(payload.Status)
	if err := s.documents.Update(ctx, &document); err != nil {
		return dto.DocumentResponse{}, err
	}

	s.recordActivity(ctx, actor, "document.status_changed", document.ID, map[string]interface{}{
		"application_id": application.ID,
		"status":         payload.Status,
	})
	s.invalidateFor(ctx, application)

	return dto.NewDocumentResponse(document), nil
}

func (s *documentService) List(ctx context.Context, applicationID uint) ([]dto.DocumentResponse, error) {
	if _, err := s.applications.GetByID(ctx, applicationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}

	documents, err := s.documents.ListByApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	return dto.NewDocumentResponseSlice(documents), nil
}

func (s *documentService) recordActivity(ctx context.Context, actor ActivityActor, action string, documentID uint, metadata map[string]interface{}) {
	if s.activity == nil {
		return
	}
	entry := ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "document",
		EntityID:   &documentID,
		Metadata:   metadata,
	}
	if _, err := s.activity.Record(ctx, entry); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("failed to record activity")
	}
}

func (s *documentService) invalidateFor(ctx context.Context, application models.Application) {
	if s.revalidator == nil {
		return
	}
	s.revalidator.Invalidate(ctx,
		fmt.Sprintf("documents:application:%d", application.ID),
		fmt.Sprintf("applications:student:%d", application.StudentID),
		fmt.Sprintf("dashboard:student:%d", application.StudentID),
	)
}

func validateDocumentType(file *multipart.FileHeader) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	mime, err := mimetype.DetectReader(reader)
	if err != nil {
		return fmt.Errorf("failed to detect file type: %w", err)
	}

	allowed := []string{"application/pdf", "application/zip", "application/x-zip-compressed", "image/png", "image/jpeg"}
	for _, a := range allowed {
		if mime.Is(a) {
			return nil
		}
	}

	return fmt.Errorf("unsupported file type: %s", mime.String())
}
