package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/fasilkom-dev/siakad-api/internal/dto"
	"github.com/fasilkom-dev/siakad-api/internal/models"
	"github.com/fasilkom-dev/siakad-api/internal/observability"
	"github.com/fasilkom-dev/siakad-api/internal/repository"
)

// ErrApplicationNotFound indicates the application could not be located.
var ErrApplicationNotFound = errors.New("application not found")

// ErrStudentNotFound indicates the submitting student does not exist.
var ErrStudentNotFound = errors.New("student not found")

// ErrInvalidTransition indicates the requested status change is not reachable
// from the current status.
var ErrInvalidTransition = errors.New("invalid status transition")

// ApplicationService orchestrates the submission and review workflows.
type ApplicationService interface {
	Submit(ctx context.Context, payload dto.ApplicationSubmitRequest) (dto.ApplicationResponse, error)
	Review(ctx context.Context, id uint, payload dto.ApplicationReviewRequest, actor ActivityActor) (dto.ApplicationResponse, error)
	Complete(ctx context.Context, id uint, actor ActivityActor) (dto.ApplicationResponse, error)
	Annotate(ctx context.Context, id uint, payload dto.ApplicationNotesRequest, actor ActivityActor) (dto.ApplicationResponse, error)
	Get(ctx context.Context, id uint) (dto.ApplicationResponse, error)
	List(ctx context.Context, filter dto.ApplicationFilter) ([]dto.ApplicationResponse, error)
}

type applicationService struct {
	applications repository.ApplicationRepository
	students     repository.StudentRepository
	supervisors  repository.SupervisorRepository
	validator    *validator.Validate
	activity     ActivityRecorder
	revalidator  Revalidator
	sanitizer    *bluemonday.Policy
	logger       zerolog.Logger
	now          func() time.Time
}

// NewApplicationService constructs an ApplicationService instance.
func NewApplicationService(
	applications repository.ApplicationRepository,
	students repository.StudentRepository,
	supervisors repository.SupervisorRepository,
	validate *validator.Validate,
	activity ActivityRecorder,
	revalidator Revalidator,
	logger zerolog.Logger,
) ApplicationService {
	return &applicationService{
		applications: applications,
		students:     students,
		supervisors:  supervisors,
		validator:    validate,
		activity:     activity,
		revalidator:  revalidator,
		sanitizer:    bluemonday.StrictPolicy(),
		logger:       logger.With().Str("component", "application_service").Logger(),
		now:          time.Now,
	}
}

func (s *applicationService) Submit(ctx context.Context, payload dto.ApplicationSubmitRequest) (dto.ApplicationResponse, error) {
	tracer := otel.Tracer("github.com/fasilkom-dev/siakad-api/internal/service/application")
	ctx, span := tracer.Start(ctx, "application.submit")
	span.SetAttributes(
		attribute.Int64("application.student_id", int64(payload.StudentID)),
		attribute.String("application.category", payload.Category),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.ApplicationResponse{}, err
	}

	title := strings.TrimSpace(s.sanitizer.Sanitize(payload.Title))
	if title == "" {
		return dto.ApplicationResponse{}, fmt.Errorf("title empty after sanitization")
	}

	if _, err := s.students.GetByID(ctx, payload.StudentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ApplicationResponse{}, ErrStudentNotFound
		}
		return dto.ApplicationResponse{}, err
	}

	category := models.ApplicationCategory(payload.Category)
	application := models.Application{
		StudentID:   payload.StudentID,
		Category:    category,
		Title:       title,
		Status:      models.StatusPending,
		SubmittedAt: s.now(),
	}

	if err := s.applications.CreateWithEligibility(ctx, &application, CheckEligibility); err != nil {
		var blocked *SubmissionBlockedError
		if errors.As(err, &blocked) {
			observability.ApplicationsBlocked().WithLabelValues(payload.Category).Inc()
			span.SetAttributes(attribute.String("application.blocked_reason", blocked.Reason))
			return dto.ApplicationResponse{}, err
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "application_create_failed")
		return dto.ApplicationResponse{}, err
	}

	created, err := s.applications.GetByID(ctx, application.ID)
	if err != nil {
		return dto.ApplicationResponse{}, err
	}

	s.recordActivity(ctx, ActivityEntry{
		ActorID:    payload.StudentID,
		ActorRole:  "student",
		Action:     "application.submitted",
		EntityType: "application",
		EntityID:   &created.ID,
		Metadata: map[string]interface{}{
			"category": payload.Category,
			"title":    title,
		},
	})

	observability.ApplicationsSubmitted().WithLabelValues(payload.Category).Inc()
	s.invalidateFor(ctx, created)

	s.logger.Info().Uint("application_id", created.ID).Str("category", payload.Category).Msg("application submitted")

	return dto.NewApplicationResponse(created), nil
}

func (s *applicationService) Review(ctx context.Context, id uint, payload dto.ApplicationReviewRequest, actor ActivityActor) (dto.ApplicationResponse, error) {
	tracer := otel.Tracer("github.com/fasilkom-dev/siakad-api/internal/service/application")
	ctx, span := tracer.Start(ctx, "application.review")
	span.SetAttributes(
		attribute.Int64("application.id", int64(id)),
		attribute.Int64("application.reviewer_id", int64(actor.ID)),
		attribute.String("application.decision", payload.Decision),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.ApplicationResponse{}, err
	}

	var notes *string
	if payload.Notes != nil {
		clean := strings.TrimSpace(s.sanitizer.Sanitize(*payload.Notes))
		notes = &clean
	}

	return s.transition(ctx, id, models.ApplicationStatus(payload.Decision), actor, notes)
}

// Complete archives an approved thesis submission. It is driven by the
// archival batch rather than a reviewer decision, so reviewedAt/reviewedBy
// stay untouched.
func (s *applicationService) Complete(ctx context.Context, id uint, actor ActivityActor) (dto.ApplicationResponse, error) {
	var from models.ApplicationStatus
	updated, err := s.applications.UpdateWithLock(ctx, id, func(application *models.Application) error {
		from = application.Status
		if !models.CanTransition(application.Category, from, models.StatusCompleted) {
			return fmt.Errorf("%w: cannot move from %s to %s", ErrInvalidTransition, from, models.StatusCompleted)
		}

		application.Status = models.StatusCompleted
		application.History = append(application.History, models.ReviewHistory{
			FromStatus: from,
			ToStatus:   models.StatusCompleted,
			ReviewerID: actor.ID,
		})
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ApplicationResponse{}, ErrApplicationNotFound
		}
		return dto.ApplicationResponse{}, err
	}

	s.recordActivity(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     "application.completed",
		EntityType: "application",
		EntityID:   &updated.ID,
		Metadata:   map[string]interface{}{"category": string(updated.Category)},
	})

	observability.WorkflowTransitions().WithLabelValues(string(updated.Category), string(models.StatusCompleted)).Inc()
	s.invalidateFor(ctx, updated)

	return dto.NewApplicationResponse(updated), nil
}

// transition runs the status change as one locked read-modify-write. The
// mutation re-checks the transition table against the row as committed, so a
// concurrent decision that landed first makes the second one fail instead of
// silently overwriting it. The approval cascade and the history entry commit
// in the same transaction as the status itself.
func (s *applicationService) transition(ctx context.Context, id uint, target models.ApplicationStatus, actor ActivityActor, notes *string) (dto.ApplicationResponse, error) {
	var supervisor *models.Supervisor
	if target == models.StatusApproved {
		if found, err := s.supervisors.FirstActive(ctx); err != nil {
			s.logger.Warn().Err(err).Uint("application_id", id).Msg("no active supervisor available for auto-assignment")
		} else {
			supervisor = &found
		}
	}

	var from models.ApplicationStatus
	updated, err := s.applications.UpdateWithLock(ctx, id, func(application *models.Application) error {
		from = application.Status
		if !models.CanTransition(application.Category, from, target) {
			return fmt.Errorf("%w: cannot move from %s to %s", ErrInvalidTransition, from, target)
		}

		reviewedAt := s.now()
		reviewer := actor.ID
		application.Status = target
		application.ReviewedAt = &reviewedAt
		application.ReviewedBy = &reviewer
		if notes != nil {
			application.Notes = *notes
		}

		if target == models.StatusApproved {
			s.applyApprovalCascade(application, supervisor)
		}

		historyNotes := ""
		if notes != nil {
			historyNotes = *notes
		}
		application.History = append(application.History, models.ReviewHistory{
			FromStatus: from,
			ToStatus:   target,
			ReviewerID: actor.ID,
			Notes:      historyNotes,
		})
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ApplicationResponse{}, ErrApplicationNotFound
		}
		return dto.ApplicationResponse{}, err
	}

	s.recordActivity(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     "application." + string(target),
		EntityType: "application",
		EntityID:   &updated.ID,
		Metadata: map[string]interface{}{
			"category":    string(updated.Category),
			"from_status": string(from),
			"student_id":  updated.StudentID,
		},
	})

	observability.WorkflowTransitions().WithLabelValues(string(updated.Category), string(target)).Inc()
	s.invalidateFor(ctx, updated)

	s.logger.Info().
		Uint("application_id", updated.ID).
		Str("from", string(from)).
		Str("to", string(target)).
		Uint("reviewer_id", actor.ID).
		Msg("application reviewed")

	return dto.NewApplicationResponse(updated), nil
}

// applyApprovalCascade assigns the default supervisor and synthesizes the
// acceptance letter on the locked row, so both land in the same transaction
// as the approval. Approval proceeds even if some documents are still
// unverified; that decoupling matches the faculty's current policy.
func (s *applicationService) applyApprovalCascade(application *models.Application, supervisor *models.Supervisor) {
	if application.SupervisorID == nil && supervisor != nil {
		application.SupervisorID = &supervisor.ID
		application.Supervisor = supervisor
	}

	unverified := 0
	for _, document := range application.Documents {
		if document.Status != models.DocumentVerified {
			unverified++
		}
	}
	if unverified > 0 {
		s.logger.Warn().
			Uint("application_id", application.ID).
			Int("unverified_documents", unverified).
			Msg("approving application with unverified documents")
	}

	application.Documents = append(application.Documents, models.Document{
		Name:       "Acceptance Letter",
		Type:       "acceptance-letter",
		Status:     models.DocumentVerified,
		UploadedAt: s.now(),
	})
}

func (s *applicationService) Annotate(ctx context.Context, id uint, payload dto.ApplicationNotesRequest, actor ActivityActor) (dto.ApplicationResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ApplicationResponse{}, err
	}

	updated, err := s.applications.UpdateWithLock(ctx, id, func(application *models.Application) error {
		// Notes only; status and review fields stay untouched.
		application.Notes = strings.TrimSpace(s.sanitizer.Sanitize(payload.Notes))
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ApplicationResponse{}, ErrApplicationNotFound
		}
		return dto.ApplicationResponse{}, err
	}

	s.recordActivity(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     "application.annotated",
		EntityType: "application",
		EntityID:   &updated.ID,
	})

	s.invalidateFor(ctx, updated)

	return dto.NewApplicationResponse(updated), nil
}

func (s *applicationService) Get(ctx context.Context, id uint) (dto.ApplicationResponse, error) {
	application, err := s.applications.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ApplicationResponse{}, ErrApplicationNotFound
		}
		return dto.ApplicationResponse{}, err
	}

	return dto.NewApplicationResponse(application), nil
}

func (s *applicationService) List(ctx context.Context, filter dto.ApplicationFilter) ([]dto.ApplicationResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	repoFilter := repository.ApplicationFilter{
		StudentID: filter.StudentID,
		Search:    filter.Search,
	}
	if filter.Category != nil {
		category := models.ApplicationCategory(*filter.Category)
		repoFilter.Category = &category
	}
	if filter.Status != nil {
		status := models.ApplicationStatus(*filter.Status)
		repoFilter.Status = &status
	}

	applications, err := s.applications.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}

	return dto.NewApplicationResponseSlice(applications), nil
}

func (s *applicationService) recordActivity(ctx context.Context, entry ActivityEntry) {
	if s.activity == nil {
		return
	}
	if _, err := s.activity.Record(ctx, entry); err != nil {
		s.logger.Warn().Err(err).Str("action", entry.Action).Msg("failed to record activity")
	}
}

func (s *applicationService) invalidateFor(ctx context.Context, application models.Application) {
	if s.revalidator == nil {
		return
	}
	s.revalidator.Invalidate(ctx,
		fmt.Sprintf("applications:student:%d", application.StudentID),
		"applications:staff",
		fmt.Sprintf("dashboard:student:%d", application.StudentID),
		"dashboard:staff",
	)
}
