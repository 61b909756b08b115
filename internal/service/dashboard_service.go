package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/fasilkom-dev/siakad-api/internal/dto"
	"github.com/fasilkom-dev/siakad-api/internal/models"
	"github.com/fasilkom-dev/siakad-api/internal/repository"
)

// DashboardService produces aggregated workflow metrics for portal views.
type DashboardService interface {
	StudentDashboard(ctx context.Context, studentID uint) (dto.StudentDashboardResponse, error)
	StaffDashboard(ctx context.Context) (dto.StaffDashboardResponse, error)
}

type dashboardService struct {
	applications repository.ApplicationRepository
	cache        *redis.Client
	cacheTTL     time.Duration
	logger       zerolog.Logger
	now          func() time.Time
}

// NewDashboardService builds the dashboard aggregator. Cache keys match the
// revalidation scopes so mutations drop stale entries automatically.
func NewDashboardService(applications repository.ApplicationRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) DashboardService {
	return &dashboardService{
		applications: applications,
		cache:        cache,
		cacheTTL:     ttl,
		logger:       logger.With().Str("component", "dashboard_service").Logger(),
		now:          time.Now,
	}
}

func (s *dashboardService) StudentDashboard(ctx context.Context, studentID uint) (dto.StudentDashboardResponse, error) {
	cacheKey := fmt.Sprintf("dashboard:student:%d", studentID)

	var cached dto.StudentDashboardResponse
	if s.readCache(ctx, cacheKey, &cached) {
		return cached, nil
	}

	filter := repository.ApplicationFilter{StudentID: &studentID}
	applications, err := s.applications.List(ctx, filter)
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	response := s.buildStudentResponse(studentID, applications)
	s.writeCache(ctx, cacheKey, response)

	return response, nil
}

func (s *dashboardService) StaffDashboard(ctx context.Context) (dto.StaffDashboardResponse, error) {
	cacheKey := "dashboard:staff"

	var cached dto.StaffDashboardResponse
	if s.readCache(ctx, cacheKey, &cached) {
		return cached, nil
	}

	response := dto.StaffDashboardResponse{GeneratedAt: s.now().UTC()}

	for _, category := range []models.ApplicationCategory{models.CategoryInternship, models.CategoryThesis} {
		c := category
		counts, err := s.applications.CountByStatus(ctx, repository.ApplicationFilter{Category: &c})
		if err != nil {
			return dto.StaffDashboardResponse{}, err
		}

		queue := dto.QueueSummary{
			Pending:  counts[models.StatusPending],
			InReview: counts[models.StatusInReview],
			Decided:  counts[models.StatusApproved] + counts[models.StatusRejected] + counts[models.StatusCompleted],
		}

		if category == models.CategoryInternship {
			response.InternshipQueue = queue
		} else {
			response.ThesisQueue = queue
		}
	}

	s.writeCache(ctx, cacheKey, response)

	return response, nil
}

func (s *dashboardService) buildStudentResponse(studentID uint, applications []models.Application) dto.StudentDashboardResponse {
	response := dto.StudentDashboardResponse{
		StudentID:   studentID,
		GeneratedAt: s.now().UTC(),
	}

	var latest *models.Application
	for i := range applications {
		application := &applications[i]

		summary := &response.Internship
		if application.Category == models.CategoryThesis {
			summary = &response.Thesis
		}

		switch application.Status {
		case models.StatusPending:
			summary.Pending++
		case models.StatusInReview:
			summary.InReview++
		case models.StatusApproved:
			summary.Approved++
		case models.StatusRejected:
			summary.Rejected++
		case models.StatusCompleted:
			summary.Completed++
		}

		for _, document := range application.Documents {
			response.DocumentsTotal++
			if document.Status == models.DocumentVerified {
				response.DocumentsVerified++
			}
		}

		if application.ReviewedAt != nil {
			if latest == nil || application.ReviewedAt.After(*latest.ReviewedAt) {
				latest = application
			}
		}
	}

	if latest != nil {
		response.LatestDecision = &dto.DecisionSummary{
			ApplicationID: latest.ID,
			Category:      string(latest.Category),
			Status:        string(latest.Status),
			ReviewedAt:    *latest.ReviewedAt,
		}
	}

	return response
}

func (s *dashboardService) readCache(ctx context.Context, key string, target interface{}) bool {
	if s.cache == nil {
		return false
	}

	cached, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to read dashboard cache")
		}
		return false
	}

	if err := json.Unmarshal([]byte(cached), target); err != nil {
		return false
	}

	s.logger.Debug().Str("key", key).Msg("dashboard cache hit")
	return true
}

func (s *dashboardService) writeCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to store dashboard cache")
	}
}
