package service

import (
	"context"
	"strings"

	"club-api/internal/domain"
	"club-api/internal/repository"
	"club-api/pkg/calendar"
	apperrors "club-api/pkg/errors"
	"club-api/pkg/logger"
)

type scheduleService struct {
	repos  *repository.Repositories
	access clubAccess
	cache  *CacheService
	logger *logger.Logger
}

// NewScheduleService creates the club schedule service
func NewScheduleService(repos *repository.Repositories, cache *CacheService, log *logger.Logger) ScheduleService {
	if log == nil {
		log = logger.NewNop()
	}
	return &scheduleService{
		repos:  repos,
		access: clubAccess{repos: repos},
		cache:  cache,
		logger: log,
	}
}

// CreateSchedule adds a dated event to the club. EndAt is stored as given,
// without checking it against StartAt.
func (s *scheduleService) CreateSchedule(ctx context.Context, actorID, clubID string, req *domain.CreateScheduleRequest) (*domain.Schedule, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("Title is required", map[string]interface{}{"field": "title"})
	}
	if req.StartAt == nil || req.StartAt.IsZero() {
		return nil, apperrors.NewValidationError("Start time is required", map[string]interface{}{"field": "start_at"})
	}
	if _, err := s.access.member(ctx, actorID, clubID); err != nil {
		return nil, err
	}

	schedule := &domain.Schedule{
		ClubID:      clubID,
		Title:       title,
		Description: req.Description,
		StartAt:     req.StartAt.UTC(),
	}
	if req.EndAt != nil && !req.EndAt.IsZero() {
		end := req.EndAt.UTC()
		schedule.EndAt = &end
	}
	if err := s.repos.Schedules.Create(ctx, schedule); err != nil {
		return nil, notFoundOr(err, "Club not found")
	}

	s.cache.InvalidateClubSummary(ctx, clubID)
	s.logger.WithFields(map[string]interface{}{
		"club_id":     clubID,
		"schedule_id": schedule.ID,
	}).Info("Schedule created")
	return schedule, nil
}

// DeleteSchedule removes a schedule. Requires OWNER or ADMIN.
func (s *scheduleService) DeleteSchedule(ctx context.Context, actorID, clubID, scheduleID string) error {
	if _, err := s.access.manager(ctx, actorID, clubID); err != nil {
		return err
	}
	if err := s.repos.Schedules.Delete(ctx, clubID, scheduleID); err != nil {
		return notFoundOr(err, "Schedule not found")
	}
	s.cache.InvalidateClubSummary(ctx, clubID)
	return nil
}

func (s *scheduleService) ListSchedules(ctx context.Context, actorID, clubID string) ([]domain.Schedule, error) {
	if _, err := s.access.member(ctx, actorID, clubID); err != nil {
		return nil, err
	}
	schedules, err := s.repos.Schedules.List(ctx, clubID)
	if err != nil {
		return nil, internalError(err)
	}
	if schedules == nil {
		schedules = []domain.Schedule{}
	}
	return schedules, nil
}

// ExportICS renders every schedule of the club as an iCalendar document
func (s *scheduleService) ExportICS(ctx context.Context, actorID, clubID string) ([]byte, error) {
	if _, err := s.access.member(ctx, actorID, clubID); err != nil {
		return nil, err
	}
	club, err := s.repos.Clubs.GetByID(ctx, clubID)
	if err != nil {
		return nil, notFoundOr(err, "Club not found")
	}
	schedules, err := s.repos.Schedules.List(ctx, clubID)
	if err != nil {
		return nil, internalError(err)
	}

	events := make([]calendar.Event, 0, len(schedules))
	for _, sc := range schedules {
		ev := calendar.Event{
			ID:        sc.ID,
			Title:     sc.Title,
			StartAt:   sc.StartAt,
			EndAt:     sc.EndAt,
			CreatedAt: sc.CreatedAt,
		}
		if sc.Description != nil {
			ev.Description = *sc.Description
		}
		events = append(events, ev)
	}

	data, err := calendar.Export(club.Name, events)
	if err != nil {
		return nil, internalError(err)
	}
	return data, nil
}
