package service

import (
	"context"
	"time"

	"club-api/internal/domain"
	"club-api/internal/repository"
	apperrors "club-api/pkg/errors"
	"club-api/pkg/logger"
)

type attendanceService struct {
	repos  *repository.Repositories
	access clubAccess
	logger *logger.Logger
}

// NewAttendanceService creates the attendance service
func NewAttendanceService(repos *repository.Repositories, log *logger.Logger) AttendanceService {
	if log == nil {
		log = logger.NewNop()
	}
	return &attendanceService{
		repos:  repos,
		access: clubAccess{repos: repos},
		logger: log,
	}
}

// SetAttendance records the status of userID on the UTC day of date,
// overwriting any earlier status for that day
func (s *attendanceService) SetAttendance(ctx context.Context, actorID, clubID, userID string, date time.Time, status domain.AttendanceStatus) (*domain.Attendance, error) {
	if !status.Valid() {
		return nil, apperrors.NewValidationError("Invalid attendance status", map[string]interface{}{
			"field":   "status",
			"allowed": []domain.AttendanceStatus{domain.AttendancePresent, domain.AttendanceAbsent, domain.AttendanceLate},
		})
	}
	if userID == "" {
		return nil, apperrors.NewValidationError("User is required", map[string]interface{}{"field": "user_id"})
	}
	if date.IsZero() {
		return nil, apperrors.NewValidationError("Date is required", map[string]interface{}{"field": "date"})
	}

	actor, err := s.access.member(ctx, actorID, clubID)
	if err != nil {
		return nil, err
	}
	if userID != actorID && !actor.Role.CanManage() {
		return nil, apperrors.NewAuthorizationError("Members can only record their own attendance")
	}

	record := &domain.Attendance{
		UserID: userID,
		ClubID: clubID,
		Date:   domain.Day(date),
		Status: status,
	}
	err = s.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if userID != actorID {
			if _, err := s.repos.Memberships.Get(ctx, userID, clubID); err != nil {
				return notFoundOr(err, "Member not found")
			}
		}
		return s.repos.Attendance.Upsert(ctx, record)
	})
	if err != nil {
		return nil, notFoundOr(err, "Member not found")
	}

	s.logger.WithFields(map[string]interface{}{
		"club_id":  clubID,
		"user_id":  userID,
		"date":     record.Date.Format(time.DateOnly),
		"status":   status,
		"actor_id": actorID,
	}).Debug("Attendance recorded")
	return record, nil
}

// ListAttendance returns the club's attendance, optionally for one day
func (s *attendanceService) ListAttendance(ctx context.Context, actorID, clubID string, day *time.Time) ([]domain.Attendance, error) {
	if _, err := s.access.member(ctx, actorID, clubID); err != nil {
		return nil, err
	}
	if day != nil {
		d := domain.Day(*day)
		day = &d
	}
	records, err := s.repos.Attendance.List(ctx, clubID, day)
	if err != nil {
		return nil, internalError(err)
	}
	if records == nil {
		records = []domain.Attendance{}
	}
	return records, nil
}

// Roster lists every member with their status for day. Members without a
// record are reported as ABSENT with Recorded false.
func (s *attendanceService) Roster(ctx context.Context, actorID, clubID string, day time.Time) (*domain.Roster, error) {
	if _, err := s.access.member(ctx, actorID, clubID); err != nil {
		return nil, err
	}
	d := domain.Day(day)

	members, err := s.repos.Memberships.ListMembers(ctx, clubID)
	if err != nil {
		return nil, internalError(err)
	}
	records, err := s.repos.Attendance.List(ctx, clubID, &d)
	if err != nil {
		return nil, internalError(err)
	}

	byUser := make(map[string]domain.AttendanceStatus, len(records))
	for _, r := range records {
		byUser[r.UserID] = r.Status
	}

	roster := &domain.Roster{
		Date:    d,
		Entries: make([]domain.RosterEntry, 0, len(members)),
		Counts: map[domain.AttendanceStatus]int{
			domain.AttendancePresent: 0,
			domain.AttendanceAbsent:  0,
			domain.AttendanceLate:    0,
		},
	}
	for _, m := range members {
		status, recorded := byUser[m.UserID]
		if !recorded {
			status = domain.AttendanceAbsent
		}
		roster.Entries = append(roster.Entries, domain.RosterEntry{
			UserID:   m.UserID,
			Name:     m.Name,
			Role:     m.Role,
			Status:   status,
			Recorded: recorded,
		})
		roster.Counts[status]++
	}
	return roster, nil
}
