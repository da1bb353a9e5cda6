package handler

import (
	"net/http"
	"strings"
	"time"

	"club-api/internal/container"
	"club-api/internal/domain"
	"club-api/internal/service"
	"club-api/pkg/errors"
	"club-api/pkg/logger"
	"github.com/go-chi/chi/v5"
)

// AttendanceHandler handles attendance records
type AttendanceHandler struct {
	attendance service.AttendanceService
	logger     *logger.Logger
	now        func() time.Time
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(container *container.Container) *AttendanceHandler {
	return &AttendanceHandler{
		attendance: container.Services.Attendance,
		logger:     container.GetLogger(),
		now:        time.Now,
	}
}

// SetAttendance handles POST /api/clubs/{clubId}/attendance
func (h *AttendanceHandler) SetAttendance(w http.ResponseWriter, r *http.Request) {
	var req domain.SetAttendanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	day, err := domain.ParseDay(req.Date)
	if err != nil {
		respondError(w, r, h.logger, errors.NewValidationError(err.Error(), map[string]interface{}{"date": "must be YYYY-MM-DD"}))
		return
	}
	status := domain.AttendanceStatus(strings.ToUpper(strings.TrimSpace(req.Status)))

	record, err := h.attendance.SetAttendance(r.Context(), userID(r), chi.URLParam(r, "clubId"), req.UserID, day, status)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, record)
}

// ListAttendance handles GET /api/clubs/{clubId}/attendance?date=YYYY-MM-DD
func (h *AttendanceHandler) ListAttendance(w http.ResponseWriter, r *http.Request) {
	var day *time.Time
	if raw := r.URL.Query().Get("date"); raw != "" {
		d, err := domain.ParseDay(raw)
		if err != nil {
			respondError(w, r, h.logger, errors.NewValidationError(err.Error(), map[string]interface{}{"date": "must be YYYY-MM-DD"}))
			return
		}
		day = &d
	}

	records, err := h.attendance.ListAttendance(r.Context(), userID(r), chi.URLParam(r, "clubId"), day)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, records)
}

// Roster handles GET /api/clubs/{clubId}/attendance/roster?date=YYYY-MM-DD.
// The date defaults to today in UTC.
func (h *AttendanceHandler) Roster(w http.ResponseWriter, r *http.Request) {
	day := domain.Day(h.now())
	if raw := r.URL.Query().Get("date"); raw != "" {
		d, err := domain.ParseDay(raw)
		if err != nil {
			respondError(w, r, h.logger, errors.NewValidationError(err.Error(), map[string]interface{}{"date": "must be YYYY-MM-DD"}))
			return
		}
		day = d
	}

	roster, err := h.attendance.Roster(r.Context(), userID(r), chi.URLParam(r, "clubId"), day)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, roster)
}
