package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"club-api/internal/container"
	"club-api/internal/domain"
	"club-api/internal/service"
	"club-api/pkg/logger"
	"github.com/go-chi/chi/v5"
)

// ScheduleHandler handles club schedules
type ScheduleHandler struct {
	schedules service.ScheduleService
	logger    *logger.Logger
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler(container *container.Container) *ScheduleHandler {
	return &ScheduleHandler{
		schedules: container.Services.Schedule,
		logger:    container.GetLogger(),
	}
}

// CreateSchedule handles POST /api/clubs/{clubId}/schedules
func (h *ScheduleHandler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateScheduleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	schedule, err := h.schedules.CreateSchedule(r.Context(), userID(r), chi.URLParam(r, "clubId"), &req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, schedule)
}

// ListSchedules handles GET /api/clubs/{clubId}/schedules
func (h *ScheduleHandler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	schedules, err := h.schedules.ListSchedules(r.Context(), userID(r), chi.URLParam(r, "clubId"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, schedules)
}

// DeleteSchedule handles DELETE /api/clubs/{clubId}/schedules/{scheduleId}
func (h *ScheduleHandler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	err := h.schedules.DeleteSchedule(r.Context(), userID(r), chi.URLParam(r, "clubId"), chi.URLParam(r, "scheduleId"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportICS handles GET /api/clubs/{clubId}/schedules.ics
func (h *ScheduleHandler) ExportICS(w http.ResponseWriter, r *http.Request) {
	clubID := chi.URLParam(r, "clubId")
	data, err := h.schedules.ExportICS(r.Context(), userID(r), clubID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="club-%s.ics"`, clubID))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
