package handler

import (
	"net/http"
	"strconv"

	"club-api/internal/container"
	"club-api/internal/domain"
	"club-api/internal/service"
	"club-api/pkg/errors"
	"club-api/pkg/logger"
	"github.com/go-chi/chi/v5"
)

// ClubHandler handles clubs and their members
type ClubHandler struct {
	clubs  service.MembershipService
	logger *logger.Logger
}

// NewClubHandler creates a new club handler
func NewClubHandler(container *container.Container) *ClubHandler {
	return &ClubHandler{
		clubs:  container.Services.Membership,
		logger: container.GetLogger(),
	}
}

// CreateClub handles POST /api/clubs
func (h *ClubHandler) CreateClub(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateClubRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	club, err := h.clubs.CreateClub(r.Context(), userID(r), &req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, club)
}

// ListMyClubs handles GET /api/clubs/my
func (h *ClubHandler) ListMyClubs(w http.ResponseWriter, r *http.Request) {
	clubs, err := h.clubs.ListMyClubs(r.Context(), userID(r))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, clubs)
}

// JoinClub handles POST /api/clubs/join
func (h *ClubHandler) JoinClub(w http.ResponseWriter, r *http.Request) {
	var req domain.JoinClubRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	membership, err := h.clubs.JoinClub(r.Context(), userID(r), req.InviteCode)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, membership)
}

// GetClub handles GET /api/clubs/{clubId}
func (h *ClubHandler) GetClub(w http.ResponseWriter, r *http.Request) {
	club, err := h.clubs.GetClub(r.Context(), userID(r), chi.URLParam(r, "clubId"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, club)
}

// DeleteClub handles DELETE /api/clubs/{clubId}
func (h *ClubHandler) DeleteClub(w http.ResponseWriter, r *http.Request) {
	if err := h.clubs.DeleteClub(r.Context(), userID(r), chi.URLParam(r, "clubId")); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Summary handles GET /api/clubs/{clubId}/summary
func (h *ClubHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.clubs.ClubSummary(r.Context(), userID(r), chi.URLParam(r, "clubId"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// InviteQRCode handles GET /api/clubs/{clubId}/invite/qr
func (h *ClubHandler) InviteQRCode(w http.ResponseWriter, r *http.Request) {
	png, err := h.clubs.InviteQRCode(r.Context(), userID(r), chi.URLParam(r, "clubId"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// ListMembers handles GET /api/clubs/{clubId}/members
func (h *ClubHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.clubs.ListMembers(r.Context(), userID(r), chi.URLParam(r, "clubId"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, members)
}

// AddMember handles POST /api/clubs/{clubId}/members
func (h *ClubHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	var req domain.AddMemberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	member, err := h.clubs.AddMemberByEmail(r.Context(), userID(r), chi.URLParam(r, "clubId"), &req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, member)
}

// UpdateMemberRole handles PATCH /api/clubs/{clubId}/members/{memberId}
func (h *ClubHandler) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	role, ok := domain.ParseRole(req.Role)
	if !ok {
		respondError(w, r, h.logger, errors.NewValidationError("Invalid role", map[string]interface{}{"role": req.Role}))
		return
	}

	membership, err := h.clubs.UpdateMemberRole(r.Context(), userID(r),
		chi.URLParam(r, "clubId"), chi.URLParam(r, "memberId"), role)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, membership)
}

// RemoveMember handles DELETE /api/clubs/{clubId}/members/{memberId}
func (h *ClubHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	err := h.clubs.RemoveMember(r.Context(), userID(r), chi.URLParam(r, "clubId"), chi.URLParam(r, "memberId"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
