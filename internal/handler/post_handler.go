package handler

import (
	"net/http"

	"club-api/internal/container"
	"club-api/internal/domain"
	"club-api/internal/service"
	"club-api/pkg/logger"
	"github.com/go-chi/chi/v5"
)

// PostHandler handles the bulletin board and poll votes
type PostHandler struct {
	board  service.BoardService
	logger *logger.Logger
}

// NewPostHandler creates a new post handler
func NewPostHandler(container *container.Container) *PostHandler {
	return &PostHandler{
		board:  container.Services.Board,
		logger: container.GetLogger(),
	}
}

// CreatePost handles POST /api/clubs/{clubId}/posts
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req domain.CreatePostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	post, err := h.board.CreatePost(r.Context(), userID(r), chi.URLParam(r, "clubId"), &req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, post)
}

// ListPosts handles GET /api/clubs/{clubId}/posts
func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.board.ListPosts(r.Context(), userID(r), chi.URLParam(r, "clubId"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, posts)
}

// GetPost handles GET /api/clubs/{clubId}/posts/{postId}
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.board.GetPost(r.Context(), userID(r), chi.URLParam(r, "clubId"), chi.URLParam(r, "postId"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, post)
}

// DeletePost handles DELETE /api/clubs/{clubId}/posts/{postId}
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.board.DeletePost(r.Context(), userID(r), chi.URLParam(r, "clubId"), chi.URLParam(r, "postId")); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CastVote handles POST /api/clubs/{clubId}/posts/{postId}/vote
func (h *PostHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	var req domain.CastVoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	vote, err := h.board.CastVote(r.Context(), userID(r),
		chi.URLParam(r, "clubId"), chi.URLParam(r, "postId"), req.PollOptionID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, vote)
}
