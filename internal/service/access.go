package service

import (
	"context"
	"errors"

	"club-api/internal/domain"
	"club-api/internal/repository"
	apperrors "club-api/pkg/errors"
)

// clubAccess resolves the caller's membership and enforces role checks
type clubAccess struct {
	repos *repository.Repositories
}

// member returns the caller's membership. A missing club is 404, a club the
// caller does not belong to is 403.
func (a clubAccess) member(ctx context.Context, userID, clubID string) (*domain.Membership, error) {
	if userID == "" {
		return nil, apperrors.NewAuthenticationError("Authentication required")
	}

	m, err := a.repos.Memberships.Get(ctx, userID, clubID)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, internalError(err)
	}

	if _, err := a.repos.Clubs.GetByID(ctx, clubID); err != nil {
		return nil, notFoundOr(err, "Club not found")
	}
	return nil, apperrors.NewAuthorizationError("You are not a member of this club")
}

// manager requires OWNER or ADMIN
func (a clubAccess) manager(ctx context.Context, userID, clubID string) (*domain.Membership, error) {
	m, err := a.member(ctx, userID, clubID)
	if err != nil {
		return nil, err
	}
	if !m.Role.CanManage() {
		return nil, apperrors.NewAuthorizationError("Only the club owner or admins can do this")
	}
	return m, nil
}

// owner requires OWNER
func (a clubAccess) owner(ctx context.Context, userID, clubID string) (*domain.Membership, error) {
	m, err := a.member(ctx, userID, clubID)
	if err != nil {
		return nil, err
	}
	if m.Role != domain.RoleOwner {
		return nil, apperrors.NewAuthorizationError("Only the club owner can do this")
	}
	return m, nil
}

// notFoundOr maps repository.ErrNotFound to a 404 with msg and anything else to a 500
func notFoundOr(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFoundError(msg)
	}
	return internalError(err)
}

// internalError keeps AppErrors as they are and wraps everything else
func internalError(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperrors.NewInternalError("Internal server error", err)
}
