package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"club-api/internal/domain"
	"club-api/internal/repository"
	apperrors "club-api/pkg/errors"
	"club-api/pkg/logger"
	"club-api/pkg/qrcode"
	"golang.org/x/sync/errgroup"
)

// inviteCodeAttempts is the first try plus three retries on collision
const inviteCodeAttempts = 4

const (
	summaryScheduleLimit = 5
	summaryPostLimit     = 5
)

// Notifier tells users about membership changes made on their behalf
type Notifier interface {
	SendMemberAdded(to, name, clubName, link string) error
}

// MembershipOptions configures MembershipService
type MembershipOptions struct {
	// JoinRole is given to users joining through an invite code
	JoinRole domain.Role
	// PublicBaseURL prefixes links in invite QR codes and mails
	PublicBaseURL string
	Notifier      Notifier
	QRCode        qrcode.Config
}

type membershipService struct {
	repos         *repository.Repositories
	access        clubAccess
	cache         *CacheService
	notifier      Notifier
	qr            qrcode.Config
	joinRole      domain.Role
	baseURL       string
	logger        *logger.Logger
	now           func() time.Time
	newInviteCode func() string
}

// NewMembershipService creates the club and membership service
func NewMembershipService(repos *repository.Repositories, cache *CacheService, opts MembershipOptions, log *logger.Logger) MembershipService {
	joinRole := opts.JoinRole
	if !joinRole.Valid() || joinRole == domain.RoleOwner {
		joinRole = domain.RoleAdmin
	}
	qr := opts.QRCode
	if qr.Size == 0 {
		qr = qrcode.DefaultConfig()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &membershipService{
		repos:         repos,
		access:        clubAccess{repos: repos},
		cache:         cache,
		notifier:      opts.Notifier,
		qr:            qr,
		joinRole:      joinRole,
		baseURL:       strings.TrimRight(opts.PublicBaseURL, "/"),
		logger:        log,
		now:           time.Now,
		newInviteCode: domain.NewInviteCode,
	}
}

// CreateClub creates the club and its OWNER membership in one transaction,
// regenerating the invite code when it collides with an existing one
func (s *membershipService) CreateClub(ctx context.Context, ownerID string, req *domain.CreateClubRequest) (*domain.Club, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("Club name is required", map[string]interface{}{"field": "name"})
	}
	description := req.Description
	if description != nil {
		trimmed := strings.TrimSpace(*description)
		if trimmed == "" {
			description = nil
		} else {
			description = &trimmed
		}
	}

	for attempt := 1; attempt <= inviteCodeAttempts; attempt++ {
		club := &domain.Club{
			Name:        name,
			Description: description,
			InviteCode:  s.newInviteCode(),
		}

		err := s.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
			if err := s.repos.Clubs.Create(ctx, club); err != nil {
				return err
			}
			return s.repos.Memberships.Create(ctx, &domain.Membership{
				UserID: ownerID,
				ClubID: club.ID,
				Role:   domain.RoleOwner,
			})
		})
		if err == nil {
			s.logger.WithFields(map[string]interface{}{
				"club_id":  club.ID,
				"owner_id": ownerID,
			}).Info("Club created")
			return club, nil
		}

		if repository.IsConflictOn(err, repository.ConstraintClubInviteCode) {
			s.logger.WithField("attempt", attempt).Warn("Invite code collision, regenerating")
			continue
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("User not found")
		}
		return nil, internalError(err)
	}

	return nil, apperrors.NewInternalError("Internal server error",
		fmt.Errorf("invite code collided %d times", inviteCodeAttempts))
}

// JoinClub adds the caller to the club owning inviteCode
func (s *membershipService) JoinClub(ctx context.Context, userID, inviteCode string) (*domain.Membership, error) {
	code := strings.TrimSpace(inviteCode)
	if code == "" {
		return nil, apperrors.NewValidationError("Invite code is required", map[string]interface{}{"field": "invite_code"})
	}

	club, err := s.cache.GetClubByInviteCode(ctx, code, s.repos.Clubs.GetByInviteCode)
	if err != nil {
		return nil, notFoundOr(err, "Invalid invite code")
	}

	membership := &domain.Membership{UserID: userID, ClubID: club.ID, Role: s.joinRole}
	err = s.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.repos.Memberships.Get(ctx, userID, club.ID); err == nil {
			return apperrors.NewConflictError("You are already a member of this club")
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return s.repos.Memberships.Create(ctx, membership)
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.NewConflictError("You are already a member of this club")
		}
		if errors.Is(err, repository.ErrNotFound) {
			// The cached club was deleted after it was cached
			s.cache.InvalidateClub(ctx, club)
			return nil, apperrors.NewNotFoundError("Invalid invite code")
		}
		return nil, internalError(err)
	}

	s.cache.InvalidateClubSummary(ctx, club.ID)
	s.logger.WithFields(map[string]interface{}{
		"club_id": club.ID,
		"user_id": userID,
		"role":    membership.Role,
	}).Info("User joined club")
	return membership, nil
}

// AddMemberByEmail finds or creates the user for an email and adds them as
// MEMBER. The name is required and only used when the account is created.
func (s *membershipService) AddMemberByEmail(ctx context.Context, actorID, clubID string, req *domain.AddMemberRequest) (*domain.Member, error) {
	if _, err := s.access.manager(ctx, actorID, clubID); err != nil {
		return nil, err
	}

	email := domain.NormalizeEmail(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperrors.NewValidationError("A valid email is required", map[string]interface{}{"field": "email"})
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("Name is required", map[string]interface{}{"field": "name"})
	}

	var member domain.Member
	var created bool
	err := s.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		user, err := s.repos.Users.GetByEmail(ctx, email)
		if errors.Is(err, repository.ErrNotFound) {
			user = &domain.User{Email: email, Name: name}
			if err := s.repos.Users.Create(ctx, user); err != nil {
				return err
			}
			created = true
		} else if err != nil {
			return err
		}

		if _, err := s.repos.Memberships.Get(ctx, user.ID, clubID); err == nil {
			return apperrors.NewConflictError("This user is already a member of the club")
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		m := domain.Membership{UserID: user.ID, ClubID: clubID, Role: domain.RoleMember}
		if err := s.repos.Memberships.Create(ctx, &m); err != nil {
			return err
		}
		member = domain.Member{Membership: m, Name: user.Name, Email: user.Email, RoleLabel: m.Role.Label()}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.NewConflictError("This user is already a member of the club")
		}
		return nil, internalError(err)
	}

	s.cache.InvalidateClubSummary(ctx, clubID)
	s.logger.WithFields(map[string]interface{}{
		"club_id":      clubID,
		"user_id":      member.UserID,
		"user_created": created,
	}).Info("Member added by email")

	s.notifyMemberAdded(ctx, clubID, &member)
	return &member, nil
}

func (s *membershipService) notifyMemberAdded(ctx context.Context, clubID string, member *domain.Member) {
	if s.notifier == nil {
		return
	}
	club, err := s.repos.Clubs.GetByID(ctx, clubID)
	if err != nil {
		s.logger.WithError(err).Warn("Skipping member notification, club lookup failed")
		return
	}
	link := ""
	if s.baseURL != "" {
		link = s.baseURL + "/clubs/" + clubID
	}
	if err := s.notifier.SendMemberAdded(member.Email, member.Name, club.Name, link); err != nil {
		s.logger.WithError(err).Warn("Failed to send member notification")
	}
}

// RemoveMember deletes a membership. Managers may remove others, anyone may
// remove themselves, and the last OWNER can never be removed.
func (s *membershipService) RemoveMember(ctx context.Context, actorID, clubID, membershipID string) error {
	actor, err := s.access.member(ctx, actorID, clubID)
	if err != nil {
		return err
	}

	err = s.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		target, err := s.repos.Memberships.GetByID(ctx, clubID, membershipID)
		if err != nil {
			return notFoundOr(err, "Member not found")
		}

		self := target.ID == actor.ID
		if !self && !actor.Role.CanManage() {
			return apperrors.NewAuthorizationError("Only the club owner or admins can remove members")
		}
		if !self && target.Role == domain.RoleOwner && actor.Role != domain.RoleOwner {
			return apperrors.NewAuthorizationError("Only an owner can remove another owner")
		}
		if target.Role == domain.RoleOwner {
			if err := s.ensureAnotherOwner(ctx, clubID); err != nil {
				return err
			}
		}
		return s.repos.Memberships.Delete(ctx, clubID, membershipID)
	})
	if err != nil {
		return notFoundOr(err, "Member not found")
	}

	s.cache.InvalidateClubSummary(ctx, clubID)
	s.logger.WithFields(map[string]interface{}{
		"club_id":       clubID,
		"membership_id": membershipID,
		"actor_id":      actorID,
	}).Info("Member removed")
	return nil
}

// UpdateMemberRole changes a member's role. Granting or taking away OWNER is
// reserved to owners, and the last OWNER cannot be demoted.
func (s *membershipService) UpdateMemberRole(ctx context.Context, actorID, clubID, membershipID string, role domain.Role) (*domain.Membership, error) {
	if !role.Valid() {
		return nil, apperrors.NewValidationError("Invalid role", map[string]interface{}{
			"field":   "role",
			"allowed": []domain.Role{domain.RoleOwner, domain.RoleAdmin, domain.RoleMember},
		})
	}

	actor, err := s.access.manager(ctx, actorID, clubID)
	if err != nil {
		return nil, err
	}

	var updated *domain.Membership
	err = s.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		target, err := s.repos.Memberships.GetByID(ctx, clubID, membershipID)
		if err != nil {
			return notFoundOr(err, "Member not found")
		}

		if (role == domain.RoleOwner || target.Role == domain.RoleOwner) && actor.Role != domain.RoleOwner {
			return apperrors.NewAuthorizationError("Only an owner can grant or revoke the owner role")
		}
		if target.Role == domain.RoleOwner && role != domain.RoleOwner {
			if err := s.ensureAnotherOwner(ctx, clubID); err != nil {
				return err
			}
		}

		if err := s.repos.Memberships.UpdateRole(ctx, clubID, membershipID, role); err != nil {
			return err
		}
		target.Role = role
		updated = target
		return nil
	})
	if err != nil {
		return nil, notFoundOr(err, "Member not found")
	}
	return updated, nil
}

// ensureAnotherOwner refuses changes that would leave the club without an
// OWNER. It must run inside the transaction that makes the change.
func (s *membershipService) ensureAnotherOwner(ctx context.Context, clubID string) error {
	owners, err := s.repos.Memberships.LockOwners(ctx, clubID)
	if err != nil {
		return err
	}
	if owners <= 1 {
		return apperrors.NewConflictError("A club must keep at least one owner")
	}
	return nil
}

func (s *membershipService) ListMembers(ctx context.Context, actorID, clubID string) ([]domain.Member, error) {
	if _, err := s.access.member(ctx, actorID, clubID); err != nil {
		return nil, err
	}
	members, err := s.repos.Memberships.ListMembers(ctx, clubID)
	if err != nil {
		return nil, internalError(err)
	}
	if members == nil {
		members = []domain.Member{}
	}
	return members, nil
}

func (s *membershipService) ListMyClubs(ctx context.Context, userID string) ([]domain.ClubWithCount, error) {
	clubs, err := s.repos.Clubs.ListByUser(ctx, userID)
	if err != nil {
		return nil, internalError(err)
	}
	if clubs == nil {
		clubs = []domain.ClubWithCount{}
	}
	return clubs, nil
}

func (s *membershipService) GetClub(ctx context.Context, actorID, clubID string) (*domain.ClubWithCount, error) {
	m, err := s.access.member(ctx, actorID, clubID)
	if err != nil {
		return nil, err
	}
	club, err := s.repos.Clubs.GetByID(ctx, clubID)
	if err != nil {
		return nil, notFoundOr(err, "Club not found")
	}
	count, err := s.repos.Memberships.CountMembers(ctx, clubID)
	if err != nil {
		return nil, internalError(err)
	}
	return &domain.ClubWithCount{Club: *club, MemberCount: count, MyRole: m.Role}, nil
}

// DeleteClub removes the club and everything scoped to it
func (s *membershipService) DeleteClub(ctx context.Context, actorID, clubID string) error {
	if _, err := s.access.owner(ctx, actorID, clubID); err != nil {
		return err
	}
	club, err := s.repos.Clubs.GetByID(ctx, clubID)
	if err != nil {
		return notFoundOr(err, "Club not found")
	}
	if err := s.repos.Clubs.Delete(ctx, clubID); err != nil {
		return notFoundOr(err, "Club not found")
	}

	s.cache.InvalidateClub(ctx, club)
	s.logger.WithFields(map[string]interface{}{
		"club_id":  clubID,
		"actor_id": actorID,
	}).Info("Club deleted")
	return nil
}

// ClubSummary gathers the member count, upcoming schedules and recent posts concurrently
func (s *membershipService) ClubSummary(ctx context.Context, actorID, clubID string) (*domain.ClubSummary, error) {
	if _, err := s.access.member(ctx, actorID, clubID); err != nil {
		return nil, err
	}
	if cached, ok := s.cache.GetClubSummary(ctx, clubID); ok {
		return cached, nil
	}

	club, err := s.repos.Clubs.GetByID(ctx, clubID)
	if err != nil {
		return nil, notFoundOr(err, "Club not found")
	}

	summary := &domain.ClubSummary{Club: *club}
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		n, err := s.repos.Memberships.CountMembers(egCtx, clubID)
		if err != nil {
			return fmt.Errorf("failed to count members: %w", err)
		}
		summary.MemberCount = n
		return nil
	})
	eg.Go(func() error {
		schedules, err := s.repos.Schedules.ListUpcoming(egCtx, clubID, s.now(), summaryScheduleLimit)
		if err != nil {
			return fmt.Errorf("failed to list schedules: %w", err)
		}
		summary.UpcomingSchedules = schedules
		return nil
	})
	eg.Go(func() error {
		posts, err := s.repos.Posts.List(egCtx, clubID, summaryPostLimit)
		if err != nil {
			return fmt.Errorf("failed to list posts: %w", err)
		}
		summary.RecentPosts = posts
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, internalError(err)
	}

	if summary.UpcomingSchedules == nil {
		summary.UpcomingSchedules = []domain.Schedule{}
	}
	if summary.RecentPosts == nil {
		summary.RecentPosts = []domain.Post{}
	}
	s.cache.SetClubSummary(ctx, summary)
	return summary, nil
}

// InviteQRCode renders a PNG that encodes the club's join link
func (s *membershipService) InviteQRCode(ctx context.Context, actorID, clubID string) ([]byte, error) {
	if _, err := s.access.member(ctx, actorID, clubID); err != nil {
		return nil, err
	}
	club, err := s.repos.Clubs.GetByID(ctx, clubID)
	if err != nil {
		return nil, notFoundOr(err, "Club not found")
	}

	content := club.InviteCode
	if s.baseURL != "" {
		content = s.baseURL + "/join?code=" + club.InviteCode
	}
	png, err := s.qr.PNG(content)
	if err != nil {
		return nil, internalError(err)
	}
	return png, nil
}
