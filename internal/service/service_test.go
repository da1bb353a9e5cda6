package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"club-api/internal/domain"
	"club-api/internal/repository"
	"club-api/internal/repository/memory"
	apperrors "club-api/pkg/errors"
	"club-api/pkg/logger"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	to, name, club, link string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMail
}

func (n *recordingNotifier) SendMemberAdded(to, name, clubName, link string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMail{to: to, name: name, club: clubName, link: link})
	return nil
}

type fixture struct {
	repos      *repository.Repositories
	store      *memory.Store
	cache      *CacheService
	mr         *miniredis.Miniredis
	notifier   *recordingNotifier
	membership *membershipService
	attendance AttendanceService
	board      BoardService
	schedules  ScheduleService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cache, mr := setupTestCache(t)
	store := memory.New()
	repos := store.Repositories()
	notifier := &recordingNotifier{}
	log := logger.NewNop()

	membership := NewMembershipService(repos, cache, MembershipOptions{
		JoinRole:      domain.RoleAdmin,
		PublicBaseURL: "https://clubs.example.com/",
		Notifier:      notifier,
	}, log).(*membershipService)

	return &fixture{
		repos:      repos,
		store:      store,
		cache:      cache,
		mr:         mr,
		notifier:   notifier,
		membership: membership,
		attendance: NewAttendanceService(repos, log),
		board:      NewBoardService(repos, cache, log),
		schedules:  NewScheduleService(repos, cache, log),
	}
}

func (f *fixture) user(t *testing.T, name string) *domain.User {
	t.Helper()
	u := &domain.User{
		Email:        strings.ToLower(name) + "@example.com",
		Name:         name,
		PasswordHash: "hash",
	}
	require.NoError(t, f.repos.Users.Create(context.Background(), u))
	return u
}

func (f *fixture) club(t *testing.T, owner *domain.User, name string) *domain.Club {
	t.Helper()
	c, err := f.membership.CreateClub(context.Background(), owner.ID, &domain.CreateClubRequest{Name: name})
	require.NoError(t, err)
	return c
}

// join adds u to the club and sets role
func (f *fixture) join(t *testing.T, u *domain.User, club *domain.Club, role domain.Role) *domain.Membership {
	t.Helper()
	m := &domain.Membership{UserID: u.ID, ClubID: club.ID, Role: role}
	require.NoError(t, f.repos.Memberships.Create(context.Background(), m))
	return m
}

func requireErrType(t *testing.T, err error, want apperrors.ErrorType) {
	t.Helper()
	require.Error(t, err)
	require.Truef(t, apperrors.IsType(err, want), "want %s error, got %v", want, err)
}
