package service

import (
	"bytes"
	"context"
	"image/png"
	"sync"
	"testing"
	"time"

	"club-api/internal/domain"
	"club-api/internal/repository"
	apperrors "club-api/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateClub_OwnerMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1 := f.user(t, "U1")

	club := f.club(t, u1, "Running Crew")
	assert.NotEmpty(t, club.InviteCode)

	members, err := f.membership.ListMembers(ctx, u1.ID, club.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, u1.ID, members[0].UserID)
	assert.Equal(t, domain.RoleOwner, members[0].Role)
	assert.Equal(t, "Owner", members[0].RoleLabel)

	_, err = f.membership.JoinClub(ctx, u1.ID, club.InviteCode)
	requireErrType(t, err, apperrors.ErrorTypeConflict)

	n, err := f.repos.Memberships.CountMembers(ctx, club.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCreateClub_Validation(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "Kim")

	_, err := f.membership.CreateClub(context.Background(), u.ID, &domain.CreateClubRequest{Name: "   "})
	requireErrType(t, err, apperrors.ErrorTypeValidation)
}

func TestCreateClub_RetriesInviteCodeCollision(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "Kim")

	codes := []string{"taken", "taken", "fresh"}
	f.membership.newInviteCode = func() string {
		c := codes[0]
		codes = codes[1:]
		return c
	}
	require.NoError(t, f.repos.Clubs.Create(context.Background(), &domain.Club{Name: "Existing", InviteCode: "taken"}))

	club, err := f.membership.CreateClub(context.Background(), u.ID, &domain.CreateClubRequest{Name: "New"})
	require.NoError(t, err)
	assert.Equal(t, "fresh", club.InviteCode)

	clubs, err := f.membership.ListMyClubs(context.Background(), u.ID)
	require.NoError(t, err)
	require.Len(t, clubs, 1, "failed attempts must not leave memberships behind")
	assert.Equal(t, club.ID, clubs[0].ID)
}

func TestCreateClub_GivesUpAfterRepeatedCollisions(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "Kim")
	f.membership.newInviteCode = func() string { return "taken" }
	require.NoError(t, f.repos.Clubs.Create(context.Background(), &domain.Club{Name: "Existing", InviteCode: "taken"}))

	_, err := f.membership.CreateClub(context.Background(), u.ID, &domain.CreateClubRequest{Name: "New"})
	requireErrType(t, err, apperrors.ErrorTypeInternal)
}

func TestJoinClub(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "Owner")
	u2 := f.user(t, "U2")
	club := f.club(t, owner, "Chess")

	t.Run("empty code", func(t *testing.T) {
		_, err := f.membership.JoinClub(ctx, u2.ID, " ")
		requireErrType(t, err, apperrors.ErrorTypeValidation)
	})

	t.Run("unknown code", func(t *testing.T) {
		_, err := f.membership.JoinClub(ctx, u2.ID, "nope")
		requireErrType(t, err, apperrors.ErrorTypeNotFound)
	})

	t.Run("joins as configured role", func(t *testing.T) {
		m, err := f.membership.JoinClub(ctx, u2.ID, club.InviteCode)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleAdmin, m.Role)
	})

	t.Run("already joined", func(t *testing.T) {
		_, err := f.membership.JoinClub(ctx, u2.ID, club.InviteCode)
		requireErrType(t, err, apperrors.ErrorTypeConflict)
	})
}

func TestJoinClub_MemberRoleOption(t *testing.T) {
	f := newFixture(t)
	svc := NewMembershipService(f.repos, nil, MembershipOptions{JoinRole: domain.RoleMember}, nil)
	owner := f.user(t, "Owner")
	u2 := f.user(t, "U2")
	club := f.club(t, owner, "Chess")

	m, err := svc.JoinClub(context.Background(), u2.ID, club.InviteCode)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleMember, m.Role)
}

func TestJoinClub_ConcurrentJoinsLeaveOneMembership(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "Owner")
	u2 := f.user(t, "U2")
	club := f.club(t, owner, "Chess")

	var wg sync.WaitGroup
	var mu sync.Mutex
	var ok, conflicts int
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.membership.JoinClub(context.Background(), u2.ID, club.InviteCode)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if apperrors.IsType(err, apperrors.ErrorTypeConflict) {
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, 9, conflicts)
	n, err := f.repos.Memberships.CountMembers(context.Background(), club.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestAddMemberByEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "Owner")
	club := f.club(t, owner, "Chess")

	member, err := f.membership.AddMemberByEmail(ctx, owner.ID, club.ID, &domain.AddMemberRequest{Name: "Newbie", Email: "New@Example.com"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleMember, member.Role)
	assert.Equal(t, "new@example.com", member.Email)

	created, err := f.repos.Users.GetByEmail(ctx, "new@example.com")
	require.NoError(t, err)
	assert.False(t, created.HasPassword(), "placeholder accounts have no password")

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "new@example.com", f.notifier.sent[0].to)
	assert.Equal(t, "Chess", f.notifier.sent[0].club)
	assert.Equal(t, "https://clubs.example.com/clubs/"+club.ID, f.notifier.sent[0].link)

	_, err = f.membership.AddMemberByEmail(ctx, owner.ID, club.ID, &domain.AddMemberRequest{Name: "Newbie", Email: "new@example.com"})
	requireErrType(t, err, apperrors.ErrorTypeConflict)
	assert.Len(t, f.notifier.sent, 1)
}

func TestAddMemberByEmail_Validation(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "Owner")
	club := f.club(t, owner, "Chess")

	tests := []struct {
		name string
		req  domain.AddMemberRequest
	}{
		{"missing name", domain.AddMemberRequest{Email: "new@example.com"}},
		{"blank name", domain.AddMemberRequest{Name: "  ", Email: "new@example.com"}},
		{"invalid email", domain.AddMemberRequest{Name: "Newbie", Email: "not-an-email"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.membership.AddMemberByEmail(context.Background(), owner.ID, club.ID, &tt.req)
			requireErrType(t, err, apperrors.ErrorTypeValidation)
		})
	}

	_, err := f.repos.Users.GetByEmail(context.Background(), "new@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Empty(t, f.notifier.sent)
}

func TestAddMemberByEmail_ReusesExistingUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "Owner")
	existing := f.user(t, "Kim")
	club := f.club(t, owner, "Chess")

	member, err := f.membership.AddMemberByEmail(ctx, owner.ID, club.ID, &domain.AddMemberRequest{Name: "Someone Else", Email: "KIM@example.com"})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, member.UserID)
	assert.Equal(t, "Kim", member.Name, "an existing account keeps its own name")
}

func TestAddMemberByEmail_RequiresManager(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "Owner")
	plain := f.user(t, "Plain")
	outsider := f.user(t, "Outsider")
	club := f.club(t, owner, "Chess")
	f.join(t, plain, club, domain.RoleMember)

	_, err := f.membership.AddMemberByEmail(context.Background(), plain.ID, club.ID, &domain.AddMemberRequest{Name: "X", Email: "x@example.com"})
	requireErrType(t, err, apperrors.ErrorTypeAuthorization)

	_, err = f.membership.AddMemberByEmail(context.Background(), outsider.ID, club.ID, &domain.AddMemberRequest{Name: "X", Email: "x@example.com"})
	requireErrType(t, err, apperrors.ErrorTypeAuthorization)

	_, err = f.membership.AddMemberByEmail(context.Background(), owner.ID, "missing-club", &domain.AddMemberRequest{Name: "X", Email: "x@example.com"})
	requireErrType(t, err, apperrors.ErrorTypeNotFound)
}

func TestRemoveMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "Owner")
	admin := f.user(t, "Admin")
	plain := f.user(t, "Plain")
	club := f.club(t, owner, "Chess")
	adminM := f.join(t, admin, club, domain.RoleAdmin)
	plainM := f.join(t, plain, club, domain.RoleMember)
	ownerM, err := f.repos.Memberships.Get(ctx, owner.ID, club.ID)
	require.NoError(t, err)

	t.Run("member cannot remove others", func(t *testing.T) {
		err := f.membership.RemoveMember(ctx, plain.ID, club.ID, adminM.ID)
		requireErrType(t, err, apperrors.ErrorTypeAuthorization)
	})

	t.Run("admin cannot remove owner", func(t *testing.T) {
		err := f.membership.RemoveMember(ctx, admin.ID, club.ID, ownerM.ID)
		requireErrType(t, err, apperrors.ErrorTypeAuthorization)
	})

	t.Run("last owner cannot leave", func(t *testing.T) {
		err := f.membership.RemoveMember(ctx, owner.ID, club.ID, ownerM.ID)
		requireErrType(t, err, apperrors.ErrorTypeConflict)
	})

	t.Run("unknown membership", func(t *testing.T) {
		err := f.membership.RemoveMember(ctx, owner.ID, club.ID, "missing")
		requireErrType(t, err, apperrors.ErrorTypeNotFound)
	})

	t.Run("admin removes member", func(t *testing.T) {
		require.NoError(t, f.membership.RemoveMember(ctx, admin.ID, club.ID, plainM.ID))
		_, err := f.repos.Memberships.Get(ctx, plain.ID, club.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("member leaves", func(t *testing.T) {
		require.NoError(t, f.membership.RemoveMember(ctx, admin.ID, club.ID, adminM.ID))
		n, err := f.repos.Memberships.CountMembers(ctx, club.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}

func TestRemoveMember_OwnersRemovingEachOtherKeepOne(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.user(t, "First")
	second := f.user(t, "Second")
	club := f.club(t, first, "Chess")
	secondM := f.join(t, second, club, domain.RoleOwner)
	firstM, err := f.repos.Memberships.Get(ctx, first.ID, club.ID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, step := range []struct{ actor, target string }{
		{first.ID, secondM.ID},
		{second.ID, firstM.ID},
	} {
		wg.Add(1)
		go func(i int, actor, target string) {
			defer wg.Done()
			errs[i] = f.membership.RemoveMember(ctx, actor, club.ID, target)
		}(i, step.actor, step.target)
	}
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	assert.Equal(t, 1, failed, "exactly one removal must be refused")

	owners, err := f.repos.Memberships.LockOwners(ctx, club.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, owners)
}

func TestUpdateMemberRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "Owner")
	admin := f.user(t, "Admin")
	plain := f.user(t, "Plain")
	club := f.club(t, owner, "Chess")
	adminM := f.join(t, admin, club, domain.RoleAdmin)
	plainM := f.join(t, plain, club, domain.RoleMember)
	ownerM, err := f.repos.Memberships.Get(ctx, owner.ID, club.ID)
	require.NoError(t, err)

	_, err = f.membership.UpdateMemberRole(ctx, owner.ID, club.ID, plainM.ID, domain.Role("KING"))
	requireErrType(t, err, apperrors.ErrorTypeValidation)

	_, err = f.membership.UpdateMemberRole(ctx, admin.ID, club.ID, plainM.ID, domain.RoleOwner)
	requireErrType(t, err, apperrors.ErrorTypeAuthorization)

	_, err = f.membership.UpdateMemberRole(ctx, owner.ID, club.ID, ownerM.ID, domain.RoleAdmin)
	requireErrType(t, err, apperrors.ErrorTypeConflict)

	updated, err := f.membership.UpdateMemberRole(ctx, admin.ID, club.ID, plainM.ID, domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, updated.Role)

	_, err = f.membership.UpdateMemberRole(ctx, owner.ID, club.ID, adminM.ID, domain.RoleOwner)
	require.NoError(t, err)
	// With a second owner the first one may step down
	_, err = f.membership.UpdateMemberRole(ctx, owner.ID, club.ID, ownerM.ID, domain.RoleMember)
	require.NoError(t, err)
}

func TestGetClubAndListMyClubs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "Owner")
	u2 := f.user(t, "U2")
	chess := f.club(t, owner, "Chess")
	f.club(t, owner, "Go")
	f.join(t, u2, chess, domain.RoleMember)

	got, err := f.membership.GetClub(ctx, u2.ID, chess.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.MemberCount)
	assert.Equal(t, domain.RoleMember, got.MyRole)

	mine, err := f.membership.ListMyClubs(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	none, err := f.membership.ListMyClubs(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestDeleteClub(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "Owner")
	admin := f.user(t, "Admin")
	club := f.club(t, owner, "Chess")
	f.join(t, admin, club, domain.RoleAdmin)

	err := f.membership.DeleteClub(ctx, admin.ID, club.ID)
	requireErrType(t, err, apperrors.ErrorTypeAuthorization)

	require.NoError(t, f.membership.DeleteClub(ctx, owner.ID, club.ID))

	_, err = f.repos.Clubs.GetByID(ctx, club.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = f.repos.Memberships.Get(ctx, admin.ID, club.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = f.membership.JoinClub(ctx, admin.ID, club.InviteCode)
	requireErrType(t, err, apperrors.ErrorTypeNotFound)
}

func TestClubSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	f.membership.now = func() time.Time { return now }

	owner := f.user(t, "Owner")
	club := f.club(t, owner, "Chess")

	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)
	_, err := f.schedules.CreateSchedule(ctx, owner.ID, club.ID, &domain.CreateScheduleRequest{Title: "Past", StartAt: &past})
	require.NoError(t, err)
	_, err = f.schedules.CreateSchedule(ctx, owner.ID, club.ID, &domain.CreateScheduleRequest{Title: "Next", StartAt: &future})
	require.NoError(t, err)
	_, err = f.board.CreatePost(ctx, owner.ID, club.ID, &domain.CreatePostRequest{Title: "Hi", Content: "Welcome"})
	require.NoError(t, err)

	summary, err := f.membership.ClubSummary(ctx, owner.ID, club.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.MemberCount)
	require.Len(t, summary.UpcomingSchedules, 1)
	assert.Equal(t, "Next", summary.UpcomingSchedules[0].Title)
	require.Len(t, summary.RecentPosts, 1)

	// Served from cache until a write invalidates it
	u2 := f.user(t, "U2")
	_, err = f.membership.JoinClub(ctx, u2.ID, club.InviteCode)
	require.NoError(t, err)
	summary, err = f.membership.ClubSummary(ctx, owner.ID, club.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.MemberCount)
}

func TestInviteQRCode(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "Owner")
	outsider := f.user(t, "Outsider")
	club := f.club(t, owner, "Chess")

	data, err := f.membership.InviteQRCode(context.Background(), owner.ID, club.ID)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())

	_, err = f.membership.InviteQRCode(context.Background(), outsider.ID, club.ID)
	requireErrType(t, err, apperrors.ErrorTypeAuthorization)
}
