package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"club-api/internal/domain"
	"club-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T) (*repository.Repositories, *domain.User, *domain.Club) {
	t.Helper()
	ctx := context.Background()
	repos := New().Repositories()

	u := &domain.User{Email: "Kim@Example.com", Name: "Kim"}
	require.NoError(t, repos.Users.Create(ctx, u))
	c := &domain.Club{Name: "Running Crew", InviteCode: "code-1"}
	require.NoError(t, repos.Clubs.Create(ctx, c))
	return repos, u, c
}

func TestUsers_EmailUnique(t *testing.T) {
	repos, u, _ := seed(t)
	ctx := context.Background()

	assert.Equal(t, "kim@example.com", u.Email)

	err := repos.Users.Create(ctx, &domain.User{Email: "KIM@example.com"})
	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.True(t, repository.IsConflictOn(err, repository.ConstraintUserEmail))

	got, err := repos.Users.GetByEmail(ctx, " kim@EXAMPLE.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestClubs_InviteCodeUnique(t *testing.T) {
	repos, _, _ := seed(t)
	err := repos.Clubs.Create(context.Background(), &domain.Club{Name: "Other", InviteCode: "code-1"})
	assert.True(t, repository.IsConflictOn(err, repository.ConstraintClubInviteCode))
}

func TestMemberships_Unique(t *testing.T) {
	repos, u, c := seed(t)
	ctx := context.Background()

	require.NoError(t, repos.Memberships.Create(ctx, &domain.Membership{UserID: u.ID, ClubID: c.ID, Role: domain.RoleOwner}))
	err := repos.Memberships.Create(ctx, &domain.Membership{UserID: u.ID, ClubID: c.ID, Role: domain.RoleMember})
	assert.True(t, repository.IsConflictOn(err, repository.ConstraintMembership))

	n, err := repos.Memberships.CountMembers(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	err = repos.Memberships.Create(ctx, &domain.Membership{UserID: "ghost", ClubID: c.ID, Role: domain.RoleMember})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMemberships_ConcurrentCreateKeepsOne(t *testing.T) {
	repos, u, c := seed(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	conflicts := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repos.Memberships.Create(ctx, &domain.Membership{UserID: u.ID, ClubID: c.ID, Role: domain.RoleMember})
			if errors.Is(err, repository.ErrConflict) {
				mu.Lock()
				conflicts++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 9, conflicts)
	n, _ := repos.Memberships.CountMembers(ctx, c.ID)
	assert.Equal(t, 1, n)
}

func TestAttendance_UpsertOverwrites(t *testing.T) {
	repos, u, c := seed(t)
	ctx := context.Background()

	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	first := &domain.Attendance{UserID: u.ID, ClubID: c.ID, Date: day.Add(9 * time.Hour), Status: domain.AttendanceLate}
	require.NoError(t, repos.Attendance.Upsert(ctx, first))

	second := &domain.Attendance{UserID: u.ID, ClubID: c.ID, Date: day.Add(20 * time.Hour), Status: domain.AttendancePresent}
	require.NoError(t, repos.Attendance.Upsert(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	rows, err := repos.Attendance.List(ctx, c.ID, &day)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.AttendancePresent, rows[0].Status)
	assert.Equal(t, "Kim", rows[0].UserName)

	other := day.Add(24 * time.Hour)
	rows, err = repos.Attendance.List(ctx, c.ID, &other)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestVotes_OnePerPoll(t *testing.T) {
	repos, u, c := seed(t)
	ctx := context.Background()

	post := &domain.Post{
		ClubID: c.ID, AuthorID: u.ID, Title: "When?", Content: "Pick", Type: domain.PostTypePoll,
		Options: []domain.PollOption{{Label: "Sat"}, {Label: "Sun"}},
	}
	require.NoError(t, repos.Posts.Create(ctx, post))

	require.NoError(t, repos.Votes.Create(ctx, &domain.Vote{UserID: u.ID, PostID: post.ID, PollOptionID: post.Options[0].ID}))

	err := repos.Votes.Create(ctx, &domain.Vote{UserID: u.ID, PostID: post.ID, PollOptionID: post.Options[1].ID})
	assert.True(t, repository.IsConflictOn(err, repository.ConstraintVoteOnePerPoll))

	err = repos.Votes.Create(ctx, &domain.Vote{UserID: u.ID, PostID: post.ID, PollOptionID: "not-an-option"})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	tally, err := repos.Votes.Tally(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, tally.Total)
	assert.Equal(t, 1, tally.Counts[post.Options[0].ID])
}

func TestClubs_DeleteCascades(t *testing.T) {
	repos, u, c := seed(t)
	ctx := context.Background()

	require.NoError(t, repos.Memberships.Create(ctx, &domain.Membership{UserID: u.ID, ClubID: c.ID, Role: domain.RoleOwner}))
	post := &domain.Post{ClubID: c.ID, AuthorID: u.ID, Title: "t", Content: "c", Type: domain.PostTypePoll,
		Options: []domain.PollOption{{Label: "a"}, {Label: "b"}}}
	require.NoError(t, repos.Posts.Create(ctx, post))
	require.NoError(t, repos.Votes.Create(ctx, &domain.Vote{UserID: u.ID, PostID: post.ID, PollOptionID: post.Options[0].ID}))
	require.NoError(t, repos.Schedules.Create(ctx, &domain.Schedule{ClubID: c.ID, Title: "run", StartAt: time.Now()}))

	require.NoError(t, repos.Clubs.Delete(ctx, c.ID))

	_, err := repos.Memberships.Get(ctx, u.ID, c.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repos.Votes.GetByUser(ctx, post.ID, u.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	schedules, _ := repos.Schedules.List(ctx, c.ID)
	assert.Empty(t, schedules)
	_, err = repos.Clubs.GetByInviteCode(ctx, "code-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestWithinTx_RollsBack(t *testing.T) {
	repos, u, _ := seed(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		club := &domain.Club{Name: "Half", InviteCode: "code-2"}
		require.NoError(t, repos.Clubs.Create(ctx, club))
		require.NoError(t, repos.Memberships.Create(ctx, &domain.Membership{UserID: u.ID, ClubID: club.ID, Role: domain.RoleOwner}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = repos.Clubs.GetByInviteCode(ctx, "code-2")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	clubs, err := repos.Clubs.ListByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, clubs)
}

func TestSchedules_Ordering(t *testing.T) {
	repos, _, c := seed(t)
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repos.Schedules.Create(ctx, &domain.Schedule{ClubID: c.ID, Title: "later", StartAt: base.Add(48 * time.Hour)}))
	require.NoError(t, repos.Schedules.Create(ctx, &domain.Schedule{ClubID: c.ID, Title: "past", StartAt: base.Add(-48 * time.Hour)}))
	require.NoError(t, repos.Schedules.Create(ctx, &domain.Schedule{ClubID: c.ID, Title: "soon", StartAt: base.Add(time.Hour)}))

	all, err := repos.Schedules.List(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"past", "soon", "later"}, []string{all[0].Title, all[1].Title, all[2].Title})

	upcoming, err := repos.Schedules.ListUpcoming(ctx, c.ID, base, 1)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, "soon", upcoming[0].Title)
}
