// Package memory is an in-process implementation of the repository
// interfaces. It enforces the same unique keys and cascades as the SQL
// schema and is used by tests and by development runs without a database.
package memory

import (
	"context"
	"sync"
	"time"

	"club-api/internal/domain"
	"club-api/internal/repository"
)

type txKey struct{}

// Store holds every table behind a single mutex
type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

type state struct {
	seq int64

	users        map[string]domain.User
	usersByEmail map[string]string

	clubs       map[string]domain.Club
	clubsByCode map[string]string

	memberships   map[string]domain.Membership
	membershipKey map[string]string

	attendance    map[string]domain.Attendance
	attendanceKey map[string]string

	posts   map[string]domain.Post
	options map[string]domain.PollOption

	votes   map[string]domain.Vote
	voteKey map[string]string

	schedules map[string]domain.Schedule

	order map[string]int64
}

func newState() *state {
	return &state{
		users:         map[string]domain.User{},
		usersByEmail:  map[string]string{},
		clubs:         map[string]domain.Club{},
		clubsByCode:   map[string]string{},
		memberships:   map[string]domain.Membership{},
		membershipKey: map[string]string{},
		attendance:    map[string]domain.Attendance{},
		attendanceKey: map[string]string{},
		posts:         map[string]domain.Post{},
		options:       map[string]domain.PollOption{},
		votes:         map[string]domain.Vote{},
		voteKey:       map[string]string{},
		schedules:     map[string]domain.Schedule{},
		order:         map[string]int64{},
	}
}

func (s *state) clone() *state {
	c := &state{seq: s.seq}
	c.users = cloneMap(s.users)
	c.usersByEmail = cloneMap(s.usersByEmail)
	c.clubs = cloneMap(s.clubs)
	c.clubsByCode = cloneMap(s.clubsByCode)
	c.memberships = cloneMap(s.memberships)
	c.membershipKey = cloneMap(s.membershipKey)
	c.attendance = cloneMap(s.attendance)
	c.attendanceKey = cloneMap(s.attendanceKey)
	c.posts = cloneMap(s.posts)
	c.options = cloneMap(s.options)
	c.votes = cloneMap(s.votes)
	c.voteKey = cloneMap(s.voteKey)
	c.schedules = cloneMap(s.schedules)
	c.order = cloneMap(s.order)
	return c
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// next records id in insertion order
func (s *state) next(id string) {
	s.seq++
	s.order[id] = s.seq
}

// New creates an empty store
func New() *Store {
	return &Store{st: newState(), now: time.Now}
}

// SetClock replaces the time source, for tests
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Repositories exposes the store through the repository interfaces
func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		Tx:          s,
		Users:       &userRepo{s},
		Clubs:       &clubRepo{s},
		Memberships: &membershipRepo{s},
		Attendance:  &attendanceRepo{s},
		Posts:       &postRepo{s},
		Votes:       &voteRepo{s},
		Schedules:   &scheduleRepo{s},
	}
}

// WithinTx runs fn with the store locked and restores the previous state when fn fails
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, ok := ctx.Value(txKey{}).(*Store)
	return ok && owner == s
}

// lock takes the store mutex unless ctx already runs inside WithinTx
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func conflict(constraint string) error {
	return &repository.ConflictError{Constraint: constraint}
}

func key(parts ...string) string {
	k := ""
	for i, p := range parts {
		if i > 0 {
			k += "\x00"
		}
		k += p
	}
	return k
}
