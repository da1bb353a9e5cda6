package memory

import (
	"context"
	"sort"
	"time"

	"club-api/internal/domain"
	"club-api/internal/repository"
)

type scheduleRepo struct{ s *Store }

func (r *scheduleRepo) Create(ctx context.Context, s *domain.Schedule) error {
	defer r.s.lock(ctx)()
	st := r.s.st

	if _, ok := st.clubs[s.ClubID]; !ok {
		return repository.ErrNotFound
	}
	if s.ID == "" {
		s.ID = domain.NewID()
	}
	s.CreatedAt = r.s.now().UTC()

	st.schedules[s.ID] = *s
	st.next(s.ID)
	return nil
}

func (r *scheduleRepo) List(ctx context.Context, clubID string) ([]domain.Schedule, error) {
	defer r.s.lock(ctx)()
	return r.s.st.schedulesOf(clubID, time.Time{}, 0), nil
}

func (r *scheduleRepo) ListUpcoming(ctx context.Context, clubID string, from time.Time, limit int) ([]domain.Schedule, error) {
	defer r.s.lock(ctx)()
	return r.s.st.schedulesOf(clubID, from, limit), nil
}

func (r *scheduleRepo) Delete(ctx context.Context, clubID, id string) error {
	defer r.s.lock(ctx)()
	sc, ok := r.s.st.schedules[id]
	if !ok || sc.ClubID != clubID {
		return repository.ErrNotFound
	}
	delete(r.s.st.schedules, id)
	return nil
}

func (st *state) schedulesOf(clubID string, from time.Time, limit int) []domain.Schedule {
	var out []domain.Schedule
	for _, sc := range st.schedules {
		if sc.ClubID != clubID || sc.StartAt.Before(from) {
			continue
		}
		out = append(out, sc)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartAt.Equal(out[j].StartAt) {
			return out[i].StartAt.Before(out[j].StartAt)
		}
		return st.order[out[i].ID] < st.order[out[j].ID]
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
