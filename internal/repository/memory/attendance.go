package memory

import (
	"context"
	"sort"
	"time"

	"club-api/internal/domain"
	"club-api/internal/repository"
)

type attendanceRepo struct{ s *Store }

func attendanceKey(userID, clubID string, day time.Time) string {
	return key(userID, clubID, day.Format(time.DateOnly))
}

func (r *attendanceRepo) Upsert(ctx context.Context, a *domain.Attendance) error {
	defer r.s.lock(ctx)()
	st := r.s.st

	if _, ok := st.users[a.UserID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := st.clubs[a.ClubID]; !ok {
		return repository.ErrNotFound
	}

	a.Date = domain.Day(a.Date)
	a.UpdatedAt = r.s.now().UTC()
	k := attendanceKey(a.UserID, a.ClubID, a.Date)

	if id, exists := st.attendanceKey[k]; exists {
		a.ID = id
		st.attendance[id] = *a
		return nil
	}

	if a.ID == "" {
		a.ID = domain.NewID()
	}
	st.attendance[a.ID] = *a
	st.attendanceKey[k] = a.ID
	st.next(a.ID)
	return nil
}

func (r *attendanceRepo) List(ctx context.Context, clubID string, day *time.Time) ([]domain.Attendance, error) {
	defer r.s.lock(ctx)()
	st := r.s.st

	var out []domain.Attendance
	for _, a := range st.attendance {
		if a.ClubID != clubID {
			continue
		}
		if day != nil && !a.Date.Equal(domain.Day(*day)) {
			continue
		}
		a.UserName = st.users[a.UserID].Name
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].UserName < out[j].UserName
	})
	return out, nil
}
