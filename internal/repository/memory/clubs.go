package memory

import (
	"context"
	"sort"

	"club-api/internal/domain"
	"club-api/internal/repository"
)

type clubRepo struct{ s *Store }

func (r *clubRepo) Create(ctx context.Context, club *domain.Club) error {
	defer r.s.lock(ctx)()
	st := r.s.st

	if _, taken := st.clubsByCode[club.InviteCode]; taken {
		return conflict(repository.ConstraintClubInviteCode)
	}
	if club.ID == "" {
		club.ID = domain.NewID()
	}
	club.CreatedAt = r.s.now().UTC()

	st.clubs[club.ID] = *club
	st.clubsByCode[club.InviteCode] = club.ID
	st.next(club.ID)
	return nil
}

func (r *clubRepo) GetByID(ctx context.Context, id string) (*domain.Club, error) {
	defer r.s.lock(ctx)()
	c, ok := r.s.st.clubs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r *clubRepo) GetByInviteCode(ctx context.Context, code string) (*domain.Club, error) {
	defer r.s.lock(ctx)()
	id, ok := r.s.st.clubsByCode[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := r.s.st.clubs[id]
	return &c, nil
}

func (r *clubRepo) ListByUser(ctx context.Context, userID string) ([]domain.ClubWithCount, error) {
	defer r.s.lock(ctx)()
	st := r.s.st

	counts := map[string]int{}
	for _, m := range st.memberships {
		counts[m.ClubID]++
	}

	var mine []domain.Membership
	for _, m := range st.memberships {
		if m.UserID == userID {
			mine = append(mine, m)
		}
	}
	sort.Slice(mine, func(i, j int) bool {
		return st.order[mine[i].ID] > st.order[mine[j].ID]
	})

	out := make([]domain.ClubWithCount, 0, len(mine))
	for _, m := range mine {
		out = append(out, domain.ClubWithCount{
			Club:        st.clubs[m.ClubID],
			MemberCount: counts[m.ClubID],
			MyRole:      m.Role,
		})
	}
	return out, nil
}

func (r *clubRepo) Delete(ctx context.Context, id string) error {
	defer r.s.lock(ctx)()
	st := r.s.st

	c, ok := st.clubs[id]
	if !ok {
		return repository.ErrNotFound
	}

	for mid, m := range st.memberships {
		if m.ClubID == id {
			st.deleteMembership(mid)
		}
	}
	for aid, a := range st.attendance {
		if a.ClubID == id {
			delete(st.attendanceKey, attendanceKey(a.UserID, a.ClubID, a.Date))
			delete(st.attendance, aid)
		}
	}
	for pid, p := range st.posts {
		if p.ClubID == id {
			st.deletePost(pid)
		}
	}
	for sid, sc := range st.schedules {
		if sc.ClubID == id {
			delete(st.schedules, sid)
		}
	}

	delete(st.clubsByCode, c.InviteCode)
	delete(st.clubs, id)
	return nil
}
