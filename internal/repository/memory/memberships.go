package memory

import (
	"context"
	"sort"

	"club-api/internal/domain"
	"club-api/internal/repository"
)

type membershipRepo struct{ s *Store }

func (st *state) deleteMembership(id string) {
	m, ok := st.memberships[id]
	if !ok {
		return
	}
	delete(st.membershipKey, key(m.UserID, m.ClubID))
	delete(st.memberships, id)
}

func (r *membershipRepo) Create(ctx context.Context, m *domain.Membership) error {
	defer r.s.lock(ctx)()
	st := r.s.st

	if _, ok := st.users[m.UserID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := st.clubs[m.ClubID]; !ok {
		return repository.ErrNotFound
	}
	k := key(m.UserID, m.ClubID)
	if _, taken := st.membershipKey[k]; taken {
		return conflict(repository.ConstraintMembership)
	}
	if m.ID == "" {
		m.ID = domain.NewID()
	}
	m.JoinedAt = r.s.now().UTC()

	st.memberships[m.ID] = *m
	st.membershipKey[k] = m.ID
	st.next(m.ID)
	return nil
}

func (r *membershipRepo) Get(ctx context.Context, userID, clubID string) (*domain.Membership, error) {
	defer r.s.lock(ctx)()
	id, ok := r.s.st.membershipKey[key(userID, clubID)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	m := r.s.st.memberships[id]
	return &m, nil
}

func (r *membershipRepo) GetByID(ctx context.Context, clubID, id string) (*domain.Membership, error) {
	defer r.s.lock(ctx)()
	m, ok := r.s.st.memberships[id]
	if !ok || m.ClubID != clubID {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

func (r *membershipRepo) ListMembers(ctx context.Context, clubID string) ([]domain.Member, error) {
	defer r.s.lock(ctx)()
	st := r.s.st

	var out []domain.Member
	for _, m := range st.memberships {
		if m.ClubID != clubID {
			continue
		}
		u := st.users[m.UserID]
		out = append(out, domain.Member{
			Membership: m,
			Name:       u.Name,
			Email:      u.Email,
			RoleLabel:  m.Role.Label(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return st.order[out[i].ID] < st.order[out[j].ID]
	})
	return out, nil
}

func (r *membershipRepo) CountMembers(ctx context.Context, clubID string) (int, error) {
	defer r.s.lock(ctx)()
	n := 0
	for _, m := range r.s.st.memberships {
		if m.ClubID == clubID {
			n++
		}
	}
	return n, nil
}

// LockOwners counts the club's owners. Transactions already hold the store lock.
func (r *membershipRepo) LockOwners(ctx context.Context, clubID string) (int, error) {
	defer r.s.lock(ctx)()
	n := 0
	for _, m := range r.s.st.memberships {
		if m.ClubID == clubID && m.Role == domain.RoleOwner {
			n++
		}
	}
	return n, nil
}

func (r *membershipRepo) UpdateRole(ctx context.Context, clubID, id string, role domain.Role) error {
	defer r.s.lock(ctx)()
	m, ok := r.s.st.memberships[id]
	if !ok || m.ClubID != clubID {
		return repository.ErrNotFound
	}
	m.Role = role
	r.s.st.memberships[id] = m
	return nil
}

func (r *membershipRepo) Delete(ctx context.Context, clubID, id string) error {
	defer r.s.lock(ctx)()
	m, ok := r.s.st.memberships[id]
	if !ok || m.ClubID != clubID {
		return repository.ErrNotFound
	}
	r.s.st.deleteMembership(id)
	return nil
}
