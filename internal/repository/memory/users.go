package memory

import (
	"context"

	"club-api/internal/domain"
	"club-api/internal/repository"
)

type userRepo struct{ s *Store }

func (r *userRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	defer r.s.lock(ctx)()
	u, ok := r.s.st.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	defer r.s.lock(ctx)()
	id, ok := r.s.st.usersByEmail[domain.NormalizeEmail(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u := r.s.st.users[id]
	return &u, nil
}

func (r *userRepo) Create(ctx context.Context, user *domain.User) error {
	defer r.s.lock(ctx)()
	st := r.s.st

	user.Email = domain.NormalizeEmail(user.Email)
	if _, taken := st.usersByEmail[user.Email]; taken {
		return conflict(repository.ConstraintUserEmail)
	}
	if user.ID == "" {
		user.ID = domain.NewID()
	}
	user.CreatedAt = r.s.now().UTC()

	st.users[user.ID] = *user
	st.usersByEmail[user.Email] = user.ID
	st.next(user.ID)
	return nil
}
