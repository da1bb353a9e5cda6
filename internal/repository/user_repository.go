package repository

import (
	"context"

	"club-api/internal/domain"
	"club-api/pkg/database"
)

type userRepository struct {
	db *database.PostgresDB
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db *database.PostgresDB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, email, name, password_hash, created_at`

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.db.Querier(ctx).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, translate("get user", err)
	}
	return &u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.db.Querier(ctx).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, domain.NormalizeEmail(email),
	).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, translate("get user by email", err)
	}
	return &u, nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = domain.NewID()
	}
	user.Email = domain.NormalizeEmail(user.Email)

	query := `
		INSERT INTO users (id, email, name, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	err := r.db.Querier(ctx).QueryRow(ctx, query,
		user.ID, user.Email, user.Name, user.PasswordHash,
	).Scan(&user.CreatedAt)
	return translate("create user", err)
}
