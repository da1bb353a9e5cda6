package repository

import (
	"context"

	"club-api/internal/domain"
	"club-api/pkg/database"
)

type clubRepository struct {
	db *database.PostgresDB
}

// NewClubRepository creates a new PostgreSQL club repository
func NewClubRepository(db *database.PostgresDB) ClubRepository {
	return &clubRepository{db: db}
}

func (r *clubRepository) Create(ctx context.Context, club *domain.Club) error {
	if club.ID == "" {
		club.ID = domain.NewID()
	}

	query := `
		INSERT INTO clubs (id, name, description, invite_code)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	err := r.db.Querier(ctx).QueryRow(ctx, query,
		club.ID, club.Name, club.Description, club.InviteCode,
	).Scan(&club.CreatedAt)
	return translate("create club", err)
}

func (r *clubRepository) GetByID(ctx context.Context, id string) (*domain.Club, error) {
	var c domain.Club
	err := r.db.Querier(ctx).QueryRow(ctx,
		`SELECT id, name, description, invite_code, created_at FROM clubs WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Description, &c.InviteCode, &c.CreatedAt)
	if err != nil {
		return nil, translate("get club", err)
	}
	return &c, nil
}

func (r *clubRepository) GetByInviteCode(ctx context.Context, code string) (*domain.Club, error) {
	var c domain.Club
	err := r.db.Querier(ctx).QueryRow(ctx,
		`SELECT id, name, description, invite_code, created_at FROM clubs WHERE invite_code = $1`, code,
	).Scan(&c.ID, &c.Name, &c.Description, &c.InviteCode, &c.CreatedAt)
	if err != nil {
		return nil, translate("get club by invite code", err)
	}
	return &c, nil
}

func (r *clubRepository) ListByUser(ctx context.Context, userID string) ([]domain.ClubWithCount, error) {
	query := `
		SELECT c.id, c.name, c.description, c.invite_code, c.created_at, m.role,
		       (SELECT COUNT(*) FROM memberships mc WHERE mc.club_id = c.id) AS member_count
		FROM memberships m
		JOIN clubs c ON c.id = m.club_id
		WHERE m.user_id = $1
		ORDER BY m.joined_at DESC
	`
	rows, err := r.db.Querier(ctx).Query(ctx, query, userID)
	if err != nil {
		return nil, translate("list clubs", err)
	}
	defer rows.Close()

	var clubs []domain.ClubWithCount
	for rows.Next() {
		var c domain.ClubWithCount
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Description, &c.InviteCode, &c.CreatedAt, &c.MyRole, &c.MemberCount,
		); err != nil {
			return nil, translate("scan club", err)
		}
		clubs = append(clubs, c)
	}
	return clubs, translate("list clubs", rows.Err())
}

func (r *clubRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Querier(ctx).Exec(ctx, `DELETE FROM clubs WHERE id = $1`, id)
	if err != nil {
		return translate("delete club", err)
	}
	if tag.RowsAffected() == 0 {
		return translate("delete club", ErrNotFound)
	}
	return nil
}
