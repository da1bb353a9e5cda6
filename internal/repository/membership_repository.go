package repository

import (
	"context"

	"club-api/internal/domain"
	"club-api/pkg/database"
)

type membershipRepository struct {
	db *database.PostgresDB
}

// NewMembershipRepository creates a new PostgreSQL membership repository
func NewMembershipRepository(db *database.PostgresDB) MembershipRepository {
	return &membershipRepository{db: db}
}

func (r *membershipRepository) Create(ctx context.Context, m *domain.Membership) error {
	if m.ID == "" {
		m.ID = domain.NewID()
	}

	query := `
		INSERT INTO memberships (id, user_id, club_id, role)
		VALUES ($1, $2, $3, $4)
		RETURNING joined_at
	`
	err := r.db.Querier(ctx).QueryRow(ctx, query, m.ID, m.UserID, m.ClubID, m.Role).Scan(&m.JoinedAt)
	return translate("create membership", err)
}

func (r *membershipRepository) Get(ctx context.Context, userID, clubID string) (*domain.Membership, error) {
	var m domain.Membership
	err := r.db.Querier(ctx).QueryRow(ctx, `
		SELECT id, user_id, club_id, role, joined_at
		FROM memberships
		WHERE user_id = $1 AND club_id = $2
	`, userID, clubID).Scan(&m.ID, &m.UserID, &m.ClubID, &m.Role, &m.JoinedAt)
	if err != nil {
		return nil, translate("get membership", err)
	}
	return &m, nil
}

func (r *membershipRepository) GetByID(ctx context.Context, clubID, id string) (*domain.Membership, error) {
	var m domain.Membership
	err := r.db.Querier(ctx).QueryRow(ctx, `
		SELECT id, user_id, club_id, role, joined_at
		FROM memberships
		WHERE id = $1 AND club_id = $2
	`, id, clubID).Scan(&m.ID, &m.UserID, &m.ClubID, &m.Role, &m.JoinedAt)
	if err != nil {
		return nil, translate("get membership", err)
	}
	return &m, nil
}

func (r *membershipRepository) ListMembers(ctx context.Context, clubID string) ([]domain.Member, error) {
	query := `
		SELECT m.id, m.user_id, m.club_id, m.role, m.joined_at, u.name, u.email
		FROM memberships m
		JOIN users u ON u.id = m.user_id
		WHERE m.club_id = $1
		ORDER BY m.joined_at ASC, m.id ASC
	`
	rows, err := r.db.Querier(ctx).Query(ctx, query, clubID)
	if err != nil {
		return nil, translate("list members", err)
	}
	defer rows.Close()

	var members []domain.Member
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(&m.ID, &m.UserID, &m.ClubID, &m.Role, &m.JoinedAt, &m.Name, &m.Email); err != nil {
			return nil, translate("scan member", err)
		}
		m.RoleLabel = m.Role.Label()
		members = append(members, m)
	}
	return members, translate("list members", rows.Err())
}

func (r *membershipRepository) CountMembers(ctx context.Context, clubID string) (int, error) {
	var n int
	err := r.db.Querier(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM memberships WHERE club_id = $1`, clubID,
	).Scan(&n)
	return n, translate("count members", err)
}

// LockOwners takes row locks so that two owners removing or demoting each
// other concurrently cannot both pass the last-owner check
func (r *membershipRepository) LockOwners(ctx context.Context, clubID string) (int, error) {
	rows, err := r.db.Querier(ctx).Query(ctx,
		`SELECT id FROM memberships WHERE club_id = $1 AND role = $2 FOR UPDATE`, clubID, domain.RoleOwner,
	)
	if err != nil {
		return 0, translate("lock owners", err)
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		n++
	}
	return n, translate("lock owners", rows.Err())
}

func (r *membershipRepository) UpdateRole(ctx context.Context, clubID, id string, role domain.Role) error {
	tag, err := r.db.Querier(ctx).Exec(ctx,
		`UPDATE memberships SET role = $3 WHERE id = $1 AND club_id = $2`, id, clubID, role,
	)
	if err != nil {
		return translate("update role", err)
	}
	if tag.RowsAffected() == 0 {
		return translate("update role", ErrNotFound)
	}
	return nil
}

func (r *membershipRepository) Delete(ctx context.Context, clubID, id string) error {
	tag, err := r.db.Querier(ctx).Exec(ctx,
		`DELETE FROM memberships WHERE id = $1 AND club_id = $2`, id, clubID,
	)
	if err != nil {
		return translate("delete membership", err)
	}
	if tag.RowsAffected() == 0 {
		return translate("delete membership", ErrNotFound)
	}
	return nil
}
