package repository

import (
	"context"
	"time"

	"club-api/internal/domain"
	"club-api/pkg/database"
	"github.com/jackc/pgx/v5"
)

type scheduleRepository struct {
	db *database.PostgresDB
}

// NewScheduleRepository creates a new PostgreSQL schedule repository
func NewScheduleRepository(db *database.PostgresDB) ScheduleRepository {
	return &scheduleRepository{db: db}
}

func (r *scheduleRepository) Create(ctx context.Context, s *domain.Schedule) error {
	if s.ID == "" {
		s.ID = domain.NewID()
	}

	query := `
		INSERT INTO schedules (id, club_id, title, description, start_at, end_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	err := r.db.Querier(ctx).QueryRow(ctx, query,
		s.ID, s.ClubID, s.Title, s.Description, s.StartAt, s.EndAt,
	).Scan(&s.CreatedAt)
	return translate("create schedule", err)
}

func (r *scheduleRepository) List(ctx context.Context, clubID string) ([]domain.Schedule, error) {
	rows, err := r.db.Querier(ctx).Query(ctx, `
		SELECT id, club_id, title, description, start_at, end_at, created_at
		FROM schedules
		WHERE club_id = $1
		ORDER BY start_at ASC, id ASC
	`, clubID)
	if err != nil {
		return nil, translate("list schedules", err)
	}
	return collectSchedules(rows)
}

func (r *scheduleRepository) ListUpcoming(ctx context.Context, clubID string, from time.Time, limit int) ([]domain.Schedule, error) {
	rows, err := r.db.Querier(ctx).Query(ctx, `
		SELECT id, club_id, title, description, start_at, end_at, created_at
		FROM schedules
		WHERE club_id = $1 AND start_at >= $2
		ORDER BY start_at ASC, id ASC
		LIMIT $3
	`, clubID, from, limit)
	if err != nil {
		return nil, translate("list upcoming schedules", err)
	}
	return collectSchedules(rows)
}

func (r *scheduleRepository) Delete(ctx context.Context, clubID, id string) error {
	tag, err := r.db.Querier(ctx).Exec(ctx, `DELETE FROM schedules WHERE id = $1 AND club_id = $2`, id, clubID)
	if err != nil {
		return translate("delete schedule", err)
	}
	if tag.RowsAffected() == 0 {
		return translate("delete schedule", ErrNotFound)
	}
	return nil
}

func collectSchedules(rows pgx.Rows) ([]domain.Schedule, error) {
	defer rows.Close()

	var out []domain.Schedule
	for rows.Next() {
		var s domain.Schedule
		if err := rows.Scan(&s.ID, &s.ClubID, &s.Title, &s.Description, &s.StartAt, &s.EndAt, &s.CreatedAt); err != nil {
			return nil, translate("scan schedule", err)
		}
		out = append(out, s)
	}
	return out, translate("list schedules", rows.Err())
}
