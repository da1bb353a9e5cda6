package repository

import (
	"context"
	"time"

	"club-api/internal/domain"
	"club-api/pkg/database"
)

type attendanceRepository struct {
	db *database.PostgresDB
}

// NewAttendanceRepository creates a new PostgreSQL attendance repository
func NewAttendanceRepository(db *database.PostgresDB) AttendanceRepository {
	return &attendanceRepository{db: db}
}

// Upsert inserts the day's row or overwrites its status. The unique key
// (user_id, club_id, date) makes concurrent calls converge on one row.
func (r *attendanceRepository) Upsert(ctx context.Context, a *domain.Attendance) error {
	if a.ID == "" {
		a.ID = domain.NewID()
	}

	query := `
		INSERT INTO attendances (id, user_id, club_id, date, status, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id, club_id, date) DO UPDATE SET
			status = EXCLUDED.status,
			updated_at = NOW()
		RETURNING id, updated_at
	`
	err := r.db.Querier(ctx).QueryRow(ctx, query,
		a.ID, a.UserID, a.ClubID, a.Date, a.Status,
	).Scan(&a.ID, &a.UpdatedAt)
	return translate("upsert attendance", err)
}

func (r *attendanceRepository) List(ctx context.Context, clubID string, day *time.Time) ([]domain.Attendance, error) {
	query := `
		SELECT a.id, a.user_id, u.name, a.club_id, a.date, a.status, a.updated_at
		FROM attendances a
		JOIN users u ON u.id = a.user_id
		WHERE a.club_id = $1 AND ($2::date IS NULL OR a.date = $2::date)
		ORDER BY a.date DESC, u.name ASC
	`
	rows, err := r.db.Querier(ctx).Query(ctx, query, clubID, day)
	if err != nil {
		return nil, translate("list attendance", err)
	}
	defer rows.Close()

	var out []domain.Attendance
	for rows.Next() {
		var a domain.Attendance
		if err := rows.Scan(&a.ID, &a.UserID, &a.UserName, &a.ClubID, &a.Date, &a.Status, &a.UpdatedAt); err != nil {
			return nil, translate("scan attendance", err)
		}
		out = append(out, a)
	}
	return out, translate("list attendance", rows.Err())
}
