package repository

import "club-api/pkg/database"

// NewPostgresRepositories wires every repository to one connection pool
func NewPostgresRepositories(db *database.PostgresDB) *Repositories {
	return &Repositories{
		Tx:          db,
		Users:       NewUserRepository(db),
		Clubs:       NewClubRepository(db),
		Memberships: NewMembershipRepository(db),
		Attendance:  NewAttendanceRepository(db),
		Posts:       NewPostRepository(db),
		Votes:       NewVoteRepository(db),
		Schedules:   NewScheduleRepository(db),
	}
}
