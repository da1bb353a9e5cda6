package service

import (
	"context"
	"testing"
	"time"

	"club-api/internal/domain"
	apperrors "club-api/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAttendance_OverwritesSameDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "Owner")
	u2 := f.user(t, "U2")
	c1 := f.club(t, owner, "C1")
	f.join(t, u2, c1, domain.RoleMember)

	morning := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	evening := time.Date(2024, 5, 1, 21, 30, 0, 0, time.UTC)

	first, err := f.attendance.SetAttendance(ctx, owner.ID, c1.ID, u2.ID, morning, domain.AttendanceLate)
	require.NoError(t, err)
	second, err := f.attendance.SetAttendance(ctx, owner.ID, c1.ID, u2.ID, evening, domain.AttendancePresent)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	rows, err := f.attendance.ListAttendance(ctx, owner.ID, c1.ID, &day)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.AttendancePresent, rows[0].Status)
	assert.Equal(t, "U2", rows[0].UserName)
}

func TestSetAttendance_DifferentDaysAreSeparate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "Owner")
	club := f.club(t, owner, "C1")

	for _, d := range []int{1, 2} {
		_, err := f.attendance.SetAttendance(ctx, owner.ID, club.ID, owner.ID,
			time.Date(2024, 5, d, 10, 0, 0, 0, time.UTC), domain.AttendancePresent)
		require.NoError(t, err)
	}

	all, err := f.attendance.ListAttendance(ctx, owner.ID, club.ID, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSetAttendance_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "Owner")
	club := f.club(t, owner, "C1")
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	_, err := f.attendance.SetAttendance(ctx, owner.ID, club.ID, owner.ID, day, domain.AttendanceStatus("SICK"))
	requireErrType(t, err, apperrors.ErrorTypeValidation)

	_, err = f.attendance.SetAttendance(ctx, owner.ID, club.ID, "", day, domain.AttendancePresent)
	requireErrType(t, err, apperrors.ErrorTypeValidation)

	_, err = f.attendance.SetAttendance(ctx, owner.ID, club.ID, owner.ID, time.Time{}, domain.AttendancePresent)
	requireErrType(t, err, apperrors.ErrorTypeValidation)
}

func TestSetAttendance_Permissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "Owner")
	plain := f.user(t, "Plain")
	outsider := f.user(t, "Outsider")
	club := f.club(t, owner, "C1")
	f.join(t, plain, club, domain.RoleMember)
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	_, err := f.attendance.SetAttendance(ctx, plain.ID, club.ID, plain.ID, day, domain.AttendancePresent)
	require.NoError(t, err, "members record their own attendance")

	_, err = f.attendance.SetAttendance(ctx, plain.ID, club.ID, owner.ID, day, domain.AttendancePresent)
	requireErrType(t, err, apperrors.ErrorTypeAuthorization)

	_, err = f.attendance.SetAttendance(ctx, owner.ID, club.ID, outsider.ID, day, domain.AttendancePresent)
	requireErrType(t, err, apperrors.ErrorTypeNotFound)

	_, err = f.attendance.SetAttendance(ctx, outsider.ID, club.ID, outsider.ID, day, domain.AttendancePresent)
	requireErrType(t, err, apperrors.ErrorTypeAuthorization)
}

func TestRoster(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "Owner")
	late := f.user(t, "Late")
	f.user(t, "Outsider")
	club := f.club(t, owner, "C1")
	f.join(t, late, club, domain.RoleMember)
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	_, err := f.attendance.SetAttendance(ctx, owner.ID, club.ID, late.ID, day, domain.AttendanceLate)
	require.NoError(t, err)

	roster, err := f.attendance.Roster(ctx, owner.ID, club.ID, day.Add(15*time.Hour))
	require.NoError(t, err)
	assert.True(t, roster.Date.Equal(day))
	require.Len(t, roster.Entries, 2)

	byUser := map[string]domain.RosterEntry{}
	for _, e := range roster.Entries {
		byUser[e.UserID] = e
	}
	assert.Equal(t, domain.AttendanceLate, byUser[late.ID].Status)
	assert.True(t, byUser[late.ID].Recorded)
	assert.Equal(t, domain.AttendanceAbsent, byUser[owner.ID].Status)
	assert.False(t, byUser[owner.ID].Recorded)

	assert.Equal(t, 1, roster.Counts[domain.AttendanceLate])
	assert.Equal(t, 1, roster.Counts[domain.AttendanceAbsent])
	assert.Equal(t, 0, roster.Counts[domain.AttendancePresent])

	rows, err := f.attendance.ListAttendance(ctx, owner.ID, club.ID, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "the roster does not create rows")
}
