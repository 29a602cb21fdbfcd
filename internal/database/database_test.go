package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"turnero/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestGetWeeklySchedules_SeedsDefaultsIdempotently(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	schedules, err := db.GetWeeklySchedules(ctx)
	require.NoError(t, err)
	require.Len(t, schedules, 7)

	// Sunday closed, Monday-Friday two shifts, Saturday mornings.
	assert.Equal(t, 0, schedules[0].Weekday)
	assert.False(t, schedules[0].Active)
	assert.Empty(t, schedules[0].Windows)

	assert.True(t, schedules[1].Active)
	assert.Equal(t, []models.TimeWindow{
		{Start: "09:00", End: "13:00"},
		{Start: "15:00", End: "19:00"},
	}, schedules[1].Windows)

	assert.True(t, schedules[6].Active)
	assert.Len(t, schedules[6].Windows, 1)

	// A second read must not duplicate rows.
	again, err := db.GetWeeklySchedules(ctx)
	require.NoError(t, err)
	assert.Len(t, again, 7)

	var count int
	require.NoError(t, db.QueryRow(
		"SELECT COUNT(*) FROM weekday_schedules WHERE season_id IS NULL").Scan(&count))
	assert.Equal(t, 7, count)
}

func TestUpdateWeeklySchedule_ReplacesWindows(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	err := db.UpdateWeeklySchedule(ctx, 1, true, []models.TimeWindow{{Start: "10:00", End: "18:00"}})
	require.NoError(t, err)

	schedules, err := db.GetWeeklySchedules(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.TimeWindow{{Start: "10:00", End: "18:00"}}, schedules[1].Windows)

	// Deactivating keeps the row but drops the windows it is given.
	err = db.UpdateWeeklySchedule(ctx, 1, false, nil)
	require.NoError(t, err)

	schedules, err = db.GetWeeklySchedules(ctx)
	require.NoError(t, err)
	assert.False(t, schedules[1].Active)
	assert.Empty(t, schedules[1].Windows)
}

func TestSeasonLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	season := &models.Season{
		Name:      "verano",
		StartDate: time.Date(2025, 12, 1, 0, 0, 0, 0, time.Local),
		EndDate:   time.Date(2026, 2, 28, 0, 0, 0, 0, time.Local),
		Active:    true,
		Schedules: []models.WeekdaySchedule{
			{Weekday: 6, Active: true, Windows: []models.TimeWindow{{Start: "08:00", End: "14:00"}}},
		},
	}
	require.NoError(t, db.CreateSeason(ctx, season))
	require.NotZero(t, season.ID)

	loaded, err := db.GetSeason(ctx, season.ID)
	require.NoError(t, err)
	assert.Equal(t, "verano", loaded.Name)
	assert.Equal(t, "2025-12-01", loaded.StartDate.Format("2006-01-02"))
	require.Len(t, loaded.Schedules, 1)
	assert.Equal(t, []models.TimeWindow{{Start: "08:00", End: "14:00"}}, loaded.Schedules[0].Windows)

	// Upsert replaces the weekday's windows in place.
	err = db.UpsertSeasonSchedule(ctx, season.ID, 6, true, []models.TimeWindow{{Start: "09:00", End: "12:00"}})
	require.NoError(t, err)
	loaded, err = db.GetSeason(ctx, season.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Schedules, 1)
	assert.Equal(t, []models.TimeWindow{{Start: "09:00", End: "12:00"}}, loaded.Schedules[0].Windows)

	// Upsert for a new weekday adds a record.
	err = db.UpsertSeasonSchedule(ctx, season.ID, 0, false, nil)
	require.NoError(t, err)
	loaded, err = db.GetSeason(ctx, season.ID)
	require.NoError(t, err)
	assert.Len(t, loaded.Schedules, 2)

	// Delete cascades to schedules and windows.
	require.NoError(t, db.DeleteSeason(ctx, season.ID))
	_, err = db.GetSeason(ctx, season.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	var count int
	require.NoError(t, db.QueryRow(
		"SELECT COUNT(*) FROM weekday_schedules WHERE season_id = ?", season.ID).Scan(&count))
	assert.Zero(t, count)

	assert.ErrorIs(t, db.DeleteSeason(ctx, season.ID), sql.ErrNoRows)
}

func TestGetActiveSeasonsOverlapping(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	mk := func(name string, from, to time.Time, active bool) *models.Season {
		s := &models.Season{Name: name, StartDate: from, EndDate: to, Active: active}
		require.NoError(t, db.CreateSeason(ctx, s))
		return s
	}

	start := time.Date(2025, 7, 1, 0, 0, 0, 0, time.Local)
	end := time.Date(2025, 8, 31, 0, 0, 0, 0, time.Local)
	mk("vieja", start, end, true)
	mk("inactiva", start, end, false)
	newer := mk("nueva", start, end, true)

	inRange := time.Date(2025, 8, 15, 0, 0, 0, 0, time.Local)
	seasons, err := db.GetActiveSeasonsOverlapping(ctx, inRange)
	require.NoError(t, err)
	require.Len(t, seasons, 2)

	// Newest first: when ranges overlap the most recently created wins.
	assert.Equal(t, newer.ID, seasons[0].ID)
	assert.Equal(t, "nueva", seasons[0].Name)

	// Inclusive boundaries.
	onStart, err := db.GetActiveSeasonsOverlapping(ctx, start)
	require.NoError(t, err)
	assert.Len(t, onStart, 2)
	onEnd, err := db.GetActiveSeasonsOverlapping(ctx, end)
	require.NoError(t, err)
	assert.Len(t, onEnd, 2)

	outside, err := db.GetActiveSeasonsOverlapping(ctx, end.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, outside)
}

func TestSpecialDayUpsert(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	date := time.Date(2025, 12, 25, 0, 0, 0, 0, time.Local)

	missing, err := db.GetSpecialDay(ctx, date)
	require.NoError(t, err)
	assert.Nil(t, missing)

	// First write: bespoke hours.
	require.NoError(t, db.UpsertSpecialDay(ctx, &models.SpecialDay{
		Date:    date,
		Windows: []models.TimeWindow{{Start: "10:00", End: "14:00"}},
	}))

	day, err := db.GetSpecialDay(ctx, date)
	require.NoError(t, err)
	require.NotNil(t, day)
	assert.False(t, day.Closed)
	assert.Equal(t, []models.TimeWindow{{Start: "10:00", End: "14:00"}}, day.Windows)

	// Second write for the same date replaces, closing the day and
	// dropping the windows.
	require.NoError(t, db.UpsertSpecialDay(ctx, &models.SpecialDay{
		Date:    date,
		Closed:  true,
		Reason:  "navidad",
		Windows: []models.TimeWindow{{Start: "10:00", End: "14:00"}},
	}))

	day, err = db.GetSpecialDay(ctx, date)
	require.NoError(t, err)
	require.NotNil(t, day)
	assert.True(t, day.Closed)
	assert.Equal(t, "navidad", day.Reason)
	assert.Empty(t, day.Windows)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM special_days").Scan(&count))
	assert.Equal(t, 1, count)

	listed, err := db.ListSpecialDays(ctx, date.AddDate(0, 0, -1), date.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	require.NoError(t, db.DeleteSpecialDay(ctx, date))
	assert.ErrorIs(t, db.DeleteSpecialDay(ctx, date), sql.ErrNoRows)
}

func seedClientAndTreatment(t *testing.T, db *DB) (int64, int64) {
	t.Helper()
	ctx := context.Background()

	client := &models.Client{Name: "Ana", Phone: "+5491100000000"}
	require.NoError(t, db.CreateClient(ctx, client))

	treatment := &models.Treatment{Name: "corte", DurationMinutes: 30, Price: 50, Active: true}
	require.NoError(t, db.CreateTreatment(ctx, treatment))

	return client.ID, treatment.ID
}

func TestAppointmentOccupancy(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	clientID, treatmentID := seedClientAndTreatment(t, db)

	day := time.Date(2025, 8, 18, 0, 0, 0, 0, time.Local)

	booked := &models.Appointment{
		ClientID:     clientID,
		TreatmentIDs: []int64{treatmentID},
		StartTime:    day.Add(10 * time.Hour),
		EndTime:      day.Add(11 * time.Hour),
		Status:       models.StatusConfirmed,
	}
	require.NoError(t, db.CreateAppointment(ctx, booked))

	canceled := &models.Appointment{
		ClientID:  clientID,
		StartTime: day.Add(12 * time.Hour),
		EndTime:   day.Add(13 * time.Hour),
		Status:    models.StatusCanceled,
	}
	require.NoError(t, db.CreateAppointment(ctx, canceled))

	otherDay := &models.Appointment{
		ClientID:  clientID,
		StartTime: day.AddDate(0, 0, 1).Add(10 * time.Hour),
		EndTime:   day.AddDate(0, 0, 1).Add(11 * time.Hour),
	}
	require.NoError(t, db.CreateAppointment(ctx, otherDay))

	occupying, err := db.GetNonCancelledAppointments(ctx, day)
	require.NoError(t, err)
	require.Len(t, occupying, 1)
	assert.Equal(t, booked.ID, occupying[0].ID)
	assert.Equal(t, []int64{treatmentID}, occupying[0].TreatmentIDs)

	loaded, err := db.GetAppointment(ctx, booked.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, loaded.Status)
	assert.True(t, loaded.StartTime.Equal(booked.StartTime))

	// Cancel releases the interval.
	require.NoError(t, db.UpdateAppointmentStatus(ctx, booked.ID, models.StatusCanceled))
	occupying, err = db.GetNonCancelledAppointments(ctx, day)
	require.NoError(t, err)
	assert.Empty(t, occupying)

	assert.ErrorIs(t, db.UpdateAppointmentStatus(ctx, 9999, models.StatusConfirmed), sql.ErrNoRows)
}

func TestGetUpcomingUnreminded(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	clientID, _ := seedClientAndTreatment(t, db)

	soon := &models.Appointment{
		ClientID:  clientID,
		StartTime: time.Now().Add(2 * time.Hour),
		EndTime:   time.Now().Add(3 * time.Hour),
		Status:    models.StatusConfirmed,
	}
	require.NoError(t, db.CreateAppointment(ctx, soon))

	farAway := &models.Appointment{
		ClientID:  clientID,
		StartTime: time.Now().Add(100 * time.Hour),
		EndTime:   time.Now().Add(101 * time.Hour),
		Status:    models.StatusConfirmed,
	}
	require.NoError(t, db.CreateAppointment(ctx, farAway))

	pendingOnly := &models.Appointment{
		ClientID:  clientID,
		StartTime: time.Now().Add(2 * time.Hour),
		EndTime:   time.Now().Add(3 * time.Hour),
		Status:    models.StatusPending,
	}
	require.NoError(t, db.CreateAppointment(ctx, pendingOnly))

	due, err := db.GetUpcomingUnreminded(ctx, 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, soon.ID, due[0].ID)

	require.NoError(t, db.MarkReminderSent(ctx, soon.ID))
	due, err = db.GetUpcomingUnreminded(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestPaymentsLedger(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	clientID, treatmentID := seedClientAndTreatment(t, db)

	extra := &models.Treatment{Name: "color", DurationMinutes: 60, Price: 120, Active: true}
	require.NoError(t, db.CreateTreatment(ctx, extra))

	appointment := &models.Appointment{
		ClientID:     clientID,
		TreatmentIDs: []int64{treatmentID, extra.ID},
		StartTime:    time.Now().Add(24 * time.Hour),
		EndTime:      time.Now().Add(25 * time.Hour),
	}
	require.NoError(t, db.CreateAppointment(ctx, appointment))

	charge, err := db.AppointmentCharge(ctx, appointment.ID)
	require.NoError(t, err)
	assert.InDelta(t, 170, charge, 0.001)

	outstanding, err := db.OutstandingBalance(ctx, appointment.ID)
	require.NoError(t, err)
	assert.InDelta(t, 170, outstanding, 0.001)

	require.NoError(t, db.CreatePayment(ctx, &models.Payment{
		AppointmentID: appointment.ID,
		Amount:        100,
		Method:        "cash",
		PaidAt:        time.Now(),
	}))

	paid, err := db.PaymentsReceived(ctx, appointment.ID)
	require.NoError(t, err)
	assert.InDelta(t, 100, paid, 0.001)

	outstanding, err = db.OutstandingBalance(ctx, appointment.ID)
	require.NoError(t, err)
	assert.InDelta(t, 70, outstanding, 0.001)

	payments, err := db.GetPaymentsForAppointment(ctx, appointment.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 1)
}
