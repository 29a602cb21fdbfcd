package booking

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"turnero/internal/apperr"
	"turnero/internal/database"
	"turnero/internal/events"
	"turnero/internal/hours"
	"turnero/internal/models"
)

type fixture struct {
	db  *database.DB
	svc *Service

	clientID    int64
	treatmentID int64 // 60 minutes
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := zerolog.Nop()
	svc := NewService(db, hours.NewResolver(db), nil, events.NewEventBus(), &log)

	client := &models.Client{Name: "Ana", Phone: "+5491100000000"}
	require.NoError(t, db.CreateClient(ctx, client))

	treatment := &models.Treatment{Name: "color", DurationMinutes: 60, Price: 120, Active: true}
	require.NoError(t, db.CreateTreatment(ctx, treatment))

	return &fixture{db: db, svc: svc, clientID: client.ID, treatmentID: treatment.ID}
}

// 2025-08-18 is a Monday, open 09:00-13:00 and 15:00-19:00 by default.
var testMonday = time.Date(2025, 8, 18, 0, 0, 0, 0, time.Local)

func TestAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("open day lists tick-aligned starts", func(t *testing.T) {
		generated, err := f.svc.Availability(ctx, testMonday, 60)
		require.NoError(t, err)
		require.NotEmpty(t, generated)

		assert.Equal(t, "09:00", generated[0].Start)
		assert.Equal(t, "10:00", generated[0].End)
		last := generated[len(generated)-1]
		assert.Equal(t, "18:00", last.Start)
		assert.Equal(t, "19:00", last.End)
	})

	t.Run("closed day yields empty list not error", func(t *testing.T) {
		sunday := time.Date(2025, 8, 17, 0, 0, 0, 0, time.Local)
		generated, err := f.svc.Availability(ctx, sunday, 60)
		require.NoError(t, err)
		assert.NotNil(t, generated)
		assert.Empty(t, generated)
	})

	t.Run("non-positive duration rejected", func(t *testing.T) {
		_, err := f.svc.Availability(ctx, testMonday, 0)
		assert.True(t, apperr.IsValidation(err))
	})
}

func TestDurationForTreatments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	duration, err := f.svc.DurationForTreatments(ctx, []int64{f.treatmentID})
	require.NoError(t, err)
	assert.Equal(t, 60, duration)

	_, err = f.svc.DurationForTreatments(ctx, nil)
	assert.True(t, apperr.IsValidation(err))

	_, err = f.svc.DurationForTreatments(ctx, []int64{f.treatmentID, 9999})
	assert.True(t, apperr.IsNotFound(err))

	retired := &models.Treatment{Name: "permanente", DurationMinutes: 90, Active: false}
	require.NoError(t, f.db.CreateTreatment(ctx, retired))
	_, err = f.svc.DurationForTreatments(ctx, []int64{retired.ID})
	assert.True(t, apperr.IsValidation(err))
}

func TestCreateTurno(t *testing.T) {
	t.Run("books an open slot", func(t *testing.T) {
		f := newFixture(t)
		appointment, err := f.svc.CreateTurno(context.Background(), CreateTurnoRequest{
			ClientID:     f.clientID,
			TreatmentIDs: []int64{f.treatmentID},
			Date:         testMonday,
			Start:        "10:00",
		})
		require.NoError(t, err)

		assert.Equal(t, models.StatusPending, appointment.Status)
		assert.Equal(t, "10:00", appointment.StartTime.Format("15:04"))
		assert.Equal(t, "11:00", appointment.EndTime.Format("15:04"))
		assert.Equal(t, []int64{f.treatmentID}, appointment.TreatmentIDs)
	})

	t.Run("double booking the same slot conflicts", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		req := CreateTurnoRequest{
			ClientID:     f.clientID,
			TreatmentIDs: []int64{f.treatmentID},
			Date:         testMonday,
			Start:        "10:00",
		}

		_, err := f.svc.CreateTurno(ctx, req)
		require.NoError(t, err)

		_, err = f.svc.CreateTurno(ctx, req)
		assert.True(t, apperr.IsConflict(err))
	})

	t.Run("overlapping slot conflicts", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		_, err := f.svc.CreateTurno(ctx, CreateTurnoRequest{
			ClientID:     f.clientID,
			TreatmentIDs: []int64{f.treatmentID},
			Date:         testMonday,
			Start:        "10:00",
		})
		require.NoError(t, err)

		// 10:30 overlaps the 10:00-11:00 booking.
		_, err = f.svc.CreateTurno(ctx, CreateTurnoRequest{
			ClientID:     f.clientID,
			TreatmentIDs: []int64{f.treatmentID},
			Date:         testMonday,
			Start:        "10:30",
		})
		assert.True(t, apperr.IsConflict(err))

		// 11:00 is adjacent, not overlapping.
		_, err = f.svc.CreateTurno(ctx, CreateTurnoRequest{
			ClientID:     f.clientID,
			TreatmentIDs: []int64{f.treatmentID},
			Date:         testMonday,
			Start:        "11:00",
		})
		assert.NoError(t, err)
	})

	t.Run("start outside generated slots rejected", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		for _, start := range []string{"08:00", "12:30", "10:15", "19:00"} {
			_, err := f.svc.CreateTurno(ctx, CreateTurnoRequest{
				ClientID:     f.clientID,
				TreatmentIDs: []int64{f.treatmentID},
				Date:         testMonday,
				Start:        start,
			})
			assert.True(t, apperr.IsValidation(err), start)
		}
	})

	t.Run("closed day rejected", func(t *testing.T) {
		f := newFixture(t)
		sunday := time.Date(2025, 8, 17, 0, 0, 0, 0, time.Local)

		_, err := f.svc.CreateTurno(context.Background(), CreateTurnoRequest{
			ClientID:     f.clientID,
			TreatmentIDs: []int64{f.treatmentID},
			Date:         sunday,
			Start:        "10:00",
		})
		assert.True(t, apperr.IsValidation(err))
	})

	t.Run("unknown client", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.CreateTurno(context.Background(), CreateTurnoRequest{
			ClientID:     9999,
			TreatmentIDs: []int64{f.treatmentID},
			Date:         testMonday,
			Start:        "10:00",
		})
		assert.True(t, apperr.IsNotFound(err))
	})

	t.Run("malformed start time", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.CreateTurno(context.Background(), CreateTurnoRequest{
			ClientID:     f.clientID,
			TreatmentIDs: []int64{f.treatmentID},
			Date:         testMonday,
			Start:        "25:99",
		})
		assert.True(t, apperr.IsValidation(err))
	})
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appointment, err := f.svc.CreateTurno(ctx, CreateTurnoRequest{
		ClientID:     f.clientID,
		TreatmentIDs: []int64{f.treatmentID},
		Date:         testMonday,
		Start:        "10:00",
	})
	require.NoError(t, err)

	t.Run("unknown status rejected", func(t *testing.T) {
		_, err := f.svc.UpdateStatus(ctx, appointment.ID, "whatever")
		assert.True(t, apperr.IsValidation(err))
	})

	t.Run("missing turno", func(t *testing.T) {
		_, err := f.svc.UpdateStatus(ctx, 9999, models.StatusConfirmed)
		assert.True(t, apperr.IsNotFound(err))
	})

	t.Run("normal transition", func(t *testing.T) {
		updated, err := f.svc.UpdateStatus(ctx, appointment.ID, models.StatusConfirmed)
		require.NoError(t, err)
		assert.Equal(t, models.StatusConfirmed, updated.Status)
	})

	t.Run("cancel releases the slot", func(t *testing.T) {
		_, err := f.svc.CancelTurno(ctx, appointment.ID)
		require.NoError(t, err)

		rebooked, err := f.svc.CreateTurno(ctx, CreateTurnoRequest{
			ClientID:     f.clientID,
			TreatmentIDs: []int64{f.treatmentID},
			Date:         testMonday,
			Start:        "10:00",
		})
		require.NoError(t, err)
		assert.NotEqual(t, appointment.ID, rebooked.ID)
	})

	t.Run("canceled is terminal", func(t *testing.T) {
		_, err := f.svc.UpdateStatus(ctx, appointment.ID, models.StatusConfirmed)
		assert.True(t, apperr.IsValidation(err))
	})
}

func TestRegisterPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appointment, err := f.svc.CreateTurno(ctx, CreateTurnoRequest{
		ClientID:     f.clientID,
		TreatmentIDs: []int64{f.treatmentID}, // price 120
		Date:         testMonday,
		Start:        "10:00",
	})
	require.NoError(t, err)

	_, err = f.svc.RegisterPayment(ctx, appointment.ID, -10, "cash")
	assert.True(t, apperr.IsValidation(err))

	_, err = f.svc.RegisterPayment(ctx, 9999, 10, "cash")
	assert.True(t, apperr.IsNotFound(err))

	_, err = f.svc.RegisterPayment(ctx, appointment.ID, 500, "cash")
	assert.True(t, apperr.IsValidation(err))

	payment, err := f.svc.RegisterPayment(ctx, appointment.ID, 100, "")
	require.NoError(t, err)
	assert.Equal(t, "cash", payment.Method)

	// Only the remaining 20 can still be paid.
	_, err = f.svc.RegisterPayment(ctx, appointment.ID, 50, "card")
	assert.True(t, apperr.IsValidation(err))

	_, err = f.svc.RegisterPayment(ctx, appointment.ID, 20, "card")
	assert.NoError(t, err)
}

func TestBookingPublishesEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bus := events.NewEventBus()
	var seen []string
	bus.Subscribe(events.TypeTurnoCreated, func(e events.Event) error {
		seen = append(seen, e.Type)
		return nil
	})
	bus.Subscribe(events.TypeTurnoCanceled, func(e events.Event) error {
		seen = append(seen, e.Type)
		return nil
	})

	log := zerolog.Nop()
	svc := NewService(f.db, hours.NewResolver(f.db), nil, bus, &log)

	appointment, err := svc.CreateTurno(ctx, CreateTurnoRequest{
		ClientID:     f.clientID,
		TreatmentIDs: []int64{f.treatmentID},
		Date:         testMonday,
		Start:        "16:00",
	})
	require.NoError(t, err)

	_, err = svc.CancelTurno(ctx, appointment.ID)
	require.NoError(t, err)

	assert.Equal(t, []string{events.TypeTurnoCreated, events.TypeTurnoCanceled}, seen)
}
