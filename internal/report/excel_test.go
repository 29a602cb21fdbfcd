package report

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"turnero/internal/database"
	"turnero/internal/models"
)

func TestWriteAgenda(t *testing.T) {
	ctx := context.Background()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	client := &models.Client{Name: "Ana", Phone: "+549110000"}
	require.NoError(t, db.CreateClient(ctx, client))
	treatment := &models.Treatment{Name: "color", DurationMinutes: 60, Price: 120, Active: true}
	require.NoError(t, db.CreateTreatment(ctx, treatment))

	day := time.Date(2025, 8, 18, 0, 0, 0, 0, time.Local)
	appointment := &models.Appointment{
		ClientID:     client.ID,
		TreatmentIDs: []int64{treatment.ID},
		StartTime:    day.Add(10 * time.Hour),
		EndTime:      day.Add(11 * time.Hour),
		Status:       models.StatusConfirmed,
	}
	require.NoError(t, db.CreateAppointment(ctx, appointment))
	require.NoError(t, db.CreatePayment(ctx, &models.Payment{
		AppointmentID: appointment.ID,
		Amount:        50,
		Method:        "cash",
		PaidAt:        time.Now(),
	}))

	var buf bytes.Buffer
	require.NoError(t, NewExporter(db).WriteAgenda(ctx, &buf, day, day))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Agenda")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Fecha", rows[0][0])
	assert.Equal(t, "2025-08-18", rows[1][0])
	assert.Equal(t, "10:00", rows[1][1])
	assert.Equal(t, "Ana", rows[1][3])
	assert.Equal(t, "color", rows[1][5])

	ledger, err := f.GetRows("Pagos")
	require.NoError(t, err)
	require.Len(t, ledger, 2)
	assert.Equal(t, "cash", ledger[1][3])
}

func TestWriteAgenda_EmptyRange(t *testing.T) {
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	day := time.Date(2025, 8, 18, 0, 0, 0, 0, time.Local)
	var buf bytes.Buffer
	require.NoError(t, NewExporter(db).WriteAgenda(context.Background(), &buf, day, day))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Agenda")
	require.NoError(t, err)
	assert.Len(t, rows, 1) // header only
}
