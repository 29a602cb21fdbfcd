package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"turnero/internal/models"
)

// CreateAppointment inserts an appointment with its treatment links.
func (db *DB) CreateAppointment(ctx context.Context, a *models.Appointment) error {
	if a == nil {
		return fmt.Errorf("appointment is nil")
	}
	if a.Status == "" {
		a.Status = models.StatusPending
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO appointments (client_id, start_time, end_time, status, notes, reminder_sent, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		a.ClientID, a.StartTime, a.EndTime, a.Status, a.Notes, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	if a.ID, err = res.LastInsertId(); err != nil {
		return err
	}

	for _, tid := range a.TreatmentIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO appointment_treatments (appointment_id, treatment_id) VALUES (?, ?)",
			a.ID, tid,
		); err != nil {
			return fmt.Errorf("link treatment %d: %w", tid, err)
		}
	}

	a.CreatedAt = now
	a.UpdatedAt = now
	return tx.Commit()
}

// GetAppointment returns an appointment with its treatment ids, or sql.ErrNoRows.
func (db *DB) GetAppointment(ctx context.Context, id int64) (*models.Appointment, error) {
	a, err := scanAppointment(db.QueryRowContext(ctx, `
		SELECT id, client_id, start_time, end_time, status, notes, reminder_sent, created_at, updated_at
		FROM appointments WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	if a.TreatmentIDs, err = db.appointmentTreatmentIDs(ctx, a.ID); err != nil {
		return nil, err
	}
	return a, nil
}

// GetNonCancelledAppointments returns appointments occupying time on a date,
// ordered by start. Canceled appointments release their interval.
func (db *DB) GetNonCancelledAppointments(ctx context.Context, date time.Time) ([]models.Appointment, error) {
	startOfDay := models.DateOnly(date)
	endOfDay := startOfDay.Add(24 * time.Hour)

	return db.queryAppointments(ctx, `
		SELECT id, client_id, start_time, end_time, status, notes, reminder_sent, created_at, updated_at
		FROM appointments
		WHERE start_time >= ? AND start_time < ?
		AND status != ?
		ORDER BY start_time`,
		startOfDay, endOfDay, models.StatusCanceled)
}

// ListAppointmentsBetween returns all appointments in [from, to), any status.
func (db *DB) ListAppointmentsBetween(ctx context.Context, from, to time.Time) ([]models.Appointment, error) {
	return db.queryAppointments(ctx, `
		SELECT id, client_id, start_time, end_time, status, notes, reminder_sent, created_at, updated_at
		FROM appointments
		WHERE start_time >= ? AND start_time < ?
		ORDER BY start_time`,
		from, to)
}

// UpdateAppointmentStatus sets the status of an appointment.
func (db *DB) UpdateAppointmentStatus(ctx context.Context, id int64, status string) error {
	res, err := db.ExecContext(ctx,
		"UPDATE appointments SET status = ?, updated_at = ? WHERE id = ?",
		status, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("update appointment status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MarkReminderSent flags an appointment as reminded.
func (db *DB) MarkReminderSent(ctx context.Context, id int64) error {
	_, err := db.ExecContext(ctx,
		"UPDATE appointments SET reminder_sent = 1, updated_at = ? WHERE id = ?",
		time.Now(), id,
	)
	return err
}

// GetUpcomingUnreminded returns confirmed appointments starting within the
// look-ahead window that have not been reminded yet.
func (db *DB) GetUpcomingUnreminded(ctx context.Context, lookAhead time.Duration) ([]models.Appointment, error) {
	now := time.Now()
	return db.queryAppointments(ctx, `
		SELECT id, client_id, start_time, end_time, status, notes, reminder_sent, created_at, updated_at
		FROM appointments
		WHERE status = ? AND reminder_sent = 0
		AND start_time > ? AND start_time <= ?
		ORDER BY start_time`,
		models.StatusConfirmed, now, now.Add(lookAhead))
}

func (db *DB) queryAppointments(ctx context.Context, query string, args ...any) ([]models.Appointment, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var appointments []models.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range appointments {
		ids, err := db.appointmentTreatmentIDs(ctx, appointments[i].ID)
		if err != nil {
			return nil, err
		}
		appointments[i].TreatmentIDs = ids
	}
	return appointments, nil
}

func scanAppointment(row rowScanner) (*models.Appointment, error) {
	var a models.Appointment
	var notes sql.NullString
	if err := row.Scan(
		&a.ID, &a.ClientID, &a.StartTime, &a.EndTime,
		&a.Status, &notes, &a.ReminderSent, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if notes.Valid {
		a.Notes = notes.String
	}
	return &a, nil
}

func (db *DB) appointmentTreatmentIDs(ctx context.Context, appointmentID int64) ([]int64, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT treatment_id FROM appointment_treatments WHERE appointment_id = ? ORDER BY treatment_id",
		appointmentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list appointment treatments: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
