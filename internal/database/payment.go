package database

import (
	"context"
	"fmt"
	"time"

	"turnero/internal/models"
)

// CreatePayment inserts a ledger entry.
func (db *DB) CreatePayment(ctx context.Context, p *models.Payment) error {
	if p.PaidAt.IsZero() {
		p.PaidAt = time.Now()
	}
	res, err := db.ExecContext(ctx, `
		INSERT INTO payments (appointment_id, amount, method, paid_at, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		p.AppointmentID, p.Amount, p.Method, p.PaidAt, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	p.ID, err = res.LastInsertId()
	return err
}

// GetPaymentsForAppointment returns the ledger entries for an appointment.
func (db *DB) GetPaymentsForAppointment(ctx context.Context, appointmentID int64) ([]models.Payment, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, appointment_id, amount, method, paid_at, created_at
		FROM payments WHERE appointment_id = ? ORDER BY paid_at`,
		appointmentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.AppointmentID, &p.Amount, &p.Method, &p.PaidAt, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// AppointmentCharge returns the total price of an appointment's treatments.
func (db *DB) AppointmentCharge(ctx context.Context, appointmentID int64) (float64, error) {
	var total float64
	err := db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(t.price), 0)
		FROM appointment_treatments at
		JOIN treatments t ON t.id = at.treatment_id
		WHERE at.appointment_id = ?`,
		appointmentID,
	).Scan(&total)
	return total, err
}

// PaymentsReceived returns the amount already paid against an appointment.
func (db *DB) PaymentsReceived(ctx context.Context, appointmentID int64) (float64, error) {
	var total float64
	err := db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(amount), 0) FROM payments WHERE appointment_id = ?",
		appointmentID,
	).Scan(&total)
	return total, err
}

// OutstandingBalance returns charge minus payments for an appointment.
func (db *DB) OutstandingBalance(ctx context.Context, appointmentID int64) (float64, error) {
	charge, err := db.AppointmentCharge(ctx, appointmentID)
	if err != nil {
		return 0, err
	}
	paid, err := db.PaymentsReceived(ctx, appointmentID)
	if err != nil {
		return 0, err
	}
	return charge - paid, nil
}
