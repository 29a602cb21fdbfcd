package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"turnero/internal/models"
)

// UpsertSpecialDay creates or replaces the override for a single date.
func (db *DB) UpsertSpecialDay(ctx context.Context, d *models.SpecialDay) error {
	if d == nil {
		return fmt.Errorf("special day is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO special_days (date, is_closed, reason, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			is_closed = excluded.is_closed,
			reason = excluded.reason,
			updated_at = excluded.updated_at`,
		formatDate(d.Date), d.Closed, d.Reason, now, now,
	); err != nil {
		return fmt.Errorf("upsert special day: %w", err)
	}

	var id int64
	if err := tx.QueryRowContext(ctx,
		"SELECT id FROM special_days WHERE date = ?", formatDate(d.Date),
	).Scan(&id); err != nil {
		return fmt.Errorf("find special day: %w", err)
	}
	d.ID = id

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM special_day_windows WHERE special_day_id = ?", id,
	); err != nil {
		return fmt.Errorf("clear special day windows: %w", err)
	}
	if !d.Closed {
		for _, w := range d.Windows {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO special_day_windows (special_day_id, start_time, end_time) VALUES (?, ?, ?)",
				id, w.Start, w.End,
			); err != nil {
				return fmt.Errorf("insert special day window: %w", err)
			}
		}
	}
	return tx.Commit()
}

// GetSpecialDay returns the override for an exact date, or (nil, nil).
func (db *DB) GetSpecialDay(ctx context.Context, date time.Time) (*models.SpecialDay, error) {
	var d models.SpecialDay
	var day string
	var reason sql.NullString
	err := db.QueryRowContext(ctx, `
		SELECT id, date, is_closed, reason, created_at, updated_at
		FROM special_days WHERE date = ? LIMIT 1`,
		formatDate(date),
	).Scan(&d.ID, &day, &d.Closed, &reason, &d.CreatedAt, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get special day: %w", err)
	}
	if d.Date, err = parseDate(day); err != nil {
		return nil, fmt.Errorf("special day %d date: %w", d.ID, err)
	}
	if reason.Valid {
		d.Reason = reason.String
	}

	rows, err := db.QueryContext(ctx,
		"SELECT start_time, end_time FROM special_day_windows WHERE special_day_id = ? ORDER BY start_time",
		d.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("list special day windows: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var w models.TimeWindow
		if err := rows.Scan(&w.Start, &w.End); err != nil {
			return nil, err
		}
		d.Windows = append(d.Windows, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &d, nil
}

// DeleteSpecialDay removes the override for a date.
func (db *DB) DeleteSpecialDay(ctx context.Context, date time.Time) error {
	res, err := db.ExecContext(ctx, "DELETE FROM special_days WHERE date = ?", formatDate(date))
	if err != nil {
		return fmt.Errorf("delete special day: %w", err)
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

// ListSpecialDays returns overrides within an inclusive date range.
func (db *DB) ListSpecialDays(ctx context.Context, from, to time.Time) ([]models.SpecialDay, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT date FROM special_days
		WHERE date >= ? AND date <= ?
		ORDER BY date`,
		formatDate(from), formatDate(to),
	)
	if err != nil {
		return nil, fmt.Errorf("list special days: %w", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return nil, err
		}
		dates = append(dates, day)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []models.SpecialDay
	for _, day := range dates {
		date, err := parseDate(day)
		if err != nil {
			return nil, err
		}
		d, err := db.GetSpecialDay(ctx, date)
		if err != nil {
			return nil, err
		}
		if d != nil {
			out = append(out, *d)
		}
	}
	return out, nil
}
