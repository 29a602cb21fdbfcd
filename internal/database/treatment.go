package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"turnero/internal/models"
)

// CreateTreatment inserts a treatment.
func (db *DB) CreateTreatment(ctx context.Context, t *models.Treatment) error {
	now := time.Now()
	res, err := db.ExecContext(ctx, `
		INSERT INTO treatments (name, duration_minutes, price, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.Name, t.DurationMinutes, t.Price, t.Active, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert treatment: %w", err)
	}
	t.ID, err = res.LastInsertId()
	return err
}

// GetTreatment returns a treatment by id, or sql.ErrNoRows.
func (db *DB) GetTreatment(ctx context.Context, id int64) (*models.Treatment, error) {
	var t models.Treatment
	err := db.QueryRowContext(ctx, `
		SELECT id, name, duration_minutes, price, is_active, created_at, updated_at
		FROM treatments WHERE id = ?`, id,
	).Scan(&t.ID, &t.Name, &t.DurationMinutes, &t.Price, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTreatmentsByIDs returns the treatments for the given ids. Missing ids
// are reported as an error so a booking can never silently shrink.
func (db *DB) GetTreatmentsByIDs(ctx context.Context, ids []int64) ([]models.Treatment, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, name, duration_minutes, price, is_active, created_at, updated_at
		FROM treatments WHERE id IN (%s) ORDER BY id`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("list treatments: %w", err)
	}
	defer rows.Close()

	var treatments []models.Treatment
	for rows.Next() {
		var t models.Treatment
		if err := rows.Scan(&t.ID, &t.Name, &t.DurationMinutes, &t.Price, &t.Active, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		treatments = append(treatments, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(treatments) != len(ids) {
		return nil, sql.ErrNoRows
	}
	return treatments, nil
}

// ListTreatments returns treatments, optionally only active ones.
func (db *DB) ListTreatments(ctx context.Context, activeOnly bool) ([]models.Treatment, error) {
	query := `
		SELECT id, name, duration_minutes, price, is_active, created_at, updated_at
		FROM treatments`
	if activeOnly {
		query += " WHERE is_active = 1"
	}
	query += " ORDER BY name"

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list treatments: %w", err)
	}
	defer rows.Close()

	var treatments []models.Treatment
	for rows.Next() {
		var t models.Treatment
		if err := rows.Scan(&t.ID, &t.Name, &t.DurationMinutes, &t.Price, &t.Active, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		treatments = append(treatments, t)
	}
	return treatments, rows.Err()
}

// UpdateTreatment updates a treatment.
func (db *DB) UpdateTreatment(ctx context.Context, t *models.Treatment) error {
	res, err := db.ExecContext(ctx, `
		UPDATE treatments SET name = ?, duration_minutes = ?, price = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		t.Name, t.DurationMinutes, t.Price, t.Active, time.Now(), t.ID,
	)
	if err != nil {
		return fmt.Errorf("update treatment: %w", err)
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
