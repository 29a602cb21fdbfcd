package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"turnero/internal/models"
)

// CreateClient inserts a client.
func (db *DB) CreateClient(ctx context.Context, c *models.Client) error {
	now := time.Now()
	res, err := db.ExecContext(ctx, `
		INSERT INTO clients (name, phone, email, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.Name, c.Phone, c.Email, c.Notes, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert client: %w", err)
	}
	c.ID, err = res.LastInsertId()
	return err
}

// GetClient returns a client by id, or sql.ErrNoRows.
func (db *DB) GetClient(ctx context.Context, id int64) (*models.Client, error) {
	var c models.Client
	var email, notes sql.NullString
	err := db.QueryRowContext(ctx, `
		SELECT id, name, phone, email, notes, created_at, updated_at
		FROM clients WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.Phone, &email, &notes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if email.Valid {
		c.Email = email.String
	}
	if notes.Valid {
		c.Notes = notes.String
	}
	return &c, nil
}

// ListClients returns all clients ordered by name.
func (db *DB) ListClients(ctx context.Context) ([]models.Client, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, phone, email, notes, created_at, updated_at
		FROM clients ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var clients []models.Client
	for rows.Next() {
		var c models.Client
		var email, notes sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &email, &notes, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		if email.Valid {
			c.Email = email.String
		}
		if notes.Valid {
			c.Notes = notes.String
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// UpdateClient updates a client's editable fields.
func (db *DB) UpdateClient(ctx context.Context, c *models.Client) error {
	res, err := db.ExecContext(ctx, `
		UPDATE clients SET name = ?, phone = ?, email = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		c.Name, c.Phone, c.Email, c.Notes, time.Now(), c.ID,
	)
	if err != nil {
		return fmt.Errorf("update client: %w", err)
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
