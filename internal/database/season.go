package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"turnero/internal/models"
)

// CreateSeason inserts a season together with its weekday schedules.
func (db *DB) CreateSeason(ctx context.Context, s *models.Season) error {
	if s == nil {
		return fmt.Errorf("season is nil")
	}

	now := time.Now()
	res, err := db.ExecContext(ctx, `
		INSERT INTO seasons (name, start_date, end_date, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.Name, formatDate(s.StartDate), formatDate(s.EndDate), s.Active, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert season: %w", err)
	}
	s.ID, err = res.LastInsertId()
	if err != nil {
		return err
	}

	for i := range s.Schedules {
		sched := &s.Schedules[i]
		id, err := db.insertSchedule(ctx, &s.ID, sched.Weekday, sched.Active, sched.Windows)
		if err != nil {
			return fmt.Errorf("insert season schedule weekday %d: %w", sched.Weekday, err)
		}
		sched.ID = id
		sched.SeasonID = s.ID
	}
	return nil
}

// UpdateSeason updates the season header fields (not its schedules).
func (db *DB) UpdateSeason(ctx context.Context, s *models.Season) error {
	res, err := db.ExecContext(ctx, `
		UPDATE seasons SET name = ?, start_date = ?, end_date = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		s.Name, formatDate(s.StartDate), formatDate(s.EndDate), s.Active, time.Now(), s.ID,
	)
	if err != nil {
		return fmt.Errorf("update season: %w", err)
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

// UpsertSeasonSchedule replaces the schedule for one weekday of a season.
func (db *DB) UpsertSeasonSchedule(ctx context.Context, seasonID int64, weekday int, active bool, windows []models.TimeWindow) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM weekday_schedules WHERE season_id = ? AND weekday = ?",
		seasonID, weekday,
	).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		now := time.Now()
		res, err := tx.ExecContext(ctx, `
			INSERT INTO weekday_schedules (season_id, weekday, is_active, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)`,
			seasonID, weekday, active, now, now,
		)
		if err != nil {
			return fmt.Errorf("insert season schedule: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return err
		}
	case err != nil:
		return fmt.Errorf("find season schedule: %w", err)
	default:
		if _, err := tx.ExecContext(ctx,
			"UPDATE weekday_schedules SET is_active = ?, updated_at = ? WHERE id = ?",
			active, time.Now(), id,
		); err != nil {
			return fmt.Errorf("update season schedule: %w", err)
		}
	}

	if err := replaceScheduleWindows(ctx, tx, id, windows); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteSeason removes a season; its schedules and windows cascade.
func (db *DB) DeleteSeason(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, "DELETE FROM seasons WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete season: %w", err)
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

// GetSeason returns a season with its schedules, or sql.ErrNoRows.
func (db *DB) GetSeason(ctx context.Context, id int64) (*models.Season, error) {
	s, err := db.scanSeasonRow(db.QueryRowContext(ctx, `
		SELECT id, name, start_date, end_date, is_active, created_at, updated_at
		FROM seasons WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	if err := db.loadSeasonSchedules(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// ListSeasons returns all seasons, newest first, schedules populated.
func (db *DB) ListSeasons(ctx context.Context) ([]models.Season, error) {
	return db.querySeasons(ctx, `
		SELECT id, name, start_date, end_date, is_active, created_at, updated_at
		FROM seasons ORDER BY created_at DESC, id DESC`)
}

// GetActiveSeasonsOverlapping returns active seasons containing the date,
// newest first. The first entry is the deterministic winner when active
// season ranges overlap.
func (db *DB) GetActiveSeasonsOverlapping(ctx context.Context, date time.Time) ([]models.Season, error) {
	day := formatDate(date)
	return db.querySeasons(ctx, `
		SELECT id, name, start_date, end_date, is_active, created_at, updated_at
		FROM seasons
		WHERE is_active = 1 AND start_date <= ? AND end_date >= ?
		ORDER BY created_at DESC, id DESC`,
		day, day)
}

func (db *DB) querySeasons(ctx context.Context, query string, args ...any) ([]models.Season, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list seasons: %w", err)
	}
	defer rows.Close()

	var seasons []models.Season
	for rows.Next() {
		s, err := db.scanSeasonRow(rows)
		if err != nil {
			return nil, err
		}
		seasons = append(seasons, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range seasons {
		if err := db.loadSeasonSchedules(ctx, &seasons[i]); err != nil {
			return nil, err
		}
	}
	return seasons, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (db *DB) scanSeasonRow(row rowScanner) (*models.Season, error) {
	var s models.Season
	var start, end string
	if err := row.Scan(&s.ID, &s.Name, &start, &end, &s.Active, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if s.StartDate, err = parseDate(start); err != nil {
		return nil, fmt.Errorf("season %d start date: %w", s.ID, err)
	}
	if s.EndDate, err = parseDate(end); err != nil {
		return nil, fmt.Errorf("season %d end date: %w", s.ID, err)
	}
	return &s, nil
}

func (db *DB) loadSeasonSchedules(ctx context.Context, s *models.Season) error {
	rows, err := db.QueryContext(ctx, `
		SELECT id, weekday, is_active, created_at, updated_at
		FROM weekday_schedules WHERE season_id = ? ORDER BY weekday`, s.ID)
	if err != nil {
		return fmt.Errorf("list season schedules: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sched models.WeekdaySchedule
		if err := rows.Scan(&sched.ID, &sched.Weekday, &sched.Active, &sched.CreatedAt, &sched.UpdatedAt); err != nil {
			return err
		}
		sched.SeasonID = s.ID
		s.Schedules = append(s.Schedules, sched)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range s.Schedules {
		windows, err := db.getScheduleWindows(ctx, s.Schedules[i].ID)
		if err != nil {
			return err
		}
		s.Schedules[i].Windows = windows
	}
	return nil
}
