package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"turnero/internal/models"
)

// defaultWeeklyWindows holds the seed schedule per weekday (0=Sunday):
// Mon-Fri two shifts, Sat mornings, Sun closed.
var defaultWeeklyWindows = map[int][]models.TimeWindow{
	0: nil,
	1: {{Start: "09:00", End: "13:00"}, {Start: "15:00", End: "19:00"}},
	2: {{Start: "09:00", End: "13:00"}, {Start: "15:00", End: "19:00"}},
	3: {{Start: "09:00", End: "13:00"}, {Start: "15:00", End: "19:00"}},
	4: {{Start: "09:00", End: "13:00"}, {Start: "15:00", End: "19:00"}},
	5: {{Start: "09:00", End: "13:00"}, {Start: "15:00", End: "19:00"}},
	6: {{Start: "09:00", End: "13:00"}},
}

// GetWeeklySchedules returns the default weekly set (one row per weekday),
// seeding defaults on first read. Seeding is check-then-create per weekday,
// so repeated calls never duplicate rows.
func (db *DB) GetWeeklySchedules(ctx context.Context) ([]models.WeekdaySchedule, error) {
	if err := db.EnsureDefaultWeeklySchedules(ctx); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, weekday, is_active, created_at, updated_at
		FROM weekday_schedules
		WHERE season_id IS NULL
		ORDER BY weekday`)
	if err != nil {
		return nil, fmt.Errorf("list weekly schedules: %w", err)
	}
	defer rows.Close()

	var schedules []models.WeekdaySchedule
	for rows.Next() {
		var s models.WeekdaySchedule
		if err := rows.Scan(&s.ID, &s.Weekday, &s.Active, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		schedules = append(schedules, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range schedules {
		windows, err := db.getScheduleWindows(ctx, schedules[i].ID)
		if err != nil {
			return nil, err
		}
		schedules[i].Windows = windows
	}
	return schedules, nil
}

// EnsureDefaultWeeklySchedules creates the seven default weekday rows if
// they do not exist yet. Safe to call repeatedly.
func (db *DB) EnsureDefaultWeeklySchedules(ctx context.Context) error {
	for weekday := 0; weekday <= 6; weekday++ {
		exists, err := db.weeklyScheduleExists(ctx, weekday)
		if err != nil {
			return fmt.Errorf("check weekly schedule: %w", err)
		}
		if exists {
			continue
		}

		windows := defaultWeeklyWindows[weekday]
		active := len(windows) > 0
		if _, err := db.insertSchedule(ctx, nil, weekday, active, windows); err != nil {
			return fmt.Errorf("create weekly schedule for weekday %d: %w", weekday, err)
		}
	}
	return nil
}

func (db *DB) weeklyScheduleExists(ctx context.Context, weekday int) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM weekday_schedules WHERE season_id IS NULL AND weekday = ?",
		weekday,
	).Scan(&count)
	return count > 0, err
}

// UpdateWeeklySchedule replaces the active flag and windows for a weekday.
func (db *DB) UpdateWeeklySchedule(ctx context.Context, weekday int, active bool, windows []models.TimeWindow) error {
	if err := db.EnsureDefaultWeeklySchedules(ctx); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM weekday_schedules WHERE season_id IS NULL AND weekday = ?",
		weekday,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("find weekly schedule: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE weekday_schedules SET is_active = ?, updated_at = ? WHERE id = ?",
		active, time.Now(), id,
	); err != nil {
		return fmt.Errorf("update weekly schedule: %w", err)
	}

	if err := replaceScheduleWindows(ctx, tx, id, windows); err != nil {
		return err
	}
	return tx.Commit()
}

func (db *DB) insertSchedule(ctx context.Context, seasonID *int64, weekday int, active bool, windows []models.TimeWindow) (int64, error) {
	now := time.Now()
	res, err := db.ExecContext(ctx, `
		INSERT INTO weekday_schedules (season_id, weekday, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		seasonID, weekday, active, now, now,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	for _, w := range windows {
		if _, err := db.ExecContext(ctx,
			"INSERT INTO schedule_windows (schedule_id, start_time, end_time) VALUES (?, ?, ?)",
			id, w.Start, w.End,
		); err != nil {
			return 0, fmt.Errorf("insert window: %w", err)
		}
	}
	return id, nil
}

func (db *DB) getScheduleWindows(ctx context.Context, scheduleID int64) ([]models.TimeWindow, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT start_time, end_time FROM schedule_windows WHERE schedule_id = ? ORDER BY start_time",
		scheduleID,
	)
	if err != nil {
		return nil, fmt.Errorf("list windows: %w", err)
	}
	defer rows.Close()

	var windows []models.TimeWindow
	for rows.Next() {
		var w models.TimeWindow
		if err := rows.Scan(&w.Start, &w.End); err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}
	return windows, rows.Err()
}

func replaceScheduleWindows(ctx context.Context, tx *sql.Tx, scheduleID int64, windows []models.TimeWindow) error {
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM schedule_windows WHERE schedule_id = ?", scheduleID,
	); err != nil {
		return fmt.Errorf("clear windows: %w", err)
	}
	for _, w := range windows {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schedule_windows (schedule_id, start_time, end_time) VALUES (?, ?, ?)",
			scheduleID, w.Start, w.End,
		); err != nil {
			return fmt.Errorf("insert window: %w", err)
		}
	}
	return nil
}
