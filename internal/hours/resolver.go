// Package hours resolves the effective opening hours for a calendar date,
// applying the override hierarchy: special day > active season > weekly default.
package hours

import (
	"context"
	"fmt"

	"time"

	"turnero/internal/models"
)

// ScheduleStore is the read side of the schedule configuration. Lookup
// methods return (nil, nil) when no record matches.
type ScheduleStore interface {
	// GetSpecialDay returns the override for an exact calendar date.
	GetSpecialDay(ctx context.Context, date time.Time) (*models.SpecialDay, error)

	// GetActiveSeasonsOverlapping returns active seasons whose inclusive
	// range contains the date, newest first. Schedules are populated.
	GetActiveSeasonsOverlapping(ctx context.Context, date time.Time) ([]models.Season, error)

	// GetWeeklySchedules returns the default weekly set, seeding defaults
	// on first read. Seeding is idempotent.
	GetWeeklySchedules(ctx context.Context) ([]models.WeekdaySchedule, error)
}

// Resolver computes effective hours. Stateless; safe for concurrent use.
type Resolver struct {
	store ScheduleStore
}

// NewResolver creates a resolver over the given store.
func NewResolver(store ScheduleStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the effective hours for a date. A closed day is a valid
// result, not an error; errors are reserved for store failures.
func (r *Resolver) Resolve(ctx context.Context, date time.Time) (*models.EffectiveHours, error) {
	day := models.DateOnly(date)

	special, err := r.store.GetSpecialDay(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("get special day: %w", err)
	}
	if special != nil {
		if special.Closed {
			return &models.EffectiveHours{
				Date:    day,
				Kind:    models.KindSpecial,
				Closed:  true,
				Reason:  special.Reason,
				Windows: []models.TimeWindow{},
			}, nil
		}
		windows := special.Windows
		if windows == nil {
			windows = []models.TimeWindow{}
		}
		return &models.EffectiveHours{
			Date:    day,
			Kind:    models.KindSpecial,
			Closed:  false,
			Reason:  special.Reason,
			Windows: windows,
		}, nil
	}

	seasons, err := r.store.GetActiveSeasonsOverlapping(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("get active seasons: %w", err)
	}
	weekday := int(day.Weekday())
	for i := range seasons {
		// Newest season wins when ranges overlap. A season without a
		// record for this weekday does not claim the date at all.
		sched := seasons[i].ScheduleFor(weekday)
		if sched == nil {
			continue
		}
		if !sched.Active {
			return &models.EffectiveHours{
				Date:       day,
				Kind:       models.KindSeason,
				Closed:     true,
				Windows:    []models.TimeWindow{},
				SeasonName: seasons[i].Name,
			}, nil
		}
		return &models.EffectiveHours{
			Date:       day,
			Kind:       models.KindSeason,
			Closed:     false,
			Windows:    sched.Windows,
			SeasonName: seasons[i].Name,
		}, nil
	}

	weekly, err := r.store.GetWeeklySchedules(ctx)
	if err != nil {
		return nil, fmt.Errorf("get weekly schedules: %w", err)
	}
	for i := range weekly {
		if weekly[i].Weekday != weekday {
			continue
		}
		if !weekly[i].Active {
			break
		}
		return &models.EffectiveHours{
			Date:    day,
			Kind:    models.KindNormal,
			Closed:  false,
			Windows: weekly[i].Windows,
		}, nil
	}

	// No usable weekly row even after the store's self-heal: closed, not an error.
	return &models.EffectiveHours{
		Date:    day,
		Kind:    models.KindNormal,
		Closed:  true,
		Windows: []models.TimeWindow{},
	}, nil
}
