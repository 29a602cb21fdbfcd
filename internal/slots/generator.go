// Package slots generates bookable start times for one date from the
// resolved opening windows and the set of already occupied ticks.
package slots

import (
	"sort"
	"time"

	"turnero/internal/models"
)

// TickMinutes is the generation granularity: every candidate start and
// every occupancy check is aligned to a 30-minute boundary.
const TickMinutes = 30

// Generate enumerates candidate starts at tick granularity across all
// windows. A candidate is emitted only when some window fully contains
// [start, start+duration]; slots never bridge the gap between windows.
// Slots whose ticks collide with occupied are kept but marked unavailable.
func Generate(windows []models.TimeWindow, durationMinutes int, occupied map[string]bool) []models.Slot {
	if len(windows) == 0 || durationMinutes <= 0 {
		return nil
	}

	blocks := (durationMinutes + TickMinutes - 1) / TickMinutes

	ranges := make([]span, 0, len(windows))
	for _, w := range windows {
		start, err := models.ParseClock(w.Start)
		if err != nil {
			continue
		}
		end, err := models.ParseClock(w.End)
		if err != nil || start >= end {
			continue
		}
		ranges = append(ranges, span{start, end})
	}

	seen := make(map[int]bool)
	var slots []models.Slot

	for _, r := range ranges {
		for t := r.start; t < r.end; t += TickMinutes {
			end := t + durationMinutes
			if !fits(ranges, t, end) {
				continue
			}
			if seen[t] {
				continue
			}
			seen[t] = true

			available := true
			for i := 0; i < blocks; i++ {
				if occupied[models.FormatClock(t+i*TickMinutes)] {
					available = false
					break
				}
			}

			slots = append(slots, models.Slot{
				Start:     models.FormatClock(t),
				End:       models.FormatClock(end),
				Available: available,
			})
		}
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i].Start < slots[j].Start })
	return slots
}

// span is a window in minutes since midnight.
type span struct{ start, end int }

// fits reports whether any single window contains [start, end].
func fits(ranges []span, start, end int) bool {
	for _, r := range ranges {
		if start >= r.start && end <= r.end {
			return true
		}
	}
	return false
}

// OccupiedTicks expands booked intervals into the set of tick labels they
// cover: the start is snapped down to its tick, the end is exclusive when
// it lands exactly on a boundary.
func OccupiedTicks(appointments []models.Appointment) map[string]bool {
	ticks := make(map[string]bool)
	for _, a := range appointments {
		if !a.Blocking() {
			continue
		}
		start := a.StartTime.Hour()*60 + a.StartTime.Minute()
		end := a.EndTime.Hour()*60 + a.EndTime.Minute()
		if end == 0 && a.EndTime.Day() != a.StartTime.Day() {
			end = 24 * 60 // ends at midnight of the next day
		}
		start -= start % TickMinutes
		for t := start; t < end; t += TickMinutes {
			ticks[models.FormatClock(t)] = true
		}
	}
	return ticks
}

// ClockOnDate places an "HH:MM" label on a calendar date.
func ClockOnDate(date time.Time, clock string) (time.Time, error) {
	minutes, err := models.ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	day := models.DateOnly(date)
	return day.Add(time.Duration(minutes) * time.Minute), nil
}
