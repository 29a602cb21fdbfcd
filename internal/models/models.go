package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Appointment statuses. Only canceled appointments release their interval.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCanceled  = "canceled"
	StatusNoShow    = "no_show"
)

// ValidStatuses is the closed set of appointment statuses.
var ValidStatuses = map[string]bool{
	StatusPending:   true,
	StatusConfirmed: true,
	StatusCompleted: true,
	StatusCanceled:  true,
	StatusNoShow:    true,
}

// Effective-hours kinds, by override priority.
const (
	KindSpecial = "special"
	KindSeason  = "season"
	KindNormal  = "normal"
)

// TimeWindow is a single open window within a day ("franja"), both bounds
// in 24-hour "HH:MM" local time on the same day.
type TimeWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Validate checks the "HH:MM" format and that Start < End.
func (w TimeWindow) Validate() error {
	start, err := ParseClock(w.Start)
	if err != nil {
		return fmt.Errorf("invalid window start %q: %w", w.Start, err)
	}
	end, err := ParseClock(w.End)
	if err != nil {
		return fmt.Errorf("invalid window end %q: %w", w.End, err)
	}
	if start >= end {
		return fmt.Errorf("window start %s must be before end %s", w.Start, w.End)
	}
	return nil
}

// ParseClock converts "HH:MM" into minutes since midnight.
func ParseClock(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour: %w", err)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute: %w", err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("clock out of range: %q", s)
	}
	return hour*60 + minute, nil
}

// FormatClock converts minutes since midnight into "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// WeekdaySchedule holds the open windows for one weekday (0=Sunday..6=Saturday).
// When Active is false the windows are ignored.
type WeekdaySchedule struct {
	ID        int64        `json:"id"`
	SeasonID  int64        `json:"season_id,omitempty"` // 0 for the default weekly set
	Weekday   int          `json:"weekday"`
	Active    bool         `json:"active"`
	Windows   []TimeWindow `json:"windows"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Season is a named date range overriding the default weekly hours.
// StartDate and EndDate are inclusive, date-only.
type Season struct {
	ID        int64             `json:"id"`
	Name      string            `json:"name"`
	StartDate time.Time         `json:"start_date"`
	EndDate   time.Time         `json:"end_date"`
	Active    bool              `json:"active"`
	Schedules []WeekdaySchedule `json:"schedules,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Contains reports whether the date falls inside the season's range.
func (s *Season) Contains(date time.Time) bool {
	d := DateOnly(date)
	return !d.Before(DateOnly(s.StartDate)) && !d.After(DateOnly(s.EndDate))
}

// ScheduleFor returns the season's schedule for a weekday, or nil.
func (s *Season) ScheduleFor(weekday int) *WeekdaySchedule {
	for i := range s.Schedules {
		if s.Schedules[i].Weekday == weekday {
			return &s.Schedules[i]
		}
	}
	return nil
}

// SpecialDay is a single-date override with top priority.
// Windows is only meaningful when Closed is false.
type SpecialDay struct {
	ID        int64        `json:"id"`
	Date      time.Time    `json:"date"`
	Closed    bool         `json:"closed"`
	Reason    string       `json:"reason,omitempty"`
	Windows   []TimeWindow `json:"windows,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// EffectiveHours is the resolved open/closed state for one calendar date.
// Derived, never persisted.
type EffectiveHours struct {
	Date       time.Time    `json:"date"`
	Kind       string       `json:"kind"`
	Closed     bool         `json:"closed"`
	Reason     string       `json:"reason,omitempty"`
	Windows    []TimeWindow `json:"windows"`
	SeasonName string       `json:"season_name,omitempty"`
}

// Slot is a bookable start within one date, derived from effective hours
// and occupancy. Unavailable slots are kept so the UI can strike them out.
type Slot struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	Available bool   `json:"available"`
}

// Appointment is a booked interval ("turno").
type Appointment struct {
	ID           int64     `json:"id"`
	ClientID     int64     `json:"client_id"`
	TreatmentIDs []int64   `json:"treatment_ids"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Status       string    `json:"status"`
	Notes        string    `json:"notes,omitempty"`
	ReminderSent bool      `json:"reminder_sent"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Blocking reports whether the appointment still occupies its interval.
func (a *Appointment) Blocking() bool {
	return a.Status != StatusCanceled
}

// Client is a salon client.
type Client struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Treatment is a bookable service with a duration and a price.
type Treatment struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	DurationMinutes int       `json:"duration_minutes"`
	Price           float64   `json:"price"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Payment is a ledger entry against an appointment.
type Payment struct {
	ID            int64     `json:"id"`
	AppointmentID int64     `json:"appointment_id"`
	Amount        float64   `json:"amount"`
	Method        string    `json:"method"`
	PaidAt        time.Time `json:"paid_at"`
	CreatedAt     time.Time `json:"created_at"`
}

// DateOnly truncates a time to its calendar day, keeping the location.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
