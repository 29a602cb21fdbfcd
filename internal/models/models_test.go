package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseClock(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		m, err := ParseClock("09:30")
		assert.NoError(t, err)
		assert.Equal(t, 9*60+30, m)

		m, err = ParseClock("00:00")
		assert.NoError(t, err)
		assert.Equal(t, 0, m)

		m, err = ParseClock("23:59")
		assert.NoError(t, err)
		assert.Equal(t, 23*60+59, m)
	})

	t.Run("invalid", func(t *testing.T) {
		for _, s := range []string{"", "9", "24:00", "12:60", "ab:cd", "12:30:00"} {
			_, err := ParseClock(s)
			assert.Error(t, err, s)
		}
	})
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "09:30", FormatClock(9*60+30))
	assert.Equal(t, "00:00", FormatClock(0))
	assert.Equal(t, "23:59", FormatClock(23*60+59))
}

func TestTimeWindow_Validate(t *testing.T) {
	assert.NoError(t, TimeWindow{Start: "09:00", End: "13:00"}.Validate())
	assert.Error(t, TimeWindow{Start: "13:00", End: "09:00"}.Validate())
	assert.Error(t, TimeWindow{Start: "09:00", End: "09:00"}.Validate())
	assert.Error(t, TimeWindow{Start: "bad", End: "13:00"}.Validate())
}

func TestSeason_Contains(t *testing.T) {
	season := &Season{
		StartDate: time.Date(2025, 7, 1, 0, 0, 0, 0, time.Local),
		EndDate:   time.Date(2025, 8, 31, 0, 0, 0, 0, time.Local),
	}

	assert.True(t, season.Contains(time.Date(2025, 7, 1, 15, 0, 0, 0, time.Local)))
	assert.True(t, season.Contains(time.Date(2025, 8, 31, 23, 59, 0, 0, time.Local)))
	assert.True(t, season.Contains(time.Date(2025, 8, 15, 0, 0, 0, 0, time.Local)))
	assert.False(t, season.Contains(time.Date(2025, 6, 30, 0, 0, 0, 0, time.Local)))
	assert.False(t, season.Contains(time.Date(2025, 9, 1, 0, 0, 0, 0, time.Local)))
}

func TestSeason_ScheduleFor(t *testing.T) {
	season := &Season{
		Schedules: []WeekdaySchedule{
			{Weekday: 1, Active: true},
			{Weekday: 3, Active: false},
		},
	}

	assert.NotNil(t, season.ScheduleFor(1))
	assert.NotNil(t, season.ScheduleFor(3))
	assert.Nil(t, season.ScheduleFor(5))
}

func TestAppointment_Blocking(t *testing.T) {
	for status, expected := range map[string]bool{
		StatusPending:   true,
		StatusConfirmed: true,
		StatusCompleted: true,
		StatusNoShow:    true,
		StatusCanceled:  false,
	} {
		a := Appointment{Status: status}
		assert.Equal(t, expected, a.Blocking(), status)
	}
}

func TestDateOnly(t *testing.T) {
	ts := time.Date(2025, 8, 15, 17, 45, 12, 999, time.Local)
	d := DateOnly(ts)
	assert.Equal(t, time.Date(2025, 8, 15, 0, 0, 0, 0, time.Local), d)
}
