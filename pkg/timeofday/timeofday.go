// Package timeofday models wall-clock times without a date, as stored in
// Postgres TIME columns and edited as "HH:MM" by clinic administrators.
package timeofday

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// EndOfDay is 24:00, accepted as a shift end.
const EndOfDay TimeOfDay = 24 * 60

// TimeOfDay is a wall-clock time in minutes since midnight, in [0, 1440].
type TimeOfDay int

// New builds a TimeOfDay from hour and minute.
func New(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 24 || minute < 0 || minute > 59 || (hour == 24 && minute != 0) {
		return 0, fmt.Errorf("invalid time of day %02d:%02d", hour, minute)
	}
	return TimeOfDay(hour*60 + minute), nil
}

// Parse accepts "HH:MM" and "HH:MM:SS" (seconds must be zero).
func Parse(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid time of day %q: want HH:MM", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	if len(parts) == 3 {
		sec, err := strconv.Atoi(parts[2])
		if err != nil || sec != 0 {
			return 0, fmt.Errorf("invalid seconds in %q", s)
		}
	}
	return New(hour, minute)
}

// MustParse is Parse for literals; it panics on malformed input.
func MustParse(s string) TimeOfDay {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) Minutes() int { return int(t) }

func (t TimeOfDay) Add(minutes int) TimeOfDay { return t + TimeOfDay(minutes) }

func (t TimeOfDay) Valid() bool { return t >= 0 && t <= EndOfDay }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// On combines date (its calendar day in loc) with t as wall-clock time, so
// a DST change earlier that day does not shift the result.
func (t TimeOfDay) On(date time.Time, loc *time.Location) time.Time {
	d := Date(date, loc)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, int(t), 0, 0, d.Location())
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("time of day must be a string: %w", err)
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// PG converts t to the pgx representation of a TIME value.
func (t TimeOfDay) PG() pgtype.Time {
	return pgtype.Time{Microseconds: int64(t) * int64(time.Minute/time.Microsecond), Valid: true}
}

// FromPG converts a scanned TIME value; sub-minute precision is truncated.
func FromPG(v pgtype.Time) (TimeOfDay, error) {
	if !v.Valid {
		return 0, fmt.Errorf("time of day is NULL")
	}
	return TimeOfDay(v.Microseconds / int64(time.Minute/time.Microsecond)), nil
}

// Date returns midnight of t's calendar day in loc.
func Date(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// DateKey formats the calendar day of t as YYYY-MM-DD without zone conversion.
func DateKey(t time.Time) string {
	return t.Format(time.DateOnly)
}

// ParseDate parses YYYY-MM-DD as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	d, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return d, nil
}

// CalendarDay keeps t's year, month and day and places them at midnight in
// loc. pgx scans DATE columns as UTC midnight; this recovers the clinic day.
func CalendarDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// DayOfWeek numbers the week from Saturday: Saturday=0, Sunday=1 ... Friday=6.
func DayOfWeek(t time.Time) int {
	return (int(t.Weekday()) + 1) % 7
}
