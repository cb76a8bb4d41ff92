package holiday

import (
	"time"

	"github.com/hoseinshahbazi68/nobat-sub002/pkg/timeofday"
)

// Set answers IsHoliday for one generation run. The zero value is an
// empty set.
type Set struct {
	loc   *time.Location
	dates map[string]struct{}
}

// NewSet builds a set from YYYY-MM-DD keys. Lookups take the calendar day
// of their argument in loc.
func NewSet(loc *time.Location, dates ...string) *Set {
	s := &Set{loc: loc, dates: make(map[string]struct{}, len(dates))}
	for _, d := range dates {
		s.dates[d] = struct{}{}
	}
	return s
}

// IsHoliday ignores the time of day of date.
func (s *Set) IsHoliday(date time.Time) bool {
	if s == nil || len(s.dates) == 0 {
		return false
	}
	_, ok := s.dates[timeofday.DateKey(timeofday.Date(date, s.loc))]
	return ok
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.dates)
}
