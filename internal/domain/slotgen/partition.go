package slotgen

import "github.com/hoseinshahbazi68/nobat-sub002/pkg/timeofday"

// Interval is a half-open [Start, End) span of one day.
type Interval struct {
	Start timeofday.TimeOfDay
	End   timeofday.TimeOfDay
}

// Partition splits [start, end) into consecutive intervals of duration
// minutes. A trailing remainder shorter than duration is dropped, so no
// interval ends after end.
func Partition(start, end timeofday.TimeOfDay, duration int) []Interval {
	if duration <= 0 || end <= start {
		return nil
	}
	out := make([]Interval, 0, (end.Minutes()-start.Minutes())/duration)
	for s := start; s.Add(duration) <= end; s = s.Add(duration) {
		out = append(out, Interval{Start: s, End: s.Add(duration)})
	}
	return out
}
