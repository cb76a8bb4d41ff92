package timeofday

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{"08:00", 480, false},
		{"8:30", 510, false},
		{"23:59", 1439, false},
		{"24:00", EndOfDay, false},
		{"12:00:00", 720, false},
		{"00:00", 0, false},
		{"24:01", 0, true},
		{"12:60", 0, true},
		{"-1:00", 0, true},
		{"12", 0, true},
		{"ab:cd", 0, true},
		{"12:00:30", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) expected error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestString(t *testing.T) {
	if got := MustParse("09:05").String(); got != "09:05" {
		t.Errorf("String() = %q", got)
	}
	if got := EndOfDay.String(); got != "24:00" {
		t.Errorf("EndOfDay.String() = %q", got)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	var v struct {
		Start TimeOfDay `json:"start"`
	}
	if err := json.Unmarshal([]byte(`{"start":"07:45"}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.Start != 465 {
		t.Fatalf("expected 465, got %d", v.Start)
	}
	out, _ := json.Marshal(v)
	if string(out) != `{"start":"07:45"}` {
		t.Errorf("unexpected json %s", out)
	}

	if err := json.Unmarshal([]byte(`{"start":745}`), &v); err == nil {
		t.Error("expected error for numeric time of day")
	}
}

func TestOn(t *testing.T) {
	loc := time.FixedZone("IRST", 3*3600+1800)
	date := time.Date(2024, 1, 6, 17, 20, 0, 0, loc)
	got := MustParse("11:30").On(date, loc)
	want := time.Date(2024, 1, 6, 11, 30, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("On() = %v, want %v", got, want)
	}
}

func TestPGRoundTrip(t *testing.T) {
	v := MustParse("13:15").PG()
	if !v.Valid || v.Microseconds != 13*3600e6+15*60e6 {
		t.Fatalf("unexpected pg value %+v", v)
	}
	back, err := FromPG(v)
	if err != nil {
		t.Fatalf("FromPG: %v", err)
	}
	if back != MustParse("13:15") {
		t.Errorf("round trip mismatch: %s", back)
	}
	v.Valid = false
	if _, err := FromPG(v); err == nil {
		t.Error("expected error for NULL time")
	}
}

func TestParseDate(t *testing.T) {
	loc := time.UTC
	d, err := ParseDate("2024-01-06", loc)
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d.Weekday() != time.Saturday {
		t.Errorf("expected Saturday, got %s", d.Weekday())
	}
	if DateKey(d) != "2024-01-06" {
		t.Errorf("DateKey = %s", DateKey(d))
	}
	if _, err := ParseDate("06/01/2024", loc); err == nil {
		t.Error("expected error for non ISO date")
	}
}

func TestCalendarDay(t *testing.T) {
	tehran, err := time.LoadLocation("Asia/Tehran")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	scanned := time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)
	got := CalendarDay(scanned, tehran)
	if got.Year() != 2024 || got.Month() != time.January || got.Day() != 6 || got.Hour() != 0 {
		t.Errorf("unexpected calendar day %v", got)
	}
	if got.Location() != tehran {
		t.Errorf("expected Asia/Tehran, got %v", got.Location())
	}
}

func TestDayOfWeek(t *testing.T) {
	// 2024-01-06 is a Saturday.
	sat := time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		d := sat.AddDate(0, 0, i)
		if got := DayOfWeek(d); got != i {
			t.Errorf("DayOfWeek(%s %s) = %d, want %d", d.Format(time.DateOnly), d.Weekday(), got, i)
		}
	}
}
