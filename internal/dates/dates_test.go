package dates

import (
	"testing"
	"time"
)

func TestNormalizeDay(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Monday", "Monday"},
		{"monday", "Monday"},
		{"  FRIDAY ", "Friday"},
		{"thurs", "Thursday"},
		{"tues", "Tuesday"},
		{"weds", "Wednesday"},
		{"sun", "Sunday"},
		{"", "Unknown"},
		{"someday", "Unknown"},
	}
	for _, tc := range cases {
		if got := NormalizeDay(tc.in); got != tc.want {
			t.Errorf("NormalizeDay(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFindWeekday(t *testing.T) {
	if got := FindWeekday("Shows airing on Thursday night"); got != "Thursday" {
		t.Errorf("FindWeekday = %q, want Thursday", got)
	}
	if got := FindWeekday("no day here"); got != Unknown {
		t.Errorf("FindWeekday = %q, want Unknown", got)
	}
}

// Every weekday paired with every reference date in a two-week window must
// produce the earliest matching date at most six days out, with same-day
// counting as the current occurrence.
func TestNextOccurrenceProperties(t *testing.T) {
	days := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	base := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

	for offset := 0; offset < 14; offset++ {
		ref := base.AddDate(0, 0, offset)
		for _, day := range days {
			got := NextOccurrence(day, ref)
			if got.Before(ref) {
				t.Fatalf("NextOccurrence(%s, %s) = %s is before the reference", day, ref.Format(ISOFormat), got.Format(ISOFormat))
			}
			if got.Weekday().String() != day {
				t.Fatalf("NextOccurrence(%s, %s) landed on %s", day, ref.Format(ISOFormat), got.Weekday())
			}
			if diff := got.Sub(ref).Hours() / 24; diff > 6 {
				t.Fatalf("NextOccurrence(%s, %s) is %v days out, want <= 6", day, ref.Format(ISOFormat), diff)
			}
		}
	}
}

func TestNextOccurrenceSameDay(t *testing.T) {
	// 2025-03-07 is a Friday; same-day counts as the current occurrence.
	friday := time.Date(2025, time.March, 7, 0, 0, 0, 0, time.UTC)
	if got := NextOccurrence("Friday", friday); !got.Equal(friday) {
		t.Errorf("NextOccurrence(Friday, friday) = %s, want the same day", ISODate(got))
	}
}

func TestNextOccurrenceUnknownDay(t *testing.T) {
	ref := time.Date(2025, time.March, 7, 0, 0, 0, 0, time.UTC)
	if got := NextOccurrence("someday", ref); !got.Equal(ref) {
		t.Errorf("unknown day should return the reference date, got %s", ISODate(got))
	}
}

func TestISODate(t *testing.T) {
	ts := time.Date(2025, time.January, 5, 23, 59, 0, 0, time.UTC)
	if got := ISODate(ts); got != "2025-01-05" {
		t.Errorf("ISODate = %q", got)
	}
}
