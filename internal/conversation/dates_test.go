package conversation

import (
	"reflect"
	"testing"
	"time"
)

var testNow = time.Date(2026, time.August, 31, 10, 0, 0, 0, time.UTC)

func TestParseDates(t *testing.T) {
	cases := []struct {
		name string
		text string
		want []string
	}{
		{"day month no year", "we leave on the 21st jan", []string{"2027-01-21"}},
		{"day month future same year", "around 25 dec would be great", []string{"2026-12-25"}},
		{"day of month", "1st of january", []string{"2027-01-01"}},
		{"month day with year", "jan 21, 2027 works for us", []string{"2027-01-21"}},
		{"numeric day first", "21/01/2027", []string{"2027-01-21"}},
		{"numeric short year", "21/01/27", []string{"2027-01-21"}},
		{"iso", "2026-12-01 is when school breaks", []string{"2026-12-01"}},
		{"past year dropped", "21 jan 2026", nil},
		{"invalid calendar day dropped", "feb 30 next year", nil},
		{"numeric month out of range", "5/13/2027", nil},
		{"duplicates collapse", "25 dec, that is 2026-12-25", []string{"2026-12-25"}},
		{"multiple sorted", "out jan 5 2027, back 2026-12-25", []string{"2026-12-25", "2027-01-05"}},
		{"no dates", "somewhere warm please", nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseDates(tc.text, testNow)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("ParseDates(%q) = %v, want %v", tc.text, got, tc.want)
			}
		})
	}
}

func TestParseDatesYearRollover(t *testing.T) {
	// same mention, different clocks
	nov := time.Date(2026, time.November, 1, 0, 0, 0, 0, time.UTC)
	got := ParseDates("25 dec", nov)
	if !reflect.DeepEqual(got, []string{"2026-12-25"}) {
		t.Fatalf("before the date: got %v", got)
	}
	lateDec := time.Date(2026, time.December, 26, 0, 0, 0, 0, time.UTC)
	got = ParseDates("25 dec", lateDec)
	if !reflect.DeepEqual(got, []string{"2027-12-25"}) {
		t.Fatalf("after the date: got %v", got)
	}
}

func TestValidateDates(t *testing.T) {
	if err := ValidateDates([]string{"2026-12-25", "2027-01-05"}, testNow); err != nil {
		t.Fatalf("valid dates rejected: %v", err)
	}
	if err := ValidateDates([]string{"2026-01-01"}, testNow); err == nil {
		t.Fatal("past date accepted")
	}
	if err := ValidateDates([]string{"dec 25"}, testNow); err == nil {
		t.Fatal("malformed date accepted")
	}
}
