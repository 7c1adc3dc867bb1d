package conversation

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ISODate is the wire format for travel dates.
const ISODate = "2006-01-02"

var months = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

var (
	// "21st jan", "21 jan 2026", "1st of january"
	reDayMonth = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)?(?:\s+of)?\s+(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?(?:\s+(\d{4}))?\b`)
	// "jan 21", "january 21st 2026"
	reMonthDay = regexp.MustCompile(`\b(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?\s+(\d{1,2})(?:st|nd|rd|th)?(?:,)?(?:\s+(\d{4}))?\b`)
	// "21/01/2026", "21/01" (day first)
	reNumeric = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})(?:[/-](\d{2,4}))?\b`)
	// "2026-01-21"
	reISO = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
)

// ParseDates extracts calendar dates from free text and returns them as
// sorted, deduplicated ISO strings. A mention without a year resolves to the
// next occurrence of that month/day strictly after now. Unparseable or past
// mentions are dropped, not reported: a bad date is no update.
func ParseDates(text string, now time.Time) []string {
	lower := strings.ToLower(text)
	seen := make(map[string]struct{})
	var out []string

	add := func(t time.Time) {
		iso := t.Format(ISODate)
		if !t.After(midnight(now)) {
			return
		}
		if _, ok := seen[iso]; ok {
			return
		}
		seen[iso] = struct{}{}
		out = append(out, iso)
	}

	for _, m := range reISO.FindAllStringSubmatch(lower, -1) {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if t, ok := makeDate(year, time.Month(month), day); ok {
			add(t)
		}
	}

	for _, m := range reDayMonth.FindAllStringSubmatch(lower, -1) {
		day, _ := strconv.Atoi(m[1])
		month, ok := months[strings.TrimSuffix(m[2], ".")]
		if !ok {
			continue
		}
		add(resolveYear(day, month, m[3], now))
	}

	for _, m := range reMonthDay.FindAllStringSubmatch(lower, -1) {
		month, ok := months[strings.TrimSuffix(m[1], ".")]
		if !ok {
			continue
		}
		day, _ := strconv.Atoi(m[2])
		add(resolveYear(day, month, m[3], now))
	}

	for _, m := range reNumeric.FindAllStringSubmatch(lower, -1) {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if month < 1 || month > 12 {
			continue
		}
		add(resolveYear(day, time.Month(month), m[3], now))
	}

	sort.Strings(out)
	return out
}

// resolveYear builds a date from day/month plus an optional year string.
// Without a year it picks the next future occurrence relative to now.
func resolveYear(day int, month time.Month, yearStr string, now time.Time) time.Time {
	if yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err == nil {
			if year < 100 {
				year += 2000
			}
			if t, ok := makeDate(year, month, day); ok {
				return t
			}
		}
		return time.Time{}
	}
	t, ok := makeDate(now.Year(), month, day)
	if !ok {
		return time.Time{}
	}
	if !t.After(midnight(now)) {
		t, ok = makeDate(now.Year()+1, month, day)
		if !ok {
			return time.Time{}
		}
	}
	return t
}

// makeDate validates that day exists in month (rejects e.g. feb 30, which
// time.Date would silently normalize into march).
func makeDate(year int, month time.Month, day int) (time.Time, bool) {
	if day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Month() != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ValidateDates checks that every entry is a well-formed ISO date in the
// future. Used to vet LLM-proposed updates before they reach the slot set.
func ValidateDates(dates []string, now time.Time) error {
	for _, d := range dates {
		t, err := time.Parse(ISODate, d)
		if err != nil {
			return fmt.Errorf("invalid travel date %q: %w", d, err)
		}
		if !t.After(midnight(now)) {
			return fmt.Errorf("travel date %q is not in the future", d)
		}
	}
	return nil
}
