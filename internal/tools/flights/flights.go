// Package flights defines the flight search tool: the result type, the
// per-date searcher contract, and the filtering helpers applied to raw
// results before they reach the user.
package flights

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ToolName is the wire name of the flight search tool.
const ToolName = "search_flights"

// DisplayTime is the layout of a flight's display timestamp.
const DisplayTime = "2006-01-02 15:04"

// Flight is one departure option out of the home airport.
type Flight struct {
	FlightNumber     string `json:"flight_number"`
	Airline          string `json:"airline,omitempty"`
	AirlineCode      string `json:"airline_code,omitempty"`
	ScheduledDate    string `json:"scheduled_date"`              // YYYY-MM-DD
	ScheduledTime    string `json:"scheduled_time,omitempty"`    // HH:MM
	DisplayTimestamp string `json:"display_timestamp,omitempty"` // YYYY-MM-DD HH:MM
	Terminal         string `json:"terminal,omitempty"`
	Gate             string `json:"gate,omitempty"`
	Status           string `json:"status,omitempty"`
	City             string `json:"city,omitempty"` // destination city
	CountryCode      string `json:"country_code,omitempty"`
	ViaCity          string `json:"via_city,omitempty"`
}

// DepartureHour returns the hour of departure, preferring the display
// timestamp over the bare scheduled time.
func (f Flight) DepartureHour() (int, bool) {
	if f.DisplayTimestamp != "" {
		if t, err := time.Parse(DisplayTime, f.DisplayTimestamp); err == nil {
			return t.Hour(), true
		}
	}
	if f.ScheduledTime != "" {
		parts := strings.SplitN(f.ScheduledTime, ":", 2)
		if h, err := strconv.Atoi(parts[0]); err == nil && h >= 0 && h < 24 {
			return h, true
		}
	}
	return 0, false
}

// EstimatedFlightDuration is the rough gate-to-gate time assumed when the
// schedule only carries the departure.
const EstimatedFlightDuration = 2*time.Hour + 30*time.Minute

// EstimatedArrival returns the departure time plus the rough flight
// duration, in the display layout.
func (f Flight) EstimatedArrival() (string, bool) {
	ts := f.DisplayTimestamp
	if ts == "" {
		if f.ScheduledDate == "" || f.ScheduledTime == "" {
			return "", false
		}
		ts = f.ScheduledDate + " " + f.ScheduledTime
	}
	t, err := time.Parse(DisplayTime, ts)
	if err != nil {
		return "", false
	}
	return t.Add(EstimatedFlightDuration).Format(DisplayTime), true
}

func (f Flight) sortKey() string {
	if f.DisplayTimestamp != "" {
		return f.DisplayTimestamp
	}
	return f.ScheduledDate + " " + f.ScheduledTime
}

// Searcher finds departures to a destination city on a single date. Multi-date
// fan-out, deduplication, and limits are the orchestrator's job.
type Searcher interface {
	Search(ctx context.Context, destination string, date string) ([]Flight, error)
}

// TimeWindow is a coarse departure-time preference.
type TimeWindow string

const (
	Morning   TimeWindow = "morning"   // 06:00-11:59
	Afternoon TimeWindow = "afternoon" // 12:00-17:59
	Evening   TimeWindow = "evening"   // 18:00-05:59
)

// NormalizeWindow maps user phrasing onto a window.
func NormalizeWindow(s string) (TimeWindow, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "morning", "early":
		return Morning, true
	case "afternoon", "midday":
		return Afternoon, true
	case "evening", "night", "late":
		return Evening, true
	}
	return "", false
}

func (w TimeWindow) matches(hour int) bool {
	switch w {
	case Morning:
		return hour >= 6 && hour < 12
	case Afternoon:
		return hour >= 12 && hour < 18
	case Evening:
		return hour >= 18 || hour < 6
	}
	return false
}

// FilterByTime keeps flights departing in any of the preferred windows. If no
// flight matches (or no preference is given, or a flight has no parseable
// time), the input is returned unfiltered rather than empty: a preference
// narrows options, it never erases them.
func FilterByTime(fs []Flight, prefs []TimeWindow) []Flight {
	if len(prefs) == 0 {
		return fs
	}
	var out []Flight
	for _, f := range fs {
		hour, ok := f.DepartureHour()
		if !ok {
			continue
		}
		for _, w := range prefs {
			if w.matches(hour) {
				out = append(out, f)
				break
			}
		}
	}
	if len(out) == 0 {
		return fs
	}
	return out
}

// FilterByAirline keeps flights whose number starts with the given airline
// code, falling back to the full list when none match.
func FilterByAirline(fs []Flight, code string) []Flight {
	if code == "" {
		return fs
	}
	code = strings.ToUpper(code)
	var out []Flight
	for _, f := range fs {
		if strings.HasPrefix(strings.ToUpper(f.FlightNumber), code) {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return fs
	}
	return out
}

// Dedupe removes repeated flight numbers, keeping the first occurrence. A
// daily service searched over several dates shows up once; the options list
// offers distinct flights, not a schedule.
func Dedupe(fs []Flight) []Flight {
	seen := make(map[string]struct{}, len(fs))
	var out []Flight
	for _, f := range fs {
		if _, ok := seen[f.FlightNumber]; ok {
			continue
		}
		seen[f.FlightNumber] = struct{}{}
		out = append(out, f)
	}
	return out
}

// SortByDeparture orders flights earliest first.
func SortByDeparture(fs []Flight) {
	sort.SliceStable(fs, func(i, j int) bool {
		return fs[i].sortKey() < fs[j].sortKey()
	})
}

// Limit truncates the list to at most n flights.
func Limit(fs []Flight, n int) []Flight {
	if n <= 0 || len(fs) <= n {
		return fs
	}
	return fs[:n]
}
