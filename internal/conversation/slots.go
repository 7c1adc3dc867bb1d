// Package conversation implements the slot-filling state machine: typed trip
// slots, deterministic and LLM-backed extractors, and the completion policy
// that decides the next action for a turn.
package conversation

import "sort"

// SlotName identifies a single trip-intent field.
type SlotName string

const (
	SlotDestination  SlotName = "destination"
	SlotDuration     SlotName = "duration"
	SlotTravelDates  SlotName = "travel_dates"
	SlotBudget       SlotName = "budget"
	SlotPreferences  SlotName = "preferences"
	SlotTravelerType SlotName = "traveler_type"
)

// Budget is the trip budget tier.
type Budget string

const (
	BudgetLow    Budget = "budget"
	BudgetMid    Budget = "mid-range"
	BudgetLuxury Budget = "luxury"
)

// TravelerType describes who is travelling.
type TravelerType string

const (
	TravelerSolo   TravelerType = "solo"
	TravelerCouple TravelerType = "couple"
	TravelerFamily TravelerType = "family"
	TravelerGroup  TravelerType = "group"
)

// SlotSet is the structured trip intent accumulated across turns. Zero values
// mean "not yet filled". Destination only ever holds a supported city name
// from the catalog.
type SlotSet struct {
	Destination  string       `json:"destination,omitempty"`
	Duration     int          `json:"duration,omitempty"`     // days
	TravelDates  []string     `json:"travel_dates,omitempty"` // ISO dates, ascending
	Budget       Budget       `json:"budget,omitempty"`
	Preferences  []string     `json:"preferences,omitempty"` // sorted tag set
	TravelerType TravelerType `json:"traveler_type,omitempty"`

	// Per-turn markers, replaced wholesale on every Apply. They never
	// persist past the turn that produced them.
	UnsupportedMention string `json:"unsupported_mention,omitempty"`
	WeatherQuery       bool   `json:"weather_query,omitempty"`
}

// Flags records one-shot side effects and prompt bookkeeping for a session.
// A boolean flag only ever transitions false to true; the whole struct is
// discarded on session expiry or reset.
type Flags struct {
	FlightsSearched    bool             `json:"flights_searched,omitempty"`
	ItineraryGenerated bool             `json:"itinerary_generated,omitempty"`
	Prompts            map[SlotName]int `json:"prompts,omitempty"` // times each slot was asked for
}

// PromptCount returns how many times slot has been asked for.
func (f Flags) PromptCount(slot SlotName) int {
	if f.Prompts == nil {
		return 0
	}
	return f.Prompts[slot]
}

// RecordPrompt returns a copy of f with one more ask recorded for slot.
func (f Flags) RecordPrompt(slot SlotName) Flags {
	out := f
	out.Prompts = make(map[SlotName]int, len(f.Prompts)+1)
	for k, v := range f.Prompts {
		out.Prompts[k] = v
	}
	out.Prompts[slot]++
	return out
}

// SlotUpdate is one extractor's proposed change. Zero-valued fields propose
// nothing; a non-empty field overrides the prior value (most recent wins).
type SlotUpdate struct {
	Destination        string
	UnsupportedMention string
	Duration           int
	TravelDates        []string
	Budget             Budget
	Preferences        []string
	TravelerType       TravelerType
	WeatherQuery       bool
}

// Empty reports whether the update proposes no slot change at all.
// Per-turn markers count: an unsupported mention or weather query is a
// meaningful extraction result.
func (u SlotUpdate) Empty() bool {
	return u.Destination == "" &&
		u.UnsupportedMention == "" &&
		u.Duration == 0 &&
		len(u.TravelDates) == 0 &&
		u.Budget == "" &&
		len(u.Preferences) == 0 &&
		u.TravelerType == "" &&
		!u.WeatherQuery
}

// Apply merges an update into the slot set. Filled slots are never cleared
// by an empty proposal; preferences accumulate as a set. The per-turn
// markers are replaced unconditionally.
func (s SlotSet) Apply(u SlotUpdate) SlotSet {
	out := s
	if u.Destination != "" {
		out.Destination = u.Destination
	}
	if u.Duration > 0 {
		out.Duration = u.Duration
	}
	if len(u.TravelDates) > 0 {
		dates := make([]string, len(u.TravelDates))
		copy(dates, u.TravelDates)
		sort.Strings(dates)
		out.TravelDates = dates
	}
	if u.Budget != "" {
		out.Budget = u.Budget
	}
	if len(u.Preferences) > 0 {
		out.Preferences = mergeTags(s.Preferences, u.Preferences)
	}
	if u.TravelerType != "" {
		out.TravelerType = u.TravelerType
	}
	out.UnsupportedMention = u.UnsupportedMention
	out.WeatherQuery = u.WeatherQuery
	return out
}

func mergeTags(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	var out []string
	for _, s := range a {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	for _, s := range b {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
