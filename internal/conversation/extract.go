package conversation

import (
	"context"
	"log"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"tripweaver/internal/catalog"
)

// Extractor proposes slot updates for one utterance. Implementations must be
// side-effect free: they read the prior slots but never mutate them.
type Extractor interface {
	Extract(ctx context.Context, utterance string, prior SlotSet) (SlotUpdate, error)
}

// Chain runs extractors in order and returns the first non-empty update.
// Deterministic extractors go first; probabilistic ones are fallbacks. An
// extractor error is logged and skipped, never fatal to the turn.
type Chain struct {
	extractors []Extractor
	logger     *log.Logger
}

// NewChain builds an extractor chain.
func NewChain(logger *log.Logger, extractors ...Extractor) *Chain {
	return &Chain{extractors: extractors, logger: logger}
}

// Extract implements Extractor.
func (c *Chain) Extract(ctx context.Context, utterance string, prior SlotSet) (SlotUpdate, error) {
	for _, e := range c.extractors {
		upd, err := e.Extract(ctx, utterance, prior)
		if err != nil {
			if c.logger != nil {
				c.logger.Printf("extractor failed, trying next: %v", err)
			}
			continue
		}
		if !upd.Empty() {
			return upd, nil
		}
	}
	return SlotUpdate{}, nil
}

var (
	reDurationNum  = regexp.MustCompile(`\b(\d+)\s*-?\s*(day|days|week|weeks)\b`)
	reDurationWord = regexp.MustCompile(`\b(a|one|two|three|four|five|six|seven|eight|nine|ten)\s+(day|days|week|weeks)\b`)
	reWeekend      = regexp.MustCompile(`\bweekend\b`)
	reDestPhrase   = regexp.MustCompile(`\b(?:trip to|travel to|going to|go to|visit|visiting|fly to|flying to|holiday in|vacation in)\s+([a-z][a-z\s]{1,30}?)(?:[,.!?]|$|\s+(?:for|in|on|from|next|this)\b)`)
)

var wordNumbers = map[string]int{
	"a": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
}

var preferenceTags = map[string]string{
	"beach": "beach", "beaches": "beach", "island": "beach", "snorkel": "beach",
	"culture": "culture", "cultural": "culture", "museum": "culture", "temple": "culture", "history": "culture", "heritage": "culture",
	"adventure": "adventure", "hike": "adventure", "hiking": "adventure", "trek": "adventure", "diving": "adventure", "surf": "adventure",
	"food": "food", "foodie": "food", "eat": "food", "culinary": "food", "street food": "food",
	"nature": "nature", "mountain": "nature", "waterfall": "nature",
	"shopping": "shopping", "shop": "shopping", "mall": "shopping",
	"nightlife": "nightlife", "party": "nightlife", "bars": "nightlife",
	"relax": "relax", "relaxing": "relax", "spa": "relax", "unwind": "relax",
}

var (
	// word-bounded so "hotel" is not a weather mention and "weather" is not
	// an "eat" mention
	reWeather = regexp.MustCompile(`\b(weather|sunny|warm|hot|cold|rainy|tropical)\b`)
	rePrefTag = regexp.MustCompile(`\b(` + strings.Join(prefKeywords(), "|") + `)\b`)
)

func prefKeywords() []string {
	out := make([]string, 0, len(preferenceTags))
	for k := range preferenceTags {
		out = append(out, strings.ReplaceAll(k, " ", `\s+`))
	}
	sort.Strings(out)
	return out
}

// RuleExtractor applies the deterministic pattern rules: date formats,
// duration phrases, supported-city matching, and keyword-mapped budget,
// preference, and traveler-type mentions.
type RuleExtractor struct {
	// Now is the clock used to resolve year-less date mentions; defaults to
	// time.Now. Tests pin it.
	Now func() time.Time
}

// Extract implements Extractor.
func (r *RuleExtractor) Extract(_ context.Context, utterance string, prior SlotSet) (SlotUpdate, error) {
	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}
	lower := strings.ToLower(utterance)

	var upd SlotUpdate

	if city, ok := catalog.Match(utterance); ok {
		upd.Destination = city.Name
	} else if m := reDestPhrase.FindStringSubmatch(lower); m != nil {
		mention := strings.TrimSpace(m[1])
		if _, ok := catalog.Find(mention); ok {
			// alias resolved by Find but missed by Match; normalize
			city, _ := catalog.Find(mention)
			upd.Destination = city.Name
		} else if mention != "" {
			upd.UnsupportedMention = titleCase(mention)
		}
	}

	upd.Duration = extractDuration(lower)
	upd.TravelDates = ParseDates(utterance, now)
	upd.Budget = extractBudget(lower)
	upd.TravelerType = extractTravelerType(lower)

	for _, m := range rePrefTag.FindAllString(lower, -1) {
		key := strings.Join(strings.Fields(m), " ")
		if tag, ok := preferenceTags[key]; ok {
			upd.Preferences = append(upd.Preferences, tag)
		}
	}
	upd.Preferences = mergeTags(nil, upd.Preferences)

	upd.WeatherQuery = reWeather.MatchString(lower)

	return upd, nil
}

func extractDuration(lower string) int {
	if m := reDurationNum.FindStringSubmatch(lower); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n > 0 {
			if strings.HasPrefix(m[2], "week") {
				return n * 7
			}
			return n
		}
	}
	if m := reDurationWord.FindStringSubmatch(lower); m != nil {
		n := wordNumbers[m[1]]
		if strings.HasPrefix(m[2], "week") {
			return n * 7
		}
		return n
	}
	if reWeekend.MatchString(lower) {
		return 2
	}
	return 0
}

func extractBudget(lower string) Budget {
	switch {
	case strings.Contains(lower, "luxury") || strings.Contains(lower, "5-star") || strings.Contains(lower, "five star") || strings.Contains(lower, "splurge"):
		return BudgetLuxury
	case strings.Contains(lower, "mid-range") || strings.Contains(lower, "midrange") || strings.Contains(lower, "moderate budget"):
		return BudgetMid
	case strings.Contains(lower, "budget") || strings.Contains(lower, "cheap") || strings.Contains(lower, "affordable") || strings.Contains(lower, "backpack"):
		return BudgetLow
	}
	return ""
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func extractTravelerType(lower string) TravelerType {
	switch {
	case strings.Contains(lower, "family") || strings.Contains(lower, "kids") || strings.Contains(lower, "children"):
		return TravelerFamily
	case strings.Contains(lower, "honeymoon") || strings.Contains(lower, "couple") || strings.Contains(lower, "romantic"):
		return TravelerCouple
	case strings.Contains(lower, "friends") || strings.Contains(lower, "group of"):
		return TravelerGroup
	case strings.Contains(lower, "solo") || strings.Contains(lower, "by myself") || strings.Contains(lower, "alone"):
		return TravelerSolo
	}
	return ""
}
