package chat

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"tripweaver/internal/catalog"
	"tripweaver/internal/conversation"
	"tripweaver/internal/tools/flights"
)

func askText(slot conversation.SlotName, slots conversation.SlotSet) string {
	switch slot {
	case conversation.SlotDestination:
		return "Where would you like to go? I can plan trips to places like Bali, Bangkok, Tokyo, or Kuala Lumpur."
	case conversation.SlotDuration:
		if slots.Destination != "" {
			return fmt.Sprintf("How many days are you planning to spend in %s?", slots.Destination)
		}
		return "How many days are you planning for?"
	case conversation.SlotTravelDates:
		return "Do you have travel dates in mind? Rough dates like \"21st Jan\" work too."
	default:
		return "Tell me a bit more about the trip you have in mind."
	}
}

func clarifyText(action conversation.Action) string {
	switch action.Clarify {
	case conversation.ClarifyUnsupportedDestination:
		return fmt.Sprintf("I can't plan trips to %s yet. I currently cover %s. Would any of these work?",
			action.Mention, regionSummary())
	case conversation.ClarifyNeedDatesForWeather:
		return "Happy to factor in the weather. Which destination and dates are you thinking of?"
	default:
		return "Could you tell me a bit more?"
	}
}

// regionSummary lists a few supported cities per region, regions in a fixed
// order.
func regionSummary() string {
	byRegion := catalog.ByRegion()
	regions := make([]string, 0, len(byRegion))
	for r := range byRegion {
		regions = append(regions, r)
	}
	sort.Strings(regions)

	parts := make([]string, 0, len(regions))
	for _, r := range regions {
		cities := byRegion[r]
		names := make([]string, 0, 3)
		for _, c := range cities {
			names = append(names, c.Name)
			if len(names) == 3 {
				break
			}
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", r, strings.Join(names, ", ")))
	}
	return strings.Join(parts, ", ")
}

var reTimeOfDay = regexp.MustCompile(`\b(morning|early|afternoon|midday|evening|night|late)\b`)

// timePreferences pulls departure-time preferences out of the latest
// utterance. They apply to this turn's flight search only.
func timePreferences(utterance string) []flights.TimeWindow {
	seen := map[flights.TimeWindow]bool{}
	var out []flights.TimeWindow
	for _, m := range reTimeOfDay.FindAllString(strings.ToLower(utterance), -1) {
		if w, ok := flights.NormalizeWindow(m); ok && !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	return out
}

var (
	rePlace = regexp.MustCompile(`(?:visit|explore|head to|stroll through|stop by|at|to)\s+((?:[A-Z][\w''-]+)(?:\s+(?:[A-Z][\w''-]+|of|the))*)`)

	placeStopwords = map[string]bool{
		"Day": true, "Morning": true, "Afternoon": true, "Evening": true, "Night": true,
		"Breakfast": true, "Lunch": true, "Dinner": true, "Check": true, "Option": true,
	}
)

// itineraryPlaces pulls named places out of generated itinerary text for
// geocoding. A miss costs a map pin, a false positive costs one geocode
// call that comes back empty.
func itineraryPlaces(itinerary string, limit int) []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range rePlace.FindAllStringSubmatch(itinerary, -1) {
		name := strings.TrimSpace(m[1])
		first := strings.SplitN(name, " ", 2)[0]
		if placeStopwords[first] || len(name) < 3 {
			continue
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
