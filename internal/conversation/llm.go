package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"tripweaver/internal/catalog"
	"tripweaver/internal/provider"
)

const extractPrompt = `You extract travel-planning fields from a user message.
Respond with a single JSON object and nothing else. Use only these keys, and
omit any key the message says nothing about:
  "destination": city name mentioned as the trip destination
  "duration_days": integer trip length in days
  "travel_dates": array of ISO dates (YYYY-MM-DD)
  "budget": one of "budget", "mid-range", "luxury"
  "preferences": array of interest tags (e.g. "beach", "food", "culture")
  "traveler_type": one of "solo", "couple", "family", "group"
Today's date is %s. Resolve relative or year-less dates against it.
If the message contains none of these fields, respond with {}.`

// LLMExtractor asks a language model for slot values when the rule patterns
// find nothing. Every proposed value is validated before it becomes an
// update: destinations must be in the supported catalog, dates must be
// well-formed and in the future. A response that fails to parse is an empty
// update, not an error, so the turn continues on the rules' (empty) result.
type LLMExtractor struct {
	Provider provider.Provider
	// Now resolves year-less dates and vets proposed ones; defaults to
	// time.Now.
	Now func() time.Time
}

type llmSlotPayload struct {
	Destination  string   `json:"destination"`
	DurationDays int      `json:"duration_days"`
	TravelDates  []string `json:"travel_dates"`
	Budget       string   `json:"budget"`
	Preferences  []string `json:"preferences"`
	TravelerType string   `json:"traveler_type"`
}

// Extract implements Extractor.
func (e *LLMExtractor) Extract(ctx context.Context, utterance string, _ SlotSet) (SlotUpdate, error) {
	if e.Provider == nil {
		return SlotUpdate{}, nil
	}
	now := time.Now()
	if e.Now != nil {
		now = e.Now()
	}

	messages := []provider.Message{
		{Role: provider.RoleSystem, Content: fmt.Sprintf(extractPrompt, now.Format(ISODate))},
		{Role: provider.RoleUser, Content: utterance},
	}
	comp, err := e.Provider.Complete(ctx, messages, nil)
	if err != nil {
		return SlotUpdate{}, fmt.Errorf("llm extraction: %w", err)
	}

	payload, ok := decodeSlotPayload(comp.Text)
	if !ok {
		return SlotUpdate{}, nil
	}

	var upd SlotUpdate
	if payload.Destination != "" {
		if city, ok := catalog.Find(payload.Destination); ok {
			upd.Destination = city.Name
		} else {
			upd.UnsupportedMention = titleCase(strings.ToLower(payload.Destination))
		}
	}
	if payload.DurationDays > 0 {
		upd.Duration = payload.DurationDays
	}
	if len(payload.TravelDates) > 0 {
		if err := ValidateDates(payload.TravelDates, now); err == nil {
			upd.TravelDates = payload.TravelDates
		}
	}
	switch Budget(payload.Budget) {
	case BudgetLow, BudgetMid, BudgetLuxury:
		upd.Budget = Budget(payload.Budget)
	}
	switch TravelerType(payload.TravelerType) {
	case TravelerSolo, TravelerCouple, TravelerFamily, TravelerGroup:
		upd.TravelerType = TravelerType(payload.TravelerType)
	}
	for _, p := range payload.Preferences {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			upd.Preferences = append(upd.Preferences, p)
		}
	}
	upd.Preferences = mergeTags(nil, upd.Preferences)
	return upd, nil
}

// decodeSlotPayload tolerates models that wrap the JSON in prose or a code
// fence: it decodes from the first '{' to its matching close.
func decodeSlotPayload(text string) (llmSlotPayload, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return llmSlotPayload{}, false
	}
	var payload llmSlotPayload
	if err := json.Unmarshal([]byte(text[start:end+1]), &payload); err != nil {
		return llmSlotPayload{}, false
	}
	return payload, true
}
