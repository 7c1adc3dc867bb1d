package conversation

// ActionKind is the category of the next step for a turn.
type ActionKind string

const (
	// ActionAskSlot prompts the user for a missing slot.
	ActionAskSlot ActionKind = "ask_slot"
	// ActionClarify asks the user to resolve something before slot filling
	// can continue (unsupported destination, weather question with no dates).
	ActionClarify ActionKind = "clarify"
	// ActionRunTools runs the pre-itinerary tool phase (flight search).
	ActionRunTools ActionKind = "run_tools"
	// ActionGenerate produces the itinerary.
	ActionGenerate ActionKind = "generate"
)

// ClarifyKind identifies what needs clarifying.
type ClarifyKind string

const (
	ClarifyUnsupportedDestination ClarifyKind = "unsupported_destination"
	ClarifyNeedDatesForWeather    ClarifyKind = "need_dates_for_weather"
)

// Action is the policy's verdict for one turn.
type Action struct {
	Kind    ActionKind
	Slot    SlotName    // set when Kind == ActionAskSlot
	Clarify ClarifyKind // set when Kind == ActionClarify
	Mention string      // the unsupported place name, for clarify prompts

	// BestEffort marks a generation that proceeds without travel dates
	// because the user has already been asked for them enough times.
	BestEffort bool
}

// Policy decides the next action from slots and flags alone. Decide is pure:
// same inputs, same action, no side effects. Recording the prompt that an
// AskSlot action implies is the caller's job.
type Policy struct {
	// MaxSlotPrompts caps how many times the optional travel-dates slot is
	// asked for before generation proceeds best-effort. Destination and
	// duration are always asked: nothing useful can be generated without
	// them.
	MaxSlotPrompts int
}

// Decide returns the next action for the current session state.
func (p Policy) Decide(slots SlotSet, flags Flags) Action {
	if slots.UnsupportedMention != "" {
		return Action{Kind: ActionClarify, Clarify: ClarifyUnsupportedDestination, Mention: slots.UnsupportedMention}
	}
	if slots.WeatherQuery && slots.Destination == "" && len(slots.TravelDates) == 0 {
		return Action{Kind: ActionClarify, Clarify: ClarifyNeedDatesForWeather}
	}
	if slots.Destination == "" {
		return Action{Kind: ActionAskSlot, Slot: SlotDestination}
	}
	if slots.Duration == 0 {
		return Action{Kind: ActionAskSlot, Slot: SlotDuration}
	}
	if len(slots.TravelDates) == 0 {
		if flags.PromptCount(SlotTravelDates) < p.maxPrompts() {
			return Action{Kind: ActionAskSlot, Slot: SlotTravelDates}
		}
		// asked enough; generate without dates (and without flights)
		return Action{Kind: ActionGenerate, BestEffort: true}
	}
	if !flags.FlightsSearched {
		return Action{Kind: ActionRunTools}
	}
	return Action{Kind: ActionGenerate}
}

func (p Policy) maxPrompts() int {
	if p.MaxSlotPrompts < 1 {
		return 1
	}
	return p.MaxSlotPrompts
}
