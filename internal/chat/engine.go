// Package chat is the turn loop: it extracts slots from the user's message,
// asks the policy what to do next, runs tools, generates the itinerary, and
// composes the structured response.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"tripweaver/internal/agentdef"
	"tripweaver/internal/catalog"
	"tripweaver/internal/composer"
	"tripweaver/internal/conversation"
	"tripweaver/internal/orchestrator"
	"tripweaver/internal/provider"
	"tripweaver/internal/session"
	"tripweaver/internal/telemetry"
	"tripweaver/internal/tools/articles"
	"tripweaver/internal/tools/geocode"
	"tripweaver/internal/tools/visa"
)

// homeIATA is the departure airport for booking links. All trips start in
// Singapore.
const homeIATA = "sin"

const maxGeocodePlaces = 12

// Config tunes the engine independent of the wiring.
type Config struct {
	HistoryLimit   int
	HomeCity       string
	ArticleLimit   int
	DefaultAgentID string
}

// TurnRequest is one user turn.
type TurnRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
	AgentID   string `json:"agent_id,omitempty"`

	// SelectedFlightIndex picks a flight from the options shown earlier
	// instead of sending text.
	SelectedFlightIndex *int `json:"selected_flight_index,omitempty"`

	// ForceItinerary generates with whatever is known instead of asking
	// for travel dates.
	ForceItinerary bool `json:"force_itinerary,omitempty"`
}

// Turn actions on the wire.
const (
	ActionAsk       = "ask"
	ActionClarify   = "clarify"
	ActionItinerary = "itinerary"
	ActionError     = "error"
)

// TurnResponse is the structured reply for one turn.
type TurnResponse struct {
	SessionID string `json:"session_id"`
	Action    string `json:"action"`
	Slot      string `json:"slot,omitempty"`
	Message   string `json:"message,omitempty"`

	Blocks []composer.Block     `json:"blocks,omitempty"`
	Slots  conversation.SlotSet `json:"slots"`
}

// Engine drives the conversation.
type Engine struct {
	store     session.Store
	extractor conversation.Extractor
	policy    conversation.Policy
	orch      *orchestrator.Orchestrator
	llm       provider.Provider
	agents    *agentdef.Registry
	cfg       Config
	metrics   *telemetry.Metrics
	logger    *log.Logger
}

// New creates a chat engine.
func New(store session.Store, extractor conversation.Extractor, policy conversation.Policy,
	orch *orchestrator.Orchestrator, llm provider.Provider, agents *agentdef.Registry,
	cfg Config, metrics *telemetry.Metrics, logger *log.Logger) *Engine {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 10
	}
	if cfg.ArticleLimit <= 0 {
		cfg.ArticleLimit = 3
	}
	if cfg.HomeCity == "" {
		cfg.HomeCity = "Singapore"
	}
	if cfg.DefaultAgentID == "" {
		cfg.DefaultAgentID = agentdef.DefaultAgentID
	}
	return &Engine{
		store:     store,
		extractor: extractor,
		policy:    policy,
		orch:      orch,
		llm:       llm,
		agents:    agents,
		cfg:       cfg,
		metrics:   metrics,
		logger:    logger,
	}
}

// HandleTurn processes one turn end to end and persists the session.
func (e *Engine) HandleTurn(ctx context.Context, req TurnRequest) (*TurnResponse, error) {
	sess, err := e.store.Get(ctx, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess == nil {
		sess = session.New()
	}

	if req.SelectedFlightIndex != nil {
		return e.selectFlight(ctx, sess, req)
	}

	utterance := strings.TrimSpace(req.Message)
	if utterance != "" {
		upd, err := e.extractor.Extract(ctx, utterance, sess.Slots)
		if err != nil && e.logger != nil {
			e.logger.Printf("extraction failed, continuing with raw slots: %v", err)
		}
		sess.Slots = sess.Slots.Apply(upd)
		sess.AppendTurn("user", utterance, e.cfg.HistoryLimit)
	}

	for {
		action := e.policy.Decide(sess.Slots, sess.Flags)
		if req.ForceItinerary && action.Kind == conversation.ActionAskSlot && action.Slot == conversation.SlotTravelDates {
			action = conversation.Action{Kind: conversation.ActionGenerate, BestEffort: true}
		}
		e.metrics.RecordTurn(string(action.Kind))

		switch action.Kind {
		case conversation.ActionAskSlot:
			sess.Flags = sess.Flags.RecordPrompt(action.Slot)
			return e.respond(ctx, sess, &TurnResponse{
				Action:  ActionAsk,
				Slot:    string(action.Slot),
				Message: askText(action.Slot, sess.Slots),
			})

		case conversation.ActionClarify:
			return e.respond(ctx, sess, &TurnResponse{
				Action:  ActionClarify,
				Message: clarifyText(action),
			})

		case conversation.ActionRunTools:
			e.runFlightSearch(ctx, sess, utterance)
			// flights_searched is now set; the policy moves on

		case conversation.ActionGenerate:
			return e.generate(ctx, sess, req, action.BestEffort)

		default:
			return nil, fmt.Errorf("unknown action %q", action.Kind)
		}
	}
}

// Reset discards a session entirely.
func (e *Engine) Reset(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return e.store.Delete(ctx, sessionID)
}

// runFlightSearch attempts the one-shot flight search. The flag is set even
// on failure: an attempted side effect is a spent side effect, retrying on
// the next turn would surprise the user with a second search.
func (e *Engine) runFlightSearch(ctx context.Context, sess *session.Session, utterance string) {
	fs, err := e.orch.SearchFlights(ctx, sess.Slots.Destination, sess.Slots.TravelDates, timePreferences(utterance))
	if err != nil {
		if e.logger != nil {
			e.logger.Printf("flight search for %s failed entirely: %v", sess.Slots.Destination, err)
		}
	}
	sess.Flights = fs
	sess.Flags.FlightsSearched = true
	if err := e.store.Put(ctx, sess); err != nil && e.logger != nil {
		e.logger.Printf("persist after flight search: %v", err)
	}
}

func (e *Engine) generate(ctx context.Context, sess *session.Session, req TurnRequest, bestEffort bool) (*TurnResponse, error) {
	agent := e.resolveAgent(req.AgentID)
	city, _ := catalog.Find(sess.Slots.Destination)

	comp, err := e.llm.Complete(ctx, e.buildMessages(agent, sess, bestEffort), nil)
	e.metrics.RecordLLM("chat", err)
	if err != nil {
		if e.logger != nil {
			e.logger.Printf("itinerary generation: %v", err)
		}
		// session is persisted so tool flags survive the failed turn
		return e.respond(ctx, sess, &TurnResponse{
			Action:  ActionError,
			Message: apology(err),
		})
	}

	itinerary := strings.TrimSpace(comp.Text)
	sess.Itinerary = itinerary
	sess.Flags.ItineraryGenerated = true

	enr := e.enrich(ctx, agent, city, itinerary)

	departDate := ""
	if len(sess.Slots.TravelDates) > 0 {
		departDate = sess.Slots.TravelDates[0]
	}
	blocks := composer.Compose(composer.Input{
		Itinerary:   itinerary,
		Destination: city,
		Duration:    sess.Slots.Duration,
		DepartDate:  departDate,
		HomeIATA:    homeIATA,
		Flights:     sess.Flights,
		Articles:    enr.Articles,
		Locations:   enr.Locations,
		Visa:        enr.Visa,
	})

	return e.respond(ctx, sess, &TurnResponse{
		Action:  ActionItinerary,
		Message: itinerary,
		Blocks:  blocks,
	})
}

func (e *Engine) enrich(ctx context.Context, agent *agentdef.Agent, city catalog.City, itinerary string) orchestrator.Enrichment {
	enrReq := orchestrator.EnrichRequest{ArticleLimit: e.cfg.ArticleLimit}
	if agent.ToolEnabled(articles.ToolName) {
		enrReq.Destination = city.Name
	}
	if agent.ToolEnabled(visa.ToolName) {
		enrReq.CountryCode = city.CountryCode
	}
	if agent.ToolEnabled(geocode.ToolName) {
		enrReq.Places = itineraryPlaces(itinerary, maxGeocodePlaces)
	}
	return e.orch.Enrich(ctx, enrReq)
}

func (e *Engine) buildMessages(agent *agentdef.Agent, sess *session.Session, bestEffort bool) []provider.Message {
	messages := []provider.Message{
		{Role: provider.RoleSystem, Content: agent.SystemPrompt},
		{Role: provider.RoleSystem, Content: e.tripContext(sess, bestEffort)},
	}
	for _, t := range sess.History {
		role := provider.RoleUser
		if t.Role == "assistant" {
			role = provider.RoleAssistant
		}
		messages = append(messages, provider.Message{Role: role, Content: t.Content})
	}
	return messages
}

func (e *Engine) tripContext(sess *session.Session, bestEffort bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Trip request from %s:\n", e.cfg.HomeCity)
	fmt.Fprintf(&b, "- destination: %s\n", sess.Slots.Destination)
	if sess.Slots.Duration > 0 {
		fmt.Fprintf(&b, "- duration: %d days\n", sess.Slots.Duration)
	}
	if len(sess.Slots.TravelDates) > 0 {
		fmt.Fprintf(&b, "- travel dates: %s\n", strings.Join(sess.Slots.TravelDates, ", "))
	} else if bestEffort {
		b.WriteString("- travel dates: not decided yet; write the itinerary without fixed dates\n")
	}
	if sess.Slots.Budget != "" {
		fmt.Fprintf(&b, "- budget: %s\n", sess.Slots.Budget)
	}
	if len(sess.Slots.Preferences) > 0 {
		fmt.Fprintf(&b, "- interests: %s\n", strings.Join(sess.Slots.Preferences, ", "))
	}
	if sess.Slots.TravelerType != "" {
		fmt.Fprintf(&b, "- traveling as: %s\n", sess.Slots.TravelerType)
	}
	if sess.SelectedFlight != nil {
		fmt.Fprintf(&b, "- chosen flight: %s departing %s\n", sess.SelectedFlight.FlightNumber, sess.SelectedFlight.DisplayTimestamp)
		if sess.EstimatedArrival != "" {
			fmt.Fprintf(&b, "- estimated arrival: %s; start Day 1 after landing\n", sess.EstimatedArrival)
		}
	} else if len(sess.Flights) > 0 {
		f := sess.Flights[0]
		fmt.Fprintf(&b, "- earliest flight option: %s departing %s\n", f.FlightNumber, f.DisplayTimestamp)
	}
	b.WriteString("Write a day-by-day itinerary for this trip.")
	return b.String()
}

// selectFlight records the chosen option and its estimated arrival, then
// regenerates the itinerary so Day 1 is planned around actually landing.
func (e *Engine) selectFlight(ctx context.Context, sess *session.Session, req TurnRequest) (*TurnResponse, error) {
	idx := *req.SelectedFlightIndex
	if idx < 0 || idx >= len(sess.Flights) {
		return e.respond(ctx, sess, &TurnResponse{
			Action:  ActionError,
			Message: fmt.Sprintf("That flight option is no longer available. Please pick one of the %d shown.", len(sess.Flights)),
		})
	}
	chosen := sess.Flights[idx]
	sess.SelectedFlight = &chosen
	if arrival, ok := chosen.EstimatedArrival(); ok {
		sess.EstimatedArrival = arrival
	}
	return e.generate(ctx, sess, req, len(sess.Slots.TravelDates) == 0)
}

// respond appends the assistant turn, persists the session, and stamps the
// response with session identity and slot state.
func (e *Engine) respond(ctx context.Context, sess *session.Session, resp *TurnResponse) (*TurnResponse, error) {
	if resp.Message != "" {
		sess.AppendTurn("assistant", resp.Message, e.cfg.HistoryLimit)
	}
	sess.UpdatedAt = time.Now().UTC()
	if err := e.store.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	resp.SessionID = sess.ID
	resp.Slots = sess.Slots
	return resp, nil
}

const fallbackPrompt = "You are a helpful travel planner."

func (e *Engine) resolveAgent(id string) *agentdef.Agent {
	if id == "" {
		id = e.cfg.DefaultAgentID
	}
	if e.agents != nil {
		if a, err := e.agents.Get(id); err == nil && a != nil {
			return e.withPrompt(a)
		}
		if id != e.cfg.DefaultAgentID {
			if a, err := e.agents.Get(e.cfg.DefaultAgentID); err == nil && a != nil {
				return e.withPrompt(a)
			}
		}
	}
	// registry unavailable; fall back to an inline persona
	return &agentdef.Agent{ID: id, Name: "Travel Planner", SystemPrompt: fallbackPrompt}
}

// withPrompt resolves a prompt-file reference into the inline prompt the
// message builder reads. An unreadable file degrades to the generic persona
// rather than sending an empty system message.
func (e *Engine) withPrompt(a *agentdef.Agent) *agentdef.Agent {
	prompt, err := e.agents.Prompt(a)
	if err != nil {
		if e.logger != nil {
			e.logger.Printf("agent %s prompt: %v", a.ID, err)
		}
		prompt = fallbackPrompt
	}
	a.SystemPrompt = prompt
	return a
}

func apology(err error) string {
	switch {
	case errors.Is(err, provider.ErrQuota):
		return "I'm getting rate limited by my language model right now. Please try again in a little while; your trip details are saved."
	case errors.Is(err, provider.ErrTimeout):
		return "That took longer than expected and timed out. Please try again; your trip details are saved."
	default:
		return "Something went wrong while writing your itinerary. Please try again; your trip details are saved."
	}
}
