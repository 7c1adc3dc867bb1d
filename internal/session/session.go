// Package session holds per-conversation state and the stores that persist
// it between turns.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tripweaver/internal/conversation"
	"tripweaver/internal/tools/flights"
)

// Turn is one exchange entry kept for LLM context.
type Turn struct {
	Role    string    `json:"role"` // user or assistant
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Session is the full state of one conversation. It is a plain value: stores
// persist and return copies, never shared pointers into their own state.
type Session struct {
	ID    string               `json:"id"`
	Slots conversation.SlotSet `json:"slots"`
	Flags conversation.Flags   `json:"flags"`

	History        []Turn           `json:"history,omitempty"`
	Flights        []flights.Flight `json:"flights,omitempty"`
	SelectedFlight *flights.Flight  `json:"selected_flight,omitempty"`

	// EstimatedArrival is the chosen flight's departure plus a rough flight
	// duration, used to plan the arrival day.
	EstimatedArrival string `json:"estimated_arrival,omitempty"`

	Itinerary string `json:"itinerary,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates an empty session with a fresh ID.
func New() *Session {
	now := time.Now().UTC()
	return &Session{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
}

// AppendTurn records an exchange entry, keeping only the most recent limit
// turns.
func (s *Session) AppendTurn(role, content string, limit int) {
	s.History = append(s.History, Turn{Role: role, Content: content, At: time.Now().UTC()})
	if limit > 0 && len(s.History) > limit {
		s.History = s.History[len(s.History)-limit:]
	}
}

// Store persists sessions with a TTL refreshed on every Put. A Get on a
// missing or expired ID returns (nil, nil): the caller starts a fresh
// session.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Put(ctx context.Context, sess *Session) error
	Delete(ctx context.Context, id string) error
}
