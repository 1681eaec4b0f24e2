package session

import (
	"time"

	"github.com/tobilabs/salesbot/internal/prefs"
)

// State is the conversation state machine position. Transitions are owned
// exclusively by the conversation engine.
type State string

const (
	StateGreeting     State = "greeting"
	StateCollecting   State = "collecting_preferences"
	StateSearching    State = "searching"
	StateRecommending State = "recommending"
	StateUpselling    State = "upselling"
	StateClosed       State = "closed"
)

// Turn is one user or assistant message.
type Turn struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is the full state of one conversation, keyed by a caller-supplied
// opaque id. It is mutated only by the conversation engine and persisted
// whole on every turn.
type Session struct {
	ID        string    `json:"id"`
	State     State     `json:"state"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Turns []Turn       `json:"turns"`
	Prefs prefs.Record `json:"prefs"`

	PresentedOffers []string `json:"presented_offers"`
	AcceptedOffers  []string `json:"accepted_offers"`
	DeclinedOffers  []string `json:"declined_offers"`
	ActiveOfferID   string   `json:"active_offer_id"`

	LastRecommended []string `json:"last_recommended"`
}

// NewSession creates a fresh session in the greeting state.
func NewSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		State:     StateGreeting,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddTurn appends one message to the transcript.
func (s *Session) AddTurn(role, content string) {
	s.Turns = append(s.Turns, Turn{Role: role, Content: content, Timestamp: time.Now()})
}

// Presented reports whether the offer id has already been shown.
func (s *Session) Presented(offerID string) bool {
	return contains(s.PresentedOffers, offerID)
}

// MarkPresented records that the offer has been shown and makes it the
// active offer awaiting a response.
func (s *Session) MarkPresented(offerID string) {
	if !s.Presented(offerID) {
		s.PresentedOffers = append(s.PresentedOffers, offerID)
	}
	s.ActiveOfferID = offerID
}

// RecordOfferResponse files the offer into the accepted or declined set
// and clears it as the active offer.
func (s *Session) RecordOfferResponse(offerID string, accepted bool) {
	if accepted {
		if !contains(s.AcceptedOffers, offerID) {
			s.AcceptedOffers = append(s.AcceptedOffers, offerID)
		}
	} else {
		if !contains(s.DeclinedOffers, offerID) {
			s.DeclinedOffers = append(s.DeclinedOffers, offerID)
		}
	}
	if s.ActiveOfferID == offerID {
		s.ActiveOfferID = ""
	}
}

// Clone returns a deep copy used to roll a turn back when persistence
// fails: the turn is treated as not having happened.
func (s *Session) Clone() *Session {
	c := *s
	c.Turns = append([]Turn(nil), s.Turns...)
	c.PresentedOffers = append([]string(nil), s.PresentedOffers...)
	c.AcceptedOffers = append([]string(nil), s.AcceptedOffers...)
	c.DeclinedOffers = append([]string(nil), s.DeclinedOffers...)
	c.LastRecommended = append([]string(nil), s.LastRecommended...)
	c.Prefs.Features = append([]string(nil), s.Prefs.Features...)
	return &c
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
