package upsell

import (
	"github.com/tobilabs/salesbot/internal/session"
)

// Sequencer walks a session through the offer catalog: categories in
// catalog order, one offer per category per session, and no offer id is
// ever presented twice.
type Sequencer struct {
	catalog *Catalog
}

// NewSequencer creates a sequencer over the given immutable catalog.
func NewSequencer(catalog *Catalog) *Sequencer {
	return &Sequencer{catalog: catalog}
}

// NextOffer returns the lead offer of the highest-priority category the
// session has not yet seen, recording it as presented and active. A nil
// return means every category is exhausted — the terminal signal for the
// upsell phase.
func (s *Sequencer) NextOffer(sess *session.Session) *Offer {
	for _, cat := range s.catalog.Categories {
		if s.categoryPresented(sess, cat) {
			continue
		}
		if len(cat.Offers) == 0 {
			continue
		}
		offer := cat.Offers[0]
		sess.MarkPresented(offer.ID)
		return &offer
	}
	return nil
}

// RecordResponse files the user's answer to a presented offer.
func (s *Sequencer) RecordResponse(sess *session.Session, offerID string, accepted bool) {
	if !sess.Presented(offerID) {
		return
	}
	sess.RecordOfferResponse(offerID, accepted)
}

// Exhausted reports whether every non-empty category has already been
// presented, without mutating the session.
func (s *Sequencer) Exhausted(sess *session.Session) bool {
	for _, cat := range s.catalog.Categories {
		if len(cat.Offers) == 0 {
			continue
		}
		if !s.categoryPresented(sess, cat) {
			return false
		}
	}
	return true
}

// Find exposes catalog lookup for reply composition.
func (s *Sequencer) Find(offerID string) *Offer {
	return s.catalog.Find(offerID)
}

// CategoryCount returns the number of offer categories, the upper bound
// on NextOffer calls before nil.
func (s *Sequencer) CategoryCount() int {
	return len(s.catalog.Categories)
}

func (s *Sequencer) categoryPresented(sess *session.Session, cat Category) bool {
	for _, o := range cat.Offers {
		if sess.Presented(o.ID) {
			return true
		}
	}
	return false
}
