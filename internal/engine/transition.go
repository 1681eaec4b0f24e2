package engine

import "github.com/tobilabs/salesbot/internal/session"

// Inputs captures everything a single transition step may depend on.
// Keeping the step a pure function of (state, Inputs) makes the
// conversation flow replayable and testable without any collaborators.
type Inputs struct {
	// Complete reports whether the gathered preferences satisfy the
	// configured completeness predicate.
	Complete bool
	// HasRecommendation reports whether a non-empty product set has been
	// presented to the user.
	HasRecommendation bool
	// Intent is the classified reaction to what was last shown.
	Intent Intent
	// OffersExhausted reports whether every offer category has been
	// presented already.
	OffersExhausted bool
}

// Transition advances the conversation by one step. StateSearching is
// transient: the caller performs the search, refreshes Inputs from its
// outcome and steps again.
func Transition(state session.State, in Inputs) session.State {
	switch state {
	case session.StateGreeting, session.StateCollecting:
		if in.Complete {
			return session.StateSearching
		}
		return session.StateCollecting

	case session.StateSearching:
		return session.StateRecommending

	case session.StateRecommending:
		if !in.HasRecommendation {
			// Nothing was shown last time, so keep gathering and retry
			// the search once the preferences allow it.
			if in.Complete {
				return session.StateSearching
			}
			return session.StateCollecting
		}
		switch in.Intent {
		case IntentReject:
			return session.StateCollecting
		case IntentDecline:
			return session.StateClosed
		default:
			return session.StateUpselling
		}

	case session.StateUpselling:
		if in.Intent == IntentDecline || in.OffersExhausted {
			return session.StateClosed
		}
		return session.StateUpselling

	case session.StateClosed:
		return session.StateGreeting
	}
	return state
}
