package engine

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/tobilabs/salesbot/internal/catalog"
	"github.com/tobilabs/salesbot/internal/config"
	"github.com/tobilabs/salesbot/internal/llm"
	"github.com/tobilabs/salesbot/internal/prefs"
	"github.com/tobilabs/salesbot/internal/search"
	"github.com/tobilabs/salesbot/internal/session"
	"github.com/tobilabs/salesbot/internal/upsell"
)

// TurnResult is everything one conversation turn produced.
type TurnResult struct {
	Reply    string            `json:"response"`
	Products []catalog.Product `json:"recommendations,omitempty"`
	Offer    *upsell.Offer     `json:"offer,omitempty"`
	State    session.State     `json:"state"`
}

// Engine orchestrates one conversation turn end to end: load session,
// extract preferences, advance the state machine, run search or upsell
// side effects, compose the reply, persist. Collaborator failures are
// absorbed into degraded behavior; only a persistence failure fails the
// turn, and then the turn is rolled back as if it never happened.
type Engine struct {
	store      session.Store
	extractor  *prefs.Extractor
	searcher   *search.Engine
	sequencer  *upsell.Sequencer
	classifier *Classifier
	composer   *composer
	cfg        *config.Config

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New wires an engine from its collaborators. The provider is used for
// extraction, intent classification and reply phrasing; pass it wrapped
// in a retry decorator.
func New(cfg *config.Config, store session.Store, provider llm.Provider, searcher *search.Engine, sequencer *upsell.Sequencer) *Engine {
	return &Engine{
		store:      store,
		extractor:  prefs.NewExtractor(provider, cfg.Model),
		searcher:   searcher,
		sequencer:  sequencer,
		classifier: NewClassifier(provider, cfg.Model),
		composer:   newComposer(provider, cfg.Model),
		cfg:        cfg,
		locks:      make(map[string]*sync.Mutex),
	}
}

// sessionLock serializes turns per session id. Turns for different
// sessions run concurrently.
func (e *Engine) sessionLock(id string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, ok := e.locks[id]
	if !ok {
		m = &sync.Mutex{}
		e.locks[id] = m
	}
	return m
}

// HandleTurn processes one user message for the given session.
func (e *Engine) HandleTurn(ctx context.Context, sessionID, userText string) (*TurnResult, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, session.ErrEmptySessionID
	}

	lock := e.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := e.store.GetOrCreate(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	snapshot := sess.Clone()

	result := e.runTurn(ctx, sess, userText)

	if err := e.store.Save(ctx, sess); err != nil {
		*sess = *snapshot
		return nil, fmt.Errorf("save session: %w", err)
	}
	return result, nil
}

func (e *Engine) runTurn(ctx context.Context, sess *session.Session, userText string) *TurnResult {
	trimmed := strings.TrimSpace(userText)
	sess.AddTurn("user", userText)

	if sess.State == session.StateClosed {
		// A message after closing starts a fresh shopping pass in the
		// same session. Preferences and transcript carry over; the
		// recommendation and offer bookkeeping reset.
		sess.State = session.StateGreeting
		sess.LastRecommended = nil
		sess.PresentedOffers = nil
		sess.AcceptedOffers = nil
		sess.DeclinedOffers = nil
		sess.ActiveOfferID = ""
	}

	if trimmed == "" {
		// Nothing to extract or classify: ask a clarifying question and
		// leave the state alone, beyond entering the conversation proper.
		if sess.State == session.StateGreeting {
			sess.State = session.StateCollecting
		}
		reply := e.composer.Compose(ctx, replyContext{
			State:    sess.State,
			Prefs:    sess.Prefs,
			AskOrder: e.cfg.Conversation.AskOrder,
		})
		sess.AddTurn("assistant", reply)
		return &TurnResult{Reply: reply, State: sess.State}
	}

	merged, err := e.extractor.Extract(ctx, trimmed, sess.Prefs)
	if err != nil {
		log.Printf("engine: session %s: preference extraction recovered: %v", sess.ID, err)
	}
	sess.Prefs = merged

	intent := IntentNeutral
	if sess.State == session.StateRecommending || sess.State == session.StateUpselling {
		intent = e.classifier.Classify(ctx, trimmed, e.lastShown(sess))
	}

	var offerResponded, offerAccepted bool
	if sess.State == session.StateUpselling && sess.ActiveOfferID != "" {
		offerResponded = true
		offerAccepted = intent == IntentAffirm
		e.sequencer.RecordResponse(sess, sess.ActiveOfferID, offerAccepted)
	}

	in := Inputs{
		Complete:          sess.Prefs.SatisfiesAnyOf(e.cfg.Conversation.RequiredAny),
		HasRecommendation: len(sess.LastRecommended) > 0,
		Intent:            intent,
		OffersExhausted:   e.sequencer.Exhausted(sess),
	}
	rejected := sess.State == session.StateRecommending && intent == IntentReject

	state := Transition(sess.State, in)

	var searched *search.Result
	if state == session.StateSearching {
		res, err := e.searcher.Search(ctx, sess.Prefs, e.cfg.Search.TopK)
		if err != nil {
			log.Printf("engine: session %s: search recovered: %v", sess.ID, err)
		}
		if res.Degraded {
			log.Printf("engine: session %s: semantic ranking unavailable, constraint-only results", sess.ID)
		}
		sess.LastRecommended = res.IDs()
		searched = &res
		in.HasRecommendation = len(res.Items) > 0
		state = Transition(session.StateSearching, in)
	}

	var offer *upsell.Offer
	if state == session.StateUpselling {
		offer = e.sequencer.NextOffer(sess)
		if offer == nil {
			state = session.StateClosed
		}
	}
	sess.State = state

	reply := e.composer.Compose(ctx, replyContext{
		State:          state,
		Prefs:          sess.Prefs,
		AskOrder:       e.cfg.Conversation.AskOrder,
		Result:         searched,
		Offer:          offer,
		OfferResponded: offerResponded,
		OfferAccepted:  offerAccepted,
		Rejected:       rejected,
	})
	sess.AddTurn("assistant", reply)

	out := &TurnResult{Reply: reply, Offer: offer, State: state}
	if searched != nil {
		for _, item := range searched.Items {
			out.Products = append(out.Products, item.Product)
		}
	}
	return out
}

// lastShown summarizes what the assistant last put in front of the user,
// as context for intent classification.
func (e *Engine) lastShown(sess *session.Session) string {
	if sess.ActiveOfferID != "" {
		if o := e.sequencer.Find(sess.ActiveOfferID); o != nil {
			return "an add-on offer: " + o.Name + " at " + o.Price
		}
	}
	if len(sess.LastRecommended) > 0 {
		byID := make(map[string]string, len(e.searcher.Products()))
		for _, p := range e.searcher.Products() {
			byID[p.ID] = p.Name
		}
		names := make([]string, 0, len(sess.LastRecommended))
		for _, id := range sess.LastRecommended {
			if n, ok := byID[id]; ok {
				names = append(names, n)
			}
		}
		return "phone recommendations: " + strings.Join(names, ", ")
	}
	return "nothing yet"
}
