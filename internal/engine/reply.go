package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/tobilabs/salesbot/internal/catalog"
	"github.com/tobilabs/salesbot/internal/llm"
	"github.com/tobilabs/salesbot/internal/prefs"
	"github.com/tobilabs/salesbot/internal/search"
	"github.com/tobilabs/salesbot/internal/session"
	"github.com/tobilabs/salesbot/internal/upsell"
)

// replyContext carries the facts one assistant turn can speak about.
type replyContext struct {
	State    session.State
	Prefs    prefs.Record
	AskOrder []string

	// Result is set when a search ran this turn.
	Result *search.Result

	Offer          *upsell.Offer
	OfferResponded bool
	OfferAccepted  bool

	// Rejected marks a turn where the user turned down the shown
	// products and the conversation went back to gathering preferences.
	Rejected bool
}

// composer renders a templated reply for the post-transition state and
// optionally asks the model to rephrase it. The template is always the
// fallback, so a reply exists even when the model is down.
type composer struct {
	provider llm.Provider
	model    string
}

func newComposer(provider llm.Provider, model string) *composer {
	return &composer{provider: provider, model: model}
}

var clarifyQuestions = map[string]string{
	prefs.AttrBudget:   "What monthly budget do you have in mind?",
	prefs.AttrData:     "How much data do you usually get through: light, medium, heavy or unlimited?",
	prefs.AttrBrand:    "Do you lean towards a particular brand, say Apple or Samsung?",
	prefs.AttrStorage:  "How much storage would you like?",
	prefs.AttrContract: "How long a contract would suit you?",
	prefs.AttrFeatures: "Any must-have features, like a great camera or 5G?",
}

func clarifyQuestion(rec prefs.Record, askOrder []string) string {
	attr := rec.FirstMissing(askOrder)
	if q, ok := clarifyQuestions[attr]; ok {
		return q
	}
	return "Tell me a bit more about what you're looking for."
}

// Compose renders the reply for the turn. The model call is best-effort.
func (c *composer) Compose(ctx context.Context, rc replyContext) string {
	draft := c.draft(rc)
	if c.provider == nil {
		return draft
	}

	resp, err := c.provider.Complete(ctx, llm.CompletionRequest{
		Model: c.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: rephraseSystemPrompt},
			{Role: llm.RoleUser, Content: "Rephrase this reply in your own words:\n\n" + draft},
		},
		MaxTokens:   400,
		Temperature: 0.7,
	})
	if err != nil {
		return draft
	}
	rephrased := strings.TrimSpace(resp.Content)
	if rephrased == "" {
		return draft
	}
	return rephrased
}

const rephraseSystemPrompt = `You are a friendly phone shop assistant.
Rephrase the given reply naturally in one or two short paragraphs.
Keep every product name, price, data allowance and offer exactly as
given. Do not invent products, prices or offers. Keep any question the
reply asks.`

func (c *composer) draft(rc replyContext) string {
	switch rc.State {
	case session.StateClosed:
		return "Thanks for chatting with us today. Enjoy your new phone, and come back any time!"

	case session.StateUpselling:
		var b strings.Builder
		if rc.OfferResponded {
			if rc.OfferAccepted {
				b.WriteString("Great, I've added that for you. ")
			} else {
				b.WriteString("No problem at all. ")
			}
		}
		if rc.Offer != nil {
			fmt.Fprintf(&b, "One more thing: can I interest you in %s at %s? %s",
				rc.Offer.Name, rc.Offer.Price, rc.Offer.Description)
		}
		return strings.TrimSpace(b.String())

	case session.StateRecommending:
		if rc.Result == nil || len(rc.Result.Items) == 0 {
			return "I couldn't find a phone that fits all of that, I'm afraid. Could you stretch the budget a little, or relax one of the requirements? " +
				clarifyQuestion(rc.Prefs, rc.AskOrder)
		}
		var b strings.Builder
		b.WriteString("Here's what I'd recommend:\n")
		for i, item := range rc.Result.Items {
			b.WriteString(formatProduct(i+1, item.Product))
			b.WriteString("\n")
		}
		if rc.Result.Degraded {
			b.WriteString("These match your stated requirements.\n")
		}
		b.WriteString("How do these look?")
		return b.String()

	case session.StateCollecting:
		if rc.Rejected {
			return "No problem, let's refine the search. " + clarifyQuestion(rc.Prefs, rc.AskOrder)
		}
		return "Happy to help you find the right phone. " + clarifyQuestion(rc.Prefs, rc.AskOrder)

	default:
		return "Hi! I'm here to help you find your next phone. " + clarifyQuestion(rc.Prefs, rc.AskOrder)
	}
}

func formatProduct(n int, p catalog.Product) string {
	return fmt.Sprintf("%d. %s (%s): £%.2f/month, %s data, %s storage, %d month contract",
		n, p.Name, p.Brand, p.MonthlyCost, p.DataAllowance, p.Storage, p.ContractMonths)
}
