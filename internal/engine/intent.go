package engine

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/tobilabs/salesbot/internal/llm"
)

// Intent is the classified reaction of the user to what was last shown.
type Intent string

const (
	// IntentAffirm accepts what was shown (a product set or an offer).
	IntentAffirm Intent = "affirm"
	// IntentReject turns down what was shown but wants to keep looking.
	IntentReject Intent = "reject"
	// IntentDecline ends the current phase entirely.
	IntentDecline Intent = "decline"
	// IntentNeutral is everything else: questions, refinements, chatter.
	IntentNeutral Intent = "neutral"
)

// Classifier labels user utterances with one JSON-mode model call,
// falling back to keyword matching when the model is unavailable. The
// fallback keeps the state machine deterministic under collaborator
// failure.
type Classifier struct {
	provider llm.Provider
	model    string
}

// NewClassifier creates a classifier on top of the given provider.
func NewClassifier(provider llm.Provider, model string) *Classifier {
	return &Classifier{provider: provider, model: model}
}

const intentSystemPrompt = `You classify a customer's reply in a phone shop conversation.

Respond with a single JSON object: {"intent": "affirm|reject|decline|neutral"}

- "affirm": they accept or like what was just shown ("yes please", "sounds good", "I'll take it").
- "reject": they turn down what was shown but are still shopping ("none of these", "something cheaper").
- "decline": they want to stop entirely ("no thanks, I'm done", "stop", "goodbye").
- "neutral": anything else, including questions and new requirements.`

// Classify labels the utterance given what the assistant last presented.
func (c *Classifier) Classify(ctx context.Context, utterance, shown string) Intent {
	resp, err := c.provider.Complete(ctx, llm.CompletionRequest{
		Model: c.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: intentSystemPrompt},
			{Role: llm.RoleUser, Content: "Assistant last presented: " + shown + "\n\nCustomer reply: " + utterance},
		},
		MaxTokens:   64,
		Temperature: 0.0,
		JSONMode:    true,
	})
	if err != nil {
		return classifyKeywords(utterance)
	}

	var payload struct {
		Intent string `json:"intent"`
	}
	content := resp.Content
	if idx := strings.Index(content, "{"); idx >= 0 {
		content = content[idx:]
	}
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return classifyKeywords(utterance)
	}

	switch Intent(strings.ToLower(strings.TrimSpace(payload.Intent))) {
	case IntentAffirm, IntentReject, IntentDecline, IntentNeutral:
		return Intent(strings.ToLower(strings.TrimSpace(payload.Intent)))
	default:
		return classifyKeywords(utterance)
	}
}

// classifyKeywords is the deterministic fallback classifier.
func classifyKeywords(utterance string) Intent {
	u := strings.ToLower(strings.TrimSpace(utterance))

	declinePhrases := []string{"no thanks", "i'm done", "im done", "stop", "goodbye", "that's all", "thats all", "not interested"}
	for _, p := range declinePhrases {
		if strings.Contains(u, p) {
			return IntentDecline
		}
	}

	rejectPhrases := []string{"none of these", "none of those", "don't like", "dont like", "something else", "something cheaper", "not these"}
	for _, p := range rejectPhrases {
		if strings.Contains(u, p) {
			return IntentReject
		}
	}
	if u == "no" || u == "nope" || u == "nah" {
		return IntentReject
	}

	affirmPhrases := []string{"yes", "yeah", "yep", "sure", "sounds good", "perfect", "great", "i'll take", "ill take", "add it", "ok", "okay"}
	for _, p := range affirmPhrases {
		if u == p || strings.HasPrefix(u, p+" ") || strings.HasPrefix(u, p+",") || strings.HasPrefix(u, p+"!") || strings.HasPrefix(u, p+".") {
			return IntentAffirm
		}
	}

	return IntentNeutral
}
