package prefs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tobilabs/salesbot/internal/llm"
)

// Extractor turns a user utterance plus prior preference state into an
// updated Record via one JSON-mode model call. The model is the unreliable
// part; the merge rule is what keeps session state stable.
type Extractor struct {
	provider llm.Provider
	model    string
}

// NewExtractor creates an extractor on top of the given provider.
func NewExtractor(provider llm.Provider, model string) *Extractor {
	return &Extractor{provider: provider, model: model}
}

// Extract asks the model for attributes it can confidently infer from the
// utterance and merges them into prior under the confidence-monotonic
// rule. On model failure the prior record is returned unchanged together
// with the error, so the caller can log the soft failure and continue.
func (e *Extractor) Extract(ctx context.Context, utterance string, prior Record) (Record, error) {
	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		Model: e.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: extractionSystemPrompt},
			{Role: llm.RoleUser, Content: buildExtractionPrompt(utterance, prior)},
		},
		MaxTokens:   512,
		Temperature: 0.0,
		JSONMode:    true,
	})
	if err != nil {
		return prior, fmt.Errorf("preference extraction: %w", err)
	}

	extracted, err := parseExtraction(resp.Content)
	if err != nil {
		return prior, fmt.Errorf("preference extraction: %w", err)
	}

	return Merge(prior, extracted), nil
}

const extractionSystemPrompt = `You extract mobile phone shopping preferences from a customer message.

Respond with a single JSON object using only these keys, omitting any the message says nothing about:
{
  "budget_max": {"value": 30.0, "confidence": "explicit|inferred"},
  "data_tier": {"value": "light|medium|heavy|unlimited", "confidence": "explicit|inferred"},
  "brand": {"value": "Apple", "confidence": "explicit|inferred"},
  "storage": {"value": "128GB", "confidence": "explicit|inferred"},
  "contract_months": {"value": 24, "confidence": "explicit|inferred"},
  "features": ["camera", "5G"]
}

Rules:
- Only report attributes the latest message supports. Never repeat the prior state back.
- "explicit" means the customer stated it in so many words ("under £30 a month").
- "inferred" means you are reading between the lines ("cheap" implies a low budget).
- budget_max is the monthly cost ceiling in pounds.
- Map data needs onto the four tiers; "lots of data" is heavy, "all the data" is unlimited.`

func buildExtractionPrompt(utterance string, prior Record) string {
	var b strings.Builder
	b.WriteString("## Known preferences so far\n")
	b.WriteString(prior.Describe())
	b.WriteString("\n\n## Latest customer message\n")
	b.WriteString(utterance)
	b.WriteString("\n")
	return b.String()
}

// extractionPayload is the wire shape of the model's answer. Pointers
// distinguish "absent" from zero values.
type extractionPayload struct {
	BudgetMax      *floatField  `json:"budget_max"`
	DataTier       *stringField `json:"data_tier"`
	Brand          *stringField `json:"brand"`
	Storage        *stringField `json:"storage"`
	ContractMonths *intField    `json:"contract_months"`
	Features       []string     `json:"features"`
}

type stringField struct {
	Value      string `json:"value"`
	Confidence string `json:"confidence"`
}

type floatField struct {
	Value      float64 `json:"value"`
	Confidence string  `json:"confidence"`
}

type intField struct {
	Value      int    `json:"value"`
	Confidence string `json:"confidence"`
}

var validTiers = map[string]bool{
	"light": true, "medium": true, "heavy": true, "unlimited": true,
}

// parseExtraction is the strict boundary after the model call: fields
// that do not match the attribute schema are dropped, unknown confidence
// strings are downgraded to inferred.
func parseExtraction(content string) (Record, error) {
	jsonStr := content
	if idx := strings.Index(content, "{"); idx >= 0 {
		jsonStr = content[idx:]
	}
	if idx := strings.LastIndex(jsonStr, "}"); idx >= 0 {
		jsonStr = jsonStr[:idx+1]
	}

	var payload extractionPayload
	if err := json.Unmarshal([]byte(jsonStr), &payload); err != nil {
		return Record{}, fmt.Errorf("unparseable model output: %w", err)
	}

	var rec Record
	if f := payload.BudgetMax; f != nil && f.Value > 0 {
		rec.BudgetMax = FloatAttr{Value: f.Value, Confidence: normalizeConfidence(f.Confidence), Set: true}
	}
	if f := payload.DataTier; f != nil {
		tier := strings.ToLower(strings.TrimSpace(f.Value))
		if validTiers[tier] {
			rec.DataTier = StringAttr{Value: tier, Confidence: normalizeConfidence(f.Confidence), Set: true}
		}
	}
	if f := payload.Brand; f != nil && strings.TrimSpace(f.Value) != "" {
		rec.Brand = StringAttr{Value: strings.TrimSpace(f.Value), Confidence: normalizeConfidence(f.Confidence), Set: true}
	}
	if f := payload.Storage; f != nil && strings.TrimSpace(f.Value) != "" {
		rec.Storage = StringAttr{Value: strings.TrimSpace(f.Value), Confidence: normalizeConfidence(f.Confidence), Set: true}
	}
	if f := payload.ContractMonths; f != nil && f.Value > 0 {
		rec.ContractMonths = IntAttr{Value: f.Value, Confidence: normalizeConfidence(f.Confidence), Set: true}
	}
	for _, feat := range payload.Features {
		if strings.TrimSpace(feat) != "" {
			rec.Features = append(rec.Features, strings.TrimSpace(feat))
		}
	}

	return rec, nil
}

func normalizeConfidence(s string) Confidence {
	if Confidence(strings.ToLower(strings.TrimSpace(s))) == ConfidenceExplicit {
		return ConfidenceExplicit
	}
	return ConfidenceInferred
}
