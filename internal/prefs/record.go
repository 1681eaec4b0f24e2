package prefs

import (
	"fmt"
	"strings"
)

// Confidence tags how a preference value was obtained. Explicit values
// come from the user's own words; inferred values are the model's guess.
type Confidence string

const (
	ConfidenceExplicit Confidence = "explicit"
	ConfidenceInferred Confidence = "inferred"
)

// Attribute names recognized by the completeness predicate and the
// clarifying-question order in configuration.
const (
	AttrBudget   = "budget"
	AttrData     = "data"
	AttrBrand    = "brand"
	AttrStorage  = "storage"
	AttrContract = "contract"
	AttrFeatures = "features"
)

// StringAttr is one optional string-valued preference slot.
type StringAttr struct {
	Value      string     `json:"value"`
	Confidence Confidence `json:"confidence"`
	Set        bool       `json:"set"`
}

// FloatAttr is one optional numeric preference slot.
type FloatAttr struct {
	Value      float64    `json:"value"`
	Confidence Confidence `json:"confidence"`
	Set        bool       `json:"set"`
}

// IntAttr is one optional integer preference slot.
type IntAttr struct {
	Value      int        `json:"value"`
	Confidence Confidence `json:"confidence"`
	Set        bool       `json:"set"`
}

// Record is the structured preference state of one session: a tagged
// record with one typed slot per recognized attribute rather than an
// open-ended key-value bag.
type Record struct {
	BudgetMax      FloatAttr  `json:"budget_max"`
	DataTier       StringAttr `json:"data_tier"` // light | medium | heavy | unlimited
	Brand          StringAttr `json:"brand"`
	Storage        StringAttr `json:"storage"`
	ContractMonths IntAttr    `json:"contract_months"`
	Features       []string   `json:"features"`
}

// Has reports whether the named attribute is set at any confidence.
func (r Record) Has(attr string) bool {
	switch attr {
	case AttrBudget:
		return r.BudgetMax.Set
	case AttrData:
		return r.DataTier.Set
	case AttrBrand:
		return r.Brand.Set
	case AttrStorage:
		return r.Storage.Set
	case AttrContract:
		return r.ContractMonths.Set
	case AttrFeatures:
		return len(r.Features) > 0
	default:
		return false
	}
}

// SatisfiesAnyOf reports whether at least one of the named attributes is
// set. This is the minimum-completeness predicate for leaving the
// preference-collection state.
func (r Record) SatisfiesAnyOf(attrs []string) bool {
	for _, a := range attrs {
		if r.Has(a) {
			return true
		}
	}
	return false
}

// FirstMissing returns the highest-priority attribute from askOrder that
// is not yet set, or "" when all are present.
func (r Record) FirstMissing(askOrder []string) string {
	for _, a := range askOrder {
		if !r.Has(a) {
			return a
		}
	}
	return ""
}

// Describe renders the record as query text for embedding and as prior
// state in extraction prompts.
func (r Record) Describe() string {
	var parts []string
	if r.BudgetMax.Set {
		parts = append(parts, fmt.Sprintf("budget up to £%.0f per month", r.BudgetMax.Value))
	}
	if r.DataTier.Set {
		parts = append(parts, r.DataTier.Value+" data usage")
	}
	if r.Brand.Set {
		parts = append(parts, r.Brand.Value+" phone")
	}
	if r.Storage.Set {
		parts = append(parts, r.Storage.Value+" storage")
	}
	if r.ContractMonths.Set {
		parts = append(parts, fmt.Sprintf("%d month contract", r.ContractMonths.Value))
	}
	if len(r.Features) > 0 {
		parts = append(parts, "features: "+strings.Join(r.Features, ", "))
	}
	if len(parts) == 0 {
		return "a mobile phone"
	}
	return strings.Join(parts, ", ")
}

// Merge combines a newly extracted record into the prior one under the
// confidence-monotonic rule: unset slots take the new value; explicit
// always wins over the old value; an inferred value only replaces another
// inferred value (newest wins) and never an explicit one.
func Merge(prior, next Record) Record {
	out := prior

	if next.BudgetMax.Set && replaces(prior.BudgetMax.Set, prior.BudgetMax.Confidence, next.BudgetMax.Confidence) {
		out.BudgetMax = next.BudgetMax
	}
	if next.DataTier.Set && replaces(prior.DataTier.Set, prior.DataTier.Confidence, next.DataTier.Confidence) {
		out.DataTier = next.DataTier
	}
	if next.Brand.Set && replaces(prior.Brand.Set, prior.Brand.Confidence, next.Brand.Confidence) {
		out.Brand = next.Brand
	}
	if next.Storage.Set && replaces(prior.Storage.Set, prior.Storage.Confidence, next.Storage.Confidence) {
		out.Storage = next.Storage
	}
	if next.ContractMonths.Set && replaces(prior.ContractMonths.Set, prior.ContractMonths.Confidence, next.ContractMonths.Confidence) {
		out.ContractMonths = next.ContractMonths
	}

	out.Features = unionFeatures(prior.Features, next.Features)
	return out
}

func replaces(priorSet bool, prior, next Confidence) bool {
	if !priorSet {
		return true
	}
	if next == ConfidenceExplicit {
		return true
	}
	// next is inferred: only another inferred value may be displaced.
	return prior != ConfidenceExplicit
}

func unionFeatures(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	seen := make(map[string]bool, len(a))
	out := make([]string, 0, len(a)+len(b))
	for _, f := range a {
		seen[strings.ToLower(f)] = true
		out = append(out, f)
	}
	for _, f := range b {
		if f == "" || seen[strings.ToLower(f)] {
			continue
		}
		seen[strings.ToLower(f)] = true
		out = append(out, f)
	}
	return out
}
