package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	chromem "github.com/philippgille/chromem-go"

	"github.com/tobilabs/salesbot/internal/catalog"
	"github.com/tobilabs/salesbot/internal/embeddings"
	"github.com/tobilabs/salesbot/internal/prefs"
)

const collectionName = "products"

// Scored pairs a product with its relevance score.
type Scored struct {
	Product catalog.Product `json:"product"`
	Score   float64         `json:"score"`
}

// Result is one search outcome. Empty Items is a valid "no match"
// signal, not an error.
type Result struct {
	Items []Scored `json:"items"`
	// Degraded marks a search that ran without semantic ranking because
	// the embedding collaborator failed.
	Degraded bool `json:"degraded"`
	// Relaxed names the hard filters dropped to fill the result.
	Relaxed []string `json:"relaxed,omitempty"`
}

// IDs returns the ordered product ids of the result.
func (r Result) IDs() []string {
	ids := make([]string, len(r.Items))
	for i, s := range r.Items {
		ids[i] = s.Product.ID
	}
	return ids
}

// Engine ranks the read-only catalog against a preference record.
// Catalog vectors are precomputed; only the query text is embedded per
// call.
type Engine struct {
	products   []catalog.Product
	collection *chromem.Collection
	embedder   embeddings.Embedder
	relaxOrder []string
}

// NewEngine indexes the catalog into an in-memory chromem collection.
// relaxOrder names the hard filters eligible for relaxation; the last
// entry (budget) is never dropped.
func NewEngine(products []catalog.Product, embedder embeddings.Embedder, relaxOrder []string) (*Engine, error) {
	db := chromem.NewDB()
	col, err := db.GetOrCreateCollection(collectionName, nil, embeddings.ToChromemFunc(embedder))
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	var docs []chromem.Document
	for _, p := range products {
		if len(p.Embedding) == 0 {
			continue
		}
		docs = append(docs, chromem.Document{
			ID:        p.ID,
			Content:   p.SearchableText(),
			Embedding: p.Embedding,
		})
	}
	if len(docs) > 0 {
		if err := col.AddDocuments(context.Background(), docs, 1); err != nil {
			return nil, fmt.Errorf("index catalog: %w", err)
		}
	}

	return &Engine{
		products:   products,
		collection: col,
		embedder:   embedder,
		relaxOrder: relaxOrder,
	}, nil
}

// Products exposes the read-only catalog.
func (e *Engine) Products() []catalog.Product { return e.products }

// Brands returns the sorted set of catalog brands.
func (e *Engine) Brands() []string {
	seen := make(map[string]bool)
	var brands []string
	for _, p := range e.products {
		if !seen[p.Brand] {
			seen[p.Brand] = true
			brands = append(brands, p.Brand)
		}
	}
	sort.Strings(brands)
	return brands
}

// Search ranks the catalog for the given preference record. Hard filters
// come from explicit slots only; inferred values never prune. When fewer
// than topK products survive, non-budget filters are relaxed one at a
// time in the configured order, rerunning the filter pass after each,
// until enough survive or only budget remains.
func (e *Engine) Search(ctx context.Context, rec prefs.Record, topK int) (Result, error) {
	if topK <= 0 {
		topK = 5
	}

	similarities, degraded := e.similarities(ctx, rec.Describe())

	filters := hardFilters(rec)
	items := e.rank(rec, similarities, filters)

	var relaxed []string
	for len(items) < topK && len(filters) > 0 {
		name, remaining := relaxOne(filters, e.relaxOrder)
		if name == "" {
			break
		}
		relaxed = append(relaxed, name)
		filters = remaining
		items = e.rank(rec, similarities, filters)
	}

	if len(items) > topK {
		items = items[:topK]
	}

	return Result{Items: items, Degraded: degraded, Relaxed: relaxed}, nil
}

// SearchText ranks the catalog against raw query text without any
// constraint filtering (the /search endpoint and MCP tool path).
func (e *Engine) SearchText(ctx context.Context, query string, topK int) (Result, error) {
	if topK <= 0 {
		topK = 5
	}
	similarities, degraded := e.similarities(ctx, query)

	items := e.rank(prefs.Record{}, similarities, nil)
	if degraded {
		// Without a vector there is nothing to rank raw text by beyond
		// keyword overlap.
		items = keywordRank(e.products, query)
	}
	if len(items) > topK {
		items = items[:topK]
	}
	return Result{Items: items, Degraded: degraded}, nil
}

// similarities embeds the query and maps product id to cosine
// similarity. A failed embedding call degrades to constraint-only
// ranking rather than failing the search.
func (e *Engine) similarities(ctx context.Context, query string) (map[string]float64, bool) {
	count := e.collection.Count()
	if count == 0 {
		return nil, true
	}

	vecs, err := e.embedder.Embed(ctx, []string{query})
	if err != nil || len(vecs) == 0 {
		return nil, true
	}

	results, err := e.collection.QueryEmbedding(ctx, vecs[0], count, nil, nil)
	if err != nil {
		return nil, true
	}

	sims := make(map[string]float64, len(results))
	for _, r := range results {
		sims[r.ID] = float64(r.Similarity)
	}
	return sims, false
}

type filter struct {
	name string
	keep func(catalog.Product) bool
}

// hardFilters derives exclusion rules from explicit preference slots
// only; inferred attributes never hard-filter, to avoid over-pruning on
// noisy inference. Brand and storage are soft boosts, never filters.
func hardFilters(rec prefs.Record) []filter {
	var fs []filter
	if rec.ContractMonths.Set && rec.ContractMonths.Confidence == prefs.ConfidenceExplicit {
		months := rec.ContractMonths.Value
		fs = append(fs, filter{name: "contract", keep: func(p catalog.Product) bool {
			return p.ContractMonths == 0 || p.ContractMonths == months
		}})
	}
	if rec.DataTier.Set && rec.DataTier.Confidence == prefs.ConfidenceExplicit {
		want := catalog.TierRank(rec.DataTier.Value)
		fs = append(fs, filter{name: "data", keep: func(p catalog.Product) bool {
			return p.AllowanceTier() >= want
		}})
	}
	if rec.BudgetMax.Set && rec.BudgetMax.Confidence == prefs.ConfidenceExplicit {
		ceiling := rec.BudgetMax.Value
		fs = append(fs, filter{name: "budget", keep: func(p catalog.Product) bool {
			return p.MonthlyCost <= ceiling
		}})
	}
	return fs
}

// relaxOne removes the first active filter in relaxOrder, leaving the
// final entry (budget) in place: it is never eligible for relaxation,
// so a recommendation can never exceed an explicit budget.
func relaxOne(filters []filter, relaxOrder []string) (string, []filter) {
	if len(relaxOrder) == 0 {
		return "", filters
	}
	for _, name := range relaxOrder[:len(relaxOrder)-1] {
		for i, f := range filters {
			if f.name == name {
				remaining := make([]filter, 0, len(filters)-1)
				remaining = append(remaining, filters[:i]...)
				remaining = append(remaining, filters[i+1:]...)
				return name, remaining
			}
		}
	}
	return "", filters
}

// rank filters and orders candidates: similarity plus soft boosts,
// descending; ties broken by ascending monthly cost, then catalog
// insertion order.
func (e *Engine) rank(rec prefs.Record, similarities map[string]float64, filters []filter) []Scored {
	var items []Scored
candidates:
	for _, p := range e.products {
		for _, f := range filters {
			if !f.keep(p) {
				continue candidates
			}
		}
		items = append(items, Scored{Product: p, Score: similarities[p.ID] + boost(rec, p)})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		if items[i].Product.MonthlyCost != items[j].Product.MonthlyCost {
			return items[i].Product.MonthlyCost < items[j].Product.MonthlyCost
		}
		return items[i].Product.Index < items[j].Product.Index
	})
	return items
}

// boost applies the soft preferences: brand affinity and storage wishes
// reorder, they never exclude.
func boost(rec prefs.Record, p catalog.Product) float64 {
	var b float64
	if rec.Brand.Set && strings.EqualFold(rec.Brand.Value, p.Brand) {
		b += 0.05
	}
	if rec.Storage.Set && strings.EqualFold(rec.Storage.Value, p.Storage) {
		b += 0.02
	}
	return b
}

// keywordRank is the last-ditch ordering for raw text queries when no
// vector is available.
func keywordRank(products []catalog.Product, query string) []Scored {
	terms := strings.Fields(strings.ToLower(query))
	var items []Scored
	for _, p := range products {
		text := strings.ToLower(p.SearchableText())
		var score float64
		for _, t := range terms {
			if strings.Contains(text, t) {
				score++
			}
		}
		if score > 0 {
			items = append(items, Scored{Product: p, Score: score})
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		if items[i].Product.MonthlyCost != items[j].Product.MonthlyCost {
			return items[i].Product.MonthlyCost < items[j].Product.MonthlyCost
		}
		return items[i].Product.Index < items[j].Product.Index
	})
	return items
}
