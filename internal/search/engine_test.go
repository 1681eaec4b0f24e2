package search

import (
	"context"
	"errors"
	"testing"

	"github.com/tobilabs/salesbot/internal/catalog"
	"github.com/tobilabs/salesbot/internal/prefs"
)

type mockEmbedder struct {
	vec []float32
	err error
}

func (m *mockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = m.vec
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int { return len(m.vec) }
func (m *mockEmbedder) Name() string    { return "mock" }

var defaultRelaxOrder = []string{"contract", "data", "budget"}

func fixtureProducts() []catalog.Product {
	return []catalog.Product{
		{ID: "a", Name: "Budget Phone A", Brand: "Samsung", MonthlyCost: 20, DataAllowance: "5GB", ContractMonths: 24, Embedding: []float32{1, 0, 0}, Index: 0},
		{ID: "b", Name: "Budget Phone B", Brand: "Google", MonthlyCost: 20, DataAllowance: "25GB", ContractMonths: 24, Embedding: []float32{1, 0, 0}, Index: 1},
		{ID: "c", Name: "Cheap Phone C", Brand: "Samsung", MonthlyCost: 15, DataAllowance: "5GB", ContractMonths: 12, Embedding: []float32{1, 0, 0}, Index: 2},
		{ID: "d", Name: "Flagship D", Brand: "Apple", MonthlyCost: 60, DataAllowance: "unlimited", ContractMonths: 24, Embedding: []float32{0, 1, 0}, Index: 3},
	}
}

func newTestEngine(t *testing.T, products []catalog.Product, emb *mockEmbedder) *Engine {
	t.Helper()
	eng, err := NewEngine(products, emb, defaultRelaxOrder)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return eng
}

func explicitBudget(v float64) prefs.Record {
	return prefs.Record{BudgetMax: prefs.FloatAttr{Value: v, Confidence: prefs.ConfidenceExplicit, Set: true}}
}

func TestTieBreakCostThenInsertionOrder(t *testing.T) {
	eng := newTestEngine(t, fixtureProducts(), &mockEmbedder{vec: []float32{1, 0, 0}})

	res, err := eng.Search(context.Background(), prefs.Record{}, 4)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	// a, b, c all tie on similarity; c is cheapest, then a before b by
	// insertion order.
	got := res.IDs()
	want := []string{"c", "a", "b", "d"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ranking = %v, want %v", got, want)
		}
	}
}

func TestTieBreakStableUnderInputReordering(t *testing.T) {
	products := fixtureProducts()
	// Swap a and b in the catalog; insertion order indexes follow the
	// new positions.
	products[0], products[1] = products[1], products[0]
	products[0].Index = 0
	products[1].Index = 1

	eng := newTestEngine(t, products, &mockEmbedder{vec: []float32{1, 0, 0}})
	res, err := eng.Search(context.Background(), prefs.Record{}, 4)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	got := res.IDs()
	want := []string{"c", "b", "a", "d"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ranking = %v, want %v (tie-break must follow insertion order)", got, want)
		}
	}
}

func TestExplicitBudgetIsHardFilter(t *testing.T) {
	eng := newTestEngine(t, fixtureProducts(), &mockEmbedder{vec: []float32{1, 0, 0}})

	res, err := eng.Search(context.Background(), explicitBudget(25), 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for _, s := range res.Items {
		if s.Product.MonthlyCost > 25 {
			t.Errorf("product %q over budget survived the hard filter", s.Product.ID)
		}
	}
	if len(res.Items) != 3 {
		t.Errorf("expected 3 products under budget, got %d", len(res.Items))
	}
}

func TestInferredBudgetNeverFilters(t *testing.T) {
	eng := newTestEngine(t, fixtureProducts(), &mockEmbedder{vec: []float32{1, 0, 0}})

	rec := prefs.Record{BudgetMax: prefs.FloatAttr{Value: 25, Confidence: prefs.ConfidenceInferred, Set: true}}
	res, err := eng.Search(context.Background(), rec, 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Items) != 4 {
		t.Errorf("inferred budget must not prune: got %d products", len(res.Items))
	}
}

func TestBrandIsSoftBoostNotFilter(t *testing.T) {
	eng := newTestEngine(t, fixtureProducts(), &mockEmbedder{vec: []float32{1, 0, 0}})

	rec := prefs.Record{Brand: prefs.StringAttr{Value: "samsung", Confidence: prefs.ConfidenceExplicit, Set: true}}
	res, err := eng.Search(context.Background(), rec, 4)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Items) != 4 {
		t.Fatalf("brand preference must not exclude, got %d products", len(res.Items))
	}
	if res.Items[0].Product.Brand != "Samsung" {
		t.Errorf("expected a Samsung product boosted to the top, got %q", res.Items[0].Product.ID)
	}
}

func TestRelaxationDropsDataBeforeBudget(t *testing.T) {
	eng := newTestEngine(t, fixtureProducts(), &mockEmbedder{vec: []float32{1, 0, 0}})

	rec := explicitBudget(25)
	rec.DataTier = prefs.StringAttr{Value: "unlimited", Confidence: prefs.ConfidenceExplicit, Set: true}

	// Nothing is both under £25 and unlimited; the data filter relaxes,
	// budget holds.
	res, err := eng.Search(context.Background(), rec, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Relaxed) != 1 || res.Relaxed[0] != "data" {
		t.Fatalf("expected data filter relaxed, got %v", res.Relaxed)
	}
	if len(res.Items) != 3 {
		t.Fatalf("expected 3 products after relaxation, got %d", len(res.Items))
	}
	for _, s := range res.Items {
		if s.Product.MonthlyCost > 25 {
			t.Errorf("budget must hold through relaxation, got %q", s.Product.ID)
		}
	}
}

func TestRelaxationContinuesUntilEnoughSurvive(t *testing.T) {
	eng := newTestEngine(t, fixtureProducts(), &mockEmbedder{vec: []float32{1, 0, 0}})

	rec := explicitBudget(25)
	rec.ContractMonths = prefs.IntAttr{Value: 6, Confidence: prefs.ConfidenceExplicit, Set: true}
	rec.DataTier = prefs.StringAttr{Value: "unlimited", Confidence: prefs.ConfidenceExplicit, Set: true}

	// Dropping contract alone still leaves nothing under £25 with
	// unlimited data; the data filter must relax next, budget holds.
	res, err := eng.Search(context.Background(), rec, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	want := []string{"contract", "data"}
	if len(res.Relaxed) != len(want) || res.Relaxed[0] != want[0] || res.Relaxed[1] != want[1] {
		t.Fatalf("expected relaxed %v, got %v", want, res.Relaxed)
	}
	if len(res.Items) != 3 {
		t.Fatalf("expected 3 products after relaxation, got %d", len(res.Items))
	}
	for _, s := range res.Items {
		if s.Product.MonthlyCost > 25 {
			t.Errorf("budget must hold through relaxation, got %q", s.Product.ID)
		}
	}
}

func TestImpossibleBudgetReturnsEmptyResultNotError(t *testing.T) {
	eng := newTestEngine(t, fixtureProducts(), &mockEmbedder{vec: []float32{1, 0, 0}})

	res, err := eng.Search(context.Background(), explicitBudget(5), 5)
	if err != nil {
		t.Fatalf("empty result must not be an error: %v", err)
	}
	if len(res.Items) != 0 {
		t.Errorf("expected empty result, got %d products", len(res.Items))
	}
	if len(res.Relaxed) != 0 {
		t.Errorf("budget must never relax, got %v", res.Relaxed)
	}
}

func TestEmbeddingFailureDegradesToConstraintOnly(t *testing.T) {
	eng := newTestEngine(t, fixtureProducts(), &mockEmbedder{vec: []float32{1, 0, 0}, err: errors.New("embedding service down")})

	res, err := eng.Search(context.Background(), explicitBudget(25), 5)
	if err != nil {
		t.Fatalf("embedding failure must not fail the search: %v", err)
	}
	if !res.Degraded {
		t.Error("expected degraded result")
	}
	if len(res.Items) != 3 {
		t.Errorf("constraint filtering should still apply, got %d products", len(res.Items))
	}
}

func TestSearchTextKeywordFallback(t *testing.T) {
	eng := newTestEngine(t, fixtureProducts(), &mockEmbedder{vec: []float32{1, 0, 0}, err: errors.New("down")})

	res, err := eng.SearchText(context.Background(), "flagship", 5)
	if err != nil {
		t.Fatalf("SearchText: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].Product.ID != "d" {
		t.Errorf("keyword fallback should match flagship, got %v", res.IDs())
	}
}

func TestTopKLimitsResult(t *testing.T) {
	eng := newTestEngine(t, fixtureProducts(), &mockEmbedder{vec: []float32{1, 0, 0}})

	res, err := eng.Search(context.Background(), prefs.Record{}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Items) != 2 {
		t.Errorf("expected topK=2 products, got %d", len(res.Items))
	}
}
