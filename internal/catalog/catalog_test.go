package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleCatalog = `[
  {"name": "iPhone 16", "monthly_cost": 45, "storage": "128GB", "data_allowance": "unlimited", "contract_months": 24, "features": ["5G", "camera"], "url": "https://example.com/iphone-16"},
  {"id": "pixel-9", "name": "Google Pixel 9", "brand": "Google", "monthly_cost": 32, "storage": "256GB", "data_allowance": "50GB", "contract_months": 12, "url": "https://example.com/pixel-9"}
]`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "products.json")
	if err := os.WriteFile(path, []byte(sampleCatalog), 0644); err != nil {
		t.Fatalf("writing sample catalog: %v", err)
	}
	return path
}

func TestLoadAssignsIndexAndInfersBrand(t *testing.T) {
	products, err := Load(writeSample(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}

	if products[0].Index != 0 || products[1].Index != 1 {
		t.Errorf("insertion order not preserved: %d, %d", products[0].Index, products[1].Index)
	}
	if products[0].Brand != "Apple" {
		t.Errorf("expected inferred brand Apple, got %q", products[0].Brand)
	}
	if products[0].ID != "product-0" {
		t.Errorf("expected generated id, got %q", products[0].ID)
	}
	if products[1].ID != "pixel-9" {
		t.Errorf("expected id from file, got %q", products[1].ID)
	}
}

func TestLoadWithEmbeddingsRejectsStaleSidecar(t *testing.T) {
	catalogPath := writeSample(t)
	sidecar := filepath.Join(filepath.Dir(catalogPath), "embeddings.json")
	if err := SaveEmbeddings(sidecar, [][]float32{{0.1, 0.2}}); err != nil {
		t.Fatalf("SaveEmbeddings: %v", err)
	}

	if _, err := LoadWithEmbeddings(catalogPath, sidecar); err == nil {
		t.Error("expected error for vector/product count mismatch")
	}
}

func TestLoadWithEmbeddingsAttachesVectors(t *testing.T) {
	catalogPath := writeSample(t)
	sidecar := filepath.Join(filepath.Dir(catalogPath), "embeddings.json")
	vectors := [][]float32{{0.1, 0.2}, {0.3, 0.4}}
	if err := SaveEmbeddings(sidecar, vectors); err != nil {
		t.Fatalf("SaveEmbeddings: %v", err)
	}

	products, err := LoadWithEmbeddings(catalogPath, sidecar)
	if err != nil {
		t.Fatalf("LoadWithEmbeddings: %v", err)
	}
	if len(products[1].Embedding) != 2 || products[1].Embedding[0] != 0.3 {
		t.Errorf("vector not attached: %v", products[1].Embedding)
	}
}

func TestTierRank(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"unlimited", 4},
		{"Unlimited data", 4},
		{"heavy", 3},
		{"150GB", 3},
		{"50GB", 2},
		{"5GB", 1},
		{"light", 1},
		{"", 0},
		{"call us", 0},
	}
	for _, tc := range cases {
		if got := TierRank(tc.in); got != tc.want {
			t.Errorf("TierRank(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
