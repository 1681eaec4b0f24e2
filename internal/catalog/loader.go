package catalog

import (
	"encoding/json"
	"fmt"
	"os"
)

// Load reads the product catalog from a JSON file. Insertion order is
// preserved and recorded on each product; brands missing from the file
// are inferred from the product name.
func Load(path string) ([]Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}

	var products []Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
	}

	for i := range products {
		products[i].Index = i
		if products[i].ID == "" {
			products[i].ID = fmt.Sprintf("product-%d", i)
		}
		if products[i].Brand == "" {
			products[i].Brand = inferBrand(products[i].Name)
		}
	}

	return products, nil
}

// LoadWithEmbeddings reads the catalog and attaches precomputed vectors
// from the sidecar file, aligned by index. A count mismatch means the
// sidecar is stale and the load fails.
func LoadWithEmbeddings(catalogPath, embeddingsPath string) ([]Product, error) {
	products, err := Load(catalogPath)
	if err != nil {
		return nil, err
	}

	vectors, err := LoadEmbeddings(embeddingsPath)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(products) {
		return nil, fmt.Errorf("embedding sidecar %s has %d vectors for %d products; rerun the index command",
			embeddingsPath, len(vectors), len(products))
	}

	for i := range products {
		products[i].Embedding = vectors[i]
	}
	return products, nil
}

// LoadEmbeddings reads the embedding sidecar: a JSON array of vectors
// in catalog order.
func LoadEmbeddings(path string) ([][]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading embeddings %s: %w", path, err)
	}
	var vectors [][]float32
	if err := json.Unmarshal(data, &vectors); err != nil {
		return nil, fmt.Errorf("parsing embeddings %s: %w", path, err)
	}
	return vectors, nil
}

// SaveEmbeddings writes the embedding sidecar next to the catalog.
func SaveEmbeddings(path string, vectors [][]float32) error {
	data, err := json.Marshal(vectors)
	if err != nil {
		return fmt.Errorf("marshalling embeddings: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing embeddings to %s: %w", path, err)
	}
	return nil
}
