package embeddings

import "context"

// Embedder turns text into vectors. Catalog vectors are produced once by
// the index command; at serve time only query texts pass through here.
type Embedder interface {
	// Embed generates embeddings for one or more texts.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the vector width of the model.
	Dimensions() int

	// Name returns the model identifier.
	Name() string
}
