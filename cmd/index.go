package cmd

import (
	"context"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/tobilabs/salesbot/internal/catalog"
)

// embedBatchSize keeps requests well under provider payload limits.
const embedBatchSize = 32

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Embed the product catalog for semantic search",
	Long:  `Embeds every catalog product and writes the vectors to the embeddings sidecar file. Run it once after changing the catalog or the embedding model.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		embedder, err := buildEmbedder(cfg)
		if err != nil {
			return err
		}

		products, err := catalog.Load(cfg.CatalogPath)
		if err != nil {
			return fmt.Errorf("loading catalog: %w", err)
		}
		if len(products) == 0 {
			return fmt.Errorf("catalog %s is empty", cfg.CatalogPath)
		}

		bar := progressbar.NewOptions(len(products),
			progressbar.OptionSetDescription(fmt.Sprintf("Embedding with %s", embedder.Name())),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)

		ctx := context.Background()
		vectors := make([][]float32, 0, len(products))
		for start := 0; start < len(products); start += embedBatchSize {
			end := start + embedBatchSize
			if end > len(products) {
				end = len(products)
			}

			texts := make([]string, 0, end-start)
			for _, p := range products[start:end] {
				texts = append(texts, p.SearchableText())
			}

			batch, err := embedder.Embed(ctx, texts)
			if err != nil {
				return fmt.Errorf("embedding products %d-%d: %w", start+1, end, err)
			}
			vectors = append(vectors, batch...)
			_ = bar.Set(end)
		}
		_ = bar.Finish()

		if err := catalog.SaveEmbeddings(cfg.EmbeddingsPath, vectors); err != nil {
			return fmt.Errorf("saving embeddings: %w", err)
		}

		fmt.Printf("Indexed %d products (%d dimensions) into %s\n", len(vectors), embedder.Dimensions(), cfg.EmbeddingsPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}
