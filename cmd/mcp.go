package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/tobilabs/salesbot/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing catalog search tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		embedder, err := buildEmbedder(cfg)
		if err != nil {
			return err
		}
		searcher, err := buildSearcher(cfg, embedder)
		if err != nil {
			return err
		}

		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "salesbot MCP server started on stdio (%d products)\n", len(searcher.Products()))

		return mcpserver.NewServer(searcher).Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
