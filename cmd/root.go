package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "salesbot",
	Short: "Conversational phone sales assistant",
	Long: `Salesbot runs an LLM-driven sales conversation over a phone catalog:
it gathers customer preferences turn by turn, recommends plans with
semantic search over the catalog, and walks accepted customers through
add-on offers. It serves HTTP and WebSocket chat, a terminal REPL, and
an MCP interface for AI agents.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(func() {
		// .env is optional; real environment variables win over it.
		_ = godotenv.Load()
	})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "salesbot.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
