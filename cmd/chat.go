package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/tobilabs/salesbot/internal/engine"
	"github.com/tobilabs/salesbot/internal/session"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the sales assistant in the terminal",
	Long:  `Starts an interactive terminal conversation against the local catalog. Sessions live in memory and end with the process.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		provider, err := buildProvider(cfg)
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
		sequencer, err := buildSequencer(cfg)
		if err != nil {
			return err
		}

		store := session.NewMemoryStore()
		eng := engine.New(cfg, store, provider, searcher, sequencer)
		sessionID := uuid.NewString()

		fmt.Println("Chat with the sales assistant. Type 'exit' to leave.")

		prompt := promptui.Prompt{Label: "you"}
		for {
			input, err := prompt.Run()
			if err != nil {
				// Ctrl-C or Ctrl-D ends the conversation.
				if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
					fmt.Println("bye")
					return nil
				}
				return err
			}
			if input == "exit" || input == "quit" {
				fmt.Println("bye")
				return nil
			}

			result, err := eng.HandleTurn(context.Background(), sessionID, input)
			if err != nil {
				fmt.Printf("error: %v\n", err)
				continue
			}

			fmt.Printf("\nassistant: %s\n", result.Reply)
			for _, p := range result.Products {
				fmt.Printf("  - %s (%s) £%.2f/month\n", p.Name, p.Brand, p.MonthlyCost)
			}
			if result.Offer != nil {
				fmt.Printf("  offer: %s at %s\n", result.Offer.Name, result.Offer.Price)
			}
			if verbose {
				fmt.Printf("  [state: %s]\n", result.State)
			}
			fmt.Println()

			if result.State == session.StateClosed {
				return nil
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
