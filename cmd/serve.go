package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tobilabs/salesbot/internal/engine"
	"github.com/tobilabs/salesbot/internal/server"
	"github.com/tobilabs/salesbot/internal/session"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP chat server",
	Long:  `Starts the HTTP server exposing the chat API, product search and session inspection endpoints, plus a WebSocket chat channel.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if servePort != 0 {
			cfg.Server.Port = servePort
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
		store, err := session.New(cfg.Session)
		if err != nil {
			return fmt.Errorf("creating session store: %w", err)
		}
		defer store.Close()

		eng := engine.New(cfg, store, provider, searcher, sequencer)
		srv := server.New(cfg, eng, searcher, sequencer, store)

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case sig := <-sigCh:
			fmt.Fprintf(os.Stderr, "received %s, shutting down\n", sig)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		}
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "override the configured HTTP port")
	rootCmd.AddCommand(serveCmd)
}
