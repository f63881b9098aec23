/*
main.go - cricketd entry point

PURPOSE:
  Initializes and runs the cricket scoring engine. Two subcommands:

  serve    Run the HTTP API with SQLite persistence and SSE broadcast.
  replay   Fold a stored match's ledger from scratch and print the
           projected snapshot as JSON. The same fold the server runs on
           every correction, exposed for offline verification.

CONFIGURATION (serve):
  PORT             HTTP server port (default: 8080)
  DB_PATH          SQLite database path (default: cricket.db)
                   Use ":memory:" for an ephemeral database
  ALLOWED_ORIGINS  CORS origins, comma separated

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run the API against a file database
  DB_PATH=./data/cricket.db cricketd serve

  # Run with an in-memory database
  DB_PATH=":memory:" cricketd serve

  # Replay a stored match
  DB_PATH=./data/cricket.db cricketd replay t20-2026-001

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Environment parsing
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/warp/cricket-engine/api"
	"github.com/warp/cricket-engine/broadcast"
	"github.com/warp/cricket-engine/config"
	"github.com/warp/cricket-engine/match"
	"github.com/warp/cricket-engine/scoring"
	"github.com/warp/cricket-engine/store/sqlite"
)

func main() {
	root := &cobra.Command{
		Use:           "cricketd",
		Short:         "Append-only cricket scoring engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), replayCmd())

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

// =============================================================================
// SERVE
// =============================================================================

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP scoring API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}

			store, err := sqlite.New(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("initialize database: %w", err)
			}
			defer store.Close()

			hub := broadcast.New()
			manager := match.NewManager(store, hub)
			handler := api.NewHandler(manager, hub)
			router := api.NewRouter(handler, cfg.AllowedOrigins)

			server := &http.Server{
				Addr:        fmt.Sprintf(":%d", cfg.Port),
				Handler:     router,
				ReadTimeout: 15 * time.Second,
				// No WriteTimeout: the SSE stream endpoint holds its
				// response open for the life of the subscription.
				IdleTimeout: 60 * time.Second,
			}

			go func() {
				log.Printf("cricketd listening on http://localhost:%d", cfg.Port)
				log.Printf("API available at http://localhost:%d/api", cfg.Port)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatalf("Server failed: %v", err)
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit

			log.Println("Shutting down server...")

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("server forced to shutdown: %w", err)
			}

			log.Println("Server stopped")
			return nil
		},
	}
}

// =============================================================================
// REPLAY
// =============================================================================

func replayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay <match-id>",
		Short: "Fold a stored match from its ledger and print the snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}

			store, err := sqlite.New(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer store.Close()

			rec, err := store.LoadMatch(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			state, ledger, err := scoring.Fold(rec.Config, rec.Ledger)
			if err != nil {
				return fmt.Errorf("replay %s: %w", args[0], err)
			}
			snap := scoring.Project(rec.Config, state, ledger)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(snap)
		},
	}
}
