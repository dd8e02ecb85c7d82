// Command gridiron-draft-assistant runs a snake-draft service for fantasy
// football leagues and recommends picks for the team on the clock.
//
// Usage:
//
//	gridiron-draft-assistant serve
//	gridiron-draft-assistant recommend --addr localhost:50051 --top 5
//	gridiron-draft-assistant validate-league --file league.toml
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/config"
	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/draft"
	grpcserver "github.com/Billy-Davies-2/gridiron-draft-assistant/internal/grpc"
	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/logger"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:           "gridiron-draft-assistant",
		Short:         "Fantasy football snake draft service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Init()
		},
	}

	root.AddCommand(serveCmd())
	root.AddCommand(recommendCmd())
	root.AddCommand(validateLeagueCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		logger.Error("Command failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP, gRPC and MCP servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func recommendCmd() *cobra.Command {
	var (
		addr   string
		teamID int
		topN   int
	)
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Ask a running server for pick recommendations",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
			if err != nil {
				return fmt.Errorf("connect to %s: %w", addr, err)
			}
			defer conn.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			recs, err := grpcserver.NewClient(conn).Recommend(ctx, teamID, topN)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(recs.AsMap(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "localhost:50051", "gRPC server address")
	cmd.Flags().IntVar(&teamID, "team", 0, "Team id (0 = team on the clock)")
	cmd.Flags().IntVar(&topN, "top", grpcserver.DefaultTopN, "Number of players to return")
	return cmd
}

func validateLeagueCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "validate-league",
		Short: "Check a TOML league file and print the effective settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.LoadLeagueSettings(file)
			if err != nil {
				return err
			}
			if err := draft.ValidateSettings(settings); err != nil {
				return err
			}
			out, err := config.EncodeLeagueSettings(settings)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "League TOML file (empty = default league)")
	return cmd
}
