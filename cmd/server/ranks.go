package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/sadhana-path/backend/internal/database"
	"github.com/spf13/cobra"
)

var refreshRanksCmd = &cobra.Command{
	Use:   "refresh-ranks",
	Short: "Recompute every user's score and leaderboard rank once",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		db, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()

		a, err := newApp(cfg, db, logger)
		if err != nil {
			return err
		}
		if _, err := a.practice.LapseStreaks(ctx); err != nil {
			return err
		}
		return a.progress.RefreshRanks(ctx)
	},
}

func init() {
	rootCmd.AddCommand(refreshRanksCmd)
}
