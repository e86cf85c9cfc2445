// Command server runs the Sadhana practice tracker API and its maintenance
// tasks.
package main

import (
	"fmt"
	"os"

	"github.com/sadhana-path/backend/internal/config"
	"github.com/sadhana-path/backend/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "sadhana",
	Short: "Sadhana practice tracker backend",
	Long: `Sadhana tracks japa, meditation and journaling practice, keeps
streaks and turns them into a lotus-stage level, quests and a leaderboard.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML config file (default $SADHANA_CONFIG)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setup loads configuration and builds the logger every subcommand uses.
func setup() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, nil, err
	}
	logger, err := logging.New(cfg.Logging.Level, cfg.Server.Dev)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, logger, nil
}
