package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kestrel-labs/ragscore/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "ragscore",
	Short: "Answer-quality evaluation pipeline",
	Long:  "Samples question/answer interactions from the chat service, scores them with a judge model, and keeps a capped durable log for inspection and alerting.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
