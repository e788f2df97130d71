package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/linkforge/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "linkforge",
	Short: "Link-building content pipeline",
	Long:  "Assembles job specifications from publisher, target, and anchor inputs, generates articles via Claude, validates them against intent and compliance rules, and delivers or aborts with a full audit trail.",
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
