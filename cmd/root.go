package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"trackdesk/config"
	"trackdesk/logger"
	"trackdesk/server"
)

var rootCmd = &cobra.Command{
	Use:   "trackdesk",
	Short: "trackdesk is the editor backend for artist track submissions.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogger(config.Load())
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		defer logger.Sync()
		return server.Start(cfg)
	},
}

func initLogger(cfg *config.Config) {
	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogFile,
		MaxSize:    cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAgeDays,
		Compress:   true,
		Production: cfg.Env == "production",
	})
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
