package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ekisa-team/paravox/internal/config"
	"github.com/ekisa-team/paravox/internal/env"
	"github.com/ekisa-team/paravox/internal/logger"
)

var (
	flagConfigPath string
	flagSchemaPath string
	flagLogToFile  bool
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "paravox",
		Short:         "Read articles aloud, one paragraph at a time",
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts := []logger.Option{logger.WithLogToFile(flagLogToFile)}
			if flagLogToFile {
				opts = append(opts, logger.WithLogFile("logs/paravox.log"))
			}
			slog.SetDefault(logger.New(env.FromEnv(), opts...))
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", filepath.Join(config.DefaultConfigPath(), "config.yaml"), "path to config file")
	cmd.PersistentFlags().StringVar(&flagSchemaPath, "schema", "", "path to schema file (defaults to the bundled schema)")
	cmd.PersistentFlags().BoolVar(&flagLogToFile, "log-to-file", false, "also write logs to logs/paravox.log")

	cmd.AddCommand(serveCmd())
	cmd.AddCommand(synthesizeCmd())
	cmd.AddCommand(segmentCmd())

	return cmd
}
