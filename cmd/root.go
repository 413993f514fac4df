// Package cmd implements the tetherlink CLI.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/tetherlink/internal/config"
)

var (
	flagConfig  string
	flagVerbose bool
)

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tetherlink",
		Short: "Pair this device with a phone or PC for photo capture",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if flagVerbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file path (default ~/.tetherlink/config.yaml)")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(sessionCmd())
	cmd.AddCommand(deviceCmd())
	cmd.AddCommand(pairingCmd())
	cmd.AddCommand(photosCmd())
	cmd.AddCommand(findPhoneCmd())
	cmd.AddCommand(authCmd())
	cmd.AddCommand(configCmd())

	return cmd
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// resolveConfigPath honors --config, then $TETHERLINK_CONFIG, then the
// conventional location.
func resolveConfigPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	if p := os.Getenv("TETHERLINK_CONFIG"); p != "" {
		return p
	}
	return config.DefaultPath()
}
