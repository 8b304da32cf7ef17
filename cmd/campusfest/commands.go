package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pwannenmacher/campus-fest/internal/config"
	"github.com/pwannenmacher/campus-fest/internal/logger"
)

// NewRootCmd creates the campusfest command tree
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "campusfest",
		Short:         "CampusFest competition server",
		Long:          `CampusFest runs a multi-college fest: programs, registrations, judging and leaderboards.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newRecomputeCmd())
	rootCmd.AddCommand(newSeedAdminCmd())
	rootCmd.AddCommand(newKeygenCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// loadConfig reads the environment and installs the process logger
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	level := cfg.Log.Level
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		level = "debug"
	}
	logger.Setup(logger.Config{Level: level, Format: cfg.Log.Format})

	return cfg, nil
}

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "campusfest "+version)
		},
	}
}
