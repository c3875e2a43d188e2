package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/storefront/internal/cli"
	"github.com/aretw0/storefront/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "storefront",
	Short: "Storefront is a conversational shop bot",
	Long: `Storefront runs a chat bot that shows a catalog, builds a cart and collects an email.
The same conversation engine is reachable over Telegram, HTTP, MCP and a local console.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		envFile, _ := cmd.Flags().GetString("env")
		config.SetEnvFile(envFile)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("env", "", "Path to a .env file (default ./.env when present)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// addEngineFlags registers the flags shared by every command that builds an engine.
func addEngineFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("demo", false, "Serve the built-in sample shop instead of Moltin")
	cmd.Flags().String("store", "", "Session store backend override (memory, file, redis, postgres, dynamodb)")
}

// buildApp loads configuration and assembles the engine for cmd.
func buildApp(ctx context.Context, cmd *cobra.Command) (*cli.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	debug, _ := cmd.Flags().GetBool("debug")
	demo, _ := cmd.Flags().GetBool("demo")
	store, _ := cmd.Flags().GetString("store")

	logger := cli.NewLogger(cfg.App, debug)
	return cli.Build(ctx, cfg, logger, cli.BuildOptions{Demo: demo, Debug: debug, Store: store})
}
