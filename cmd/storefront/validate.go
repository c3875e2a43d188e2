package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/storefront/internal/config"
	"github.com/aretw0/storefront/internal/phrases"
	"github.com/aretw0/storefront/internal/runtime"
	"github.com/aretw0/storefront/internal/validator"
	"github.com/aretw0/storefront/pkg/domain"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check configuration, phrases and the conversation graph",
	Long: `Loads the configuration and the phrases file, then crawls the conversation graph from 'start'
and reports unreachable states or states that can never finish.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		if _, err := phrases.Load(cfg.App.PhrasesFile); err != nil {
			return fmt.Errorf("invalid phrases: %w", err)
		}
		if err := validator.ValidateGraph(runtime.Edges(), runtime.States, domain.StateStart, domain.StateEnd); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Configuration and conversation graph are valid.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
