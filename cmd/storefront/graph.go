package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/storefront/internal/presentation/graph"
	"github.com/aretw0/storefront/internal/runtime"
	"github.com/aretw0/storefront/pkg/domain"
	"github.com/aretw0/storefront/pkg/ports"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the conversation graph",
	Long: `Outputs a Mermaid diagram (graph TD) of the conversation states and the intents moving between them.
With --user the state stored for that user is highlighted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var overlay *graph.Overlay
		if userID, _ := cmd.Flags().GetString("user"); userID != "" {
			var current domain.State
			err := withStore(cmd, func(ctx context.Context, store ports.StateStore) error {
				s, err := store.Load(ctx, userID)
				if errors.Is(err, domain.ErrSessionNotFound) {
					current = domain.StateStart
					return nil
				}
				if err != nil {
					return err
				}
				current = s.State
				return nil
			})
			if err != nil {
				return err
			}
			overlay = &graph.Overlay{Current: current}
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(runtime.Edges(), overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("user", "", "Highlight the stored state of this user")
	graphCmd.Flags().String("store", "", "Session store backend override")
}
