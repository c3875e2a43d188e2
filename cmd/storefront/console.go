package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/aretw0/storefront/internal/cli"
	"github.com/aretw0/storefront/pkg/runner"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Chat with the bot in the terminal",
	Long: `Starts an interactive conversation on stdin/stdout.
Buttons are numbered: type the number to tap one, "#token" to send a raw callback,
"/start" or "/cancel" for commands and "/quit" to leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		app, err := buildApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		opts := cli.ConsoleOptions{}
		opts.UserID, _ = cmd.Flags().GetString("user")
		opts.JSON, _ = cmd.Flags().GetBool("json")
		opts.Plain, _ = cmd.Flags().GetBool("plain")
		opts.Fresh, _ = cmd.Flags().GetBool("fresh")
		opts.In = cmd.InOrStdin()
		opts.Out = cmd.OutOrStdout()

		return cli.RunConsole(ctx, app, opts)
	},
}

func init() {
	rootCmd.AddCommand(consoleCmd)
	addEngineFlags(consoleCmd)
	consoleCmd.Flags().String("user", runner.DefaultUserID, "Conversation identity of the console user")
	consoleCmd.Flags().Bool("json", false, "Read JSON events and write JSON replies, one per line")
	consoleCmd.Flags().Bool("plain", false, "Disable the banner and markdown rendering")
	consoleCmd.Flags().Bool("fresh", false, "Forget the user's stored session before starting")
}
