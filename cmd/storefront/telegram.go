package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/aretw0/storefront/internal/cli"
	"github.com/aretw0/storefront/pkg/adapters/telegram"
)

var telegramCmd = &cobra.Command{
	Use:   "telegram",
	Short: "Run the Telegram bot (long polling)",
	RunE: func(cmd *cobra.Command, args []string) error {
		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		app, err := buildApp(sigCtx, cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		token, err := botToken(sigCtx, app)
		if err != nil {
			return err
		}

		bot, err := telegram.New(app.Engine, telegram.Settings(token), telegram.WithLogger(app.Logger))
		if err != nil {
			return fmt.Errorf("failed to start bot: %w", err)
		}

		if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{}))
			go func() {
				if err := listenAndServe(sigCtx, app, addr, mux); err != nil {
					app.Logger.Error("metrics server stopped", "err", err)
				}
			}()
		}

		app.Logger.Info("telegram bot polling", "bot", bot.Telebot().Me.Username)
		return bot.Run(sigCtx)
	},
}

func botToken(ctx context.Context, app *cli.App) (string, error) {
	cfg := app.Config.Telegram
	switch {
	case cfg.Token != "":
		return cfg.Token, nil
	case cfg.TokenParameter != "":
		return app.Secret(ctx, cfg.TokenParameter)
	default:
		return "", errors.New("STOREFRONT_TELEGRAM_TOKEN or STOREFRONT_TELEGRAM_TOKEN_PARAMETER is required")
	}
}

func init() {
	rootCmd.AddCommand(telegramCmd)
	addEngineFlags(telegramCmd)
	telegramCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address")
}
