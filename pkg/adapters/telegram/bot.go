// Package telegram connects the storefront engine to a Telegram bot.
package telegram

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/storefront/internal/logging"
	"github.com/aretw0/storefront/pkg/domain"
	"github.com/aretw0/storefront/pkg/ports"
	"github.com/aretw0/storefront/pkg/runner"
	tele "gopkg.in/telebot.v4"
)

// DefaultPollTimeout is the long-polling timeout.
const DefaultPollTimeout = 10 * time.Second

// Bot maps Telegram updates to engine events and engine replies to messages.
type Bot struct {
	bot    *tele.Bot
	engine ports.EventHandler
	logger *slog.Logger
	ctx    context.Context
}

type Option func(*Bot)

func WithLogger(logger *slog.Logger) Option {
	return func(b *Bot) {
		b.logger = logger
	}
}

// Settings returns long-polling settings for token.
func Settings(token string) tele.Settings {
	return tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: DefaultPollTimeout},
	}
}

// New creates the bot and registers its handlers.
func New(engine ports.EventHandler, settings tele.Settings, opts ...Option) (*Bot, error) {
	if engine == nil {
		return nil, errors.New("telegram: engine must not be nil")
	}
	b := &Bot{engine: engine, ctx: context.Background()}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = logging.NewNop()
	}
	if settings.OnError == nil {
		settings.OnError = func(err error, c tele.Context) {
			attrs := []any{"err", err}
			if c != nil && c.Chat() != nil {
				attrs = append(attrs, "user_id", chatID(c))
			}
			b.logger.Error("telegram handler failed", attrs...)
		}
	}

	tb, err := tele.NewBot(settings)
	if err != nil {
		return nil, err
	}
	b.bot = tb

	tb.Handle("/"+domain.CommandStart, b.onMessage)
	tb.Handle("/"+domain.CommandCancel, b.onMessage)
	tb.Handle(tele.OnText, b.onMessage)
	tb.Handle(tele.OnCallback, b.onCallback)
	return b, nil
}

// Run polls for updates until ctx is canceled. Handlers run on a context
// detached from ctx so updates already being handled complete; the engine's
// event timeout still bounds them.
func (b *Bot) Run(ctx context.Context) error {
	b.ctx = context.WithoutCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		b.bot.Start()
	}()
	b.logger.Info("telegram bot polling", "username", b.bot.Me.Username)

	<-ctx.Done()
	b.bot.Stop()
	<-done
	return nil
}

// Telebot returns the underlying bot.
func (b *Bot) Telebot() *tele.Bot {
	return b.bot
}

func chatID(c tele.Context) string {
	return strconv.FormatInt(c.Chat().ID, 10)
}

// EventFromContext converts an update into an engine event. Carts and sessions
// are keyed by chat id.
func EventFromContext(c tele.Context) (string, domain.Event, bool) {
	if c.Chat() == nil {
		return "", domain.Event{}, false
	}
	id := strconv.Itoa(c.Update().ID)

	if cb := c.Callback(); cb != nil {
		return chatID(c), domain.Callback(strings.TrimSpace(cb.Data)).WithID(id), true
	}
	msg := c.Message()
	if msg == nil {
		return "", domain.Event{}, false
	}
	text, err := runner.SanitizeInput(msg.Text)
	if err != nil || strings.TrimSpace(text) == "" {
		return "", domain.Event{}, false
	}
	if strings.HasPrefix(text, "/") {
		name, _, _ := strings.Cut(strings.TrimPrefix(text, "/"), " ")
		name, _, _ = strings.Cut(name, "@")
		return chatID(c), domain.Command(name).WithID(id), true
	}
	return chatID(c), domain.Text(text).WithID(id), true
}

// Markup builds an inline keyboard from reply buttons.
func Markup(reply domain.Reply) *tele.ReplyMarkup {
	if len(reply.Buttons) == 0 {
		return nil
	}
	rows := make([][]tele.InlineButton, 0, len(reply.Buttons))
	for _, row := range reply.Buttons {
		buttons := make([]tele.InlineButton, 0, len(row))
		for _, btn := range row {
			buttons = append(buttons, tele.InlineButton{Text: btn.Label, Data: btn.Token})
		}
		rows = append(rows, buttons)
	}
	return &tele.ReplyMarkup{InlineKeyboard: rows}
}

func (b *Bot) onMessage(c tele.Context) error {
	userID, ev, ok := EventFromContext(c)
	if !ok {
		return nil
	}
	reply, err := b.engine.HandleEvent(b.ctx, userID, ev)
	if err != nil {
		return err
	}
	return b.send(c, reply)
}

func (b *Bot) onCallback(c tele.Context) error {
	// Always stop the client's loading spinner.
	if err := c.Respond(); err != nil {
		b.logger.Debug("answer callback failed", "err", err)
	}

	userID, ev, ok := EventFromContext(c)
	if !ok {
		return nil
	}
	reply, err := b.engine.HandleEvent(b.ctx, userID, ev)
	if err != nil {
		return err
	}
	if reply.NoOp {
		return nil
	}
	// The tapped view is replaced by the new one.
	if err := c.Delete(); err != nil {
		b.logger.Debug("delete tapped message failed", "user_id", userID, "err", err)
	}
	return b.send(c, reply)
}

func (b *Bot) send(c tele.Context, reply domain.Reply) error {
	if reply.NoOp {
		return nil
	}
	var opts []any
	if markup := Markup(reply); markup != nil {
		opts = append(opts, markup)
	}
	if reply.ImageURL != "" {
		return c.Send(&tele.Photo{File: tele.FromURL(reply.ImageURL), Caption: reply.Text}, opts...)
	}
	return c.Send(reply.Text, opts...)
}
