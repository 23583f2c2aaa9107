package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/devfahim/levelbot/internal/command"
)

// Bot owns the long-polling update loop and routes each update to the
// dispatcher or to a command's callback handler.
type Bot struct {
	api        *tgbotapi.BotAPI
	transport  command.Transport
	registry   *command.Registry
	dispatcher *Dispatcher
	logger     *zap.Logger
}

func New(api *tgbotapi.BotAPI, transport command.Transport, registry *command.Registry, dispatcher *Dispatcher, logger *zap.Logger) *Bot {
	return &Bot{
		api:        api,
		transport:  transport,
		registry:   registry,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// NotifyRestart invokes every registered command's restart hook once.
func (b *Bot) NotifyRestart() {
	for _, d := range b.registry.All() {
		if notifier, ok := d.Handler.(command.RestartNotifier); ok {
			notifier.NotifyOnRestart(b.transport)
		}
	}
}

// Start runs the update loop until the context is canceled. Messages are
// handled concurrently; the dispatcher serializes per user internally.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("Bot started", zap.String("username", b.api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.CallbackQuery != nil {
				go b.handleCallback(ctx, update.CallbackQuery)
				continue
			}
			if update.Message == nil {
				continue
			}
			go b.dispatcher.Handle(ctx, update.Message)
		}
	}
}

// handleCallback routes a callback query to the first command that claims
// its payload.
func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Callback handler panicked", zap.Any("panic", r))
		}
	}()

	for _, d := range b.registry.All() {
		handler, ok := d.Handler.(command.CallbackHandler)
		if !ok || !handler.HandlesCallback(query.Data) {
			continue
		}
		if err := handler.OnCallbackQuery(ctx, b.transport, query); err != nil {
			b.logger.Error("Callback handler failed",
				zap.Error(err),
				zap.String("command", d.Name),
				zap.String("data", query.Data))
		}
		return
	}

	b.logger.Debug("Unclaimed callback query", zap.String("data", query.Data))
}
