package command

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Ping is a liveness check. Registered without a prefix so plain "ping"
// works in any chat.
type Ping struct{}

func (p *Ping) Execute(ctx context.Context, t Transport, msg *tgbotapi.Message, args string) error {
	return t.SendText(msg.Chat.ID, "Pong! 🏓", &SendOptions{ReplyToMessageID: msg.MessageID})
}
