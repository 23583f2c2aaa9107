package command

import (
	"context"
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Restart reports process uptime and announces restarts to the configured
// bot admins when the process comes up.
type Restart struct {
	StartedAt time.Time
	Admins    []string
	Logger    *zap.Logger
}

func (c *Restart) Execute(ctx context.Context, t Transport, msg *tgbotapi.Message, args string) error {
	uptime := time.Since(c.StartedAt).Round(time.Second)
	return t.SendText(msg.Chat.ID,
		fmt.Sprintf("Up for %s. Restarts are handled by the process supervisor.", uptime),
		&SendOptions{ReplyToMessageID: msg.MessageID})
}

// NotifyOnRestart messages every configured admin once at process start.
// Admin ids double as direct-chat ids.
func (c *Restart) NotifyOnRestart(t Transport) {
	for _, admin := range c.Admins {
		chatID, err := strconv.ParseInt(admin, 10, 64)
		if err != nil {
			c.Logger.Warn("Invalid admin id in allow-list", zap.String("admin_id", admin))
			continue
		}
		if err := t.SendText(chatID, "♻️ Bot restarted and is back online.", nil); err != nil {
			c.Logger.Warn("Failed to send restart notice",
				zap.Error(err),
				zap.Int64("chat_id", chatID))
		}
	}
}
