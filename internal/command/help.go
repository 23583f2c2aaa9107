package command

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Help lists the registered commands. It holds the registry it was
// registered into, so the listing always matches reality.
type Help struct {
	Registry *Registry
	Prefix   string
}

func (h *Help) Execute(ctx context.Context, t Transport, msg *tgbotapi.Message, args string) error {
	var b strings.Builder
	b.WriteString("<b>Available commands</b>\n\n")
	for _, d := range h.Registry.All() {
		name := d.Name
		if d.UsePrefix {
			name = h.Prefix + name
		}
		b.WriteString(fmt.Sprintf("• <code>%s</code>", name))
		if len(d.Aliases) > 0 {
			b.WriteString(" (" + strings.Join(d.Aliases, ", ") + ")")
		}
		if d.Role > 0 {
			b.WriteString(" — admins only")
		}
		b.WriteString("\n")
	}
	return t.SendText(msg.Chat.ID, b.String(), &SendOptions{
		ReplyToMessageID: msg.MessageID,
		ParseMode:        tgbotapi.ModeHTML,
	})
}
