package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/devfahim/levelbot/internal/models"
	"github.com/devfahim/levelbot/internal/storage"
)

// SetPrefix stores a per-group command prefix override.
type SetPrefix struct {
	Store storage.Storage
}

func (c *SetPrefix) Execute(ctx context.Context, t Transport, msg *tgbotapi.Message, args string) error {
	reply := &SendOptions{ReplyToMessageID: msg.MessageID}

	prefix := strings.TrimSpace(args)
	if prefix == "" || len(prefix) > 3 || strings.ContainsAny(prefix, " \t\n") {
		return t.SendText(msg.Chat.ID, "Usage: setprefix <prefix> (1-3 characters, no spaces)", reply)
	}

	chatID := strconv.FormatInt(msg.Chat.ID, 10)
	group, err := c.Store.GetGroup(ctx, chatID)
	if errors.Is(err, storage.ErrNotFound) {
		group = models.NewGroupProfile(chatID, prefix)
	} else if err != nil {
		return fmt.Errorf("loading group %s: %w", chatID, err)
	} else {
		group.Prefix = prefix
	}

	if err := c.Store.SaveGroup(ctx, group); err != nil {
		return fmt.Errorf("saving group %s: %w", chatID, err)
	}
	return t.SendText(msg.Chat.ID, fmt.Sprintf("Prefix for this chat is now %q.", prefix), reply)
}

// Ban soft-bans a user: their messages are rejected at the top of dispatch.
type Ban struct {
	Store storage.Storage
}

func (c *Ban) Execute(ctx context.Context, t Transport, msg *tgbotapi.Message, args string) error {
	reply := &SendOptions{ReplyToMessageID: msg.MessageID}

	fields := strings.Fields(args)
	if len(fields) == 0 {
		return t.SendText(msg.Chat.ID, "Usage: ban <user_id> [reason]", reply)
	}
	targetID := fields[0]
	reason := strings.Join(fields[1:], " ")

	user, err := c.Store.GetUser(ctx, targetID)
	if errors.Is(err, storage.ErrNotFound) {
		return t.SendText(msg.Chat.ID, "No profile found for that user id.", reply)
	}
	if err != nil {
		return fmt.Errorf("loading user %s: %w", targetID, err)
	}

	user.Ban = true
	user.BanReason = reason
	if err := c.Store.SaveUser(ctx, user); err != nil {
		return fmt.Errorf("banning user %s: %w", targetID, err)
	}
	return t.SendText(msg.Chat.ID, fmt.Sprintf("🚫 Banned %s.", user.DisplayName()), reply)
}

// Unban clears the soft-ban flag.
type Unban struct {
	Store storage.Storage
}

func (c *Unban) Execute(ctx context.Context, t Transport, msg *tgbotapi.Message, args string) error {
	reply := &SendOptions{ReplyToMessageID: msg.MessageID}

	targetID := strings.TrimSpace(args)
	if targetID == "" {
		return t.SendText(msg.Chat.ID, "Usage: unban <user_id>", reply)
	}

	user, err := c.Store.GetUser(ctx, targetID)
	if errors.Is(err, storage.ErrNotFound) {
		return t.SendText(msg.Chat.ID, "No profile found for that user id.", reply)
	}
	if err != nil {
		return fmt.Errorf("loading user %s: %w", targetID, err)
	}

	user.Ban = false
	user.BanReason = ""
	if err := c.Store.SaveUser(ctx, user); err != nil {
		return fmt.Errorf("unbanning user %s: %w", targetID, err)
	}
	return t.SendText(msg.Chat.ID, fmt.Sprintf("✅ Unbanned %s.", user.DisplayName()), reply)
}
