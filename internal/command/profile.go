package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/devfahim/levelbot/internal/storage"
)

// Profile shows the caller's XP, level, rank and wallet.
type Profile struct {
	Store storage.Storage
}

func (p *Profile) Execute(ctx context.Context, t Transport, msg *tgbotapi.Message, args string) error {
	userID := strconv.FormatInt(msg.From.ID, 10)

	user, err := p.Store.GetUser(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return t.SendText(msg.Chat.ID, "No profile yet. Say something first!", &SendOptions{ReplyToMessageID: msg.MessageID})
	}
	if err != nil {
		return fmt.Errorf("loading profile for %s: %w", userID, err)
	}

	rank, err := p.Store.UserRank(ctx, userID)
	if err != nil {
		return fmt.Errorf("ranking %s: %w", userID, err)
	}

	text := fmt.Sprintf(
		"👤 <b>%s</b>\n"+
			"Level: <b>%d</b> (%d/%d XP)\n"+
			"Total XP: <b>%d</b>\n"+
			"Rank: <b>#%d</b>\n"+
			"Wallet: <b>%d</b> | Bank: <b>%d</b>\n"+
			"Messages: <b>%d</b>",
		user.DisplayName(), user.Level, user.CurrentXP, user.RequiredXP,
		user.XP, rank, user.Wallet, user.Bank, user.CommandCount)

	return t.SendText(msg.Chat.ID, text, &SendOptions{
		ReplyToMessageID: msg.MessageID,
		ParseMode:        tgbotapi.ModeHTML,
	})
}
