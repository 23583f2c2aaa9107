package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/devfahim/levelbot/internal/storage"
)

const dailyReward = 500

// Daily pays a once-per-day wallet reward. The 24h window is tracked on the
// profile (LastDailyWork) so it survives restarts; the descriptor's short
// cooldown only throttles retries.
type Daily struct {
	Store storage.Storage
}

func (d *Daily) Execute(ctx context.Context, t Transport, msg *tgbotapi.Message, args string) error {
	userID := strconv.FormatInt(msg.From.ID, 10)

	user, err := d.Store.GetUser(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return t.SendText(msg.Chat.ID, "No profile yet. Say something first!", &SendOptions{ReplyToMessageID: msg.MessageID})
	}
	if err != nil {
		return fmt.Errorf("loading profile for %s: %w", userID, err)
	}

	now := time.Now()
	if user.LastDailyWork != nil {
		elapsed := now.Sub(*user.LastDailyWork)
		if elapsed < 24*time.Hour {
			wait := 24*time.Hour - elapsed
			return t.SendText(msg.Chat.ID,
				fmt.Sprintf("You already claimed today. Come back in %s.", wait.Round(time.Minute)),
				&SendOptions{ReplyToMessageID: msg.MessageID})
		}
	}

	user.Wallet += dailyReward
	user.LastDailyWork = &now
	if err := d.Store.SaveUser(ctx, user); err != nil {
		return fmt.Errorf("saving daily reward for %s: %w", userID, err)
	}

	return t.SendText(msg.Chat.ID,
		fmt.Sprintf("💰 You claimed your daily <b>%d</b> coins. Wallet: <b>%d</b>.", dailyReward, user.Wallet),
		&SendOptions{ReplyToMessageID: msg.MessageID, ParseMode: tgbotapi.ModeHTML})
}
