package command

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/devfahim/levelbot/internal/storage"
)

const topPageSize = 5

// callbackTopPrefix routes callback queries back to this command.
const callbackTopPrefix = "top_page_"

// Top renders the XP leaderboard with inline pagination.
type Top struct {
	Store storage.Storage
}

func (c *Top) Execute(ctx context.Context, t Transport, msg *tgbotapi.Message, args string) error {
	text, markup, err := c.renderPage(ctx, 1)
	if err != nil {
		return err
	}
	opts := &SendOptions{
		ReplyToMessageID: msg.MessageID,
		ParseMode:        tgbotapi.ModeHTML,
	}
	if len(markup.InlineKeyboard) > 0 {
		opts.ReplyMarkup = markup
	}
	return t.SendText(msg.Chat.ID, text, opts)
}

func (c *Top) OnCallbackQuery(ctx context.Context, t Transport, query *tgbotapi.CallbackQuery) error {
	page, err := strconv.Atoi(strings.TrimPrefix(query.Data, callbackTopPrefix))
	if err != nil || page < 1 {
		page = 1
	}

	text, markup, err := c.renderPage(ctx, page)
	if err != nil {
		return err
	}
	if err := t.AnswerCallback(query.ID, ""); err != nil {
		return err
	}
	if query.Message == nil {
		return nil
	}
	var kb *tgbotapi.InlineKeyboardMarkup
	if len(markup.InlineKeyboard) > 0 {
		kb = &markup
	}
	return t.EditText(query.Message.Chat.ID, query.Message.MessageID, text, kb)
}

func (c *Top) renderPage(ctx context.Context, page int) (string, tgbotapi.InlineKeyboardMarkup, error) {
	// Fetch one page plus everything before it; the store orders by XP.
	users, err := c.Store.TopUsersByXP(ctx, page*topPageSize+1)
	if err != nil {
		return "", tgbotapi.InlineKeyboardMarkup{}, fmt.Errorf("loading leaderboard: %w", err)
	}

	hasNext := len(users) > page*topPageSize
	start := (page - 1) * topPageSize
	if start >= len(users) {
		start = 0
		page = 1
	}
	end := start + topPageSize
	if end > len(users) {
		end = len(users)
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("🏆 <b>Leaderboard</b> — page %d\n\n", page))
	for i, u := range users[start:end] {
		b.WriteString(fmt.Sprintf("%d. <b>%s</b> — level %d, %d XP\n",
			start+i+1, u.DisplayName(), u.Level, u.XP))
	}
	if end == start {
		b.WriteString("Nobody here yet.")
	}

	var row []tgbotapi.InlineKeyboardButton
	if page > 1 {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("◂ Prev", callbackTopPrefix+strconv.Itoa(page-1)))
	}
	if hasNext {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("Next ▸", callbackTopPrefix+strconv.Itoa(page+1)))
	}
	markup := tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}
	if len(row) > 0 {
		markup.InlineKeyboard = append(markup.InlineKeyboard, row)
	}
	return b.String(), markup, nil
}

// HandlesCallback reports whether a callback-query payload belongs to the
// leaderboard.
func (c *Top) HandlesCallback(data string) bool {
	return strings.HasPrefix(data, callbackTopPrefix)
}
