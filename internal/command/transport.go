package command

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// SendOptions carries the optional knobs for an outbound text message.
type SendOptions struct {
	ReplyToMessageID int
	ParseMode        string
	ReplyMarkup      interface{}
}

// Transport is the slice of the chat platform the dispatcher and command
// handlers are allowed to use. Tests substitute a fake.
type Transport interface {
	SendText(chatID int64, text string, opts *SendOptions) error
	// AdminsOf lists the chat's administrators. Callers treat an error as
	// "no admins": permission checks fail closed.
	AdminsOf(chatID int64) ([]tgbotapi.ChatMember, error)
	AnswerCallback(callbackID, text string) error
	EditText(chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) error
}

// TelegramTransport implements Transport over the Bot API binding.
type TelegramTransport struct {
	api    *tgbotapi.BotAPI
	logger *zap.Logger
}

func NewTelegramTransport(api *tgbotapi.BotAPI, logger *zap.Logger) *TelegramTransport {
	return &TelegramTransport{api: api, logger: logger}
}

func (t *TelegramTransport) SendText(chatID int64, text string, opts *SendOptions) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if opts != nil {
		msg.ReplyToMessageID = opts.ReplyToMessageID
		msg.ParseMode = opts.ParseMode
		if opts.ReplyMarkup != nil {
			msg.ReplyMarkup = opts.ReplyMarkup
		}
	}
	if _, err := t.api.Send(msg); err != nil {
		t.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
		return err
	}
	return nil
}

func (t *TelegramTransport) AdminsOf(chatID int64) ([]tgbotapi.ChatMember, error) {
	return t.api.GetChatAdministrators(tgbotapi.ChatAdministratorsConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
	})
}

func (t *TelegramTransport) AnswerCallback(callbackID, text string) error {
	_, err := t.api.Request(tgbotapi.NewCallback(callbackID, text))
	return err
}

func (t *TelegramTransport) EditText(chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) error {
	var edit tgbotapi.EditMessageTextConfig
	if markup != nil {
		edit = tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, *markup)
	} else {
		edit = tgbotapi.NewEditMessageText(chatID, messageID, text)
	}
	_, err := t.api.Send(edit)
	return err
}
