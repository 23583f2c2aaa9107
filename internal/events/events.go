// Package events holds the non-command message collaborators: membership
// change greeters and the fallback for text that matched no command.
package events

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/devfahim/levelbot/internal/command"
)

// NewMemberGreeter welcomes users joining a group.
type NewMemberGreeter struct {
	Logger *zap.Logger
}

func (g *NewMemberGreeter) Handle(ctx context.Context, t command.Transport, msg *tgbotapi.Message) error {
	for _, member := range msg.NewChatMembers {
		if member.IsBot {
			continue
		}
		name := member.UserName
		if name == "" {
			name = member.FirstName
		}
		g.Logger.Info("New chat member",
			zap.Int64("chat_id", msg.Chat.ID),
			zap.Int64("user_id", member.ID))
		if err := t.SendText(msg.Chat.ID, fmt.Sprintf("👋 Welcome, %s!", name), nil); err != nil {
			return err
		}
	}
	return nil
}

// LeftMemberNotifier acknowledges a user leaving a group.
type LeftMemberNotifier struct {
	Logger *zap.Logger
}

func (n *LeftMemberNotifier) Handle(ctx context.Context, t command.Transport, msg *tgbotapi.Message) error {
	member := msg.LeftChatMember
	if member == nil || member.IsBot {
		return nil
	}
	name := member.UserName
	if name == "" {
		name = member.FirstName
	}
	n.Logger.Info("Chat member left",
		zap.Int64("chat_id", msg.Chat.ID),
		zap.Int64("user_id", member.ID))
	return t.SendText(msg.Chat.ID, fmt.Sprintf("%s left the chat. 👋", name), nil)
}

// MediaFallback receives every message that matched no command. It only logs
// today; the media-download pipeline hangs off this hook.
type MediaFallback struct {
	Logger *zap.Logger
}

func (f *MediaFallback) Handle(ctx context.Context, t command.Transport, msg *tgbotapi.Message) error {
	f.Logger.Info("Unmatched message",
		zap.Int64("chat_id", msg.Chat.ID),
		zap.String("text", msg.Text),
		zap.String("media_file_id", mediaFileID(msg)))
	return nil
}

func mediaFileID(msg *tgbotapi.Message) string {
	switch {
	case len(msg.Photo) > 0:
		return msg.Photo[len(msg.Photo)-1].FileID
	case msg.Video != nil:
		return msg.Video.FileID
	case msg.Document != nil:
		return msg.Document.FileID
	default:
		return ""
	}
}
