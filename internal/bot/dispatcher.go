package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/devfahim/levelbot/internal/command"
	"github.com/devfahim/levelbot/internal/leveling"
	"github.com/devfahim/levelbot/internal/models"
	"github.com/devfahim/levelbot/internal/storage"
)

// MessageHook is a collaborator invoked outside command dispatch: membership
// change handlers and the fallback for unmatched text.
type MessageHook interface {
	Handle(ctx context.Context, t command.Transport, msg *tgbotapi.Message) error
}

// DispatcherDeps wires a Dispatcher. Store, Registry, Transport and Logger
// are required; hooks are optional.
type DispatcherDeps struct {
	Store     storage.Storage
	Registry  *command.Registry
	Transport command.Transport
	Cooldowns *CooldownTracker
	Prefixes  *PrefixResolver
	// Admins is the static bot-wide allow-list of user ids.
	Admins []string
	Logger *zap.Logger

	OnNewMembers MessageHook
	OnLeftMember MessageHook
	Fallback     MessageHook
}

// Dispatcher runs the per-message pipeline: ban gate, profile upsert, XP and
// rank bookkeeping, then command resolution behind the cooldown and role
// gates. One instance serves all chats.
type Dispatcher struct {
	store     storage.Storage
	registry  *command.Registry
	transport command.Transport
	cooldowns *CooldownTracker
	prefixes  *PrefixResolver
	admins    map[string]bool
	logger    *zap.Logger
	locks     *userLocks

	onNewMembers MessageHook
	onLeftMember MessageHook
	fallback     MessageHook
}

func NewDispatcher(deps DispatcherDeps) *Dispatcher {
	admins := make(map[string]bool, len(deps.Admins))
	for _, id := range deps.Admins {
		admins[id] = true
	}
	if deps.Cooldowns == nil {
		deps.Cooldowns = NewCooldownTracker()
	}
	return &Dispatcher{
		store:        deps.Store,
		registry:     deps.Registry,
		transport:    deps.Transport,
		cooldowns:    deps.Cooldowns,
		prefixes:     deps.Prefixes,
		admins:       admins,
		logger:       deps.Logger,
		locks:        newUserLocks(),
		onNewMembers: deps.OnNewMembers,
		onLeftMember: deps.OnLeftMember,
		fallback:     deps.Fallback,
	}
}

// Handle processes one inbound message end to end. It never returns an
// error: every failure is logged and ends that message's processing.
func (d *Dispatcher) Handle(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}
	chatID := msg.Chat.ID
	userID := strconv.FormatInt(msg.From.ID, 10)

	unlock := d.locks.lock(userID)
	defer unlock()

	user, err := d.loadOrCreateUser(ctx, msg, userID)
	if err != nil {
		d.logger.Error("Failed to load user profile",
			zap.Error(err),
			zap.String("user_id", userID))
		return
	}

	if user.Ban {
		reason := user.BanReason
		if reason == "" {
			reason = "No reason provided"
		}
		d.reply(msg, fmt.Sprintf("🚫 You are banned from using the bot.\nReason: <b>%s</b>", reason), tgbotapi.ModeHTML)
		return
	}

	if leveled := d.recordInteraction(ctx, msg, user); leveled {
		err := d.transport.SendText(chatID,
			fmt.Sprintf("🎉 <b>%s</b> leveled up to <b>Level %d</b>!", user.DisplayName(), user.Level),
			&command.SendOptions{ParseMode: tgbotapi.ModeHTML})
		if err != nil {
			d.logger.Error("Failed to send level-up notice",
				zap.Error(err),
				zap.Int64("chat_id", chatID))
		}
	}

	// Membership collaborators run regardless of text presence.
	if msg.NewChatMembers != nil {
		d.runHook(ctx, d.onNewMembers, msg, "new_members")
	}
	if msg.LeftChatMember != nil {
		d.runHook(ctx, d.onLeftMember, msg, "left_member")
	}

	if msg.Text == "" {
		return
	}

	prefix := d.prefixes.Resolve(ctx, strconv.FormatInt(chatID, 10))

	for _, desc := range d.registry.All() {
		matched, arg := desc.Match(msg.Text, prefix)
		if !matched {
			continue
		}

		if gated, remaining := d.cooldowns.IsOnCooldown(userID, desc.Name, desc.Cooldown); gated {
			d.reply(msg, fmt.Sprintf("Please wait %d seconds before using %s again.", remaining, desc.Name), "")
			d.logger.Info("Command on cooldown",
				zap.String("command", desc.Name),
				zap.String("user_id", userID),
				zap.Int("remaining", remaining))
			return
		}

		if desc.Role > 0 && !d.isAdmin(chatID, userID) {
			d.reply(msg, "Only group admins or bot admins can use this command.", "")
			return
		}

		d.logger.Info("Command executed",
			zap.String("command", desc.Name),
			zap.String("user_id", userID),
			zap.Int64("chat_id", chatID))

		d.cooldowns.Mark(userID, desc.Name)
		d.invoke(ctx, desc, msg, arg)
		return
	}

	d.runHook(ctx, d.fallback, msg, "fallback")
}

func (d *Dispatcher) loadOrCreateUser(ctx context.Context, msg *tgbotapi.Message, userID string) (*models.UserProfile, error) {
	user, err := d.store.GetUser(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return models.NewUserProfile(userID, msg.From.UserName, msg.From.FirstName, msg.From.LastName), nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// recordInteraction bumps the interaction counters, applies the XP engine
// and recomputes rank, persisting as it goes. Returns whether the user
// leveled up; the caller sends the notification after persistence so a slow
// send cannot hold up the save.
func (d *Dispatcher) recordInteraction(ctx context.Context, msg *tgbotapi.Message, user *models.UserProfile) bool {
	userID := user.TelegramID

	user.CommandCount++
	user.LastInteraction = time.Now()
	if msg.Chat.IsGroup() || msg.Chat.IsSuperGroup() {
		user.LastActiveGroup = strconv.FormatInt(msg.Chat.ID, 10)
	}
	if err := d.store.SaveUser(ctx, user); err != nil {
		d.logger.Error("Failed to save interaction counters",
			zap.Error(err),
			zap.String("user_id", userID))
		return false
	}

	leveled := leveling.Award(user, leveling.XPPerMessage)

	rank, err := d.store.UserRank(ctx, userID)
	if err != nil {
		d.logger.Error("Failed to compute rank",
			zap.Error(err),
			zap.String("user_id", userID))
	} else {
		user.Rank = rank
	}

	if err := d.store.SaveUser(ctx, user); err != nil {
		d.logger.Error("Failed to save XP transition",
			zap.Error(err),
			zap.String("user_id", userID))
		return false
	}
	return leveled
}

// isAdmin checks the static allow-list first, then the chat's administrator
// list. A fetch failure counts as "not an admin": the gate fails closed.
func (d *Dispatcher) isAdmin(chatID int64, userID string) bool {
	if d.admins[userID] {
		return true
	}
	members, err := d.transport.AdminsOf(chatID)
	if err != nil {
		d.logger.Warn("Admin list fetch failed, denying",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
		return false
	}
	for _, m := range members {
		if m.User != nil && strconv.FormatInt(m.User.ID, 10) == userID {
			return true
		}
	}
	return false
}

// invoke runs the handler behind its own isolation boundary so a panicking
// or failing command cannot take down the dispatch loop.
func (d *Dispatcher) invoke(ctx context.Context, desc *command.Descriptor, msg *tgbotapi.Message, arg string) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Command handler panicked",
				zap.Any("panic", r),
				zap.String("command", desc.Name))
		}
	}()
	if err := desc.Handler.Execute(ctx, d.transport, msg, arg); err != nil {
		d.logger.Error("Command handler failed",
			zap.Error(err),
			zap.String("command", desc.Name))
	}
}

func (d *Dispatcher) runHook(ctx context.Context, hook MessageHook, msg *tgbotapi.Message, name string) {
	if hook == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Message hook panicked",
				zap.Any("panic", r),
				zap.String("hook", name))
		}
	}()
	if err := hook.Handle(ctx, d.transport, msg); err != nil {
		d.logger.Error("Message hook failed",
			zap.Error(err),
			zap.String("hook", name))
	}
}

func (d *Dispatcher) reply(msg *tgbotapi.Message, text, parseMode string) {
	err := d.transport.SendText(msg.Chat.ID, text, &command.SendOptions{
		ReplyToMessageID: msg.MessageID,
		ParseMode:        parseMode,
	})
	if err != nil {
		d.logger.Error("Failed to send reply",
			zap.Error(err),
			zap.Int64("chat_id", msg.Chat.ID))
	}
}
