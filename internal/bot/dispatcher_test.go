package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/devfahim/levelbot/internal/command"
	"github.com/devfahim/levelbot/internal/models"
	"github.com/devfahim/levelbot/internal/storage"
)

type sentMessage struct {
	ChatID int64
	Text   string
	Opts   *command.SendOptions
}

type fakeTransport struct {
	mu        sync.Mutex
	sent      []sentMessage
	admins    map[int64][]tgbotapi.ChatMember
	adminsErr error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{admins: make(map[int64][]tgbotapi.ChatMember)}
}

func (f *fakeTransport) SendText(chatID int64, text string, opts *command.SendOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{ChatID: chatID, Text: text, Opts: opts})
	return nil
}

func (f *fakeTransport) AdminsOf(chatID int64) ([]tgbotapi.ChatMember, error) {
	if f.adminsErr != nil {
		return nil, f.adminsErr
	}
	return f.admins[chatID], nil
}

func (f *fakeTransport) AnswerCallback(callbackID, text string) error { return nil }

func (f *fakeTransport) EditText(chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) error {
	return nil
}

func (f *fakeTransport) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

type spyHandler struct {
	mu    sync.Mutex
	calls []string
}

func (h *spyHandler) Execute(ctx context.Context, t command.Transport, msg *tgbotapi.Message, args string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, args)
	return nil
}

func (h *spyHandler) callCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.calls)
}

type panicHandler struct{}

func (panicHandler) Execute(ctx context.Context, t command.Transport, msg *tgbotapi.Message, args string) error {
	panic("boom")
}

type countingHook struct {
	mu    sync.Mutex
	count int
}

func (h *countingHook) Handle(ctx context.Context, t command.Transport, msg *tgbotapi.Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	return nil
}

type fixture struct {
	store     *storage.MemoryStorage
	transport *fakeTransport
	registry  *command.Registry
	cooldowns *CooldownTracker
	fallback  *countingHook
	disp      *Dispatcher
}

func newFixture(t *testing.T, descriptors ...*command.Descriptor) *fixture {
	t.Helper()

	registry := command.NewRegistry()
	for _, d := range descriptors {
		require.NoError(t, registry.Register(d))
	}

	store := storage.NewMemoryStorage()
	transport := newFakeTransport()
	cooldowns := NewCooldownTracker()
	fallback := &countingHook{}

	disp := NewDispatcher(DispatcherDeps{
		Store:     store,
		Registry:  registry,
		Transport: transport,
		Cooldowns: cooldowns,
		Prefixes:  NewPrefixResolver(store, "/", zap.NewNop()),
		Admins:    []string{"999"},
		Logger:    zap.NewNop(),
		Fallback:  fallback,
	})
	return &fixture{
		store:     store,
		transport: transport,
		registry:  registry,
		cooldowns: cooldowns,
		fallback:  fallback,
		disp:      disp,
	}
}

func textMessage(userID, chatID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: userID, UserName: "tester", FirstName: "Test"},
		Chat:      &tgbotapi.Chat{ID: chatID, Type: "group"},
		Text:      text,
	}
}

func TestHandleCreatesProfileAndAwardsXP(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.disp.Handle(ctx, textMessage(1, -100, "hello there"))

	user, err := f.store.GetUser(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), user.XP)
	assert.Equal(t, int64(10), user.CurrentXP)
	assert.Equal(t, 1, user.Level)
	assert.Equal(t, int64(1), user.CommandCount)
	assert.Equal(t, 1, user.Rank)
	assert.Equal(t, "-100", user.LastActiveGroup)
	assert.NotEmpty(t, user.ReferralCode)

	assert.Equal(t, 1, f.fallback.count, "unmatched text goes to the fallback exactly once")
}

func TestHandleBannedUserShortCircuits(t *testing.T) {
	ctx := context.Background()
	echo := &spyHandler{}
	f := newFixture(t, &command.Descriptor{Name: "echo", UsePrefix: true, Handler: echo})

	banned := models.NewUserProfile("5", "troll", "", "")
	banned.Ban = true
	banned.BanReason = "spamming"
	banned.XP = 70
	require.NoError(t, f.store.SaveUser(ctx, banned))

	f.disp.Handle(ctx, textMessage(5, -100, "/echo hi"))

	// Only the ban notice goes out; no XP, no dispatch, no fallback.
	msgs := f.transport.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "banned")
	assert.Contains(t, msgs[0].Text, "spamming")

	user, err := f.store.GetUser(ctx, "5")
	require.NoError(t, err)
	assert.Equal(t, int64(70), user.XP, "no XP award for banned users")
	assert.Equal(t, int64(0), user.CommandCount)
	assert.Equal(t, 0, echo.callCount())
	assert.Equal(t, 0, f.fallback.count)
}

func TestHandleBanReasonDefaults(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	banned := models.NewUserProfile("5", "troll", "", "")
	banned.Ban = true
	require.NoError(t, f.store.SaveUser(ctx, banned))

	f.disp.Handle(ctx, textMessage(5, -100, "hello"))

	msgs := f.transport.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "No reason provided")
}

func TestHandleLevelUpNotification(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	user := models.NewUserProfile("1", "alice", "", "")
	user.XP = 95
	user.CurrentXP = 95
	require.NoError(t, f.store.SaveUser(ctx, user))

	f.disp.Handle(ctx, textMessage(1, -100, "gm"))

	got, err := f.store.GetUser(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Level)
	assert.Equal(t, int64(5), got.CurrentXP)
	assert.Equal(t, int64(150), got.RequiredXP)

	var found bool
	for _, m := range f.transport.messages() {
		if strings.Contains(m.Text, "leveled up") && strings.Contains(m.Text, "Level 2") {
			found = true
		}
	}
	assert.True(t, found, "level-up notice should be sent")
}

func TestHandleDispatchesCommandWithArg(t *testing.T) {
	ctx := context.Background()
	echo := &spyHandler{}
	f := newFixture(t, &command.Descriptor{Name: "echo", UsePrefix: true, Handler: echo})

	f.disp.Handle(ctx, textMessage(1, -100, "/echo hello world"))

	require.Equal(t, 1, echo.callCount())
	assert.Equal(t, "hello world", echo.calls[0])
	assert.Equal(t, 0, f.fallback.count, "matched text must not reach the fallback")
}

func TestHandleNoTextStopsAfterProfileUpdate(t *testing.T) {
	ctx := context.Background()
	echo := &spyHandler{}
	f := newFixture(t, &command.Descriptor{Name: "echo", UsePrefix: true, Handler: echo})

	msg := textMessage(1, -100, "")
	f.disp.Handle(ctx, msg)

	user, err := f.store.GetUser(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), user.XP, "media-only messages still earn XP")
	assert.Equal(t, 0, echo.callCount())
	assert.Equal(t, 0, f.fallback.count)
}

func TestHandleCooldownGate(t *testing.T) {
	ctx := context.Background()
	echo := &spyHandler{}
	f := newFixture(t, &command.Descriptor{Name: "echo", UsePrefix: true, Cooldown: 60, Handler: echo})

	f.disp.Handle(ctx, textMessage(1, -100, "/echo one"))
	f.disp.Handle(ctx, textMessage(1, -100, "/echo two"))

	assert.Equal(t, 1, echo.callCount(), "second invocation is gated")

	var waitMsg bool
	for _, m := range f.transport.messages() {
		if strings.Contains(m.Text, "Please wait") {
			waitMsg = true
		}
	}
	assert.True(t, waitMsg, "gated attempt gets a wait reply")

	// A different user is not gated.
	f.disp.Handle(ctx, textMessage(2, -100, "/echo three"))
	assert.Equal(t, 2, echo.callCount())
}

func TestHandleRoleGateFailsClosed(t *testing.T) {
	ctx := context.Background()
	admin := &spyHandler{}
	f := newFixture(t, &command.Descriptor{Name: "ban", UsePrefix: true, Role: 1, Handler: admin})

	// Admin list fetch fails: deny, do not surface an error.
	f.transport.adminsErr = errors.New("telegram down")
	f.disp.Handle(ctx, textMessage(1, -100, "/ban 5"))

	assert.Equal(t, 0, admin.callCount())
	msgs := f.transport.messages()
	require.NotEmpty(t, msgs)
	assert.Contains(t, msgs[len(msgs)-1].Text, "Only group admins or bot admins")
}

func TestHandleRoleGateDeniesNonAdmin(t *testing.T) {
	ctx := context.Background()
	admin := &spyHandler{}
	f := newFixture(t, &command.Descriptor{Name: "ban", UsePrefix: true, Role: 1, Handler: admin})

	f.transport.admins[-100] = []tgbotapi.ChatMember{
		{User: &tgbotapi.User{ID: 777}},
	}
	f.disp.Handle(ctx, textMessage(1, -100, "/ban 5"))

	assert.Equal(t, 0, admin.callCount())
}

func TestHandleRoleGateAllowsChatAdmin(t *testing.T) {
	ctx := context.Background()
	admin := &spyHandler{}
	f := newFixture(t, &command.Descriptor{Name: "ban", UsePrefix: true, Role: 1, Handler: admin})

	f.transport.admins[-100] = []tgbotapi.ChatMember{
		{User: &tgbotapi.User{ID: 1}},
	}
	f.disp.Handle(ctx, textMessage(1, -100, "/ban 5 reason"))

	require.Equal(t, 1, admin.callCount())
	assert.Equal(t, "5 reason", admin.calls[0])
}

func TestHandleRoleGateAllowsStaticAdmin(t *testing.T) {
	ctx := context.Background()
	admin := &spyHandler{}
	f := newFixture(t, &command.Descriptor{Name: "ban", UsePrefix: true, Role: 1, Handler: admin})

	// User 999 is in the fixture's allow-list; no chat-admin lookup needed.
	f.transport.adminsErr = errors.New("must not be called")
	f.disp.Handle(ctx, textMessage(999, -100, "/ban 5"))

	assert.Equal(t, 1, admin.callCount())
}

func TestHandleGroupPrefixOverride(t *testing.T) {
	ctx := context.Background()
	echo := &spyHandler{}
	f := newFixture(t, &command.Descriptor{Name: "echo", UsePrefix: true, Handler: echo})

	require.NoError(t, f.store.SaveGroup(ctx, models.NewGroupProfile("-100", "!")))

	f.disp.Handle(ctx, textMessage(1, -100, "!echo hi"))
	assert.Equal(t, 1, echo.callCount())

	f.disp.Handle(ctx, textMessage(1, -100, "/echo hi"))
	assert.Equal(t, 1, echo.callCount(), "default prefix must not match in an overridden chat")

	// A different chat still uses the default.
	f.disp.Handle(ctx, textMessage(1, -200, "/echo hi"))
	assert.Equal(t, 2, echo.callCount())
}

func TestHandlePanickingHandlerDoesNotStopDispatch(t *testing.T) {
	ctx := context.Background()
	echo := &spyHandler{}
	f := newFixture(t,
		&command.Descriptor{Name: "boom", UsePrefix: true, Handler: panicHandler{}},
		&command.Descriptor{Name: "echo", UsePrefix: true, Handler: echo},
	)

	f.disp.Handle(ctx, textMessage(1, -100, "/boom"))
	f.disp.Handle(ctx, textMessage(1, -100, "/echo still alive"))

	require.Equal(t, 1, echo.callCount())
	assert.Equal(t, "still alive", echo.calls[0])
}

func TestHandleRankOrdering(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	veteran := models.NewUserProfile("2", "vet", "", "")
	veteran.XP = 1000
	require.NoError(t, f.store.SaveUser(ctx, veteran))

	f.disp.Handle(ctx, textMessage(1, -100, "hi"))

	user, err := f.store.GetUser(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 2, user.Rank, "newcomer ranks below the veteran")
}

func TestHandleConcurrentMessagesSameUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.disp.Handle(ctx, textMessage(1, -100, "spam"))
		}()
	}
	wg.Wait()

	user, err := f.store.GetUser(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, int64(n*10), user.XP, "per-user serialization prevents lost updates")
	assert.Equal(t, int64(n), user.CommandCount)
}
