// Package command defines the dispatch contracts: command descriptors, the
// registry consulted on every message, and the narrow transport surface
// handlers are allowed to touch.
package command

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Handler executes a matched command. The argument string is the optional
// trailing text captured after the command name, empty when absent.
type Handler interface {
	Execute(ctx context.Context, t Transport, msg *tgbotapi.Message, args string) error
}

// CallbackHandler is implemented by commands exposing interactive follow-up
// affordances (inline keyboards). HandlesCallback claims a callback payload;
// the bot routes each callback query to the first claiming command.
type CallbackHandler interface {
	HandlesCallback(data string) bool
	OnCallbackQuery(ctx context.Context, t Transport, query *tgbotapi.CallbackQuery) error
}

// RestartNotifier is implemented by commands that want a hook at process
// start, e.g. to announce the restart to administrators.
type RestartNotifier interface {
	NotifyOnRestart(t Transport)
}

// Descriptor is the immutable registration record for one command.
type Descriptor struct {
	Name      string
	Aliases   []string
	UsePrefix bool
	// Role 0 is open to anyone; anything above requires the user to be in
	// the bot admin allow-list or an administrator of the chat.
	Role int
	// Cooldown is the minimum number of seconds between invocations by the
	// same user. Zero disables the gate.
	Cooldown int
	Handler  Handler
}

// Match reports whether text invokes this command under the given prefix and
// returns the captured argument. The pattern is anchored to the whole
// message: the bare name or any alias, prefixed when UsePrefix is set, with
// one optional whitespace-separated trailing argument.
func (d *Descriptor) Match(text, prefix string) (bool, string) {
	pre := ""
	if d.UsePrefix {
		pre = regexp.QuoteMeta(prefix)
	}

	names := append([]string{d.Name}, d.Aliases...)
	patterns := make([]string, 0, len(names))
	for _, name := range names {
		patterns = append(patterns, "^"+pre+regexp.QuoteMeta(name)+`(?:\s+(.+))?$`)
	}

	re, err := regexp.Compile(strings.Join(patterns, "|"))
	if err != nil {
		return false, ""
	}
	m := re.FindStringSubmatch(text)
	if m == nil {
		return false, ""
	}
	for _, group := range m[1:] {
		if group != "" {
			return true, group
		}
	}
	return true, ""
}

// Registry holds the registered descriptors in registration order, which is
// also the match precedence: the first descriptor whose pattern matches wins.
type Registry struct {
	ordered []*Descriptor
	byName  map[string]*Descriptor
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Descriptor)}
}

// Register adds a descriptor. A malformed descriptor (missing name or
// handler) is skipped so one bad entry cannot stop startup. A duplicate name
// is rejected: silent shadowing caused ambiguous dispatch in the past.
func (r *Registry) Register(d *Descriptor) error {
	if d == nil || d.Name == "" || d.Handler == nil {
		return nil
	}
	if _, exists := r.byName[d.Name]; exists {
		return fmt.Errorf("command %q already registered", d.Name)
	}
	r.byName[d.Name] = d
	r.ordered = append(r.ordered, d)
	return nil
}

// MustRegister is Register for static startup tables.
func (r *Registry) MustRegister(d *Descriptor) {
	if err := r.Register(d); err != nil {
		panic(err)
	}
}

// All returns descriptors in registration order.
func (r *Registry) All() []*Descriptor {
	return r.ordered
}

// Get returns the descriptor registered under name.
func (r *Registry) Get(name string) (*Descriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}
