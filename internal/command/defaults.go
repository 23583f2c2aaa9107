package command

import (
	"time"

	"go.uber.org/zap"

	"github.com/devfahim/levelbot/internal/storage"
)

// NewDefaultRegistry builds the static registration table. Order matters:
// it is the tie-break when two patterns match the same text.
func NewDefaultRegistry(store storage.Storage, logger *zap.Logger, defaultPrefix string, admins []string) *Registry {
	r := NewRegistry()

	r.MustRegister(&Descriptor{
		Name:      "help",
		Aliases:   []string{"h", "commands"},
		UsePrefix: true,
		Handler:   &Help{Registry: r, Prefix: defaultPrefix},
	})
	r.MustRegister(&Descriptor{
		Name:    "ping",
		Handler: &Ping{},
	})
	r.MustRegister(&Descriptor{
		Name:      "profile",
		Aliases:   []string{"level", "rank", "me"},
		UsePrefix: true,
		Cooldown:  5,
		Handler:   &Profile{Store: store},
	})
	r.MustRegister(&Descriptor{
		Name:      "top",
		Aliases:   []string{"leaderboard"},
		UsePrefix: true,
		Cooldown:  10,
		Handler:   &Top{Store: store},
	})
	r.MustRegister(&Descriptor{
		Name:      "daily",
		Aliases:   []string{"work"},
		UsePrefix: true,
		Cooldown:  10,
		Handler:   &Daily{Store: store},
	})
	r.MustRegister(&Descriptor{
		Name:      "setprefix",
		UsePrefix: true,
		Role:      1,
		Handler:   &SetPrefix{Store: store},
	})
	r.MustRegister(&Descriptor{
		Name:      "ban",
		UsePrefix: true,
		Role:      1,
		Handler:   &Ban{Store: store},
	})
	r.MustRegister(&Descriptor{
		Name:      "unban",
		UsePrefix: true,
		Role:      1,
		Handler:   &Unban{Store: store},
	})
	r.MustRegister(&Descriptor{
		Name:      "restart",
		UsePrefix: true,
		Role:      1,
		Cooldown:  30,
		Handler:   &Restart{StartedAt: time.Now(), Admins: admins, Logger: logger},
	})

	return r
}
