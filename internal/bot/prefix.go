package bot

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/devfahim/levelbot/internal/storage"
)

// PrefixResolver returns the effective command prefix for a chat: the group's
// configured override when one exists, the global default otherwise. A lookup
// failure is logged and falls back to the default; it never aborts dispatch.
type PrefixResolver struct {
	store         storage.Storage
	defaultPrefix string
	logger        *zap.Logger
}

func NewPrefixResolver(store storage.Storage, defaultPrefix string, logger *zap.Logger) *PrefixResolver {
	return &PrefixResolver{
		store:         store,
		defaultPrefix: defaultPrefix,
		logger:        logger,
	}
}

func (p *PrefixResolver) Resolve(ctx context.Context, chatID string) string {
	group, err := p.store.GetGroup(ctx, chatID)
	if errors.Is(err, storage.ErrNotFound) {
		return p.defaultPrefix
	}
	if err != nil {
		p.logger.Error("Group prefix lookup failed",
			zap.Error(err),
			zap.String("chat_id", chatID))
		return p.defaultPrefix
	}
	if group.Prefix == "" {
		return p.defaultPrefix
	}
	return group.Prefix
}
