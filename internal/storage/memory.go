package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/devfahim/levelbot/internal/models"
)

// MemoryStorage keeps profiles in process memory. Used by tests and as a
// throwaway backend for local development.
type MemoryStorage struct {
	mu     sync.RWMutex
	users  map[string]*models.UserProfile
	groups map[string]*models.GroupProfile
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		users:  make(map[string]*models.UserProfile),
		groups: make(map[string]*models.GroupProfile),
	}
}

func (s *MemoryStorage) GetUser(ctx context.Context, telegramID string) (*models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[telegramID]
	if !exists {
		return nil, ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *MemoryStorage) SaveUser(ctx context.Context, user *models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *user
	s.users[user.TelegramID] = &copied
	return nil
}

func (s *MemoryStorage) UserRank(ctx context.Context, telegramID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[telegramID]
	if !exists {
		return 0, ErrNotFound
	}

	rank := 1
	for _, other := range s.users {
		if other.XP > user.XP {
			rank++
		}
	}
	return rank, nil
}

func (s *MemoryStorage) TopUsersByXP(ctx context.Context, limit int) ([]*models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*models.UserProfile, 0, len(s.users))
	for _, u := range s.users {
		copied := *u
		users = append(users, &copied)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].XP != users[j].XP {
			return users[i].XP > users[j].XP
		}
		return users[i].TelegramID < users[j].TelegramID
	})
	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

func (s *MemoryStorage) GetGroup(ctx context.Context, groupID string) (*models.GroupProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	group, exists := s.groups[groupID]
	if !exists {
		return nil, ErrNotFound
	}
	copied := *group
	return &copied, nil
}

func (s *MemoryStorage) SaveGroup(ctx context.Context, group *models.GroupProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *group
	s.groups[group.GroupID] = &copied
	return nil
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}
