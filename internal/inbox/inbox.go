// Package inbox persists in-app notifications and lists them per user.
package inbox

import (
	"context"
	"sort"
	"sync"

	"notification-dispatcher/internal/models"
)

// Store persists UI notifications. ListByUser returns newest first.
type Store interface {
	Create(ctx context.Context, n models.UINotification) error
	ListByUser(ctx context.Context, userID string) ([]models.UINotification, error)
}

type MemoryStore struct {
	mu     sync.RWMutex
	byUser map[string][]models.UINotification
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byUser: make(map[string][]models.UINotification)}
}

func (s *MemoryStore) Create(_ context.Context, n models.UINotification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUser[n.UserID] = append(s.byUser[n.UserID], n)
	return nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userID string) ([]models.UINotification, error) {
	s.mu.RLock()
	stored := s.byUser[userID]
	out := make([]models.UINotification, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		out = append(out, stored[i])
	}
	s.mu.RUnlock()

	// Equal timestamps keep the reversed insertion order.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
