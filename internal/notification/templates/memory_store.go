package templates

import (
	"context"
	"sync"

	"notification-dispatcher/internal/models"
)

type recordKey struct {
	notificationType models.NotificationType
	channel          models.ChannelType
	companyID        string
}

// MemoryStore keeps templates in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[recordKey]models.TemplateRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[recordKey]models.TemplateRecord)}
}

func (s *MemoryStore) FindCandidates(_ context.Context, notificationType models.NotificationType, channel models.ChannelType, companyID string) ([]models.TemplateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.TemplateRecord, 0, 2)
	if companyID != "" {
		if rec, ok := s.records[recordKey{notificationType, channel, companyID}]; ok {
			out = append(out, rec)
		}
	}
	if rec, ok := s.records[recordKey{notificationType, channel, ""}]; ok {
		out = append(out, rec)
	}
	return out, nil
}

func (s *MemoryStore) Upsert(_ context.Context, record models.TemplateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[recordKey{record.Type, record.Channel, record.CompanyID}] = record
	return nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
