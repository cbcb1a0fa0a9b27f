// Package channels delivers rendered notifications over email, in-app inbox and SMS.
package channels

import (
	"context"
	"sync"

	"notification-dispatcher/internal/common/errors"
	"notification-dispatcher/internal/models"
)

// Payload is a rendered notification. An empty Subject means none.
type Payload struct {
	Subject string
	Content string
}

// Channel delivers a payload to a single recipient.
type Channel interface {
	Type() models.ChannelType
	Send(ctx context.Context, recipient models.User, payload Payload) error
}

// Registry maps channel types to implementations.
type Registry struct {
	mu       sync.RWMutex
	channels map[models.ChannelType]Channel
}

func NewRegistry(channels ...Channel) *Registry {
	r := &Registry{channels: make(map[models.ChannelType]Channel, len(channels))}
	for _, ch := range channels {
		r.Register(ch)
	}
	return r
}

// Register adds ch, replacing any channel of the same type.
func (r *Registry) Register(ch Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels[ch.Type()] = ch
}

// Get returns the channel for channelType or an UNSUPPORTED_CHANNEL error.
func (r *Registry) Get(channelType models.ChannelType) (Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ch, ok := r.channels[channelType]
	if !ok {
		return nil, errors.NewUnsupportedChannelError(string(channelType))
	}
	return ch, nil
}

// Types lists the registered channel types.
func (r *Registry) Types() []models.ChannelType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.ChannelType, 0, len(r.channels))
	for t := range r.channels {
		out = append(out, t)
	}
	return out
}
