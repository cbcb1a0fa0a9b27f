package channels

import (
	"context"
	"time"

	"notification-dispatcher/internal/common/errors"
	"notification-dispatcher/internal/common/logger"
	"notification-dispatcher/internal/models"

	"github.com/google/uuid"
)

// InboxWriter persists in-app notifications.
type InboxWriter interface {
	Create(ctx context.Context, n models.UINotification) error
}

type UIChannel struct {
	inbox  InboxWriter
	now    func() time.Time
	logger logger.Logger
}

func NewUIChannel(inbox InboxWriter, log logger.Logger) *UIChannel {
	return &UIChannel{
		inbox:  inbox,
		now:    time.Now,
		logger: log.WithFields(map[string]interface{}{"channel": string(models.ChannelUI)}),
	}
}

func (c *UIChannel) Type() models.ChannelType { return models.ChannelUI }

// Send stores an unread inbox entry. The subject is not shown in-app.
func (c *UIChannel) Send(ctx context.Context, recipient models.User, payload Payload) error {
	n := models.UINotification{
		ID:        uuid.NewString(),
		UserID:    recipient.ID,
		Content:   payload.Content,
		Read:      false,
		CreatedAt: c.now().UTC(),
	}

	if err := c.inbox.Create(ctx, n); err != nil {
		return errors.NewNotificationSendFailedError(string(models.ChannelUI), err)
	}

	c.logger.Debug("ui notification stored", map[string]interface{}{
		"userId":         recipient.ID,
		"notificationId": n.ID,
	})
	return nil
}
