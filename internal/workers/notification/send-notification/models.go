// internal/workers/notification/send-notification/models.go
package sendnotification

import "notification-dispatcher/internal/models"

type Input struct {
	UserID    string `json:"userId"`
	CompanyID string `json:"companyId"`
	Type      string `json:"type"`
}

func (i *Input) toRequest() models.SendRequest {
	return models.SendRequest{
		UserID:    i.UserID,
		CompanyID: i.CompanyID,
		Type:      models.NotificationType(i.Type),
	}
}

type Output struct {
	NotificationStatus string               `json:"notificationStatus"`
	ChannelsSent       []models.ChannelType `json:"channelsSent"`
	ChannelsSkipped    []models.ChannelType `json:"channelsSkipped"`
	ChannelsFailed     []models.ChannelType `json:"channelsFailed"`
	ProcessedAt        string               `json:"processedAt"` // ISO 8601
}

// Statuses
const (
	StatusSent       = "sent"
	StatusPartial    = "partial"
	StatusFailed     = "failed"
	StatusNoChannels = "no_channels"
)
