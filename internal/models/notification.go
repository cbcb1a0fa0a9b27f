// internal/models/notification.go
package models

import "time"

// NotificationType identifies a kind of notification.
type NotificationType string

const (
	HappyBirthday        NotificationType = "happy-birthday"
	MonthlyPayslip       NotificationType = "monthly-payslip"
	LeaveBalanceReminder NotificationType = "leave-balance-reminder"
)

// ChannelType identifies a delivery mechanism.
type ChannelType string

const (
	ChannelEmail ChannelType = "email"
	ChannelUI    ChannelType = "ui"
	ChannelSMS   ChannelType = "sms"
)

// SendRequest is the inbound notification request.
type SendRequest struct {
	UserID    string           `json:"userId"`
	CompanyID string           `json:"companyId"`
	Type      NotificationType `json:"type"`
}

// UINotification is an in-app inbox entry.
type UINotification struct {
	ID        string    `json:"id" bson:"_id"`
	UserID    string    `json:"userId" bson:"userId"`
	Content   string    `json:"content" bson:"content"`
	Read      bool      `json:"read" bson:"read"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// Delivery outcomes for a single channel attempt.
const (
	DeliverySent    = "sent"
	DeliverySkipped = "skipped"
	DeliveryFailed  = "failed"
)

// ChannelOutcome is the result of one channel task.
type ChannelOutcome struct {
	Channel  ChannelType   `json:"channel"`
	Status   string        `json:"status"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"-"`
}

// DispatchResult summarizes one SendNotification call.
type DispatchResult struct {
	UserID            string           `json:"userId"`
	CompanyID         string           `json:"companyId"`
	Type              NotificationType `json:"type"`
	ChannelsAttempted []ChannelType    `json:"channelsAttempted"`
	ChannelsSent      []ChannelType    `json:"channelsSent"`
	ChannelsSkipped   []ChannelType    `json:"channelsSkipped"`
	ChannelsFailed    []ChannelType    `json:"channelsFailed"`
}
