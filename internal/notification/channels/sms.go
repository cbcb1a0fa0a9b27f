package channels

import (
	"context"

	commonaws "notification-dispatcher/internal/common/aws"
	"notification-dispatcher/internal/common/errors"
	"notification-dispatcher/internal/common/logger"
	"notification-dispatcher/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

type SMSChannel struct {
	client   commonaws.SNSAPI
	senderID string
	logger   logger.Logger
}

func NewSMSChannel(client commonaws.SNSAPI, senderID string, log logger.Logger) *SMSChannel {
	return &SMSChannel{
		client:   client,
		senderID: senderID,
		logger:   log.WithFields(map[string]interface{}{"channel": string(models.ChannelSMS)}),
	}
}

func (c *SMSChannel) Type() models.ChannelType { return models.ChannelSMS }

// Send publishes the content as a transactional SMS to the recipient's phone.
func (c *SMSChannel) Send(ctx context.Context, recipient models.User, payload Payload) error {
	if recipient.Phone == "" {
		return errors.NewValidationFailedError("recipient " + recipient.ID + " has no phone number")
	}

	input := &sns.PublishInput{
		PhoneNumber: aws.String(recipient.Phone),
		Message:     aws.String(payload.Content),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"AWS.SNS.SMS.SMSType": {DataType: aws.String("String"), StringValue: aws.String("Transactional")},
		},
	}
	if c.senderID != "" {
		input.MessageAttributes["AWS.SNS.SMS.SenderID"] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(c.senderID),
		}
	}

	out, err := c.client.Publish(ctx, input)
	if err != nil {
		return errors.NewNotificationSendFailedError(string(models.ChannelSMS), err)
	}

	c.logger.Info("sms sent", map[string]interface{}{
		"userId":    recipient.ID,
		"messageId": aws.ToString(out.MessageId),
	})
	return nil
}
