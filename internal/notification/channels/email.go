package channels

import (
	"context"

	commonaws "notification-dispatcher/internal/common/aws"
	"notification-dispatcher/internal/common/errors"
	"notification-dispatcher/internal/common/logger"
	"notification-dispatcher/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// EmailSender hands a message to a mail provider.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

type EmailChannel struct {
	sender EmailSender
	logger logger.Logger
}

func NewEmailChannel(sender EmailSender, log logger.Logger) *EmailChannel {
	return &EmailChannel{
		sender: sender,
		logger: log.WithFields(map[string]interface{}{"channel": string(models.ChannelEmail)}),
	}
}

func (c *EmailChannel) Type() models.ChannelType { return models.ChannelEmail }

func (c *EmailChannel) Send(ctx context.Context, recipient models.User, payload Payload) error {
	if recipient.Email == "" {
		return errors.NewValidationFailedError("recipient " + recipient.ID + " has no email address")
	}

	if err := c.sender.SendEmail(ctx, recipient.Email, payload.Subject, payload.Content); err != nil {
		return errors.NewNotificationSendFailedError(string(models.ChannelEmail), err)
	}

	c.logger.Info("email sent", map[string]interface{}{
		"userId":  recipient.ID,
		"subject": payload.Subject,
	})
	return nil
}

// SESSender sends plain-text email through Amazon SES.
type SESSender struct {
	client    commonaws.SESAPI
	fromEmail string
}

func NewSESSender(client commonaws.SESAPI, fromEmail string) *SESSender {
	return &SESSender{client: client, fromEmail: fromEmail}
}

func (s *SESSender) SendEmail(ctx context.Context, to, subject, body string) error {
	_, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
			},
		},
		Source: aws.String(s.fromEmail),
	})
	return err
}

// LogSender only logs the message. Used when no mail provider is configured.
type LogSender struct {
	logger logger.Logger
}

func NewLogSender(log logger.Logger) *LogSender {
	return &LogSender{logger: log.WithFields(map[string]interface{}{"component": "log-email-sender"})}
}

func (s *LogSender) SendEmail(_ context.Context, to, subject, body string) error {
	s.logger.Info("sending email", map[string]interface{}{
		"to":      to,
		"subject": subject,
		"body":    body,
	})
	return nil
}
