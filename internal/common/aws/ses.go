// internal/common/aws/ses.go
package aws

import (
	"context"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
)

// SESAPI is the subset of the SES client used for delivery. *ses.Client satisfies it.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// LoadConfig resolves credentials from the default chain for region.
func LoadConfig(ctx context.Context, region string) (awssdk.Config, error) {
	return config.LoadDefaultConfig(ctx, config.WithRegion(region))
}

func NewSESClient(cfg awssdk.Config) *ses.Client {
	return ses.NewFromConfig(cfg)
}
