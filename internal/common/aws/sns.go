// internal/common/aws/sns.go
package aws

import (
	"context"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// SNSAPI is the subset of the SNS client used for SMS. *sns.Client satisfies it.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func NewSNSClient(cfg awssdk.Config) *sns.Client {
	return sns.NewFromConfig(cfg)
}
