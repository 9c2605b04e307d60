// internal/engine/provider/sms_sns.go
package provider

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	commonaws "notification-engine/internal/common/aws"
	commonerrors "notification-engine/internal/common/errors"
	"notification-engine/internal/models"
)

// SNSAPI is the SNS call surface. Interface for mocking.
type SNSAPI interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

// SNSMessaging delivers SMS through Amazon SNS direct publish. Like SES,
// credentials are tenant-scoped so the client is built per send.
type SNSMessaging struct {
	newClient func(ctx context.Context, cfg *models.AWSAPIConfig) (SNSAPI, error)
}

func NewSNSMessaging() *SNSMessaging {
	return &SNSMessaging{
		newClient: func(ctx context.Context, cfg *models.AWSAPIConfig) (SNSAPI, error) {
			return commonaws.NewSNSClient(ctx, cfg.Region, cfg.AccessKeyID, cfg.SecretAccessKey)
		},
	}
}

func (a *SNSMessaging) Name() string {
	return models.ProviderSNS
}

func (a *SNSMessaging) Send(ctx context.Context, cfg *models.ProviderConfig, to, subject, body string) Result {
	awsCfg := cfg.AWS
	if awsCfg == nil {
		return failure(commonerrors.NewInvalidProviderConfigError(a.Name(), "aws credentials missing"))
	}

	client, err := a.newClient(ctx, awsCfg)
	if err != nil {
		return failure(commonerrors.NewInvalidProviderConfigError(a.Name(), err.Error()))
	}

	out, err := client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(body),
	})
	if err != nil {
		return failure(commonerrors.ClassifyProviderError(a.Name(), 0, err))
	}

	messageID := ""
	if out != nil && out.MessageId != nil {
		messageID = *out.MessageId
	}
	return success(messageID)
}
