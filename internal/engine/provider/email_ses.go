// internal/engine/provider/email_ses.go
package provider

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	commonaws "notification-engine/internal/common/aws"
	commonerrors "notification-engine/internal/common/errors"
	"notification-engine/internal/models"
)

// SESAPI is the SES call surface. Interface for mocking.
type SESAPI interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

// SESEmail delivers email through Amazon SES. Credentials come from the
// tenant's channel settings, so the client is built per send rather than
// shared process-wide.
type SESEmail struct {
	newClient func(ctx context.Context, cfg *models.AWSAPIConfig) (SESAPI, error)
}

func NewSESEmail() *SESEmail {
	return &SESEmail{
		newClient: func(ctx context.Context, cfg *models.AWSAPIConfig) (SESAPI, error) {
			return commonaws.NewSESClient(ctx, cfg.Region, cfg.AccessKeyID, cfg.SecretAccessKey)
		},
	}
}

func (a *SESEmail) Name() string {
	return models.ProviderSES
}

func (a *SESEmail) Send(ctx context.Context, cfg *models.ProviderConfig, to, subject, body string) Result {
	awsCfg := cfg.AWS
	if awsCfg == nil {
		return failure(commonerrors.NewInvalidProviderConfigError(a.Name(), "aws credentials missing"))
	}

	client, err := a.newClient(ctx, awsCfg)
	if err != nil {
		return failure(commonerrors.NewInvalidProviderConfigError(a.Name(), err.Error()))
	}

	out, err := client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(awsCfg.FromAddress),
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
