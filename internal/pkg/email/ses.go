package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/cmlabs-hris/hours-report/internal/config"
	"github.com/cmlabs-hris/hours-report/internal/domain/notification"
	"github.com/cmlabs-hris/hours-report/internal/pkg/redact"
)

// SESAPI is the subset of the SES v2 client used for sending.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

type SESMailer struct {
	client SESAPI
	sender Sender
	logger *slog.Logger
}

// NewSESClient builds an SES v2 client. Static credentials are used when
// configured, otherwise the default AWS chain applies.
func NewSESClient(ctx context.Context, cfg config.SESConfig) (*sesv2.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return sesv2.NewFromConfig(awsCfg), nil
}

func NewSESMailer(client SESAPI, sender Sender, logger *slog.Logger) *SESMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SESMailer{client: client, sender: sender, logger: logger.With("stage", "deliver")}
}

// Send submits the raw MIME message so attachments survive unchanged.
func (m *SESMailer) Send(ctx context.Context, msg notification.Email) error {
	data, err := BuildMessage(m.sender, msg, time.Now())
	if err != nil {
		return err
	}

	out, err := m.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.sender.String()),
		Destination:      &types.Destination{ToAddresses: msg.To},
		Content: &types.EmailContent{
			Raw: &types.RawMessage{Data: data},
		},
	})
	if err != nil {
		m.logger.Error("Failed to send email via SES", "to", redact.Emails(msg.To), "subject", msg.Subject, "error", err)
		return fmt.Errorf("ses send: %w", err)
	}

	m.logger.Info("Email sent successfully",
		"to", redact.Emails(msg.To),
		"subject", msg.Subject,
		"message_id", aws.ToString(out.MessageId),
	)
	return nil
}
