package notification

import (
	"context"
	"fmt"

	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/pkg/errors"
)

var ErrEmailNotConfigured = errors.New("email delivery is not configured")

type sesApi interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SesEmailSender delivers emails through Amazon SES. Without a sender address every send fails with
// ErrEmailNotConfigured, unless logOnly is set: the code is then written to the debug log instead.
type SesEmailSender struct {
	client    sesApi
	fromEmail string
	fromName  string
	enabled   bool
	logOnly   bool
	Logger    *log.Logger `inject:""`
}

func NewSesEmailSender(ctx context.Context, awsRegion, fromEmail, fromName string, logOnly bool) (*SesEmailSender, error) {
	if fromEmail == "" {
		return &SesEmailSender{enabled: false, logOnly: logOnly}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, errors.Wrap(err, "failed to load aws config")
	}

	return &SesEmailSender{
		client:    sesv2.NewFromConfig(cfg),
		fromEmail: fromEmail,
		fromName:  fromName,
		enabled:   true,
	}, nil
}

func (s *SesEmailSender) IsEnabled() bool {
	return s.enabled
}

func (s *SesEmailSender) SendOtpEmail(ctx context.Context, message OtpMessage) error {
	if !s.enabled {
		if !s.logOnly {
			return ErrEmailNotConfigured
		}
		if s.Logger != nil {
			s.Logger.Debug(ctx, "email delivery disabled, otp logged instead", "recipient", message.Recipient, "purpose", message.Purpose, "otp", message.Otp)
		}
		return nil
	}

	from := s.fromEmail
	if s.fromName != "" {
		from = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: []string{message.Recipient},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(message.Subject()), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(message.Html()), Charset: aws.String("UTF-8")},
					Text: &types.Content{Data: aws.String(message.Text()), Charset: aws.String("UTF-8")},
				},
			},
		},
	})
	if err != nil {
		return errors.Wrap(err, "failed to send email")
	}
	return nil
}
