package notification

import (
	"context"

	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/pkg/errors"
)

type snsApi interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SnsSmsSender sends transactional text messages through Amazon SNS.
type SnsSmsSender struct {
	client   snsApi
	senderId string
	Logger   *log.Logger `inject:""`
}

func NewSnsSmsSender(ctx context.Context, awsRegion, senderId string) (*SnsSmsSender, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, errors.Wrap(err, "failed to load aws config")
	}
	return &SnsSmsSender{
		client:   sns.NewFromConfig(cfg),
		senderId: senderId,
	}, nil
}

func (s *SnsSmsSender) SendOtpSms(ctx context.Context, message OtpMessage) error {
	attributes := map[string]types.MessageAttributeValue{
		"AWS.SNS.SMS.SMSType": {
			DataType:    aws.String("String"),
			StringValue: aws.String("Transactional"),
		},
	}
	if s.senderId != "" {
		attributes["AWS.SNS.SMS.SenderID"] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(s.senderId),
		}
	}

	out, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber:       aws.String(message.Recipient),
		Message:           aws.String(message.Text()),
		MessageAttributes: attributes,
	})
	if err != nil {
		return errors.Wrap(err, "failed to send sms")
	}
	if s.Logger != nil {
		s.Logger.Debug(ctx, "sms sent", "messageId", aws.ToString(out.MessageId), "purpose", message.Purpose)
	}
	return nil
}
