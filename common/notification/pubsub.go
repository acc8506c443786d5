package notification

import (
	"context"

	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/messaging"

	"github.com/pkg/errors"
)

// PubSubSmsSender hands text messages to the event-manager through the messaging topic.
type PubSubSmsSender struct {
	Publisher messaging.Publisher `inject:""`
}

func (s *PubSubSmsSender) SendOtpSms(ctx context.Context, message OtpMessage) error {
	event, err := messaging.NewEvent(EventTypeOtpSms, message)
	if err != nil {
		return err
	}
	if err := s.Publisher.Publish(ctx, event); err != nil {
		return errors.Wrap(err, "failed to queue sms")
	}
	return nil
}
