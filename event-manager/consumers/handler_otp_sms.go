package consumers

import (
	"context"
	"encoding/json"

	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/log"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/notification"

	"github.com/pkg/errors"
)

var (
	ErrMissingRecipient = errors.New("recipient is mandatory")
	ErrMissingOtp       = errors.New("otp is mandatory")
)

// OtpSmsHandler delivers the passcodes the api queued instead of texting them itself.
type OtpSmsHandler struct {
	Sender notification.SmsSender `inject:"smsSender"`
	Logger *log.Logger            `inject:""`
}

func (h *OtpSmsHandler) CanHandle(event Event) bool {
	return event.Type == notification.EventTypeOtpSms
}

func (h *OtpSmsHandler) Name() string {
	return notification.EventTypeOtpSms
}

func (h *OtpSmsHandler) Handle(ctx context.Context, event Event) error {
	message := notification.OtpMessage{}
	if err := json.Unmarshal(event.Data, &message); err != nil {
		return Permanent(errors.Wrap(err, "failed to decode otp message"))
	}
	if message.Recipient == "" {
		return Permanent(ErrMissingRecipient)
	}
	if message.Otp == "" {
		return Permanent(ErrMissingOtp)
	}

	if err := h.Sender.SendOtpSms(ctx, message); err != nil {
		return errors.Wrap(err, "failed to send otp sms")
	}
	h.Logger.Info(ctx, "otp sms delivered", "eventId", event.Id, "purpose", message.Purpose)
	return nil
}
