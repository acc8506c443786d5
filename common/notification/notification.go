package notification

import (
	"context"
	"fmt"
	"time"
)

const EventTypeOtpSms = "otp.sms"

type Purpose string

const (
	PurposeVerification  Purpose = "verification"
	PurposePasswordReset Purpose = "passwordReset"
)

// OtpMessage carries a one time passcode to a single recipient (email address or phone number).
type OtpMessage struct {
	Recipient string        `json:"recipient"`
	Name      string        `json:"name"`
	Otp       string        `json:"otp"`
	Purpose   Purpose       `json:"purpose"`
	ExpiresIn time.Duration `json:"expiresIn"`
}

type EmailSender interface {
	SendOtpEmail(ctx context.Context, message OtpMessage) error
}

type SmsSender interface {
	SendOtpSms(ctx context.Context, message OtpMessage) error
}

func (m OtpMessage) Subject() string {
	switch m.Purpose {
	case PurposePasswordReset:
		return "Reset your AutiSmart password"
	default:
		return "Verify your AutiSmart account"
	}
}

func (m OtpMessage) Text() string {
	minutes := int(m.ExpiresIn.Minutes())
	switch m.Purpose {
	case PurposePasswordReset:
		return fmt.Sprintf("Your AutiSmart password reset code is %s. It expires in %d minutes.", m.Otp, minutes)
	default:
		return fmt.Sprintf("Your AutiSmart verification code is %s. It expires in %d minutes.", m.Otp, minutes)
	}
}

func (m OtpMessage) Html() string {
	greeting := "Hello"
	if m.Name != "" {
		greeting = "Hello " + m.Name
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; color: #333;">
	<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
		<h2 style="color: #4a90e2;">%s</h2>
		<p>%s,</p>
		<p>%s</p>
		<p style="font-size: 28px; letter-spacing: 6px; font-weight: bold;">%s</p>
		<p style="font-size: 12px; color: #666;">If you did not request this code you can ignore this email.</p>
	</div>
</body>
</html>`, m.Subject(), greeting, m.Text(), m.Otp)
}
