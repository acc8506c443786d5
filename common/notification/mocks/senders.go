package mocks

import (
	"context"

	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/notification"

	"github.com/stretchr/testify/mock"
)

type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendOtpEmail(ctx context.Context, message notification.OtpMessage) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

type MockSmsSender struct {
	mock.Mock
}

func (m *MockSmsSender) SendOtpSms(ctx context.Context, message notification.OtpMessage) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

// LastOtp returns the passcode of the most recent successful send.
func LastOtp(m *mock.Mock) string {
	for i := len(m.Calls) - 1; i >= 0; i-- {
		if message, ok := m.Calls[i].Arguments.Get(1).(notification.OtpMessage); ok {
			return message.Otp
		}
	}
	return ""
}
