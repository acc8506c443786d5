package mocks

import (
	"context"

	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/firebase"

	"firebase.google.com/go/auth"
	"github.com/stretchr/testify/mock"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) VerifyPhoneToken(ctx context.Context, idToken string) (firebase.PhoneIdentity, error) {
	args := m.Called(ctx, idToken)
	return args.Get(0).(firebase.PhoneIdentity), args.Error(1)
}

// MockAuthClient stands for the firebase admin auth client.
type MockAuthClient struct {
	mock.Mock
}

func (m *MockAuthClient) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	args := m.Called(ctx, idToken)
	token, _ := args.Get(0).(*auth.Token)
	return token, args.Error(1)
}
