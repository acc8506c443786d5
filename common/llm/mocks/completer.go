package mocks

import (
	"context"

	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/llm"

	"github.com/stretchr/testify/mock"
)

type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Complete(ctx context.Context, system, prompt string) (llm.Completion, error) {
	args := m.Called(ctx, system, prompt)
	return args.Get(0).(llm.Completion), args.Error(1)
}
