package mocks

import (
	"context"

	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/api"

	"github.com/stretchr/testify/mock"
)

type MockApiClient struct {
	mock.Mock
}

func (m *MockApiClient) Register(ctx context.Context, request api.RegisterRequest) (api.RegisterResponse, error) {
	args := m.Called(ctx, request)
	return args.Get(0).(api.RegisterResponse), args.Error(1)
}

func (m *MockApiClient) VerifyOtp(ctx context.Context, request api.VerifyOtpRequest) (api.Session, error) {
	args := m.Called(ctx, request)
	return args.Get(0).(api.Session), args.Error(1)
}

func (m *MockApiClient) Login(ctx context.Context, request api.LoginRequest) (api.Session, error) {
	args := m.Called(ctx, request)
	return args.Get(0).(api.Session), args.Error(1)
}

func (m *MockApiClient) Logout(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockApiClient) Profile(ctx context.Context) (api.UserTransport, error) {
	args := m.Called(ctx)
	return args.Get(0).(api.UserTransport), args.Error(1)
}

func (m *MockApiClient) ListChildren(ctx context.Context) ([]api.ChildTransport, error) {
	args := m.Called(ctx)
	return args.Get(0).([]api.ChildTransport), args.Error(1)
}

func (m *MockApiClient) GetChild(ctx context.Context, childId string) (api.ChildTransport, error) {
	args := m.Called(ctx, childId)
	return args.Get(0).(api.ChildTransport), args.Error(1)
}

func (m *MockApiClient) AddChild(ctx context.Context, child api.ChildRequest) (api.ChildTransport, error) {
	args := m.Called(ctx, child)
	return args.Get(0).(api.ChildTransport), args.Error(1)
}

func (m *MockApiClient) RecordActivity(ctx context.Context, activity api.ActivityRequest) (api.ActivityTransport, error) {
	args := m.Called(ctx, activity)
	return args.Get(0).(api.ActivityTransport), args.Error(1)
}

func (m *MockApiClient) ListActivities(ctx context.Context, childId string, limit int) ([]api.ActivityTransport, error) {
	args := m.Called(ctx, childId, limit)
	return args.Get(0).([]api.ActivityTransport), args.Error(1)
}

func (m *MockApiClient) Report(ctx context.Context, childId string) (api.ReportTransport, error) {
	args := m.Called(ctx, childId)
	return args.Get(0).(api.ReportTransport), args.Error(1)
}

func (m *MockApiClient) DownloadReport(ctx context.Context, childId string) ([]byte, error) {
	args := m.Called(ctx, childId)
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockApiClient) GenerateInsight(ctx context.Context, request api.InsightRequest) (api.InsightTransport, error) {
	args := m.Called(ctx, request)
	return args.Get(0).(api.InsightTransport), args.Error(1)
}

func (m *MockApiClient) ListAssessments(ctx context.Context) ([]api.AssessmentTransport, error) {
	args := m.Called(ctx)
	return args.Get(0).([]api.AssessmentTransport), args.Error(1)
}

func (m *MockApiClient) GetAssessment(ctx context.Context, level string) (api.AssessmentTransport, error) {
	args := m.Called(ctx, level)
	return args.Get(0).(api.AssessmentTransport), args.Error(1)
}
