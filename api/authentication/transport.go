package authentication

import (
	"context"
	"net/http"

	"github.com/ShayanAhmad11606/FYP-autismart-sub001/api/shared"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/api/users"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/api"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/firebase"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/store"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/throttle"

	"github.com/go-kit/kit/endpoint"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/pkg/errors"
)

type HandlerFactory struct {
	Service Service `inject:""`
}

func (h *HandlerFactory) Register(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(makeRegisterEndpoint(h.Service), decodeRegisterRequest, shared.EncodeResponse201, opts...)
}

func (h *HandlerFactory) VerifyOtp(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(makeVerifyOtpEndpoint(h.Service), decodeVerifyOtpRequest, shared.EncodeResponse200, opts...)
}

func (h *HandlerFactory) Login(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(makeLoginEndpoint(h.Service), decodeLoginRequest, shared.EncodeResponse200, opts...)
}

func (h *HandlerFactory) ResendOtp(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(makeResendOtpEndpoint(h.Service), decodeIdentifierRequest, shared.EncodeResponse200, opts...)
}

func (h *HandlerFactory) ForgotPassword(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(makeForgotPasswordEndpoint(h.Service), decodeIdentifierRequest, shared.EncodeResponse200, opts...)
}

func (h *HandlerFactory) ResetPassword(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(makeResetPasswordEndpoint(h.Service), decodeResetPasswordRequest, shared.EncodeResponse200, opts...)
}

func (h *HandlerFactory) FirebaseLogin(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(makeFirebaseLoginEndpoint(h.Service), decodeFirebaseLoginRequest, shared.EncodeResponse200, opts...)
}

func (h *HandlerFactory) Profile(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(makeProfileEndpoint(h.Service), ignorePayload, shared.EncodeResponse200, opts...)
}

func (h *HandlerFactory) ChangePassword(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(makeChangePasswordEndpoint(h.Service), decodeChangePasswordRequest, shared.EncodeResponse200, opts...)
}

func sessionToTransport(session Session) api.SessionTransport {
	return api.SessionTransport{
		Token: session.Token,
		User:  users.ToTransport(session.User),
	}
}

func makeRegisterEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(api.RegisterRequest)
		user, err := svc.Register(ctx, req)
		if err != nil {
			return nil, err
		}
		message := "Registration successful, a verification code was sent to your email"
		if !user.Email.Valid {
			message = "Registration successful, a verification code was sent to your phone"
		}
		return shared.Response{
			Message: message,
			Data: api.RegisterResponse{
				UserId:      user.UserId.String,
				Email:       user.Email.String,
				PhoneNumber: user.PhoneNumber.String,
			},
		}, nil
	}
}

func makeVerifyOtpEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		session, err := svc.VerifyOtp(ctx, request.(api.VerifyOtpRequest))
		if err != nil {
			return nil, err
		}
		return shared.Response{Message: "Account verified", Data: sessionToTransport(session)}, nil
	}
}

func makeLoginEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		session, err := svc.Login(ctx, request.(api.LoginRequest))
		if err != nil {
			return nil, err
		}
		return shared.Response{Message: "Login successful", Data: sessionToTransport(session)}, nil
	}
}

func makeResendOtpEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		if err := svc.ResendOtp(ctx, request.(api.IdentifierRequest)); err != nil {
			return nil, err
		}
		return shared.Response{Message: "A new verification code was sent"}, nil
	}
}

func makeForgotPasswordEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		if err := svc.ForgotPassword(ctx, request.(api.IdentifierRequest)); err != nil {
			return nil, err
		}
		return shared.Response{Message: "A password reset code was sent"}, nil
	}
}

func makeResetPasswordEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		if err := svc.ResetPassword(ctx, request.(api.ResetPasswordRequest)); err != nil {
			return nil, err
		}
		return shared.Response{Message: "Password reset successful"}, nil
	}
}

func makeFirebaseLoginEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		session, err := svc.FirebaseLogin(ctx, request.(api.FirebaseLoginRequest))
		if err != nil {
			return nil, err
		}
		return shared.Response{Message: "Login successful", Data: sessionToTransport(session)}, nil
	}
}

func makeProfileEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		user, err := svc.Profile(ctx)
		if err != nil {
			return nil, err
		}
		return users.ToTransport(user), nil
	}
}

func makeChangePasswordEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		if err := svc.ChangePassword(ctx, request.(api.ChangePasswordRequest)); err != nil {
			return nil, err
		}
		return shared.Response{Message: "Password changed"}, nil
	}
}

func decodeRegisterRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var request api.RegisterRequest
	err := shared.DecodeJSON(r.Body, &request)
	return request, err
}

func decodeVerifyOtpRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var request api.VerifyOtpRequest
	err := shared.DecodeJSON(r.Body, &request)
	return request, err
}

func decodeLoginRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var request api.LoginRequest
	err := shared.DecodeJSON(r.Body, &request)
	return request, err
}

func decodeIdentifierRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var request api.IdentifierRequest
	err := shared.DecodeJSON(r.Body, &request)
	return request, err
}

func decodeResetPasswordRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var request api.ResetPasswordRequest
	err := shared.DecodeJSON(r.Body, &request)
	return request, err
}

func decodeFirebaseLoginRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var request api.FirebaseLoginRequest
	err := shared.DecodeJSON(r.Body, &request)
	return request, err
}

func decodeChangePasswordRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var request api.ChangePasswordRequest
	err := shared.DecodeJSON(r.Body, &request)
	return request, err
}

func ignorePayload(_ context.Context, r *http.Request) (interface{}, error) {
	return nil, nil
}

// encode errors from business-logic
func EncodeError(_ context.Context, err error, w http.ResponseWriter) {
	code := shared.DefaultStatus(err)
	switch errors.Cause(err) {
	case store.ErrUserNotFound:
		code = http.StatusNotFound
	case store.ErrEmailTaken, store.ErrPhoneTaken, firebase.ErrNoPhoneNumber:
		code = http.StatusBadRequest
	case ErrInvalidCredentials, firebase.ErrInvalidIdToken:
		code = http.StatusUnauthorized
	case ErrNotVerified:
		code = http.StatusForbidden
	case throttle.ErrTooManyRequests, ErrTooManyOtpAttempts:
		code = http.StatusTooManyRequests
	case ErrDeliveryFailed, firebase.ErrNotConfigured:
		code = http.StatusServiceUnavailable
	}
	shared.WriteError(w, err, code)
}
