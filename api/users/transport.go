package users

import (
	"context"
	"net/http"
	"strconv"

	"github.com/ShayanAhmad11606/FYP-autismart-sub001/api/shared"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/api"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/store"

	"github.com/go-kit/kit/endpoint"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

type HandlerFactory struct {
	Service Service `inject:""`
}

func (h *HandlerFactory) Add(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeAddEndpoint(h.Service),
		decodeUserRequest,
		shared.EncodeResponse201,
		opts...,
	)
}

func (h *HandlerFactory) List(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeListEndpoint(h.Service),
		decodeListRequest,
		shared.EncodeResponse200,
		opts...,
	)
}

func (h *HandlerFactory) Get(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeGetEndpoint(h.Service),
		decodeUserIdRequest,
		shared.EncodeResponse200,
		opts...,
	)
}

func (h *HandlerFactory) Update(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeUpdateEndpoint(h.Service),
		decodeUpdateUserRequest,
		shared.EncodeResponse200,
		opts...,
	)
}

func (h *HandlerFactory) Delete(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeDeleteEndpoint(h.Service),
		decodeUserIdRequest,
		shared.EncodeResponse200,
		opts...,
	)
}

func (h *HandlerFactory) Stats(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeStatsEndpoint(h.Service),
		ignorePayload,
		shared.EncodeResponse200,
		opts...,
	)
}

func makeAddEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(api.UserRequest)
		user, err := svc.AddUser(ctx, req)
		if err != nil {
			return nil, err
		}
		return shared.Response{Message: "User created", Data: ToTransport(user)}, nil
	}
}

func makeListEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		filter := request.(store.UserFilter)
		users, err := svc.ListUsers(ctx, filter)
		if err != nil {
			return nil, err
		}
		usersRet := []api.UserTransport{}
		for _, user := range users {
			usersRet = append(usersRet, ToTransport(user))
		}
		return usersRet, nil
	}
}

func makeGetEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(api.UserRequest)
		user, err := svc.GetUser(ctx, req.Id)
		if err != nil {
			return nil, err
		}
		return ToTransport(user), nil
	}
}

func makeUpdateEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(api.UserRequest)
		user, err := svc.UpdateUser(ctx, req)
		if err != nil {
			return nil, err
		}
		return shared.Response{Message: "User updated", Data: ToTransport(user)}, nil
	}
}

func makeDeleteEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(api.UserRequest)
		if err := svc.DeleteUser(ctx, req.Id); err != nil {
			return nil, err
		}
		return shared.Response{Message: "User deleted"}, nil
	}
}

func makeStatsEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		return svc.Stats(ctx)
	}
}

func decodeUserRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var request api.UserRequest
	if err := shared.DecodeJSON(r.Body, &request); err != nil {
		return nil, err
	}
	return request, nil
}

func decodeListRequest(_ context.Context, r *http.Request) (interface{}, error) {
	query := r.URL.Query()
	filter := store.UserFilter{Role: query.Get("role")}

	parseFlag := func(name string) (*bool, error) {
		value := query.Get(name)
		if value == "" {
			return nil, nil
		}
		flag, err := strconv.ParseBool(value)
		if err != nil {
			return nil, shared.Invalid(name + " must be true or false")
		}
		return &flag, nil
	}

	var err error
	if filter.IsEmailVerified, err = parseFlag("isEmailVerified"); err != nil {
		return nil, err
	}
	if filter.IsPhoneVerified, err = parseFlag("isPhoneVerified"); err != nil {
		return nil, err
	}
	return filter, nil
}

func decodeUserIdRequest(_ context.Context, r *http.Request) (interface{}, error) {
	id, ok := mux.Vars(r)["userId"]
	if !ok {
		return nil, shared.ErrBadRouting
	}
	return api.UserRequest{Id: id}, nil
}

func decodeUpdateUserRequest(_ context.Context, r *http.Request) (interface{}, error) {
	id, ok := mux.Vars(r)["userId"]
	if !ok {
		return nil, shared.ErrBadRouting
	}
	var request api.UserRequest
	if err := shared.DecodeJSON(r.Body, &request); err != nil {
		return nil, err
	}
	request.Id = id
	return request, nil
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
	case store.ErrEmailTaken, store.ErrPhoneTaken:
		code = http.StatusBadRequest
	case store.ErrUserInUse:
		code = http.StatusConflict
	}
	shared.WriteError(w, err, code)
}

func ToTransport(user store.User) api.UserTransport {
	return api.UserTransport{
		Id:              user.UserId.String,
		Name:            user.Name.String,
		Email:           user.Email.String,
		PhoneNumber:     user.PhoneNumber.String,
		Role:            user.Role.String,
		IsEmailVerified: user.IsEmailVerified,
		IsPhoneVerified: user.IsPhoneVerified,
		CreatedAt:       user.CreatedAt,
		UpdatedAt:       user.UpdatedAt,
	}
}
