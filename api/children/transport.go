package children

import (
	"context"
	"net/http"

	"github.com/ShayanAhmad11606/FYP-autismart-sub001/api/shared"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/api"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/reporting"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/storage"
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
		decodeChildRequest,
		shared.EncodeResponse201,
		opts...,
	)
}

func (h *HandlerFactory) Get(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeGetEndpoint(h.Service),
		decodeChildIdRequest,
		shared.EncodeResponse200,
		opts...,
	)
}

func (h *HandlerFactory) Delete(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeDeleteEndpoint(h.Service),
		decodeChildIdRequest,
		shared.EncodeResponse200,
		opts...,
	)
}

func (h *HandlerFactory) Update(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeUpdateEndpoint(h.Service),
		decodeUpdateChildRequest,
		shared.EncodeResponse200,
		opts...,
	)
}

func (h *HandlerFactory) List(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeListEndpoint(h.Service),
		ignorePayload,
		shared.EncodeResponse200,
		opts...,
	)
}

func makeAddEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(api.ChildRequest)
		child, err := svc.AddChild(ctx, req)
		if err != nil {
			return nil, err
		}
		return shared.Response{Message: "Child added", Data: ToTransport(child, svc.ImageUrl(ctx, child))}, nil
	}
}

func makeGetEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(api.ChildRequest)
		child, err := svc.GetChild(ctx, req.Id)
		if err != nil {
			return nil, err
		}
		return ToTransport(child, svc.ImageUrl(ctx, child)), nil
	}
}

func makeDeleteEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(api.ChildRequest)
		if err := svc.DeleteChild(ctx, req.Id); err != nil {
			return nil, err
		}
		return shared.Response{Message: "Child deleted"}, nil
	}
}

func makeListEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		children, err := svc.ListChildren(ctx)
		if err != nil {
			return nil, err
		}
		childrenRet := []api.ChildTransport{}
		for _, child := range children {
			// the json response carries a temporary uri, the frontend can do whatever it wants with it
			childrenRet = append(childrenRet, ToTransport(child, svc.ImageUrl(ctx, child)))
		}
		return childrenRet, nil
	}
}

func makeUpdateEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(api.ChildRequest)
		child, err := svc.UpdateChild(ctx, req)
		if err != nil {
			return nil, err
		}
		return shared.Response{Message: "Child updated", Data: ToTransport(child, svc.ImageUrl(ctx, child))}, nil
	}
}

func decodeChildRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var request api.ChildRequest
	if err := shared.DecodeJSON(r.Body, &request); err != nil {
		return nil, err
	}
	return request, nil
}

func decodeChildIdRequest(_ context.Context, r *http.Request) (interface{}, error) {
	childId, ok := mux.Vars(r)["childId"]
	if !ok {
		return nil, shared.ErrBadRouting
	}
	return api.ChildRequest{Id: childId}, nil
}

func decodeUpdateChildRequest(_ context.Context, r *http.Request) (interface{}, error) {
	childId, ok := mux.Vars(r)["childId"]
	if !ok {
		return nil, shared.ErrBadRouting
	}
	var request api.ChildRequest
	if err := shared.DecodeJSON(r.Body, &request); err != nil {
		return nil, err
	}
	request.Id = childId
	return request, nil
}

func ignorePayload(_ context.Context, r *http.Request) (interface{}, error) {
	return nil, nil
}

// StatusOf maps the child lookup errors shared by every route nested under a child.
func StatusOf(err error) int {
	switch errors.Cause(err) {
	case store.ErrChildNotFound:
		return http.StatusNotFound
	case ErrNotOwner:
		return http.StatusForbidden
	}
	return shared.DefaultStatus(err)
}

// encode errors from business-logic
func EncodeError(_ context.Context, err error, w http.ResponseWriter) {
	code := StatusOf(err)
	switch errors.Cause(err) {
	case storage.ErrUnsupportedFileFormat, storage.ErrInvalidEncoding:
		code = http.StatusBadRequest
	}
	shared.WriteError(w, err, code)
}

func ToTransport(child store.Child, imageUrl string) api.ChildTransport {
	ret := api.ChildTransport{
		Id:           child.ChildId.String,
		CaregiverId:  child.CaregiverId.String,
		Name:         child.Name.String,
		Age:          int(child.Age.Int64),
		Gender:       child.Gender.String,
		Diagnosis:    child.Diagnosis.String,
		SpecialNeeds: child.SpecialNeeds.String,
		Notes:        child.Notes.String,
		ImageUri:     imageUrl,
		CreatedAt:    child.CreatedAt,
		UpdatedAt:    child.UpdatedAt,
	}
	if child.DateOfBirth != nil {
		ret.DateOfBirth = child.DateOfBirth.UTC().Format(reporting.DateLayout)
	}
	return ret
}
