package insights

import (
	"context"
	"net/http"

	"github.com/ShayanAhmad11606/FYP-autismart-sub001/api/children"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/api/shared"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/api"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/llm"

	"github.com/go-kit/kit/endpoint"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

type HandlerFactory struct {
	Service Service `inject:""`
}

func (h *HandlerFactory) Generate(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeGenerateEndpoint(h.Service),
		decodeInsightRequest,
		shared.EncodeResponse200,
		opts...,
	)
}

func makeGenerateEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		return svc.GenerateInsight(ctx, request.(api.InsightRequest))
	}
}

func decodeInsightRequest(_ context.Context, r *http.Request) (interface{}, error) {
	childId, ok := mux.Vars(r)["childId"]
	if !ok {
		return nil, shared.ErrBadRouting
	}
	request := api.InsightRequest{}
	// DecodeJSON only returns the bare ErrInvalidBody on an empty body
	if err := shared.DecodeJSON(r.Body, &request); err != nil && err != shared.ErrInvalidBody {
		return nil, err
	}
	request.ChildId = childId
	return request, nil
}

// encode errors from business-logic
func EncodeError(_ context.Context, err error, w http.ResponseWriter) {
	code := children.StatusOf(err)
	switch errors.Cause(err) {
	case llm.ErrNotConfigured, llm.ErrUpstream, llm.ErrEmptyCompletion:
		code = http.StatusServiceUnavailable
	}
	shared.WriteError(w, err, code)
}
