package assessments

import (
	"context"
	"net/http"

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

func (h *HandlerFactory) ListActive(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(makeListEndpoint(h.Service.ListActive), ignorePayload, shared.EncodeResponse200, opts...)
}

func (h *HandlerFactory) GetByLevel(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(makeGetByLevelEndpoint(h.Service), decodeLevelRequest, shared.EncodeResponse200, opts...)
}

func (h *HandlerFactory) ListAll(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(makeListEndpoint(h.Service.ListAll), ignorePayload, shared.EncodeResponse200, opts...)
}

func (h *HandlerFactory) Add(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(makeAddEndpoint(h.Service), decodeAssessmentRequest, shared.EncodeResponse201, opts...)
}

func (h *HandlerFactory) Update(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(makeUpdateEndpoint(h.Service), decodeUpdateAssessmentRequest, shared.EncodeResponse200, opts...)
}

func (h *HandlerFactory) Toggle(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(makeToggleEndpoint(h.Service), decodeAssessmentIdRequest, shared.EncodeResponse200, opts...)
}

func (h *HandlerFactory) Delete(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(makeDeleteEndpoint(h.Service), decodeAssessmentIdRequest, shared.EncodeResponse200, opts...)
}

func makeListEndpoint(list func(ctx context.Context) ([]store.Assessment, error)) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		assessments, err := list(ctx)
		if err != nil {
			return nil, err
		}
		assessmentsRet := []api.AssessmentTransport{}
		for _, assessment := range assessments {
			assessmentsRet = append(assessmentsRet, ToTransport(assessment))
		}
		return assessmentsRet, nil
	}
}

func makeGetByLevelEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(api.AssessmentTransport)
		assessment, err := svc.GetActiveByLevel(ctx, req.Level)
		if err != nil {
			return nil, err
		}
		return ToTransport(assessment), nil
	}
}

func makeAddEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(api.AssessmentTransport)
		assessment, err := svc.AddAssessment(ctx, req)
		if err != nil {
			return nil, err
		}
		return shared.Response{Message: "Assessment created", Data: ToTransport(assessment)}, nil
	}
}

func makeUpdateEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(api.AssessmentTransport)
		assessment, err := svc.UpdateAssessment(ctx, req)
		if err != nil {
			return nil, err
		}
		return shared.Response{Message: "Assessment updated", Data: ToTransport(assessment)}, nil
	}
}

func makeToggleEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(api.AssessmentTransport)
		assessment, err := svc.ToggleAssessment(ctx, req.Id)
		if err != nil {
			return nil, err
		}
		message := "Assessment deactivated"
		if assessment.IsActive {
			message = "Assessment activated"
		}
		return shared.Response{Message: message, Data: ToTransport(assessment)}, nil
	}
}

func makeDeleteEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(api.AssessmentTransport)
		if err := svc.DeleteAssessment(ctx, req.Id); err != nil {
			return nil, err
		}
		return shared.Response{Message: "Assessment deleted"}, nil
	}
}

func decodeLevelRequest(_ context.Context, r *http.Request) (interface{}, error) {
	level, ok := mux.Vars(r)["level"]
	if !ok {
		return nil, shared.ErrBadRouting
	}
	return api.AssessmentTransport{Level: level}, nil
}

func decodeAssessmentRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var request api.AssessmentTransport
	if err := shared.DecodeJSON(r.Body, &request); err != nil {
		return nil, err
	}
	return request, nil
}

func decodeAssessmentIdRequest(_ context.Context, r *http.Request) (interface{}, error) {
	id, ok := mux.Vars(r)["assessmentId"]
	if !ok {
		return nil, shared.ErrBadRouting
	}
	return api.AssessmentTransport{Id: id}, nil
}

func decodeUpdateAssessmentRequest(_ context.Context, r *http.Request) (interface{}, error) {
	id, ok := mux.Vars(r)["assessmentId"]
	if !ok {
		return nil, shared.ErrBadRouting
	}
	var request api.AssessmentTransport
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
	case store.ErrAssessmentNotFound:
		code = http.StatusNotFound
	case store.ErrActiveLevelExists:
		code = http.StatusBadRequest
	}
	shared.WriteError(w, err, code)
}

func ToTransport(assessment store.Assessment) api.AssessmentTransport {
	active := assessment.IsActive
	ret := api.AssessmentTransport{
		Id:          assessment.AssessmentId.String,
		Level:       assessment.Level.String,
		Title:       assessment.Title.String,
		Description: assessment.Description.String,
		Questions:   []api.QuestionTransport{},
		IsActive:    &active,
		CreatedBy:   assessment.CreatedBy.String,
		UpdatedBy:   assessment.UpdatedBy.String,
		CreatedAt:   assessment.CreatedAt,
		UpdatedAt:   assessment.UpdatedAt,
	}
	for _, q := range assessment.Questions {
		ret.Questions = append(ret.Questions, api.QuestionTransport{
			Id:       q.Id,
			Category: q.Category,
			Question: q.Question,
			Options:  q.Options,
			Scores:   q.Scores,
		})
	}
	return ret
}
