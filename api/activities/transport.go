package activities

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ShayanAhmad11606/FYP-autismart-sub001/api/children"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/api/shared"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/api"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/store"

	"github.com/go-kit/kit/endpoint"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"
)

type listRequest struct {
	ChildId string
	Limit   int
}

type HandlerFactory struct {
	Service Service `inject:""`
}

func (h *HandlerFactory) Record(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeRecordEndpoint(h.Service),
		decodeActivityRequest,
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

func makeRecordEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(api.ActivityRequest)
		activity, err := svc.RecordActivity(ctx, req)
		if err != nil {
			return nil, err
		}
		return shared.Response{Message: "Activity recorded", Data: ToTransport(activity)}, nil
	}
}

func makeListEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(listRequest)
		activities, err := svc.ListActivities(ctx, req.ChildId, req.Limit)
		if err != nil {
			return nil, err
		}
		return ToTransports(activities), nil
	}
}

func decodeActivityRequest(_ context.Context, r *http.Request) (interface{}, error) {
	childId, ok := mux.Vars(r)["childId"]
	if !ok {
		return nil, shared.ErrBadRouting
	}
	var request api.ActivityRequest
	if err := shared.DecodeJSON(r.Body, &request); err != nil {
		return nil, err
	}
	request.ChildId = childId
	return request, nil
}

func decodeListRequest(_ context.Context, r *http.Request) (interface{}, error) {
	childId, ok := mux.Vars(r)["childId"]
	if !ok {
		return nil, shared.ErrBadRouting
	}
	request := listRequest{ChildId: childId}
	if value := r.URL.Query().Get("limit"); value != "" {
		limit, err := strconv.Atoi(value)
		if err != nil || limit <= 0 {
			return nil, ErrInvalidLimit
		}
		request.Limit = limit
	}
	return request, nil
}

// encode errors from business-logic
func EncodeError(_ context.Context, err error, w http.ResponseWriter) {
	shared.WriteError(w, err, children.StatusOf(err))
}

func ToTransport(activity store.Activity) api.ActivityTransport {
	ret := api.ActivityTransport{
		Id:           activity.ActivityId.String,
		ChildId:      activity.ChildId.String,
		CaregiverId:  activity.CaregiverId.String,
		ActivityType: activity.ActivityType.String,
		ActivityName: activity.ActivityName.String,
		Difficulty:   activity.Difficulty.String,
		CompletedAt:  activity.CompletedAt.UTC(),
	}
	if activity.Score.Valid {
		ret.Score = &activity.Score.Float64
	}
	if activity.MaxScore.Valid {
		ret.MaxScore = &activity.MaxScore.Float64
	}
	if activity.Percentage.Valid {
		ret.Percentage = &activity.Percentage.Float64
	}
	if activity.Duration.Valid {
		ret.Duration = &activity.Duration.Int64
	}
	if activity.Attempts.Valid {
		ret.Attempts = &activity.Attempts.Int64
	}
	if activity.CorrectAnswers.Valid {
		ret.CorrectAnswers = &activity.CorrectAnswers.Int64
	}
	if activity.IncorrectAnswers.Valid {
		ret.IncorrectAnswers = &activity.IncorrectAnswers.Int64
	}
	if activity.Details.Valid && json.Valid([]byte(activity.Details.String)) {
		ret.Details = json.RawMessage(activity.Details.String)
	}
	return ret
}

func ToTransports(activities []store.Activity) []api.ActivityTransport {
	ret := make([]api.ActivityTransport, 0, len(activities))
	for _, activity := range activities {
		ret = append(ret, ToTransport(activity))
	}
	return ret
}
