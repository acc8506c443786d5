package reports

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ShayanAhmad11606/FYP-autismart-sub001/api/children"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/api/shared"

	"github.com/go-kit/kit/endpoint"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"
)

type HandlerFactory struct {
	Service Service `inject:""`
}

func (h *HandlerFactory) Report(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeReportEndpoint(h.Service),
		decodeChildIdRequest,
		shared.EncodeResponse200,
		opts...,
	)
}

func (h *HandlerFactory) Download(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeDownloadEndpoint(h.Service),
		decodeChildIdRequest,
		encodePdf,
		opts...,
	)
}

func makeReportEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		return svc.Report(ctx, request.(string))
	}
}

func makeDownloadEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		return svc.RenderPdf(ctx, request.(string))
	}
}

func decodeChildIdRequest(_ context.Context, r *http.Request) (interface{}, error) {
	childId, ok := mux.Vars(r)["childId"]
	if !ok {
		return nil, shared.ErrBadRouting
	}
	return childId, nil
}

func encodePdf(_ context.Context, w http.ResponseWriter, response interface{}) error {
	pdf := response.(Pdf)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, pdf.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf.Content)))
	w.WriteHeader(http.StatusOK)
	_, err := w.Write(pdf.Content)
	return err
}

// encode errors from business-logic
func EncodeError(_ context.Context, err error, w http.ResponseWriter) {
	shared.WriteError(w, err, children.StatusOf(err))
}
