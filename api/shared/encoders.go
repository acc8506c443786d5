package shared

import (
	"context"
	"encoding/json"
	"net/http"
)

// Envelope is the body of every json response.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Response lets an endpoint attach a message to its payload.
type Response struct {
	Message string
	Data    interface{}
}

func toEnvelope(response interface{}) Envelope {
	switch r := response.(type) {
	case Response:
		return Envelope{Success: true, Message: r.Message, Data: r.Data}
	case *Response:
		return Envelope{Success: true, Message: r.Message, Data: r.Data}
	default:
		return Envelope{Success: true, Data: response}
	}
}

func WriteJSON(w http.ResponseWriter, data interface{}, code int) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	return encoder.Encode(data)
}

func EncodeResponse200(_ context.Context, w http.ResponseWriter, response interface{}) error {
	return WriteJSON(w, toEnvelope(response), http.StatusOK)
}

func EncodeResponse201(_ context.Context, w http.ResponseWriter, response interface{}) error {
	return WriteJSON(w, toEnvelope(response), http.StatusCreated)
}
