// Package http serves the dashboard JSON API.
//
// This file holds the fluent builder every handler writes its response with,
// so status, headers and the JSON body are always emitted in the same order.

package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ResponseBuilder assembles a JSON response.
type ResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       any
	raw        []byte
}

// NewResponse creates a builder with a 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

func (b *ResponseBuilder) Header(key, value string) *ResponseBuilder {
	b.headers[key] = value
	return b
}

// JSON sets a value to encode as the body.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	b.body = v
	b.raw = nil
	return b
}

// Raw sets an already encoded JSON body, as served from the read cache.
func (b *ResponseBuilder) Raw(data []byte) *ResponseBuilder {
	b.raw = data
	b.body = nil
	return b
}

// Write sends the response. An unencodable body becomes a 500.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	data := b.raw
	status := b.statusCode
	if data == nil {
		var err error
		data, err = json.Marshal(b.body)
		if err != nil {
			slog.Error("Failed to encode response", "component", "http", "error", err)
			data = []byte(`{"error":"Internal server error"}`)
			status = http.StatusInternalServerError
		}
	}

	for k, v := range b.headers {
		w.Header().Set(k, v)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
	_, _ = w.Write([]byte{'\n'})
}

type errorBody struct {
	Error string `json:"error"`
}

// ErrorResponse builds the {"error": msg} body used by every failure.
func ErrorResponse(status int, msg string) *ResponseBuilder {
	return NewResponse().Status(status).JSON(errorBody{Error: msg})
}

// SuccessResponse is the body of every DELETE.
func SuccessResponse() *ResponseBuilder {
	return NewResponse().JSON(map[string]bool{"success": true})
}
