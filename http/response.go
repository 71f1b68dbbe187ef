package http

import (
	"net/http"

	"github.com/go-chi/render"
)

const (
	statusOK    = "ok"
	statusError = "error"
)

// ErrorBody is the error member of an error envelope.
type ErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the envelope for failed requests.
type ErrorResponse struct {
	Status string    `json:"status"`
	Error  ErrorBody `json:"error"`
}

// WriteError writes {"status":"error","error":{"code":code,"message":message}}.
func WriteError(w http.ResponseWriter, r *http.Request, code int, message string) {
	render.Status(r, code)
	render.JSON(w, r, ErrorResponse{
		Status: statusError,
		Error:  ErrorBody{Code: code, Message: message},
	})
}

// WriteOK writes {"status":"ok"} merged with fields.
func WriteOK(w http.ResponseWriter, r *http.Request, code int, fields map[string]any) {
	body := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	body["status"] = statusOK

	render.Status(r, code)
	render.JSON(w, r, body)
}
