package router

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shandysiswandi/loginguard/internal/pkg/goerror"
	"github.com/shandysiswandi/loginguard/internal/pkg/validator"
)

type errorResponse struct {
	Message string            `json:"message"`
	Error   map[string]string `json:"error,omitempty"`
}

type successResponse struct {
	Message string         `json:"message"`
	Data    any            `json:"data"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// Optional interfaces a handler payload may implement to shape its envelope.
type (
	statusCoder interface{ StatusCode() int }
	messenger   interface{ Message() string }
	metadater   interface{ Meta() map[string]any }
)

// writeError renders err. Only *goerror.Error values reach the client; any
// other error is reported as an opaque 500.
func writeError(w http.ResponseWriter, err error) {
	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
		return
	}

	resp := errorResponse{Message: gerr.Msg(), Error: gerr.Fields()}

	var verr validator.V10ValidationError
	if errors.As(err, &verr) {
		resp.Error = verr.Values()
	}
	if len(resp.Error) == 0 {
		resp.Error = nil
	}

	writeJSON(w, resp, gerr.StatusCode())
}

func writeSuccess(w http.ResponseWriter, resp any) {
	if resp == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	status := http.StatusOK
	if sc, ok := resp.(statusCoder); ok {
		status = sc.StatusCode()
	}
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}

	env := successResponse{Message: "request has been successfully", Data: resp}
	if m, ok := resp.(messenger); ok {
		env.Message = m.Message()
	}
	if m, ok := resp.(metadater); ok {
		env.Meta = m.Meta()
	}

	writeJSON(w, env, status)
}

func writeJSON(w http.ResponseWriter, data any, code int) {
	body, err := json.Marshal(data)
	if err != nil {
		slog.Error("failed to encode response body", "error", err)
		code = http.StatusInternalServerError
		body = []byte(`{"message":"Internal server error"}`)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(append(body, '\n'))
}
