// internal/app/system/apperr/writer.go
package apperr

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Handler renders classified errors as the JSON error envelope and logs
// the underlying cause. Verbose mode (dev) includes the raw error text;
// terse mode (prod) only reveals operational messages.
type Handler struct {
	log     *zap.Logger
	verbose bool
}

func NewHandler(logger *zap.Logger, verbose bool) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{log: logger, verbose: verbose}
}

type errorBody struct {
	Status  string `json:"status"` // "fail" for 4xx, "error" for 5xx
	Message string `json:"message"`
	Error   string `json:"error,omitempty"` // verbose mode only
}

// Write translates err, logs it, and writes the error envelope.
func (h *Handler) Write(w http.ResponseWriter, r *http.Request, err error) {
	ae := Translate(err)

	status := "error"
	if ae.Status < 500 {
		status = "fail"
	}

	body := errorBody{Status: status, Message: ae.Message}

	if !h.verbose && !ae.Operational() {
		body.Message = "something went wrong"
	}
	if h.verbose && ae.Err != nil {
		body.Error = ae.Err.Error()
	}

	fields := []zap.Field{
		zap.String("code", string(ae.Code)),
		zap.Int("status", ae.Status),
		zap.String("path", r.URL.Path),
	}
	if ae.Err != nil {
		fields = append(fields, zap.Error(ae.Err))
	}
	if ae.Operational() {
		h.log.Info("request failed", fields...)
	} else {
		h.log.Error("unexpected error", fields...)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(ae.Status)
	_ = json.NewEncoder(w).Encode(body)
}
