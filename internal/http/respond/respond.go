package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/hongminglow/earn-portal/internal/middleware"
)

// maxBodyBytes bounds the JSON bodies accepted by the page script endpoints.
const maxBodyBytes = 1 << 16

// Envelope wraps every JSON answer of the portal.
type Envelope struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
	Data      any    `json:"data,omitempty"`
}

// Writer encodes envelopes and reports encoding failures to its logger.
type Writer struct {
	logger *zap.Logger
}

// New creates a Writer. A nil logger discards encoding failures.
func New(logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{logger: logger}
}

// JSON writes data under message, tagged with the request id.
func (rw *Writer) JSON(w http.ResponseWriter, r *http.Request, status int, message string, data any) {
	rw.write(w, r, status, Envelope{Code: status, Message: message, Data: data})
}

// Error writes an envelope without data.
func (rw *Writer) Error(w http.ResponseWriter, r *http.Request, status int, message string) {
	rw.write(w, r, status, Envelope{Code: status, Message: message})
}

// Decode reads a single JSON object from the request body into dst.
// On failure it answers 400 (413 for oversized bodies) and returns false.
func (rw *Writer) Decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			rw.Error(w, r, http.StatusRequestEntityTooLarge, "payload too large")
			return false
		}
		rw.Error(w, r, http.StatusBadRequest, "invalid JSON payload")
		return false
	}
	return true
}

func (rw *Writer) write(w http.ResponseWriter, r *http.Request, status int, payload Envelope) {
	payload.RequestID = middleware.RequestIDFromContext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		rw.logger.Warn("encode response",
			zap.String("path", r.URL.Path),
			zap.String("request_id", payload.RequestID),
			zap.Error(err))
	}
}
