package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dnadawa/Prkcar-Backend/pkg/metrics"
)

// Recognizer forwards an image to the plate-recognition provider
type Recognizer interface {
	Recognize(ctx context.Context, imageBase64 string) (json.RawMessage, error)
}

// RecognitionHandler handles the plate-recognition proxy route
type RecognitionHandler struct {
	recognizer Recognizer
	metrics    *metrics.Metrics
}

// NewRecognitionHandler creates a new recognition handler
func NewRecognitionHandler(recognizer Recognizer, m *metrics.Metrics) *RecognitionHandler {
	return &RecognitionHandler{
		recognizer: recognizer,
		metrics:    m,
	}
}

// Recognize handles POST /plateRecognize: relays the provider's JSON
// verbatim on success
func (h *RecognitionHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	fields, err := parseFields(r)
	if err != nil {
		slog.Warn("Malformed /plateRecognize request", "error", err)
		writeFailed(w)
		return
	}

	start := time.Now()
	body, err := h.recognizer.Recognize(r.Context(), fields["image"])
	h.metrics.RecognitionTime.Observe(time.Since(start).Seconds())

	if err != nil {
		h.metrics.RecognitionRequests.WithLabelValues("failed").Inc()
		slog.Error("Plate recognition failed", "error", err)
		writeFailed(w)
		return
	}

	h.metrics.RecognitionRequests.WithLabelValues("ok").Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
