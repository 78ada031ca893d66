package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dnadawa/Prkcar-Backend/internal/model"
)

// DeliveryLister reads back notification audit entries
type DeliveryLister interface {
	List(ctx context.Context, limit int) ([]model.DeliveryLog, error)
}

// DeliveryHandler exposes the notification audit trail for operators
type DeliveryHandler struct {
	deliveries DeliveryLister
}

// NewDeliveryHandler creates a new delivery handler
func NewDeliveryHandler(deliveries DeliveryLister) *DeliveryHandler {
	return &DeliveryHandler{
		deliveries: deliveries,
	}
}

const (
	defaultDeliveryLimit = 50
	maxDeliveryLimit     = 500
)

// List handles GET /deliveries: the most recent notification attempts,
// newest first. Operator surface, not called by the mobile clients.
func (h *DeliveryHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultDeliveryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeFailed(w)
			return
		}
		if n > maxDeliveryLimit {
			n = maxDeliveryLimit
		}
		limit = n
	}

	logs, err := h.deliveries.List(r.Context(), limit)
	if err != nil {
		slog.Error("Failed to list delivery logs", "error", err)
		writeFailed(w)
		return
	}

	if logs == nil {
		logs = []model.DeliveryLog{}
	}

	writeStatus(w, statusSuccessful, map[string]interface{}{"deliveries": logs})
}
