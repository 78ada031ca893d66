package handler

import (
	"log/slog"
	"net/http"

	"github.com/dnadawa/Prkcar-Backend/internal/service"
)

// NotifyHandler handles the synchronous notification route
type NotifyHandler struct {
	workflow *service.WorkflowEngine
}

// NewNotifyHandler creates a new notify handler
func NewNotifyHandler(workflow *service.WorkflowEngine) *NotifyHandler {
	return &NotifyHandler{
		workflow: workflow,
	}
}

// Send handles POST /send. The body is either a free-text "message" or the
// (license, time, url) triple the app sends right after parking starts.
func (h *NotifyHandler) Send(w http.ResponseWriter, r *http.Request) {
	fields, err := parseFields(r)
	if err != nil {
		slog.Warn("Malformed /send request", "error", err)
		writeFailed(w)
		return
	}

	phone := fields["phone"]
	body := fields["message"]
	if body == "" {
		body = service.ParkedMessage(fields["license"], fields["time"], fields["url"])
	}

	sid, err := h.workflow.Notify(r.Context(), phone, body)
	if err != nil {
		slog.Error("Initial notification failed", "error", err)
		writeFailed(w)
		return
	}

	writeStatus(w, statusSuccessful, map[string]interface{}{"sid": sid})
}
