package handler

import (
	"log/slog"
	"net/http"

	"github.com/dnadawa/Prkcar-Backend/internal/service"
)

// ScheduleHandler handles the delayed-workflow routes
type ScheduleHandler struct {
	workflow *service.WorkflowEngine
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler(workflow *service.WorkflowEngine) *ScheduleHandler {
	return &ScheduleHandler{
		workflow: workflow,
	}
}

// SendSchedule handles POST /sendSchedule: arms the expiry reminder and the
// retention purge for one record. Success means both tasks are registered,
// not that either has fired.
func (h *ScheduleHandler) SendSchedule(w http.ResponseWriter, r *http.Request) {
	fields, err := parseFields(r)
	if err != nil {
		slog.Warn("Malformed /sendSchedule request", "error", err)
		writeFailed(w)
		return
	}

	if err := h.workflow.ScheduleExpiryReminder(r.Context(), fields["id"], fields["phone"]); err != nil {
		slog.Error("Failed to schedule expiry reminder", "record_id", fields["id"], "error", err)
		writeFailed(w)
		return
	}

	writeStatus(w, statusSuccessful, nil)
}

// Expire handles POST /expire: arms the pending-timeout cleanup for one record
func (h *ScheduleHandler) Expire(w http.ResponseWriter, r *http.Request) {
	fields, err := parseFields(r)
	if err != nil {
		slog.Warn("Malformed /expire request", "error", err)
		writeFailed(w)
		return
	}

	if err := h.workflow.SchedulePendingTimeout(r.Context(), fields["id"]); err != nil {
		slog.Error("Failed to schedule pending timeout", "record_id", fields["id"], "error", err)
		writeFailed(w)
		return
	}

	writeStatus(w, statusSuccessful, nil)
}
