package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dnadawa/Prkcar-Backend/internal/config"
	"github.com/dnadawa/Prkcar-Backend/internal/model"
	"github.com/dnadawa/Prkcar-Backend/internal/notify"
	"github.com/dnadawa/Prkcar-Backend/internal/scheduler"
	"github.com/dnadawa/Prkcar-Backend/pkg/metrics"
	"github.com/google/uuid"
)

// RecordStore is the narrow surface the workflows need from the record
// repository
type RecordStore interface {
	Get(ctx context.Context, id string) (*model.ParkingRecord, error)
	Delete(ctx context.Context, id string) error
}

// TaskScheduler registers one-shot delayed tasks
type TaskScheduler interface {
	Schedule(task model.Task) (string, error)
}

// DeliveryLogs records notification attempts for auditing
type DeliveryLogs interface {
	Insert(ctx context.Context, log *model.DeliveryLog) error
}

// WorkflowEngine orchestrates the record store, notifier, and scheduler.
// All dependencies are injected; there is no ambient global state.
type WorkflowEngine struct {
	cfg        *config.Config
	clock      scheduler.Clock
	tasks      TaskScheduler
	records    RecordStore
	notifier   notify.Notifier
	deliveries DeliveryLogs
	metrics    *metrics.Metrics
}

// NewWorkflowEngine creates the parking workflow engine
func NewWorkflowEngine(
	cfg *config.Config,
	clock scheduler.Clock,
	tasks TaskScheduler,
	records RecordStore,
	notifier notify.Notifier,
	deliveries DeliveryLogs,
	m *metrics.Metrics,
) *WorkflowEngine {
	return &WorkflowEngine{
		cfg:        cfg,
		clock:      clock,
		tasks:      tasks,
		records:    records,
		notifier:   notifier,
		deliveries: deliveries,
		metrics:    m,
	}
}

// ParkedMessage renders the initial confirmation SMS body
func ParkedMessage(license, endTime, confirmURL string) string {
	return fmt.Sprintf(
		"Your vehicle is parked. License plate %s. Your time will expire at %s. Use following link to confirm parking %s",
		license, endTime, confirmURL,
	)
}

// Notify sends one SMS synchronously. It returns the provider delivery SID,
// and an error when the provider rejected or the send failed. No scheduling
// is involved.
func (e *WorkflowEngine) Notify(ctx context.Context, phone, body string) (string, error) {
	sid, err := e.notifier.SendSMS(ctx, phone, body)
	e.auditSMS(ctx, phone, "", sid, err)

	if err != nil {
		return "", fmt.Errorf("initial notification failed: %w", err)
	}

	return sid, nil
}

// ScheduleExpiryReminder registers the reminder task at now + lead time and
// the unconditional purge task at now + retention. It returns once both are
// armed, regardless of when either fires.
func (e *WorkflowEngine) ScheduleExpiryReminder(ctx context.Context, recordID, phone string) error {
	now := e.clock.Now()

	reminder := model.Task{
		Kind:     model.TaskExpiryReminder,
		RecordID: recordID,
		Phone:    phone,
		FireAt:   now.Add(e.cfg.ReminderLeadTime),
	}
	if _, err := e.tasks.Schedule(reminder); err != nil {
		return fmt.Errorf("failed to schedule expiry reminder: %w", err)
	}
	e.metrics.TasksScheduled.WithLabelValues(string(model.TaskExpiryReminder)).Inc()

	purge := model.Task{
		Kind:     model.TaskRecordPurge,
		RecordID: recordID,
		FireAt:   now.Add(e.cfg.RecordRetention),
	}
	if _, err := e.tasks.Schedule(purge); err != nil {
		return fmt.Errorf("failed to schedule record purge: %w", err)
	}
	e.metrics.TasksScheduled.WithLabelValues(string(model.TaskRecordPurge)).Inc()

	return nil
}

// SchedulePendingTimeout registers the cleanup task that purges the record
// if it is still pending when the grace period ends.
func (e *WorkflowEngine) SchedulePendingTimeout(ctx context.Context, recordID string) error {
	task := model.Task{
		Kind:     model.TaskPendingTimeout,
		RecordID: recordID,
		FireAt:   e.clock.Now().Add(e.cfg.PendingTimeout),
	}

	if _, err := e.tasks.Schedule(task); err != nil {
		return fmt.Errorf("failed to schedule pending timeout: %w", err)
	}
	e.metrics.TasksScheduled.WithLabelValues(string(model.TaskPendingTimeout)).Inc()

	return nil
}

// RunTask is the scheduler's runner. There is no caller left to report to by
// the time a task fires: every failure here is logged and swallowed, and an
// absent record is a legitimate race, never an error. Re-running a task
// against an absent record is a clean no-op.
func (e *WorkflowEngine) RunTask(ctx context.Context, task model.Task) {
	e.metrics.TasksFired.WithLabelValues(string(task.Kind)).Inc()

	switch task.Kind {
	case model.TaskExpiryReminder:
		e.runExpiryReminder(ctx, task)
	case model.TaskRecordPurge:
		e.runRecordPurge(ctx, task)
	case model.TaskPendingTimeout:
		e.runPendingTimeout(ctx, task)
	default:
		slog.Error("Unknown task kind", "kind", task.Kind, "task_id", task.ID)
	}
}

func (e *WorkflowEngine) runExpiryReminder(ctx context.Context, task model.Task) {
	record, err := e.records.Get(ctx, task.RecordID)
	if err != nil {
		if errors.Is(err, model.ErrRecordNotFound) {
			slog.Info("Reminder skipped, record gone", "record_id", task.RecordID)
			return
		}
		slog.Error("Reminder skipped, record fetch failed", "record_id", task.RecordID, "error", err)
		return
	}

	if record.Status != model.StatusParked {
		slog.Info("Reminder skipped, record not parked",
			"record_id", task.RecordID,
			"status", record.Status,
		)
		return
	}

	phone := task.Phone
	if phone == "" {
		phone = record.Phone
	}

	body := fmt.Sprintf("Your parking for license plate %s is about to expire.", record.License)
	if !record.ExpiresAt.IsZero() {
		body = fmt.Sprintf(
			"Your parking for license plate %s will expire at %s.",
			record.License, record.ExpiresAt.Format(time.RFC1123),
		)
	}

	sid, err := e.notifier.SendSMS(ctx, phone, body)
	e.auditSMS(ctx, phone, task.RecordID, sid, err)
	if err != nil {
		slog.Error("Reminder SMS failed", "record_id", task.RecordID, "error", err)
		return
	}

	slog.Info("Reminder SMS sent", "record_id", task.RecordID, "sid", sid)
}

func (e *WorkflowEngine) runRecordPurge(ctx context.Context, task model.Task) {
	err := e.records.Delete(ctx, task.RecordID)
	if err != nil {
		if errors.Is(err, model.ErrRecordNotFound) {
			slog.Info("Purge skipped, record already gone", "record_id", task.RecordID)
			return
		}
		slog.Error("Purge failed", "record_id", task.RecordID, "error", err)
		return
	}

	e.metrics.RecordsDeleted.WithLabelValues("retention").Inc()
	slog.Info("Record purged after retention", "record_id", task.RecordID)
}

func (e *WorkflowEngine) runPendingTimeout(ctx context.Context, task model.Task) {
	record, err := e.records.Get(ctx, task.RecordID)
	if err != nil {
		if errors.Is(err, model.ErrRecordNotFound) {
			slog.Info("Pending cleanup skipped, record gone", "record_id", task.RecordID)
			return
		}
		slog.Error("Pending cleanup skipped, record fetch failed", "record_id", task.RecordID, "error", err)
		return
	}

	if record.Status != model.StatusPending {
		slog.Info("Pending cleanup skipped, record confirmed",
			"record_id", task.RecordID,
			"status", record.Status,
		)
		return
	}

	if err := e.records.Delete(ctx, task.RecordID); err != nil {
		if errors.Is(err, model.ErrRecordNotFound) {
			return
		}
		slog.Error("Pending cleanup delete failed", "record_id", task.RecordID, "error", err)
		return
	}

	e.metrics.RecordsDeleted.WithLabelValues("pending_timeout").Inc()
	slog.Info("Unconfirmed record purged", "record_id", task.RecordID)
}

// auditSMS writes a best-effort delivery log entry. A failed audit write is
// logged and never fails the notification.
func (e *WorkflowEngine) auditSMS(ctx context.Context, phone, recordID, sid string, sendErr error) {
	status := model.DeliveryDelivered
	errText := ""
	if sendErr != nil {
		status = model.DeliveryFailed
		errText = sendErr.Error()
	}
	e.metrics.NotificationsSent.WithLabelValues(model.ChannelSMS, status).Inc()

	entry := &model.DeliveryLog{
		CorrelationID: uuid.New().String(),
		Channel:       model.ChannelSMS,
		Destination:   phone,
		RecordID:      recordID,
		ProviderSID:   sid,
		Status:        status,
		Error:         errText,
		CreatedAt:     e.clock.Now(),
	}

	if err := e.deliveries.Insert(ctx, entry); err != nil {
		slog.Warn("Failed to write delivery log", "error", err)
	}
}
