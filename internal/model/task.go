package model

import (
	"fmt"
	"time"
)

// TaskKind identifies what a delayed task does when it fires
type TaskKind string

const (
	// TaskExpiryReminder sends a reminder SMS if the record is still parked
	TaskExpiryReminder TaskKind = "expiry_reminder"
	// TaskRecordPurge deletes the record unconditionally if it still exists
	TaskRecordPurge TaskKind = "record_purge"
	// TaskPendingTimeout deletes the record if it never left pending
	TaskPendingTimeout TaskKind = "pending_timeout"
)

// Task is the descriptor for one delayed firing. It carries everything the
// runner needs, so the scheduler never holds closures over ambient state.
// FireAt is an absolute UTC instant; the scheduler arms a one-shot timer
// against it rather than reconstructing calendar fields.
type Task struct {
	ID       string
	Kind     TaskKind
	RecordID string
	Phone    string
	FireAt   time.Time
}

// Key identifies the logical slot a task occupies when the scheduler
// coalesces duplicates: one outstanding task per (record, kind).
func (t Task) Key() string {
	return fmt.Sprintf("%s/%s", t.RecordID, t.Kind)
}
