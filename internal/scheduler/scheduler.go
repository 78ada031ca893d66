package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dnadawa/Prkcar-Backend/internal/model"
	"github.com/google/uuid"
)

// ErrStopped is returned when a task is scheduled after Stop
var ErrStopped = errors.New("scheduler is stopped")

// Runner executes a fired task. It is invoked exactly once per task, on its
// own goroutine, with no return path to the scheduling caller.
type Runner func(ctx context.Context, task model.Task)

// Scheduler arms one-shot timers against absolute UTC instants. Tasks live
// only in memory; a process restart loses them, which is accepted behavior.
type Scheduler struct {
	clock    Clock
	runner   Runner
	coalesce bool

	mu      sync.Mutex
	entries map[string]*entry  // task ID -> armed task
	slots   map[string]string  // coalesce key -> task ID
	stopped bool

	wg sync.WaitGroup
}

type entry struct {
	task  model.Task
	timer Timer
}

// New creates a scheduler. With coalesce enabled, scheduling a task whose
// (record, kind) slot is already occupied cancels and replaces the previous
// task; otherwise duplicates run independently.
func New(clock Clock, runner Runner, coalesce bool) *Scheduler {
	return &Scheduler{
		clock:    clock,
		runner:   runner,
		coalesce: coalesce,
		entries:  make(map[string]*entry),
		slots:    make(map[string]string),
	}
}

// Schedule arms a one-shot timer for task.FireAt and returns the task ID.
// It never blocks on the task itself; a FireAt in the past fires immediately.
func (s *Scheduler) Schedule(task model.Task) (string, error) {
	s.mu.Lock()

	if s.stopped {
		s.mu.Unlock()
		return "", ErrStopped
	}

	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	task.FireAt = task.FireAt.UTC()

	if s.coalesce {
		if prevID, ok := s.slots[task.Key()]; ok {
			s.cancelLocked(prevID)
			slog.Info("Replaced outstanding task",
				"task_id", prevID,
				"kind", task.Kind,
				"record_id", task.RecordID,
			)
		}
	}

	delay := task.FireAt.Sub(s.clock.Now())
	if delay < 0 {
		delay = 0
	}

	id := task.ID
	e := &entry{task: task}
	e.timer = s.clock.AfterFunc(delay, func() {
		s.fire(id)
	})

	s.entries[id] = e
	s.slots[task.Key()] = id
	s.mu.Unlock()

	slog.Info("Task scheduled",
		"task_id", id,
		"kind", task.Kind,
		"record_id", task.RecordID,
		"fire_at", task.FireAt.Format(time.RFC3339),
	)

	return id, nil
}

// Cancel prevents a not-yet-fired task from running. It reports whether the
// task was still pending; cancelling a fired or unknown task is a no-op.
func (s *Scheduler) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return false
	}

	s.cancelLocked(id)
	slog.Info("Task cancelled", "task_id", id)
	return true
}

// Pending returns the number of tasks armed but not yet fired
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Stop cancels all pending timers and waits for in-flight firings to finish,
// bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	s.stopped = true
	for id := range s.entries {
		s.cancelLocked(id)
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("Scheduler stopped")
	case <-ctx.Done():
		slog.Warn("Timeout waiting for in-flight tasks to complete")
	}
}

// cancelLocked removes a task and stops its timer. Caller holds s.mu.
func (s *Scheduler) cancelLocked(id string) {
	e, ok := s.entries[id]
	if !ok {
		return
	}
	e.timer.Stop()
	delete(s.entries, id)
	if s.slots[e.task.Key()] == id {
		delete(s.slots, e.task.Key())
	}
}

// fire runs when a timer elapses. The entry check makes cancellation
// authoritative even if the timer callback was already in flight.
func (s *Scheduler) fire(id string) {
	s.mu.Lock()
	e, ok := s.entries[id]
	if !ok || s.stopped {
		s.mu.Unlock()
		return
	}
	delete(s.entries, id)
	if s.slots[e.task.Key()] == id {
		delete(s.slots, e.task.Key())
	}
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()

	slog.Info("Task fired",
		"task_id", id,
		"kind", e.task.Kind,
		"record_id", e.task.RecordID,
	)

	s.runner(context.Background(), e.task)
}
