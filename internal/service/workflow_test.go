package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dnadawa/Prkcar-Backend/internal/config"
	"github.com/dnadawa/Prkcar-Backend/internal/model"
	"github.com/dnadawa/Prkcar-Backend/internal/scheduler"
	"github.com/dnadawa/Prkcar-Backend/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClock struct {
	now time.Time
}

func (c stubClock) Now() time.Time {
	return c.now
}

func (c stubClock) AfterFunc(time.Duration, func()) scheduler.Timer {
	return nil
}

type fakeRecordStore struct {
	records map[string]*model.ParkingRecord
	gets    int
	deletes []string
	getErr  error
}

func newFakeRecordStore(records ...*model.ParkingRecord) *fakeRecordStore {
	s := &fakeRecordStore{records: make(map[string]*model.ParkingRecord)}
	for _, r := range records {
		s.records[r.ID] = r
	}
	return s
}

func (s *fakeRecordStore) Get(_ context.Context, id string) (*model.ParkingRecord, error) {
	s.gets++
	if s.getErr != nil {
		return nil, s.getErr
	}
	record, ok := s.records[id]
	if !ok {
		return nil, model.ErrRecordNotFound
	}
	return record, nil
}

func (s *fakeRecordStore) Delete(_ context.Context, id string) error {
	s.deletes = append(s.deletes, id)
	if _, ok := s.records[id]; !ok {
		return model.ErrRecordNotFound
	}
	delete(s.records, id)
	return nil
}

type fakeTaskScheduler struct {
	tasks []model.Task
	err   error
}

func (s *fakeTaskScheduler) Schedule(task model.Task) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.tasks = append(s.tasks, task)
	return "task-id", nil
}

type smsCall struct {
	phone string
	body  string
}

type fakeNotifier struct {
	smsCalls []smsCall
	sid      string
	smsErr   error

	emails   []string
	emailErr error
}

func (n *fakeNotifier) SendSMS(_ context.Context, phone, body string) (string, error) {
	n.smsCalls = append(n.smsCalls, smsCall{phone: phone, body: body})
	if n.smsErr != nil {
		return "", n.smsErr
	}
	return n.sid, nil
}

func (n *fakeNotifier) SendEmail(_ context.Context, to, _, _ string) error {
	n.emails = append(n.emails, to)
	return n.emailErr
}

type fakeDeliveries struct {
	entries []*model.DeliveryLog
}

func (d *fakeDeliveries) Insert(_ context.Context, log *model.DeliveryLog) error {
	d.entries = append(d.entries, log)
	return nil
}

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		ReminderLeadTime: 24 * time.Hour,
		PendingTimeout:   15 * time.Minute,
		RecordRetention:  30 * 24 * time.Hour,
	}
}

func newTestEngine(store *fakeRecordStore, tasks *fakeTaskScheduler, notifier *fakeNotifier) (*WorkflowEngine, *fakeDeliveries) {
	deliveries := &fakeDeliveries{}
	m := metrics.NewWith(prometheus.NewRegistry(), "test")
	engine := NewWorkflowEngine(testConfig(), stubClock{now: testNow}, tasks, store, notifier, deliveries, m)
	return engine, deliveries
}

func TestNotifySendsExactlyOnce(t *testing.T) {
	notifier := &fakeNotifier{sid: "SM123"}
	engine, deliveries := newTestEngine(newFakeRecordStore(), &fakeTaskScheduler{}, notifier)

	sid, err := engine.Notify(context.Background(), "+15551234567", "hello")

	require.NoError(t, err)
	assert.Equal(t, "SM123", sid)
	require.Len(t, notifier.smsCalls, 1)
	assert.Equal(t, "+15551234567", notifier.smsCalls[0].phone)
	require.Len(t, deliveries.entries, 1)
	assert.Equal(t, model.DeliveryDelivered, deliveries.entries[0].Status)
}

func TestNotifyFailureReturnsErrorAfterOneAttempt(t *testing.T) {
	notifier := &fakeNotifier{smsErr: errors.New("provider down")}
	engine, deliveries := newTestEngine(newFakeRecordStore(), &fakeTaskScheduler{}, notifier)

	_, err := engine.Notify(context.Background(), "+15551234567", "hello")

	assert.Error(t, err)
	assert.Len(t, notifier.smsCalls, 1)
	require.Len(t, deliveries.entries, 1)
	assert.Equal(t, model.DeliveryFailed, deliveries.entries[0].Status)
}

func TestScheduleExpiryReminderArmsReminderAndPurge(t *testing.T) {
	tasks := &fakeTaskScheduler{}
	engine, _ := newTestEngine(newFakeRecordStore(), tasks, &fakeNotifier{})

	err := engine.ScheduleExpiryReminder(context.Background(), "R1", "+1555")

	require.NoError(t, err)
	require.Len(t, tasks.tasks, 2)

	reminder := tasks.tasks[0]
	assert.Equal(t, model.TaskExpiryReminder, reminder.Kind)
	assert.Equal(t, "R1", reminder.RecordID)
	assert.Equal(t, "+1555", reminder.Phone)
	assert.Equal(t, testNow.Add(24*time.Hour), reminder.FireAt)

	purge := tasks.tasks[1]
	assert.Equal(t, model.TaskRecordPurge, purge.Kind)
	assert.Equal(t, "R1", purge.RecordID)
	assert.Equal(t, testNow.Add(30*24*time.Hour), purge.FireAt)
}

func TestScheduleExpiryReminderPropagatesSchedulerFailure(t *testing.T) {
	tasks := &fakeTaskScheduler{err: scheduler.ErrStopped}
	engine, _ := newTestEngine(newFakeRecordStore(), tasks, &fakeNotifier{})

	err := engine.ScheduleExpiryReminder(context.Background(), "R1", "+1555")
	assert.Error(t, err)
}

func TestSchedulePendingTimeout(t *testing.T) {
	tasks := &fakeTaskScheduler{}
	engine, _ := newTestEngine(newFakeRecordStore(), tasks, &fakeNotifier{})

	err := engine.SchedulePendingTimeout(context.Background(), "R1")

	require.NoError(t, err)
	require.Len(t, tasks.tasks, 1)
	assert.Equal(t, model.TaskPendingTimeout, tasks.tasks[0].Kind)
	assert.Equal(t, testNow.Add(15*time.Minute), tasks.tasks[0].FireAt)
}

func TestReminderFiresOnlyWhenParked(t *testing.T) {
	tests := []struct {
		name    string
		record  *model.ParkingRecord
		wantSMS bool
	}{
		{
			name: "parked record gets reminder",
			record: &model.ParkingRecord{
				ID: "R1", Status: model.StatusParked, Phone: "+1555", License: "ABC-123",
			},
			wantSMS: true,
		},
		{
			name: "pending record is skipped",
			record: &model.ParkingRecord{
				ID: "R1", Status: model.StatusPending, Phone: "+1555",
			},
			wantSMS: false,
		},
		{
			name: "expired record is skipped",
			record: &model.ParkingRecord{
				ID: "R1", Status: model.StatusExpired, Phone: "+1555",
			},
			wantSMS: false,
		},
		{
			name:    "absent record is a silent no-op",
			record:  nil,
			wantSMS: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeRecordStore()
			if tt.record != nil {
				store.records[tt.record.ID] = tt.record
			}
			notifier := &fakeNotifier{sid: "SM1"}
			engine, _ := newTestEngine(store, &fakeTaskScheduler{}, notifier)

			engine.RunTask(context.Background(), model.Task{
				Kind:     model.TaskExpiryReminder,
				RecordID: "R1",
				Phone:    "+1555",
			})

			if tt.wantSMS {
				require.Len(t, notifier.smsCalls, 1)
				assert.Contains(t, notifier.smsCalls[0].body, "ABC-123")
			} else {
				assert.Empty(t, notifier.smsCalls)
			}
		})
	}
}

func TestReminderSendFailureIsSwallowed(t *testing.T) {
	store := newFakeRecordStore(&model.ParkingRecord{
		ID: "R1", Status: model.StatusParked, Phone: "+1555",
	})
	notifier := &fakeNotifier{smsErr: errors.New("provider down")}
	engine, _ := newTestEngine(store, &fakeTaskScheduler{}, notifier)

	// Must not panic or propagate; there is no caller left to report to
	engine.RunTask(context.Background(), model.Task{
		Kind:     model.TaskExpiryReminder,
		RecordID: "R1",
	})

	assert.Len(t, notifier.smsCalls, 1)
}

func TestPurgeDeletesUnconditionally(t *testing.T) {
	for _, status := range []model.RecordStatus{model.StatusPending, model.StatusParked, model.StatusExpired} {
		store := newFakeRecordStore(&model.ParkingRecord{ID: "R1", Status: status})
		engine, _ := newTestEngine(store, &fakeTaskScheduler{}, &fakeNotifier{})

		engine.RunTask(context.Background(), model.Task{
			Kind:     model.TaskRecordPurge,
			RecordID: "R1",
		})

		assert.Equal(t, []string{"R1"}, store.deletes, "status %s", status)
		assert.Empty(t, store.records)
	}
}

func TestPurgeAbsentRecordIsNoOp(t *testing.T) {
	store := newFakeRecordStore()
	engine, _ := newTestEngine(store, &fakeTaskScheduler{}, &fakeNotifier{})

	engine.RunTask(context.Background(), model.Task{
		Kind:     model.TaskRecordPurge,
		RecordID: "gone",
	})

	assert.Equal(t, []string{"gone"}, store.deletes)
}

func TestPendingTimeoutDeletesOnlyPending(t *testing.T) {
	t.Run("pending record is deleted exactly once", func(t *testing.T) {
		store := newFakeRecordStore(&model.ParkingRecord{ID: "R1", Status: model.StatusPending})
		engine, _ := newTestEngine(store, &fakeTaskScheduler{}, &fakeNotifier{})

		engine.RunTask(context.Background(), model.Task{
			Kind:     model.TaskPendingTimeout,
			RecordID: "R1",
		})

		assert.Equal(t, []string{"R1"}, store.deletes)
	})

	t.Run("parked record is kept", func(t *testing.T) {
		store := newFakeRecordStore(&model.ParkingRecord{ID: "R1", Status: model.StatusParked})
		engine, _ := newTestEngine(store, &fakeTaskScheduler{}, &fakeNotifier{})

		engine.RunTask(context.Background(), model.Task{
			Kind:     model.TaskPendingTimeout,
			RecordID: "R1",
		})

		assert.Empty(t, store.deletes)
	})

	t.Run("absent record is a silent no-op", func(t *testing.T) {
		store := newFakeRecordStore()
		engine, _ := newTestEngine(store, &fakeTaskScheduler{}, &fakeNotifier{})

		engine.RunTask(context.Background(), model.Task{
			Kind:     model.TaskPendingTimeout,
			RecordID: "gone",
		})

		assert.Empty(t, store.deletes)
	})
}

func TestCleanupFiringTwiceIsIdempotent(t *testing.T) {
	store := newFakeRecordStore(&model.ParkingRecord{ID: "R1", Status: model.StatusPending})
	engine, _ := newTestEngine(store, &fakeTaskScheduler{}, &fakeNotifier{})

	task := model.Task{Kind: model.TaskPendingTimeout, RecordID: "R1"}

	engine.RunTask(context.Background(), task)
	require.Equal(t, []string{"R1"}, store.deletes)

	// Second firing finds the record absent and must not error or delete
	engine.RunTask(context.Background(), task)
	assert.Equal(t, []string{"R1"}, store.deletes)
}

func TestRecordFetchFailureSkipsReminder(t *testing.T) {
	store := newFakeRecordStore()
	store.getErr = errors.New("store unreachable")
	notifier := &fakeNotifier{}
	engine, _ := newTestEngine(store, &fakeTaskScheduler{}, notifier)

	engine.RunTask(context.Background(), model.Task{
		Kind:     model.TaskExpiryReminder,
		RecordID: "R1",
	})

	assert.Empty(t, notifier.smsCalls)
}
