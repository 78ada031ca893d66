package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dnadawa/Prkcar-Backend/internal/config"
	"github.com/dnadawa/Prkcar-Backend/internal/model"
	"github.com/dnadawa/Prkcar-Backend/internal/scheduler"
	"github.com/dnadawa/Prkcar-Backend/internal/service"
	"github.com/dnadawa/Prkcar-Backend/pkg/metrics"
	"github.com/dnadawa/Prkcar-Backend/pkg/middleware"
)

type fakeRecords struct{}

func (f *fakeRecords) Get(_ context.Context, _ string) (*model.ParkingRecord, error) {
	return nil, model.ErrRecordNotFound
}

func (f *fakeRecords) Delete(_ context.Context, _ string) error {
	return model.ErrRecordNotFound
}

type fakeScheduler struct {
	tasks []model.Task
	err   error
}

func (f *fakeScheduler) Schedule(task model.Task) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.tasks = append(f.tasks, task)
	return "task-id", nil
}

type fakeNotifier struct {
	smsTo   []string
	emailTo []string
	smsErr  error
	mailErr error
}

func (f *fakeNotifier) SendSMS(_ context.Context, phone, _ string) (string, error) {
	if f.smsErr != nil {
		return "", f.smsErr
	}
	f.smsTo = append(f.smsTo, phone)
	return "SM123", nil
}

func (f *fakeNotifier) SendEmail(_ context.Context, to, _, _ string) error {
	if f.mailErr != nil {
		return f.mailErr
	}
	f.emailTo = append(f.emailTo, to)
	return nil
}

type fakeDeliveries struct{}

func (f *fakeDeliveries) Insert(_ context.Context, _ *model.DeliveryLog) error {
	return nil
}

type fakeUsers struct {
	deleted []string
	err     error
}

func (f *fakeUsers) DeleteByEmail(_ context.Context, email string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, email)
	return nil
}

type fakeRecognizer struct {
	body json.RawMessage
	err  error
}

func (f *fakeRecognizer) Recognize(_ context.Context, _ string) (json.RawMessage, error) {
	return f.body, f.err
}

type fakeDeliveryLister struct {
	logs      []model.DeliveryLog
	err       error
	lastLimit int
}

func (f *fakeDeliveryLister) List(_ context.Context, limit int) ([]model.DeliveryLog, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.logs, nil
}

type testEnv struct {
	handler    http.Handler
	sched      *fakeScheduler
	notifier   *fakeNotifier
	users      *fakeUsers
	recognizer *fakeRecognizer
	lister     *fakeDeliveryLister
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		ReminderLeadTime: 24 * time.Hour,
		PendingTimeout:   15 * time.Minute,
		RecordRetention:  30 * 24 * time.Hour,
	}
	m := metrics.NewWith(prometheus.NewRegistry(), "test")

	sched := &fakeScheduler{}
	notifier := &fakeNotifier{}
	users := &fakeUsers{}
	recognizer := &fakeRecognizer{body: json.RawMessage(`{"results":[]}`)}
	lister := &fakeDeliveryLister{}

	engine := service.NewWorkflowEngine(cfg, scheduler.NewClock(), sched, &fakeRecords{}, notifier, &fakeDeliveries{}, m)
	accounts := service.NewAccountService(users, notifier, m)

	router := NewRouter(
		NewNotifyHandler(engine),
		NewScheduleHandler(engine),
		NewRecognitionHandler(recognizer, m),
		NewUserHandler(accounts),
		NewDeliveryHandler(lister),
		NewHealthHandler(nil, "test"),
		middleware.CORSConfig{AllowedOrigins: "*", AllowedMethods: "POST, OPTIONS"},
	)

	return &testEnv{
		handler:    router.Handler(),
		sched:      sched,
		notifier:   notifier,
		users:      users,
		recognizer: recognizer,
		lister:     lister,
	}
}

func postForm(t *testing.T, h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestSendReturnsSID(t *testing.T) {
	env := newTestEnv(t)

	rec := postForm(t, env.handler, "/send", url.Values{
		"phone":   {"+15550001111"},
		"license": {"abc123"},
		"time":    {"5.30 PM"},
		"url":     {"https://prkcar.app/confirm/1"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "successful", body["status"])
	assert.Equal(t, "SM123", body["sid"])
	assert.Equal(t, []string{"+15550001111"}, env.notifier.smsTo)
}

func TestSendAcceptsJSONBody(t *testing.T) {
	env := newTestEnv(t)

	payload := `{"phone":"+15550001111","message":"custom text"}`
	req := httptest.NewRequest(http.MethodPost, "/send", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "successful", decodeBody(t, rec)["status"])
}

func TestSendFailureShape(t *testing.T) {
	env := newTestEnv(t)
	env.notifier.smsErr = errors.New("provider down")

	rec := postForm(t, env.handler, "/send", url.Values{"phone": {"+15550001111"}})

	// Failures keep HTTP 200 and carry only the status field
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]interface{}{"status": "failed"}, decodeBody(t, rec))
}

func TestSendScheduleArmsReminderAndPurge(t *testing.T) {
	env := newTestEnv(t)

	rec := postForm(t, env.handler, "/sendSchedule", url.Values{
		"id":    {"rec-1"},
		"phone": {"+15550001111"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "successful", decodeBody(t, rec)["status"])

	require.Len(t, env.sched.tasks, 2)
	assert.Equal(t, model.TaskExpiryReminder, env.sched.tasks[0].Kind)
	assert.Equal(t, "rec-1", env.sched.tasks[0].RecordID)
	assert.Equal(t, "+15550001111", env.sched.tasks[0].Phone)
	assert.Equal(t, model.TaskRecordPurge, env.sched.tasks[1].Kind)
}

func TestSendScheduleFailureShape(t *testing.T) {
	env := newTestEnv(t)
	env.sched.err = errors.New("scheduler stopped")

	rec := postForm(t, env.handler, "/sendSchedule", url.Values{"id": {"rec-1"}})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]interface{}{"status": "failed"}, decodeBody(t, rec))
}

func TestExpireArmsPendingTimeout(t *testing.T) {
	env := newTestEnv(t)

	rec := postForm(t, env.handler, "/expire", url.Values{"id": {"rec-2"}})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "successful", decodeBody(t, rec)["status"])

	require.Len(t, env.sched.tasks, 1)
	assert.Equal(t, model.TaskPendingTimeout, env.sched.tasks[0].Kind)
	assert.Equal(t, "rec-2", env.sched.tasks[0].RecordID)
}

func TestPlateRecognizeRelaysProviderJSON(t *testing.T) {
	env := newTestEnv(t)
	env.recognizer.body = json.RawMessage(`{"results":[{"plate":"xyz789"}]}`)

	rec := postForm(t, env.handler, "/plateRecognize", url.Values{"image": {"base64-bytes"}})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"results":[{"plate":"xyz789"}]}`, rec.Body.String())
}

func TestPlateRecognizeFailureShape(t *testing.T) {
	env := newTestEnv(t)
	env.recognizer.err = errors.New("provider unreachable")

	rec := postForm(t, env.handler, "/plateRecognize", url.Values{"image": {"base64-bytes"}})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]interface{}{"status": "failed"}, decodeBody(t, rec))
}

func TestSendEmailMailsCredentials(t *testing.T) {
	env := newTestEnv(t)

	rec := postForm(t, env.handler, "/sendEmail", url.Values{
		"email":    {"worker@example.com"},
		"role":     {"attendant"},
		"password": {"s3cret"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "successful", decodeBody(t, rec)["status"])
	assert.Equal(t, []string{"worker@example.com"}, env.notifier.emailTo)
}

func TestDeleteUserReturnsDone(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/deleteUser/worker@example.com", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "done", decodeBody(t, rec)["status"])
	assert.Equal(t, []string{"worker@example.com"}, env.users.deleted)
}

func TestDeleteUserMissingAccountStillDone(t *testing.T) {
	env := newTestEnv(t)
	env.users.err = model.ErrUserNotFound

	req := httptest.NewRequest(http.MethodGet, "/deleteUser/gone@example.com", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "done", decodeBody(t, rec)["status"])
}

func TestDeliveriesListsAuditTrail(t *testing.T) {
	env := newTestEnv(t)
	env.lister.logs = []model.DeliveryLog{
		{Channel: model.ChannelSMS, Destination: "+15550001111", Status: model.DeliveryDelivered},
	}

	req := httptest.NewRequest(http.MethodGet, "/deliveries?limit=10", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, env.lister.lastLimit)

	body := decodeBody(t, rec)
	assert.Equal(t, "successful", body["status"])
	entries, ok := body["deliveries"].([]interface{})
	require.True(t, ok)
	require.Len(t, entries, 1)
	entry, ok := entries[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "+15550001111", entry["destination"])
}

func TestDeliveriesCapsAndValidatesLimit(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/deliveries?limit=9999", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 500, env.lister.lastLimit)

	req = httptest.NewRequest(http.MethodGet, "/deliveries?limit=zero", nil)
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, map[string]interface{}{"status": "failed"}, decodeBody(t, rec))
}

func TestDeliveriesFailureShape(t *testing.T) {
	env := newTestEnv(t)
	env.lister.err = errors.New("cursor timeout")

	req := httptest.NewRequest(http.MethodGet, "/deliveries", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]interface{}{"status": "failed"}, decodeBody(t, rec))
}

func TestHealthReportsVersion(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
}

func TestPreflightRequestShortCircuits(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/send", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
