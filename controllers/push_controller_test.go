package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"push-service/controllers"
	"push-service/models"
	"push-service/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// ---- concrete mocks ----

type mockDispatcher struct {
	outcome models.DeliveryOutcome
	last    models.PushEvent
	calls   int
}

func (m *mockDispatcher) Dispatch(_ context.Context, ev models.PushEvent) models.DeliveryOutcome {
	m.calls++
	m.last = ev
	return m.outcome
}

var _ services.DispatchService = (*mockDispatcher)(nil)

type mockLogStore struct {
	logs  []models.PushLog
	total int64
	err   error
	last  models.PushLogFilter
}

func (m *mockLogStore) SaveLog(context.Context, *models.PushLog) error { return nil }
func (m *mockLogStore) GetLogs(_ context.Context, filter models.PushLogFilter) ([]models.PushLog, int64, error) {
	m.last = filter
	return m.logs, m.total, m.err
}

// ---- helpers ----

func setupPushRouter(dispatcher *mockDispatcher, logs *mockLogStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger, _ := zap.NewDevelopment()
	r := gin.New()
	c := controllers.NewPushController(dispatcher, logs, logger)

	r.POST("/push/send", c.Dispatch)
	r.GET("/push/logs", c.GetPushLogs)
	return r
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ---- tests ----

func TestDispatch_Success(t *testing.T) {
	dispatcher := &mockDispatcher{outcome: models.Success()}
	r := setupPushRouter(dispatcher, &mockLogStore{})

	body := `{
		"type": "lightning_invoice_got_paid",
		"event": {"token":"T1","os":"ios","hash":"h1","memo":"coffee","sat":500,"badge":1}
	}`
	w := postJSON(r, "/push/send", body)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, dispatcher.calls)
	assert.Equal(t, models.EventInvoicePaid, dispatcher.last.Kind())

	var outcome models.DeliveryOutcome
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &outcome))
	assert.Equal(t, models.OutcomeSuccess, outcome.Status)
}

func TestDispatch_TerminalOutcomeStillHTTP200(t *testing.T) {
	dispatcher := &mockDispatcher{outcome: models.TerminalFailure("Unregistered")}
	r := setupPushRouter(dispatcher, &mockLogStore{})

	body := `{"type":"message","event":{"token":"T1","os":"android","text":"hi"}}`
	w := postJSON(r, "/push/send", body)

	assert.Equal(t, http.StatusOK, w.Code)
	var outcome models.DeliveryOutcome
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &outcome))
	assert.Equal(t, models.OutcomeTerminalFailure, outcome.Status)
	assert.Equal(t, "Unregistered", outcome.Reason)
}

func TestDispatch_BadJSON(t *testing.T) {
	dispatcher := &mockDispatcher{}
	r := setupPushRouter(dispatcher, &mockLogStore{})

	w := postJSON(r, "/push/send", "not-json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, dispatcher.calls)
}

func TestDispatch_UnknownEventType(t *testing.T) {
	dispatcher := &mockDispatcher{}
	r := setupPushRouter(dispatcher, &mockLogStore{})

	w := postJSON(r, "/push/send", `{"type":"sms","event":{"token":"T1","os":"ios"}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, dispatcher.calls)
}

func TestDispatch_MissingToken(t *testing.T) {
	dispatcher := &mockDispatcher{}
	r := setupPushRouter(dispatcher, &mockLogStore{})

	w := postJSON(r, "/push/send", `{"type":"message","event":{"os":"ios","text":"hi"}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, dispatcher.calls)
}

func TestGetPushLogs_Success(t *testing.T) {
	logs := &mockLogStore{
		logs:  []models.PushLog{{ID: 1, Token: "T1", OS: "ios", Success: true}},
		total: 41,
	}
	r := setupPushRouter(&mockDispatcher{}, logs)

	req := httptest.NewRequest(http.MethodGet, "/push/logs?token=T1&os=ios&success=true&page=2&page_size=20", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "T1", logs.last.Token)
	assert.Equal(t, "ios", logs.last.OS)
	require.NotNil(t, logs.last.Success)
	assert.True(t, *logs.last.Success)
	assert.Equal(t, 2, logs.last.Page)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(41), resp["total"])
	assert.Equal(t, float64(3), resp["total_pages"])
}

func TestGetPushLogs_InvalidSuccessFilter(t *testing.T) {
	r := setupPushRouter(&mockDispatcher{}, &mockLogStore{})

	req := httptest.NewRequest(http.MethodGet, "/push/logs?success=maybe", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetPushLogs_PageSizeClamped(t *testing.T) {
	logs := &mockLogStore{}
	r := setupPushRouter(&mockDispatcher{}, logs)

	req := httptest.NewRequest(http.MethodGet, "/push/logs?page_size=9999", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 100, logs.last.PageSize)
}

func TestGetPushLogs_StoreError(t *testing.T) {
	logs := &mockLogStore{err: errors.New("db down")}
	r := setupPushRouter(&mockDispatcher{}, logs)

	req := httptest.NewRequest(http.MethodGet, "/push/logs", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
