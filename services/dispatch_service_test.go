package services_test

import (
	"context"
	"errors"
	"testing"

	"push-service/metrics"
	"push-service/models"
	"push-service/payload"
	"push-service/repository"
	"push-service/sender"
	"push-service/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// ---- mock repositories ----

type mockLogRepo struct {
	entries []*models.PushLog
	saveErr error
}

func (m *mockLogRepo) SaveLog(_ context.Context, entry *models.PushLog) error {
	m.entries = append(m.entries, entry)
	return m.saveErr
}

func (m *mockLogRepo) GetLogs(_ context.Context, _ models.PushLogFilter) ([]models.PushLog, int64, error) {
	return nil, 0, nil
}

type mockSubRepo struct {
	invalidated []string
	deleteErr   error
}

func (m *mockSubRepo) SubscribeAddress(_ context.Context, _ *models.TokenToAddress) error { return nil }
func (m *mockSubRepo) SubscribeTxid(_ context.Context, _ *models.TokenToTxid) error       { return nil }
func (m *mockSubRepo) SubscribeHash(_ context.Context, _ *models.TokenToHash) error       { return nil }
func (m *mockSubRepo) DeleteAllForToken(_ context.Context, token string) error {
	m.invalidated = append(m.invalidated, token)
	return m.deleteErr
}

var _ repository.SubscriptionRepository = (*mockSubRepo)(nil)

// ---- mock senders ----

type mockFCM struct {
	response string
	err      error
	calls    int
	gotToken string
	gotBody  payload.FCMPayload
}

func (m *mockFCM) Send(_ context.Context, token string, p payload.FCMPayload) (string, error) {
	m.calls++
	m.gotToken = token
	m.gotBody = p
	return m.response, m.err
}

type mockAPNS struct {
	response    sender.APNSResponse
	calls       int
	gotToken    string
	gotCollapse string
}

func (m *mockAPNS) Send(_ context.Context, token string, _ payload.APNSPayload, collapseID string) sender.APNSResponse {
	m.calls++
	m.gotToken = token
	m.gotCollapse = collapseID
	return m.response
}

// ---- helpers ----

func newTestDispatcher(logs *mockLogRepo, subs *mockSubRepo, fcm *mockFCM, apns *mockAPNS) services.DispatchService {
	logger, _ := zap.NewDevelopment()
	return services.NewDispatchService(logs, subs, fcm, apns, metrics.New(), logger)
}

func androidEvent(token string) models.AddressPaidEvent {
	return models.AddressPaidEvent{
		EventBase: models.EventBase{Token: token, OS: models.OSAndroid, Badge: 1},
		Address:   "bc1qverylongaddrxyz",
		Txid:      "abcd",
		Sat:       1000,
	}
}

func iosEvent(token string) models.InvoicePaidEvent {
	return models.InvoicePaidEvent{
		EventBase: models.EventBase{Token: token, OS: models.OSIOS, Badge: 1},
		Hash:      "hash-1",
		Memo:      "coffee",
		Sat:       500,
	}
}

// ---- tests ----

func TestDispatch_AndroidSuccess(t *testing.T) {
	logs := &mockLogRepo{}
	subs := &mockSubRepo{}
	fcm := &mockFCM{response: `{"name":"projects/p/messages/123"}`}
	svc := newTestDispatcher(logs, subs, fcm, &mockAPNS{})

	outcome := svc.Dispatch(context.Background(), androidEvent("T1"))

	assert.Equal(t, models.OutcomeSuccess, outcome.Status)
	assert.Equal(t, 1, fcm.calls)
	assert.Equal(t, "T1", fcm.gotToken)
	assert.Equal(t, "+1000 sats", fcm.gotBody.Message.Notification.Title)
	assert.Equal(t, "abcd", fcm.gotBody.Message.Data["tag"])
	assert.Empty(t, subs.invalidated)

	require.Len(t, logs.entries, 1)
	entry := logs.entries[0]
	assert.Equal(t, "T1", entry.Token)
	assert.Equal(t, models.OSAndroid, entry.OS)
	assert.True(t, entry.Success)
	// The stored payload is tokenless; the token column carries it.
	assert.NotContains(t, entry.Payload, `"token"`)
	assert.Contains(t, entry.Response, "projects/p/messages/123")
}

func TestDispatch_AndroidTerminalInvalidatesToken(t *testing.T) {
	logs := &mockLogRepo{}
	subs := &mockSubRepo{}
	fcm := &mockFCM{response: `{"error":{"code":404}}`}
	svc := newTestDispatcher(logs, subs, fcm, &mockAPNS{})

	outcome := svc.Dispatch(context.Background(), androidEvent("dead-token"))

	assert.Equal(t, models.OutcomeTerminalFailure, outcome.Status)
	assert.Equal(t, []string{"dead-token"}, subs.invalidated)

	require.Len(t, logs.entries, 1)
	assert.False(t, logs.entries[0].Success)
}

func TestDispatch_AndroidNetworkErrorIsTransientAndLogged(t *testing.T) {
	logs := &mockLogRepo{}
	subs := &mockSubRepo{}
	fcm := &mockFCM{err: errors.New("connection refused")}
	svc := newTestDispatcher(logs, subs, fcm, &mockAPNS{})

	outcome := svc.Dispatch(context.Background(), androidEvent("T1"))

	assert.Equal(t, models.OutcomeTransientFailure, outcome.Status)
	assert.Empty(t, subs.invalidated)

	require.Len(t, logs.entries, 1)
	assert.False(t, logs.entries[0].Success)
	assert.Contains(t, logs.entries[0].Response, "connection refused")
}

func TestDispatch_AndroidUnparseableResponseNoCleanup(t *testing.T) {
	logs := &mockLogRepo{}
	subs := &mockSubRepo{}
	fcm := &mockFCM{response: "<html>bad gateway</html>"}
	svc := newTestDispatcher(logs, subs, fcm, &mockAPNS{})

	outcome := svc.Dispatch(context.Background(), androidEvent("T1"))

	assert.Equal(t, models.OutcomeTransientFailure, outcome.Status)
	assert.Empty(t, subs.invalidated)
	require.Len(t, logs.entries, 1)
	assert.Contains(t, logs.entries[0].Response, "bad gateway")
}

func TestDispatch_AppleSuccess(t *testing.T) {
	logs := &mockLogRepo{}
	subs := &mockSubRepo{}
	apns := &mockAPNS{response: sender.APNSResponse{
		StatusCode: 200,
		Headers:    map[string]string{":status": "200"},
	}}
	svc := newTestDispatcher(logs, subs, &mockFCM{}, apns)

	outcome := svc.Dispatch(context.Background(), iosEvent("ios-token"))

	assert.Equal(t, models.OutcomeSuccess, outcome.Status)
	assert.Equal(t, 1, apns.calls)
	assert.Equal(t, "ios-token", apns.gotToken)
	assert.Equal(t, "hash-1", apns.gotCollapse)

	require.Len(t, logs.entries, 1)
	assert.Equal(t, models.OSIOS, logs.entries[0].OS)
	assert.True(t, logs.entries[0].Success)
}

func TestDispatch_AppleUnregisteredInvalidatesToken(t *testing.T) {
	logs := &mockLogRepo{}
	subs := &mockSubRepo{}
	apns := &mockAPNS{response: sender.APNSResponse{
		StatusCode: 410,
		Headers:    map[string]string{":status": "410"},
		Body:       `{"reason":"Unregistered"}`,
	}}
	svc := newTestDispatcher(logs, subs, &mockFCM{}, apns)

	outcome := svc.Dispatch(context.Background(), iosEvent("gone"))

	assert.Equal(t, models.OutcomeTerminalFailure, outcome.Status)
	assert.Equal(t, []string{"gone"}, subs.invalidated)
	require.Len(t, logs.entries, 1)
	assert.False(t, logs.entries[0].Success)
}

func TestDispatch_AppleTransportFailureStillAudited(t *testing.T) {
	logs := &mockLogRepo{}
	subs := &mockSubRepo{}
	apns := &mockAPNS{response: sender.APNSResponse{Err: "stream reset"}}
	svc := newTestDispatcher(logs, subs, &mockFCM{}, apns)

	outcome := svc.Dispatch(context.Background(), iosEvent("T9"))

	assert.Equal(t, models.OutcomeTransientFailure, outcome.Status)
	assert.Empty(t, subs.invalidated)
	require.Len(t, logs.entries, 1)
	assert.False(t, logs.entries[0].Success)
	assert.Contains(t, logs.entries[0].Response, "stream reset")
}

func TestDispatch_InvalidationFailureDoesNotChangeOutcome(t *testing.T) {
	logs := &mockLogRepo{}
	subs := &mockSubRepo{deleteErr: errors.New("db down")}
	fcm := &mockFCM{response: `{"error":{"code":404}}`}
	svc := newTestDispatcher(logs, subs, fcm, &mockAPNS{})

	outcome := svc.Dispatch(context.Background(), androidEvent("T1"))

	assert.Equal(t, models.OutcomeTerminalFailure, outcome.Status)
	require.Len(t, logs.entries, 1)
}

// Every dispatch produces exactly one audit row, whatever the outcome.
func TestDispatch_AlwaysExactlyOneAuditEntry(t *testing.T) {
	cases := []struct {
		name string
		fcm  *mockFCM
	}{
		{"success", &mockFCM{response: `{"name":"projects/p/messages/1"}`}},
		{"transient", &mockFCM{response: `{"error":{"code":500}}`}},
		{"terminal", &mockFCM{response: `{"error":{"code":404}}`}},
		{"network error", &mockFCM{err: errors.New("timeout")}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			logs := &mockLogRepo{}
			svc := newTestDispatcher(logs, &mockSubRepo{}, tc.fcm, &mockAPNS{})
			outcome := svc.Dispatch(context.Background(), androidEvent("T1"))
			require.Len(t, logs.entries, 1)
			assert.Equal(t, outcome.Delivered(), logs.entries[0].Success)
		})
	}
}
