package models_test

import (
	"encoding/json"
	"testing"

	"push-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envelope(eventType, eventJSON string) models.EventEnvelope {
	return models.EventEnvelope{Type: eventType, Event: json.RawMessage(eventJSON)}
}

func TestDecodeEvent_AllVariants(t *testing.T) {
	cases := []struct {
		eventType string
		body      string
		collapse  string
	}{
		{
			models.EventUnconfirmedTx,
			`{"token":"T1","os":"android","address":"bc1qaddr","txid":"tx-1"}`,
			"tx-1",
		},
		{
			models.EventTxConfirmed,
			`{"token":"T1","os":"ios","txid":"tx-2"}`,
			"tx-2",
		},
		{
			models.EventMessage,
			`{"token":"T1","os":"android","text":"hello"}`,
			"",
		},
		{
			models.EventAddressPaid,
			`{"token":"T1","os":"ios","address":"bc1qaddr","txid":"tx-3","sat":1000}`,
			"tx-3",
		},
		{
			models.EventInvoicePaid,
			`{"token":"T1","os":"ios","hash":"hash-1","memo":"coffee","sat":500}`,
			"hash-1",
		},
	}

	for _, tc := range cases {
		t.Run(tc.eventType, func(t *testing.T) {
			ev, err := models.DecodeEvent(envelope(tc.eventType, tc.body))
			require.NoError(t, err)
			assert.Equal(t, tc.eventType, ev.Kind())
			assert.Equal(t, "T1", ev.Base().Token)
			assert.Equal(t, tc.collapse, ev.CollapseKey())
		})
	}
}

func TestDecodeEvent_UnknownType(t *testing.T) {
	_, err := models.DecodeEvent(envelope("sms_received", `{"token":"T1","os":"ios"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported event type")
}

func TestDecodeEvent_MissingToken(t *testing.T) {
	_, err := models.DecodeEvent(envelope(models.EventMessage, `{"os":"ios","text":"hi"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token")
}

func TestDecodeEvent_UnsupportedOS(t *testing.T) {
	_, err := models.DecodeEvent(envelope(models.EventMessage, `{"token":"T1","os":"windows","text":"hi"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "windows")
}

func TestDecodeEvent_MalformedJSON(t *testing.T) {
	_, err := models.DecodeEvent(envelope(models.EventMessage, `{"token":`))
	assert.Error(t, err)
}

func TestDataFields_NeverLeakRoutingFields(t *testing.T) {
	events := []models.PushEvent{
		models.UnconfirmedTxEvent{EventBase: models.EventBase{Token: "T", OS: "ios", Badge: 3}, Address: "a", Txid: "t"},
		models.TxConfirmedEvent{EventBase: models.EventBase{Token: "T", OS: "ios", Badge: 3}, Txid: "t"},
		models.MessageEvent{EventBase: models.EventBase{Token: "T", OS: "ios", Badge: 3}, Text: "hi"},
		models.AddressPaidEvent{EventBase: models.EventBase{Token: "T", OS: "ios", Badge: 3}, Address: "a", Txid: "t", Sat: 1},
		models.InvoicePaidEvent{EventBase: models.EventBase{Token: "T", OS: "ios", Badge: 3}, Hash: "h", Sat: 1},
	}

	for _, ev := range events {
		data := ev.DataFields()
		assert.NotContains(t, data, "token", ev.Kind())
		assert.NotContains(t, data, "os", ev.Kind())
		assert.NotContains(t, data, "badge", ev.Kind())
	}
}
