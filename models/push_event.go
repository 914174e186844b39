package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

const (
	OSAndroid = "android"
	OSIOS     = "ios"
)

// Event type discriminators used on the wire (HTTP body and queue envelope).
const (
	EventUnconfirmedTx = "onchain_address_got_unconfirmed_transaction"
	EventTxConfirmed   = "onchain_txid_got_confirmed"
	EventMessage       = "message"
	EventAddressPaid   = "onchain_address_got_paid"
	EventInvoicePaid   = "lightning_invoice_got_paid"
)

// EventBase carries the delivery routing fields shared by every event variant.
// These fields are transport-internal and are never copied into the
// app-visible data map.
type EventBase struct {
	Token string `json:"token" binding:"required"`
	OS    string `json:"os" binding:"required"`
	Badge int    `json:"badge"`
}

// PushEvent is the closed set of notification events the dispatcher accepts.
// Each variant knows its collapse key (the gateway-side de-duplication
// subject) and the exact list of fields exposed to the client app.
type PushEvent interface {
	Kind() string
	Base() EventBase
	// CollapseKey returns the identifier the gateway uses to coalesce
	// notifications about the same subject. Empty means no coalescing.
	CollapseKey() string
	// DataFields returns the variant's own fields as string values, ready
	// for a gateway data map. Token, OS and Badge are deliberately absent.
	DataFields() map[string]string
}

type UnconfirmedTxEvent struct {
	EventBase
	Address string `json:"address" binding:"required"`
	Txid    string `json:"txid" binding:"required"`
}

func (e UnconfirmedTxEvent) Kind() string        { return EventUnconfirmedTx }
func (e UnconfirmedTxEvent) Base() EventBase     { return e.EventBase }
func (e UnconfirmedTxEvent) CollapseKey() string { return e.Txid }
func (e UnconfirmedTxEvent) DataFields() map[string]string {
	return map[string]string{
		"address": e.Address,
		"txid":    e.Txid,
	}
}

type TxConfirmedEvent struct {
	EventBase
	Txid string `json:"txid" binding:"required"`
}

func (e TxConfirmedEvent) Kind() string        { return EventTxConfirmed }
func (e TxConfirmedEvent) Base() EventBase     { return e.EventBase }
func (e TxConfirmedEvent) CollapseKey() string { return e.Txid }
func (e TxConfirmedEvent) DataFields() map[string]string {
	return map[string]string{
		"txid": e.Txid,
	}
}

type MessageEvent struct {
	EventBase
	Text string `json:"text" binding:"required"`
}

func (e MessageEvent) Kind() string        { return EventMessage }
func (e MessageEvent) Base() EventBase     { return e.EventBase }
func (e MessageEvent) CollapseKey() string { return "" }
func (e MessageEvent) DataFields() map[string]string {
	return map[string]string{
		"text": e.Text,
	}
}

type AddressPaidEvent struct {
	EventBase
	Address string `json:"address" binding:"required"`
	Txid    string `json:"txid" binding:"required"`
	Sat     int64  `json:"sat"`
}

func (e AddressPaidEvent) Kind() string        { return EventAddressPaid }
func (e AddressPaidEvent) Base() EventBase     { return e.EventBase }
func (e AddressPaidEvent) CollapseKey() string { return e.Txid }
func (e AddressPaidEvent) DataFields() map[string]string {
	return map[string]string{
		"address": e.Address,
		"txid":    e.Txid,
		"sat":     strconv.FormatInt(e.Sat, 10),
	}
}

type InvoicePaidEvent struct {
	EventBase
	Hash string `json:"hash" binding:"required"`
	Memo string `json:"memo"`
	Sat  int64  `json:"sat"`
}

func (e InvoicePaidEvent) Kind() string        { return EventInvoicePaid }
func (e InvoicePaidEvent) Base() EventBase     { return e.EventBase }
func (e InvoicePaidEvent) CollapseKey() string { return e.Hash }
func (e InvoicePaidEvent) DataFields() map[string]string {
	return map[string]string{
		"hash": e.Hash,
		"memo": e.Memo,
		"sat":  strconv.FormatInt(e.Sat, 10),
	}
}

// EventEnvelope wraps a tagged event on the wire.
type EventEnvelope struct {
	Type  string          `json:"type"`
	Event json.RawMessage `json:"event"`
}

// DecodeEvent turns a tagged envelope into the matching PushEvent variant.
func DecodeEvent(env EventEnvelope) (PushEvent, error) {
	var (
		ev  PushEvent
		err error
	)
	switch env.Type {
	case EventUnconfirmedTx:
		var e UnconfirmedTxEvent
		err = json.Unmarshal(env.Event, &e)
		ev = e
	case EventTxConfirmed:
		var e TxConfirmedEvent
		err = json.Unmarshal(env.Event, &e)
		ev = e
	case EventMessage:
		var e MessageEvent
		err = json.Unmarshal(env.Event, &e)
		ev = e
	case EventAddressPaid:
		var e AddressPaidEvent
		err = json.Unmarshal(env.Event, &e)
		ev = e
	case EventInvoicePaid:
		var e InvoicePaidEvent
		err = json.Unmarshal(env.Event, &e)
		ev = e
	default:
		return nil, fmt.Errorf("unsupported event type: %s", env.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s event: %w", env.Type, err)
	}
	base := ev.Base()
	if base.Token == "" {
		return nil, fmt.Errorf("event %s is missing a device token", env.Type)
	}
	if base.OS != OSAndroid && base.OS != OSIOS {
		return nil, fmt.Errorf("event %s has unsupported os %q", env.Type, base.OS)
	}
	return ev, nil
}
