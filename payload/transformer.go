package payload

import (
	"fmt"
	"strconv"

	"push-service/models"
)

// FCMNotification is the system-rendered part of an FCM message. It shows
// even when the app is not running.
type FCMNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type FCMAndroidNotification struct {
	Tag string `json:"tag"`
}

type FCMAndroid struct {
	Notification FCMAndroidNotification `json:"notification"`
}

type FCMMessage struct {
	Token        string            `json:"token,omitempty"`
	Data         map[string]string `json:"data"`
	Notification FCMNotification   `json:"notification"`
	Android      *FCMAndroid       `json:"android,omitempty"`
}

// FCMPayload is the JSON envelope the FCM v1 send endpoint expects. All data
// values must be strings; the gateway rejects anything else.
type FCMPayload struct {
	Message FCMMessage `json:"message"`
}

type APSAlert struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type APS struct {
	Badge int      `json:"badge"`
	Alert APSAlert `json:"alert"`
	Sound string   `json:"sound"`
}

// APNSPayload is the APNs request body. Data holds every event field except
// the transport-internal ones (token, os, badge).
type APNSPayload struct {
	APS  APS               `json:"aps"`
	Data map[string]string `json:"data"`
}

// Transform maps an event into the payloads both gateways expect. Pure; the
// caller picks the one matching the destination platform.
func Transform(ev models.PushEvent) (FCMPayload, APNSPayload) {
	title, body := renderAlert(ev)
	base := ev.Base()

	data := ev.DataFields()

	fcmData := make(map[string]string, len(data)+2)
	for k, v := range data {
		fcmData[k] = v
	}

	var android *FCMAndroid
	if key := ev.CollapseKey(); key != "" {
		fcmData["badge"] = strconv.Itoa(base.Badge)
		fcmData["tag"] = key
		android = &FCMAndroid{Notification: FCMAndroidNotification{Tag: key}}
	}

	fcm := FCMPayload{
		Message: FCMMessage{
			Data:         fcmData,
			Notification: FCMNotification{Title: title, Body: body},
			Android:      android,
		},
	}

	apns := APNSPayload{
		APS: APS{
			Badge: base.Badge,
			Alert: APSAlert{Title: title, Body: body},
			Sound: "default",
		},
		Data: data,
	}

	return fcm, apns
}

func renderAlert(ev models.PushEvent) (title, body string) {
	switch e := ev.(type) {
	case models.UnconfirmedTxEvent:
		return "New unconfirmed transaction",
			"You received new transfer on " + ShortenAddress(e.Address)
	case models.TxConfirmedEvent:
		return "Transaction - Confirmed",
			"Your transaction " + ShortenTxid(e.Txid) + " has been confirmed"
	case models.MessageEvent:
		return "Message", e.Text
	case models.AddressPaidEvent:
		return fmt.Sprintf("+%d sats", e.Sat),
			"Received on " + ShortenAddress(e.Address)
	case models.InvoicePaidEvent:
		memo := e.Memo
		if memo == "" {
			memo = "your invoice"
		}
		return fmt.Sprintf("+%d sats", e.Sat), "Paid: " + memo
	default:
		// DecodeEvent keeps the union closed; this is unreachable for
		// events built through it.
		return "Message", ""
	}
}
