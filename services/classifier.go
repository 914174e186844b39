package services

import (
	"encoding/json"
	"fmt"

	"push-service/models"
	"push-service/sender"
)

// fcmResponse mirrors the two shapes the FCM v1 endpoint answers with: a
// message name on success, or an error object.
type fcmResponse struct {
	Name  string `json:"name"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Details []struct {
			ErrorCode string `json:"errorCode"`
		} `json:"details"`
	} `json:"error"`
}

// ClassifyFCM inspects the raw FCM response text. Only a 404 error code or a
// structured UNREGISTERED detail proves the token dead; anything else,
// unparseable JSON included, is treated as not proven terminal.
func ClassifyFCM(responseText string) models.DeliveryOutcome {
	var resp fcmResponse
	if err := json.Unmarshal([]byte(responseText), &resp); err != nil {
		return models.TransientFailure("unparseable gateway response")
	}

	if resp.Error != nil {
		if resp.Error.Code == 404 {
			return models.TerminalFailure("token not found")
		}
		for _, detail := range resp.Error.Details {
			if detail.ErrorCode == "UNREGISTERED" {
				return models.TerminalFailure("UNREGISTERED")
			}
		}
		return models.TransientFailure(resp.Error.Message)
	}

	if resp.Name != "" {
		return models.Success()
	}

	return models.TransientFailure("gateway response carried no message name")
}

// apnsTerminalReasons are the rejection reasons that prove a device token
// permanently invalid.
var apnsTerminalReasons = map[string]bool{
	"Unregistered":           true,
	"BadDeviceToken":         true,
	"DeviceTokenNotForTopic": true,
}

type apnsErrorBody struct {
	Reason string `json:"reason"`
}

// ClassifyAPNS inspects a raw APNs response. A response with no headers at
// all means the transport failed before the gateway answered; that is never
// terminal.
func ClassifyAPNS(resp sender.APNSResponse) models.DeliveryOutcome {
	if !resp.Received() {
		reason := resp.Err
		if reason == "" {
			reason = "no response from gateway"
		}
		return models.TransientFailure(reason)
	}

	if resp.StatusCode == 200 {
		return models.Success()
	}

	var body apnsErrorBody
	if err := json.Unmarshal([]byte(resp.Body), &body); err == nil && body.Reason != "" {
		if apnsTerminalReasons[body.Reason] {
			return models.TerminalFailure(body.Reason)
		}
		return models.TransientFailure(body.Reason)
	}

	return models.TransientFailure(fmt.Sprintf("gateway status %d", resp.StatusCode))
}
