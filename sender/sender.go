package sender

import (
	"context"

	"push-service/payload"
)

// AndroidSender performs one delivery attempt against the FCM gateway and
// returns the raw response body. A non-nil error means the request itself
// failed; the caller still records the attempt.
type AndroidSender interface {
	Send(ctx context.Context, token string, p payload.FCMPayload) (string, error)
}

// AppleSender performs one delivery attempt against the APNs gateway. It
// never returns an error: transport failures come back as a synthesized
// APNSResponse so classification and audit logging always run.
type AppleSender interface {
	Send(ctx context.Context, token string, p payload.APNSPayload, collapseID string) APNSResponse
}

// APNSResponse is the raw artifact of one APNs request. StatusCode 0 with
// an empty Headers map means the transport failed before any response
// arrived.
type APNSResponse struct {
	StatusCode int               `json:"status"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       string            `json:"body,omitempty"`
	Err        string            `json:"error,omitempty"`
}

// Received reports whether the gateway answered at all.
func (r APNSResponse) Received() bool {
	return len(r.Headers) > 0
}
