package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"push-service/payload"

	"go.uber.org/zap"
	"golang.org/x/net/http2"
)

const (
	defaultAPNSHost = "https://api.push.apple.com"

	// Notifications stay deliverable for a day if the device is offline.
	apnsExpirationWindow = 24 * time.Hour
)

// APNSSender delivers payloads through the Apple provider gateway over
// HTTP/2. Every Send opens its own connection and tears it down afterwards;
// connections are never pooled across calls.
type APNSSender struct {
	host    string
	topic   string
	tokens  *ApnsTokenSource
	timeout time.Duration
	logger  *zap.Logger

	// client overrides the per-call HTTP/2 client when set. Tests use it
	// to capture requests without a TLS endpoint.
	client *http.Client

	now func() time.Time
}

func NewAPNSSender(topic string, tokens *ApnsTokenSource, timeout time.Duration, logger *zap.Logger) *APNSSender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &APNSSender{
		host:    defaultAPNSHost,
		topic:   topic,
		tokens:  tokens,
		timeout: timeout,
		logger:  logger,
		now:     time.Now,
	}
}

// Send pushes one notification to one device. Transport failures are folded
// into the returned response so the caller can classify and log uniformly.
func (s *APNSSender) Send(ctx context.Context, token string, p payload.APNSPayload, collapseID string) APNSResponse {
	providerToken, err := s.tokens.Token()
	if err != nil {
		s.logger.Error("APNs provider token unavailable", zap.Error(err))
		return APNSResponse{Err: err.Error()}
	}

	body, err := json.Marshal(p)
	if err != nil {
		return APNSResponse{Err: "marshal APNs payload: " + err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.host+"/3/device/"+token, bytes.NewReader(body))
	if err != nil {
		return APNSResponse{Err: "build APNs request: " + err.Error()}
	}
	req.Header.Set("apns-topic", s.topic)
	if collapseID != "" {
		req.Header.Set("apns-collapse-id", collapseID)
	}
	req.Header.Set("apns-expiration", strconv.FormatInt(s.now().Add(apnsExpirationWindow).Unix(), 10))
	req.Header.Set("authorization", "bearer "+providerToken)

	client, teardown := s.newClient()
	defer teardown()

	resp, err := client.Do(req)
	if err != nil {
		s.logger.Error("Apple push error", zap.Error(err))
		return APNSResponse{Err: err.Error()}
	}
	defer resp.Body.Close()

	result := APNSResponse{
		StatusCode: resp.StatusCode,
		Headers:    flattenHeaders(resp),
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		result.Err = err.Error()
		return result
	}
	result.Body = string(data)
	return result
}

func (s *APNSSender) newClient() (*http.Client, func()) {
	if s.client != nil {
		return s.client, func() {}
	}
	// A fresh transport per request keeps connection lifetime at exactly
	// one request.
	tr := &http2.Transport{}
	return &http.Client{Transport: tr, Timeout: s.timeout}, tr.CloseIdleConnections
}

func flattenHeaders(resp *http.Response) map[string]string {
	headers := make(map[string]string, len(resp.Header)+1)
	headers[":status"] = strconv.Itoa(resp.StatusCode)
	for name := range resp.Header {
		headers[name] = resp.Header.Get(name)
	}
	return headers
}
