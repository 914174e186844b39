package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"push-service/payload"

	"go.uber.org/zap"
)

const defaultFCMEndpoint = "https://fcm.googleapis.com"

// AccessTokenSource provides the OAuth bearer credential for each send.
type AccessTokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// FCMSender delivers payloads through the FCM v1 send endpoint.
type FCMSender struct {
	endpoint  string
	projectID string
	tokens    AccessTokenSource
	client    *http.Client
	logger    *zap.Logger
}

func NewFCMSender(projectID string, tokens AccessTokenSource, timeout time.Duration, logger *zap.Logger) *FCMSender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &FCMSender{
		endpoint:  defaultFCMEndpoint,
		projectID: projectID,
		tokens:    tokens,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

// WithEndpoint overrides the gateway base URL. Tests point it at a local
// fake.
func (s *FCMSender) WithEndpoint(endpoint string) *FCMSender {
	s.endpoint = endpoint
	return s
}

// Send issues exactly one POST to the messaging gateway and returns the
// response body as text. A body read failure is tolerated: the attempt is
// still classified, just with an empty body.
func (s *FCMSender) Send(ctx context.Context, token string, p payload.FCMPayload) (string, error) {
	bearer, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return "", err
	}

	p.Message.Token = token
	body, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal FCM payload: %w", err)
	}

	url := fmt.Sprintf("%s/v1/projects/%s/messages:send", s.endpoint, s.projectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build FCM request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("FCM request failed: %w", err)
	}
	defer resp.Body.Close()

	responseText, err := io.ReadAll(resp.Body)
	if err != nil {
		s.logger.Error("error reading FCM response body", zap.Error(err))
		return "", nil
	}
	return string(responseText), nil
}
