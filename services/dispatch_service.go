package services

import (
	"context"
	"encoding/json"

	"push-service/metrics"
	"push-service/models"
	"push-service/payload"
	"push-service/repository"
	"push-service/sender"

	"go.uber.org/zap"
)

// DispatchService is the push dispatch engine: it transforms one event into
// the destination gateway's payload, performs a single delivery attempt,
// classifies the result, reaps dead tokens, and records the attempt.
type DispatchService interface {
	// Dispatch guarantees exactly one delivery attempt and exactly one
	// audit log row per call. Delivery failures are reported through the
	// outcome, never as an error.
	Dispatch(ctx context.Context, ev models.PushEvent) models.DeliveryOutcome
}

type dispatchService struct {
	logs    repository.PushLogRepository
	subs    repository.SubscriptionRepository
	fcm     sender.AndroidSender
	apns    sender.AppleSender
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewDispatchService(
	logs repository.PushLogRepository,
	subs repository.SubscriptionRepository,
	fcm sender.AndroidSender,
	apns sender.AppleSender,
	metrics *metrics.Metrics,
	logger *zap.Logger,
) DispatchService {
	return &dispatchService{
		logs:    logs,
		subs:    subs,
		fcm:     fcm,
		apns:    apns,
		metrics: metrics,
		logger:  logger,
	}
}

func (s *dispatchService) Dispatch(ctx context.Context, ev models.PushEvent) models.DeliveryOutcome {
	s.metrics.IncDispatched()

	fcmPayload, apnsPayload := payload.Transform(ev)
	base := ev.Base()

	var outcome models.DeliveryOutcome
	switch base.OS {
	case models.OSAndroid:
		outcome = s.dispatchAndroid(ctx, base, fcmPayload)
	case models.OSIOS:
		outcome = s.dispatchApple(ctx, base, apnsPayload, ev.CollapseKey())
	default:
		outcome = models.TransientFailure("unsupported os " + base.OS)
		s.audit(ctx, base, marshalOrEmpty(fcmPayload), outcome.Reason, false)
	}

	if outcome.Delivered() {
		s.metrics.IncDelivered()
	} else {
		s.metrics.IncFailed()
	}
	return outcome
}

func (s *dispatchService) dispatchAndroid(ctx context.Context, base models.EventBase, p payload.FCMPayload) models.DeliveryOutcome {
	responseText, err := s.fcm.Send(ctx, base.Token, p)

	var outcome models.DeliveryOutcome
	response := responseText
	if err != nil {
		outcome = models.TransientFailure(err.Error())
		response = err.Error()
		s.logger.Warn("FCM send failed", zap.Error(err))
	} else {
		outcome = ClassifyFCM(responseText)
	}

	s.reapIfTerminal(ctx, base.Token, outcome)
	// Token is injected per request; the stored payload stays tokenless.
	p.Message.Token = ""
	s.audit(ctx, base, marshalOrEmpty(p), response, outcome.Delivered())
	return outcome
}

func (s *dispatchService) dispatchApple(ctx context.Context, base models.EventBase, p payload.APNSPayload, collapseID string) models.DeliveryOutcome {
	resp := s.apns.Send(ctx, base.Token, p, collapseID)
	outcome := ClassifyAPNS(resp)

	s.reapIfTerminal(ctx, base.Token, outcome)
	s.audit(ctx, base, marshalOrEmpty(p), marshalOrEmpty(resp), outcome.Delivered())
	return outcome
}

// reapIfTerminal invalidates every subscription referencing the token once a
// gateway proves it dead. Runs synchronously so callers and tests observe
// the cleanup deterministically.
func (s *dispatchService) reapIfTerminal(ctx context.Context, token string, outcome models.DeliveryOutcome) {
	if !outcome.Terminal() {
		return
	}
	s.logger.Info("deleting dead token",
		zap.String("token", token),
		zap.String("reason", outcome.Reason),
	)
	s.metrics.IncDeadTokens()
	if err := s.subs.DeleteAllForToken(ctx, token); err != nil {
		s.logger.Error("failed to delete dead token subscriptions",
			zap.String("token", token),
			zap.Error(err),
		)
	}
}

func (s *dispatchService) audit(ctx context.Context, base models.EventBase, payloadJSON, response string, success bool) {
	entry := &models.PushLog{
		Token:    base.Token,
		OS:       base.OS,
		Payload:  payloadJSON,
		Response: response,
		Success:  success,
	}
	if err := s.logs.SaveLog(ctx, entry); err != nil {
		s.logger.Error("failed to save push log", zap.Error(err))
	}
}

func marshalOrEmpty(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
