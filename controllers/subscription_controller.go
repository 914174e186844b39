package controllers

import (
	"net/http"

	"push-service/middleware"
	"push-service/models"
	"push-service/repository"
	"push-service/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SubscriptionController struct {
	subs       repository.OnchainSubscriptionRepository
	tokens     repository.PushTokenRepository
	dispatcher services.DispatchService
	logger     *zap.Logger
}

func NewSubscriptionController(
	subs repository.OnchainSubscriptionRepository,
	tokens repository.PushTokenRepository,
	dispatcher services.DispatchService,
	logger *zap.Logger,
) *SubscriptionController {
	return &SubscriptionController{subs: subs, tokens: tokens, dispatcher: dispatcher, logger: logger}
}

type addressRequest struct {
	Address string `json:"address" binding:"required"`
}

// Subscribe registers the caller for updates about an on-chain address.
func (sc *SubscriptionController) Subscribe(ctx *gin.Context) {
	subscriber, err := middleware.GetAddress(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req addressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "missing address"})
		return
	}

	sub := &models.OnchainSubscription{
		Address:           req.Address,
		SubscriberAddress: subscriber,
	}
	if err := sc.subs.Save(ctx.Request.Context(), sub); err != nil {
		sc.logger.Error("failed to save subscription", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"ok": true, "subscriber_address": subscriber, "address": req.Address})
}

// Unsubscribe removes the caller's subscription for an address.
func (sc *SubscriptionController) Unsubscribe(ctx *gin.Context) {
	subscriber, err := middleware.GetAddress(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req addressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "missing address"})
		return
	}

	if err := sc.subs.Delete(ctx.Request.Context(), subscriber, req.Address); err != nil {
		sc.logger.Error("failed to delete subscription", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"ok": true, "subscriber_address": subscriber, "address": req.Address})
}

// List returns the caller's subscriptions.
func (sc *SubscriptionController) List(ctx *gin.Context) {
	subscriber, err := middleware.GetAddress(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	items, err := sc.subs.FindBySubscriber(ctx.Request.Context(), subscriber)
	if err != nil {
		sc.logger.Error("failed to list subscriptions", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"ok": true, "subscriber_address": subscriber, "items": items})
}

type simulateRequest struct {
	Address       string `json:"address" binding:"required"`
	Txid          string `json:"txid"`
	AmountSat     int64  `json:"amount_sat"`
	Confirmations int    `json:"confirmations"`
}

type simulateResult struct {
	SubscriberAddress string                 `json:"subscriber_address"`
	Platform          string                 `json:"platform"`
	Outcome           models.DeliveryOutcome `json:"outcome"`
}

// Simulate fans an on-chain event out to every subscriber of an address,
// dispatching once per registered device token. This is the thin upstream
// caller; the engine itself stays strictly one-token-per-call.
func (sc *SubscriptionController) Simulate(ctx *gin.Context) {
	var req simulateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "missing address"})
		return
	}
	if req.Txid == "" {
		req.Txid = "dummy_txid"
	}

	subs, err := sc.subs.FindByAddress(ctx.Request.Context(), req.Address)
	if err != nil {
		sc.logger.Error("failed to find subscribers", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if len(subs) == 0 {
		ctx.JSON(http.StatusOK, gin.H{"ok": true, "sent": 0, "note": "no subscribers for this address"})
		return
	}

	var results []simulateResult
	sent := 0
	for _, sub := range subs {
		tokens, err := sc.tokens.FindByOwner(ctx.Request.Context(), sub.SubscriberAddress)
		if err != nil {
			sc.logger.Error("failed to find subscriber tokens",
				zap.String("subscriber", sub.SubscriberAddress),
				zap.Error(err),
			)
			continue
		}
		for _, token := range tokens {
			event := buildOnchainEvent(req, token)
			outcome := sc.dispatcher.Dispatch(ctx.Request.Context(), event)
			if outcome.Delivered() {
				sent++
			}
			results = append(results, simulateResult{
				SubscriberAddress: sub.SubscriberAddress,
				Platform:          token.Platform,
				Outcome:           outcome,
			})
		}
	}

	ctx.JSON(http.StatusOK, gin.H{"ok": true, "sent": sent, "results": results})
}

func buildOnchainEvent(req simulateRequest, token models.PushToken) models.PushEvent {
	base := models.EventBase{
		Token: token.Token,
		OS:    token.Platform,
		Badge: 1,
	}
	if req.Confirmations >= 1 {
		return models.AddressPaidEvent{
			EventBase: base,
			Address:   req.Address,
			Txid:      req.Txid,
			Sat:       req.AmountSat,
		}
	}
	return models.UnconfirmedTxEvent{
		EventBase: base,
		Address:   req.Address,
		Txid:      req.Txid,
	}
}
