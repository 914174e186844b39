package controllers

import (
	"net/http"

	"push-service/middleware"
	"push-service/models"
	"push-service/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type TokenController struct {
	tokens repository.PushTokenRepository
	logger *zap.Logger
}

func NewTokenController(tokens repository.PushTokenRepository, logger *zap.Logger) *TokenController {
	return &TokenController{tokens: tokens, logger: logger}
}

type registerTokenRequest struct {
	Platform string `json:"platform" binding:"required"`
	Token    string `json:"token" binding:"required"`
}

// Register upserts the caller's device token for a platform.
func (tc *TokenController) Register(ctx *gin.Context) {
	address, err := middleware.GetAddress(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req registerTokenRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "missing platform or token"})
		return
	}
	if req.Platform != models.OSAndroid && req.Platform != models.OSIOS {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "unsupported platform"})
		return
	}

	entry := &models.PushToken{
		Address:  address,
		Platform: req.Platform,
		Token:    req.Token,
	}
	if err := tc.tokens.Upsert(ctx.Request.Context(), entry); err != nil {
		tc.logger.Error("failed to register push token", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"ok": true, "address": address, "platform": req.Platform})
}

// Me lists the caller's registered device tokens.
func (tc *TokenController) Me(ctx *gin.Context) {
	address, err := middleware.GetAddress(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	items, err := tc.tokens.FindByOwner(ctx.Request.Context(), address)
	if err != nil {
		tc.logger.Error("failed to list push tokens", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"ok": true, "address": address, "items": items})
}
