package controllers

import (
	"net/http"
	"time"

	"push-service/middleware"
	"push-service/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthController struct {
	auth   *services.AuthService
	logger *zap.Logger
}

func NewAuthController(auth *services.AuthService, logger *zap.Logger) *AuthController {
	return &AuthController{auth: auth, logger: logger}
}

// Nonce hands out a one-time challenge.
func (ac *AuthController) Nonce(ctx *gin.Context) {
	nonce, expiresInSec := ac.auth.IssueNonce()
	ctx.JSON(http.StatusOK, gin.H{"nonce": nonce, "expires_in_sec": expiresInSec})
}

type verifyRequest struct {
	Nonce     string `json:"nonce" binding:"required"`
	Address   string `json:"address" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

// Verify trades a signed nonce for a session token.
func (ac *AuthController) Verify(ctx *gin.Context) {
	var req verifyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "missing nonce/signature/address"})
		return
	}

	token, err := ac.auth.VerifyAndIssueToken(req.Nonce, req.Address, req.Signature)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"ok": false, "verified": false, "error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"ok": true, "verified": true, "token": token})
}

// Ping confirms the session token works.
func (ac *AuthController) Ping(ctx *gin.Context) {
	address, err := middleware.GetAddress(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "unauthorized"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"pong":    true,
		"address": address,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}
