package main

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"push-service/consumer"
	"push-service/controllers"
	"push-service/database"
	"push-service/metrics"
	"push-service/repository"
	"push-service/routes"
	"push-service/sender"
	"push-service/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	cfg, err := LoadConfig()
	if err != nil {
		logger.Fatal("Config load failed", zap.Error(err))
	}

	// Database
	db, err := database.Connect(cfg.Postgres(), logger)
	if err != nil {
		logger.Fatal("DB connection failed", zap.Error(err))
	}

	// Gateway credentials
	serviceAccountJSON, err := os.ReadFile(cfg.GoogleKeyFile)
	if err != nil {
		logger.Fatal("Failed to read Google service account key", zap.Error(err))
	}
	googleTokens, err := sender.NewGoogleTokenSource(context.Background(), serviceAccountJSON)
	if err != nil {
		logger.Fatal("Failed to init Google token source", zap.Error(err))
	}
	apnsTokens, err := sender.NewApnsTokenSource(cfg.ApnsP8, cfg.ApnsKeyID, cfg.AppleTeamID)
	if err != nil {
		logger.Fatal("Failed to init APNs token source", zap.Error(err))
	}

	// Senders
	fcmSender := sender.NewFCMSender(cfg.GoogleProjectID, googleTokens, cfg.SendTimeout, logger)
	apnsSender := sender.NewAPNSSender(cfg.ApnsTopic, apnsTokens, cfg.SendTimeout, logger)

	// Metrics
	registry := prometheus.NewRegistry()
	pushMetrics := metrics.New()
	pushMetrics.Register(registry)

	// Dependency injection
	logRepo := repository.NewPushLogRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	tokenRepo := repository.NewPushTokenRepository(db)
	onchainRepo := repository.NewOnchainSubscriptionRepository(db)

	dispatcher := services.NewDispatchService(logRepo, subRepo, fcmSender, apnsSender, pushMetrics, logger)
	authService := services.NewAuthService(ed25519Verifier, []byte(cfg.JWTSecret))

	ctrls := routes.Controllers{
		Auth:         controllers.NewAuthController(authService, logger),
		Push:         controllers.NewPushController(dispatcher, logRepo, logger),
		Token:        controllers.NewTokenController(tokenRepo, logger),
		Subscription: controllers.NewSubscriptionController(onchainRepo, tokenRepo, dispatcher, logger),
	}

	// Router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	// Request logging
	r.Use(func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Next()
		logger.Info("http_request",
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	})

	// Request timeout
	r.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})

	routes.RegisterRoutes(r, ctrls, []byte(cfg.JWTSecret), registry)

	// Queue intake (optional)
	consumerCtx, consumerCancel := context.WithCancel(context.Background())
	defer consumerCancel()
	if cfg.SQSQueueURL != "" {
		sqsConsumer, err := consumer.NewSQSConsumer(cfg.SQSQueueURL, dispatcher, logger)
		if err != nil {
			logger.Fatal("Failed to init SQS consumer", zap.Error(err))
		}
		go sqsConsumer.Start(consumerCtx)
	}

	// HTTP server
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logger.Info("Push service started", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Initiating graceful shutdown...")
	consumerCancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	if err := database.Close(db); err != nil {
		logger.Error("Database close error", zap.Error(err))
	}

	logger.Info("Push service stopped gracefully")
}

// ed25519Verifier checks the login signature: the identity is a hex-encoded
// ed25519 public key and the signature is hex over the raw nonce bytes.
func ed25519Verifier(nonce, address, signature string) (bool, error) {
	pub, err := hex.DecodeString(address)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return false, fmt.Errorf("address is not a valid public key")
	}
	sig, err := hex.DecodeString(signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false, fmt.Errorf("signature is not valid hex")
	}
	return ed25519.Verify(ed25519.PublicKey(pub), []byte(nonce), sig), nil
}
