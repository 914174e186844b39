package routes

import (
	"net/http"

	"push-service/controllers"
	"push-service/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Controllers struct {
	Auth         *controllers.AuthController
	Push         *controllers.PushController
	Token        *controllers.TokenController
	Subscription *controllers.SubscriptionController
}

func RegisterRoutes(router *gin.Engine, c Controllers, jwtSecret []byte, registry *prometheus.Registry) {
	// Public
	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "OK", "service": "push-service"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// The nonce/verify pair is unauthenticated, so it gets throttled.
	auth := router.Group("/auth", middleware.RateLimitMiddleware())
	{
		auth.POST("/nonce", c.Auth.Nonce)
		auth.POST("/verify", c.Auth.Verify)
		auth.GET("/ping", middleware.AuthMiddleware(jwtSecret), c.Auth.Ping)
	}

	// Session required
	authed := router.Group("/", middleware.AuthMiddleware(jwtSecret))
	{
		authed.POST("/push/send", c.Push.Dispatch)
		authed.GET("/push/logs", c.Push.GetPushLogs)
		authed.POST("/push/register", c.Token.Register)
		authed.GET("/push/me", c.Token.Me)

		authed.POST("/onchain/subscribe", c.Subscription.Subscribe)
		authed.POST("/onchain/unsubscribe", c.Subscription.Unsubscribe)
		authed.GET("/onchain/subscriptions", c.Subscription.List)
		authed.POST("/onchain/simulate", c.Subscription.Simulate)
	}
}
