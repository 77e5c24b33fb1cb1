package api

import (
	"fmt"
	"net"
	"net/http"
	"strconv"

	"chatrelay/common"
	"chatrelay/llm"
	"chatrelay/logger"
	"chatrelay/relay"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const serviceName = "chatrelay"

// RunServer starts serving the chat endpoints in the background and returns
// the server so the caller can shut it down.
func RunServer(config common.LocalConfig, provider llm.Provider) (*http.Server, error) {
	gin.SetMode(gin.ReleaseMode)

	allowedOrigins, err := GetAllowedOrigins(config.Server)
	if err != nil {
		return nil, fmt.Errorf("invalid allowed origins: %w", err)
	}

	ctrl := NewController(provider, relay.NewCompletePool(config.Server.CompleteWorkers))
	router := DefineRoutes(ctrl, allowedOrigins)

	srv := &http.Server{
		Addr:    net.JoinHostPort(config.Server.Host, strconv.Itoa(config.Server.Port)),
		Handler: router.Handler(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Str("addr", srv.Addr).Msg("Failed to start API server")
		}
	}()

	return srv, nil
}

type Controller struct {
	provider llm.Provider
	pool     *relay.CompletePool
}

func NewController(provider llm.Provider, pool *relay.CompletePool) Controller {
	return Controller{
		provider: provider,
		pool:     pool,
	}
}

func DefineRoutes(ctrl Controller, allowedOrigins *AllowedOrigins) *gin.Engine {
	r := gin.New()
	r.ForwardedByClientIP = true
	r.SetTrustedProxies(nil)

	r.Use(
		otelgin.Middleware(serviceName),
		RequestIdMiddleware(ctrl.provider.Name()),
		RequestLoggerMiddleware(),
		RecoveryMiddleware(),
		CORSMiddleware(allowedOrigins),
	)

	r.GET("/healthz", ctrl.HealthHandler)

	chatRoutes := r.Group("/chat")
	chatRoutes.POST("", ctrl.ChatHandler)
	chatRoutes.POST("/stream", ctrl.StreamChatHandler)
	chatRoutes.POST("/stream-sse", ctrl.StreamChatSSEHandler)

	return r
}

func (ctrl *Controller) ErrorHandler(c *gin.Context, status int, err error) {
	logger.Ctx(c.Request.Context()).Warn().Err(err).Int("status", status).Msg("request failed")
	c.JSON(status, gin.H{"error": err.Error()})
}

// providerFailureHandler reports a provider failure without leaking vendor
// error details to the caller.
func (ctrl *Controller) providerFailureHandler(c *gin.Context, err error) {
	logger.Ctx(c.Request.Context()).Error().Err(err).Msg("provider request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "provider request failed"})
}

func (ctrl *Controller) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"provider": ctrl.provider.Name(),
	})
}
