package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/anishchandragiri369/studio-sub001/internal/auth"
	"github.com/anishchandragiri369/studio-sub001/internal/config"
	"github.com/anishchandragiri369/studio-sub001/internal/report"
	"github.com/anishchandragiri369/studio-sub001/internal/subscription"
)

type Server struct {
	router *gin.Engine
	http   *http.Server
	config *config.Config
}

type Deps struct {
	Subscriptions *subscription.Handler
	Manifests     *report.Handler
	Email         EmailSender
	Queue         QueueReporter
	Checks        map[string]Check
}

func New(cfg *config.Config, deps Deps) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(corsMiddleware(cfg.CORSAllowedOrigins))

	router.GET("/health", Health)
	router.GET("/ready", Ready(deps.Checks))
	router.GET("/metrics", Metrics(deps.Queue))

	limited := router.Group("/")
	limited.Use(RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))
	{
		limited.GET("/plans", deps.Subscriptions.ListPlans)
		limited.POST("/subscriptions/quote", deps.Subscriptions.Quote)
	}

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware, RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))
	{
		protected.POST("/subscriptions", deps.Subscriptions.Create)
		protected.GET("/subscriptions/:id", deps.Subscriptions.Get)
		protected.GET("/subscriptions/:id/schedule", deps.Subscriptions.Schedule)
		protected.GET("/subscriptions/:id/next-delivery", deps.Subscriptions.NextDelivery)
		protected.GET("/subscriptions/:id/status", deps.Subscriptions.Status)
	}

	admin := router.Group("/admin")
	admin.Use(authMiddleware, auth.RequireRole(auth.RoleAdmin))
	{
		admin.POST("/subscriptions/:id/pause", deps.Subscriptions.Pause)
		admin.POST("/subscriptions/:id/cancel", deps.Subscriptions.Cancel)
		admin.POST("/subscriptions/:id/reactivate", deps.Subscriptions.Reactivate)
		admin.POST("/subscriptions/:id/deliveries", deps.Subscriptions.RecordDelivery)
		admin.GET("/manifests/:date", deps.Manifests.GetManifest)
		if deps.Email != nil {
			admin.POST("/test-email", TestEmail(deps.Email))
		}
	}

	return &Server{
		router: router,
		config: cfg,
		http: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// corsMiddleware answers "*" without credentials when every origin is allowed,
// and otherwise echoes a listed Origin with credentials enabled.
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowAll := false
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = struct{}{}
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		if allowAll {
			h.Set("Access-Control-Allow-Origin", "*")
		} else if origin := c.GetHeader("Origin"); origin != "" {
			h.Add("Vary", "Origin")
			if _, ok := allowed[origin]; ok {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
			}
		}
		h.Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		h.Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
