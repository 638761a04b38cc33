package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	googleauth "blueprint-backend/internal/auth"
	"blueprint-backend/internal/couples"
	"blueprint-backend/internal/notifications"
	"blueprint-backend/internal/shared/config"
	"blueprint-backend/internal/shared/metrics"
	"blueprint-backend/internal/shared/server/middleware"
	"blueprint-backend/internal/shared/server/respond"
	"blueprint-backend/internal/users"
)

// RouterDeps carries the handlers the router wires up.
type RouterDeps struct {
	Config              config.Config
	CoupleHandler       *couples.Handler
	NotificationHandler *notifications.Handler
	UserHandler         *users.Handler
	GoogleAuth          *googleauth.GoogleService
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				"DEFAULT": {Rate: 2, Burst: 10},
				"POLLING": {Rate: 5, Burst: 20},
			},
			GroupFor: func(c *gin.Context) string {
				if c.Request.Method == http.MethodGet && c.FullPath() == "/api/v1/couples/:id/analysis" {
					return "POLLING"
				}
				return "DEFAULT"
			},
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterRoutes(api)
	}
	if deps.CoupleHandler != nil {
		deps.CoupleHandler.RegisterRoutes(api)
	}
	if deps.NotificationHandler != nil {
		deps.NotificationHandler.RegisterRoutes(api)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
