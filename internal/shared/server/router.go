package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	decisionapi "sourcing-backend/internal/decision/api"
	"sourcing-backend/internal/services/health"
	"sourcing-backend/internal/sessions"
	"sourcing-backend/internal/shared/config"
	"sourcing-backend/internal/shared/metrics"
	"sourcing-backend/internal/shared/server/middleware"
	"sourcing-backend/internal/shared/server/respond"
)

const (
	submitRoute     = "/api/v1/sessions/:id/submit"
	rateGroupSubmit = "SUBMIT"
)

// RouterDeps carries the handlers mounted by NewRouter. Nil handlers are skipped.
type RouterDeps struct {
	Config          config.Config
	Health          *health.Service
	SessionsHandler *sessions.Handler
	DecisionHandler *decisionapi.Handler
	RateLimiter     *middleware.RateLimiter
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
		middleware.RateLimit(middleware.RateLimitConfig{
			GroupFor: submitGroup,
			Limiter:  deps.RateLimiter,
			Rules: map[string]middleware.RateLimitRule{
				rateGroupSubmit: {Rate: deps.Config.SubmitRatePerSec, Burst: deps.Config.SubmitRateBurst},
			},
		}),
	)

	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService()
	}

	r.GET("/", func(c *gin.Context) {
		respond.OK(c, gin.H{"message": "Welcome to the Sourcing Decision API"})
	})
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		report := healthSvc.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})
	if deps.DecisionHandler != nil {
		deps.DecisionHandler.RegisterRoutes(api)
	}
	if deps.SessionsHandler != nil {
		deps.SessionsHandler.RegisterRoutes(api)
	}

	return r
}

func submitGroup(c *gin.Context) string {
	if c.Request.Method == http.MethodPost && c.FullPath() == submitRoute {
		return rateGroupSubmit
	}
	return ""
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
