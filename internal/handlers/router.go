package handlers

import (
	"audit-service/internal/services"
	"audit-service/utils"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RouterDeps struct {
	AccountService services.IAccountService
	AuditService   services.IAuditService
	JWTService     *services.JWTService
	Validator      *services.Validator
	LoginLimiter   *RateLimiter
	AllowedOrigins []string
	TrustedProxies []string
	ExposeDetails  bool
	Logger         *zap.Logger
}

// NewRouter wires middleware and every handler onto a fresh engine.
func NewRouter(deps RouterDeps) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	// Client IPs key the login limiter, so forwarding headers only count from known proxies.
	if err := router.SetTrustedProxies(deps.TrustedProxies); err != nil {
		logger.Warn("invalid trusted proxy list, forwarding headers ignored", zap.Strings("proxies", deps.TrustedProxies), zap.Error(err))
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(
		RecoveryHandler(logger, deps.ExposeDetails),
		RequestLogger(logger),
		Metrics(),
		CorsMiddleware(deps.AllowedOrigins),
	)
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, utils.CreateErrorResponse("NOT_FOUND", "Route not found"))
	})

	middleware := NewMiddleware(deps.JWTService, logger)

	NewHealthHandler().RegisterRoutes(router)
	NewAuthHandler(deps.AccountService, deps.Validator, middleware, deps.LoginLimiter, deps.ExposeDetails, logger).
		RegisterRoutes(router)
	NewUtilityHandler(deps.AuditService, middleware, deps.ExposeDetails, logger).
		RegisterRoutes(router)

	return router
}
