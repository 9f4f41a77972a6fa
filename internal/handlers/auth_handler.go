package handlers

import (
	"audit-service/internal/models"
	"audit-service/internal/services"
	"audit-service/utils"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	accountService services.IAccountService
	validator      *services.Validator
	middleware     *Middleware
	loginLimiter   *RateLimiter
	errs           errorWriter
	logger         *zap.Logger
}

func NewAuthHandler(accountService services.IAccountService, validator *services.Validator, middleware *Middleware,
	loginLimiter *RateLimiter, exposeDetails bool, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{
		accountService: accountService,
		validator:      validator,
		middleware:     middleware,
		loginLimiter:   loginLimiter,
		errs:           errorWriter{exposeDetails: exposeDetails, logger: logger},
		logger:         logger,
	}
}

func (a *AuthHandler) RegisterRoutes(router *gin.Engine) {
	authGr := router.Group("/api/auth")

	login := []gin.HandlerFunc{}
	if a.loginLimiter != nil {
		login = append(login, a.loginLimiter.Handler())
	}
	authGr.POST("/login", append(login, a.Login)...)

	// Accounts are provisioned by supervisors or the seed command, never self-registered.
	authGr.POST("/register", a.middleware.RequireAuth(), a.middleware.RequireAdmin(), a.Register)
}

// Login authenticates a username and password and returns a session token.
func (a *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.errs.badRequest(c, "Invalid request format", err)
		return
	}
	if err := a.validator.Validate(&req); err != nil {
		a.errs.write(c, err, "")
		return
	}

	token, account, err := a.accountService.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		a.logger.Info("login failed", zap.String("username", req.Username), zap.Error(err))
		a.errs.write(c, err, "User not found")
		return
	}

	c.JSON(http.StatusOK, models.LoginResponse{
		Success: true,
		Token:   token,
		User: models.SessionUser{
			Username: account.Username,
			Role:     account.Role,
			State:    account.State,
		},
	})
}

// Register creates a staff account. Supervisor only.
func (a *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.errs.badRequest(c, "Invalid request format", err)
		return
	}

	account, err := a.accountService.Register(c.Request.Context(), req)
	if err != nil {
		a.errs.write(c, err, "")
		return
	}

	c.JSON(http.StatusCreated, utils.CreateSuccessResponse("User created successfully", models.SessionUser{
		Username: account.Username,
		Role:     account.Role,
		State:    account.State,
	}))
}
