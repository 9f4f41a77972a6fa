package services

import (
	"audit-service/internal/metrics"
	"audit-service/internal/models"
	"audit-service/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// suspiciousLoginThreshold is how many consecutive failures trigger a warning log.
const suspiciousLoginThreshold = 5

type IAccountService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.Account, error)
	Authenticate(ctx context.Context, username, password string) (string, *models.Account, error)
}

type AccountService struct {
	accountRepo  repository.IAccountRepository
	accountCache repository.IAccountCache
	jwtService   *JWTService
	validator    *Validator
	logger       *zap.Logger
	bcryptCost   int
}

func NewAccountService(accountRepo repository.IAccountRepository, accountCache repository.IAccountCache,
	jwtService *JWTService, validator *Validator, logger *zap.Logger) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if accountCache == nil {
		accountCache = repository.NewAccountCache(nil, logger)
	}
	return &AccountService{
		accountRepo:  accountRepo,
		accountCache: accountCache,
		jwtService:   jwtService,
		validator:    validator,
		logger:       logger,
		bcryptCost:   bcrypt.DefaultCost,
	}
}

// Register creates an account with a freshly salted password hash.
func (s *AccountService) Register(ctx context.Context, req models.RegisterRequest) (*models.Account, error) {
	if req.Role == "" {
		req.Role = models.RoleOfficer
	}
	if err := s.validator.Validate(&req); err != nil {
		return nil, err
	}
	if err := validateRoleRegion(req.Role, req.State); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	account := &models.Account{
		ID:           uuid.NewString(),
		Username:     req.Username,
		PasswordHash: string(hash),
		Role:         req.Role,
		State:        req.State,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.accountRepo.CreateAccount(ctx, account); err != nil {
		return nil, err
	}

	s.logger.Info("account registered",
		zap.String("account_id", account.ID),
		zap.String("role", string(account.Role)),
		zap.String("state", account.State))
	return account, nil
}

// Authenticate returns a signed session token. Unknown usernames yield ErrNotFound, wrong passwords ErrInvalidCredentials.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (string, *models.Account, error) {
	account := s.accountCache.GetAccount(ctx, username)
	if account == nil {
		var err error
		account, err = s.accountRepo.GetAccountByUsername(ctx, username)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				metrics.LoginAttempts.WithLabelValues("unknown_user").Inc()
			}
			return "", nil, err
		}
		s.accountCache.SetAccount(ctx, account)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		metrics.LoginAttempts.WithLabelValues("invalid_credentials").Inc()
		attempts := s.accountCache.IncrementFailedLogins(ctx, account.ID)
		if attempts%suspiciousLoginThreshold == 0 {
			s.logger.Warn("repeated failed logins",
				zap.String("account_id", account.ID),
				zap.Int("attempts", attempts))
		}
		return "", nil, models.ErrInvalidCredentials
	}

	token, _, err := s.jwtService.GenerateNewToken(account)
	if err != nil {
		return "", nil, err
	}

	s.accountCache.ResetFailedLogins(ctx, account.ID)
	metrics.LoginAttempts.WithLabelValues("success").Inc()
	s.logger.Info("login succeeded", zap.String("account_id", account.ID))
	return token, account, nil
}

func validateRoleRegion(role models.Role, state string) error {
	switch role {
	case models.RoleAdmin:
		if state != models.RegionHQ {
			return models.NewValidationError("admin accounts must belong to HQ", "state")
		}
	case models.RoleOfficer:
		if !models.IsMonitoredState(state) {
			return models.NewValidationError("officer accounts must belong to a monitored state", "state")
		}
	default:
		return models.NewValidationError("invalid fields", "role")
	}
	return nil
}
