package services

import (
	"audit-service/internal/models"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "audit-service"

type JWTService struct {
	JWTSecret string
	TokenTTL  time.Duration
	now       func() time.Time
}

func NewJWTService(jwtSecret string, tokenTTL time.Duration) *JWTService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &JWTService{
		JWTSecret: jwtSecret,
		TokenTTL:  tokenTTL,
		now:       time.Now,
	}
}

// GenerateNewToken signs an HS256 token carrying the account id, role and region.
func (jwt_s *JWTService) GenerateNewToken(account *models.Account) (string, *models.Claims, error) {
	issuedAt := jwt_s.now()
	claims := &models.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   account.ID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(jwt_s.TokenTTL)),
		},
		UserID: account.ID,
		Role:   account.Role,
		State:  account.State,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(jwt_s.JWTSecret))
	if err != nil {
		return "", nil, fmt.Errorf("error generate token string: %w", err)
	}
	return tokenString, claims, nil
}

// VerifyToken rejects anything not signed with HS256 by this secret, and any expired token.
func (jwt_s *JWTService) VerifyToken(tokenString string) (*models.Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&models.Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(jwt_s.JWTSecret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(jwt_s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrUnauthenticated, err)
	}

	claims, ok := token.Claims.(*models.Claims)
	if !ok || !token.Valid || claims.UserID == "" || !claims.Role.IsValid() {
		return nil, fmt.Errorf("%w: invalid token claims", models.ErrUnauthenticated)
	}

	return claims, nil
}
