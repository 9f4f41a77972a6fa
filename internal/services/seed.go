package services

import (
	"audit-service/internal/models"
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// DefaultStaff are the accounts created by the seed command.
var DefaultStaff = []models.RegisterRequest{
	{Username: "Dr Uteme", Password: "ops77", Role: models.RoleAdmin, State: models.RegionHQ},
	{Username: "Egondu Ogbalor", Password: "qa88", Role: models.RoleAdmin, State: models.RegionHQ},
	{Username: "pere", Password: "dir99", Role: models.RoleAdmin, State: models.RegionHQ},
	{Username: "Favour", Password: "abia2026", Role: models.RoleOfficer, State: "ABIA"},
	{Username: "Tender", Password: "cross2026", Role: models.RoleOfficer, State: "CROSS RIVERS"},
	{Username: "Dike", Password: "imo2026", Role: models.RoleOfficer, State: "IMO STATE"},
	{Username: "Etima", Password: "akwa2026", Role: models.RoleOfficer, State: "AKWA IBOM"},
}

type SeedResult struct {
	Created []string
	Skipped []string
}

// SeedAccounts registers each account, skipping usernames that already exist.
func SeedAccounts(ctx context.Context, accounts IAccountService, staff []models.RegisterRequest, logger *zap.Logger) (*SeedResult, error) {
	result := &SeedResult{}
	for _, req := range staff {
		_, err := accounts.Register(ctx, req)
		switch {
		case err == nil:
			result.Created = append(result.Created, req.Username)
		case errors.Is(err, models.ErrDuplicateUsername):
			result.Skipped = append(result.Skipped, req.Username)
		default:
			return result, fmt.Errorf("seed %q: %w", req.Username, err)
		}
	}
	if logger != nil {
		logger.Info("staff accounts seeded",
			zap.Int("created", len(result.Created)),
			zap.Int("skipped", len(result.Skipped)))
	}
	return result, nil
}
