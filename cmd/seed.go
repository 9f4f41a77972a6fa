package main

import (
	"audit-service/internal/database/postgres"
	redisdb "audit-service/internal/database/redis"
	"audit-service/internal/logger"
	"audit-service/internal/repository"
	"audit-service/internal/services"
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func seedCmd(a *app) *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the default staff accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, err := postgres.ConnectWithRetry(a.cfg.PostgresCfg, logger.WithComponent(a.log, "postgres"), dbRetryAttempts, dbRetryWait)
			if err != nil {
				return fmt.Errorf("postgres: %w", err)
			}
			defer db.Close()

			accountRepo := repository.NewAccountRepository(db)
			accountCache := repository.NewAccountCache(nil, logger.WithComponent(a.log, "account-cache"))
			if reset && a.cfg.RedisCfg.Enabled {
				rc, err := redisdb.Connect(ctx, a.cfg.RedisCfg, logger.WithComponent(a.log, "redis"))
				if err != nil {
					a.log.Warn("redis unavailable, cached accounts will expire on their own", zap.Error(err))
				} else {
					defer rc.Close()
					accountCache = repository.NewAccountCache(rc.GetClient(), logger.WithComponent(a.log, "account-cache"))
				}
			}
			if reset {
				if err := resetAccounts(ctx, accountRepo, accountCache, a.log); err != nil {
					return err
				}
			}

			jwtService := services.NewJWTService(a.cfg.AuthCfg.JWTSecret, a.cfg.AuthCfg.TokenTTL)
			accountService := services.NewAccountService(accountRepo, accountCache, jwtService, services.NewValidator(), a.log)

			result, err := services.SeedAccounts(ctx, accountService, services.DefaultStaff, a.log)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created: %d", len(result.Created))
			if len(result.Created) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), " (%s)", strings.Join(result.Created, ", "))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nSkipped (already present): %d\n\n", len(result.Skipped))
			return printAccounts(ctx, cmd.OutOrStdout(), accountRepo)
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "Delete every existing account before seeding")
	return cmd
}

// resetAccounts removes every account and its cached copy. Reseeded accounts get new IDs,
// so a stale cache entry would sign tokens no report is filed under.
func resetAccounts(ctx context.Context, accounts repository.IAccountRepository, cache *repository.AccountCache, log *zap.Logger) error {
	removed, err := accounts.DeleteAllAccounts(ctx)
	if err != nil {
		return err
	}
	evicted, err := cache.EvictAccounts(ctx)
	if err != nil {
		return err
	}
	log.Info("existing accounts removed", zap.Int64("count", removed), zap.Int("evicted_from_cache", evicted))
	return nil
}

func printAccounts(ctx context.Context, w io.Writer, accounts repository.IAccountRepository) error {
	list, err := accounts.ListAccounts(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "USERNAME\tROLE\tSTATE\tCREATED")
	for _, acc := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", acc.Username, acc.Role, acc.State, acc.CreatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}
