// Package main is the audit-service binary: the REST backend, the account
// seeder and a terminal client for officers and supervisors.
package main

import (
	"audit-service/internal/config"
	"audit-service/internal/logger"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	Version   = "1.0.0"
	BuildTime = "dev"
	appName   = "audit-service"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type app struct {
	cfg      *config.AuditServiceConfig
	logLevel string
	log      *zap.Logger
}

// init loads configuration and builds the logger once per invocation.
func (a *app) init() error {
	a.cfg = config.New()
	level := a.cfg.LogLevel
	if a.logLevel != "" {
		level = a.logLevel
	}
	log, err := logger.NewLogger(level, a.cfg.Environment)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	a.log = log
	return nil
}

func rootCmd() *cobra.Command {
	a := &app{}
	serve := serveCmd(a)

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Infrastructure audit reporting portal",
		Long: `audit-service runs the infrastructure audit API and doubles as its terminal client.

Officers log in and submit audit reports for their state; supervisors review,
filter, resolve, delete and export reports across all monitored states.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
		RunE: serve.RunE,
	}
	cmd.Flags().AddFlagSet(serve.Flags())
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides LOG_LEVEL")

	cmd.AddCommand(
		serve,
		seedCmd(a),
		loginCmd(a),
		logoutCmd(a),
		registerCmd(a),
		submitCmd(a),
		reviewCmd(a),
		mineCmd(a),
		reportCmd(a),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
				return nil
			},
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
			},
		},
	)

	return cmd
}
