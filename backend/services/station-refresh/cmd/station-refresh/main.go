package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"spinroute/backend/libs/logging"
	"spinroute/backend/services/station-refresh/internal/app"
	"spinroute/backend/services/station-refresh/internal/config"
	"spinroute/backend/services/station-refresh/internal/http/middleware"
	"spinroute/backend/services/station-refresh/internal/service"
)

func main() {
	os.Exit(run())
}

func run() int {
	serve := flag.Bool("serve", false, "run on a schedule and expose the admin HTTP API")
	dryRun := flag.Bool("dry-run", false, "fetch and normalize without writing")
	issueToken := flag.String("issue-token", "", "print a service_role token for the given subject and exit")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of an issued token")
	flag.Parse()

	if *issueToken != "" {
		return printToken(*issueToken, *tokenTTL)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logging.NewLogger(logging.OptionsFromEnv("station-refresh"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		return 1
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		fmt.Fprintln(os.Stderr, "Refresh could not start:", err)
		return 1
	}
	if *dryRun {
		cfg.Refresh.DryRun = true
	}

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to init station refresh", zap.Error(err))
		fmt.Fprintln(os.Stderr, "Refresh could not start:", err)
		return 1
	}
	defer application.Close()

	if *serve {
		if err := application.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("station refresh stopped with error", zap.Error(err))
			return 1
		}
		return 0
	}

	summary, err := application.RunOnce(ctx)
	if err != nil {
		logger.Error("refresh aborted", zap.Error(err))
		fmt.Fprintln(os.Stderr, "Refresh could not start:", err)
		return 1
	}
	service.WriteReport(os.Stdout, summary)
	return 0
}

func printToken(subject string, ttl time.Duration) int {
	cfg, err := config.LoadPartial()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		return 1
	}
	token, err := middleware.IssueServiceToken(cfg.Serve.JWTSecret, subject, ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println(token)
	return 0
}
