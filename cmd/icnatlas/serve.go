package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/config"
	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/httpapi"
	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/pipeline"
)

const (
	maxReloadRetry    = 3
	reloadRetryDelay  = 2 * time.Minute
	serverIdleTimeout = 60 * time.Second
	serverIOTimeout   = 15 * time.Second
)

func createServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Load once, then serve the API and reload daily",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()
			if addr == "" {
				addr = a.cfg.Server.Addr
			}

			svc := a.service()
			go func() {
				if _, err := svc.Load(ctx); err != nil && ctx.Err() == nil {
					a.logger.Error("icnatlas: initial load failed", zap.Error(err))
				}
			}()
			if a.cfg.Server.RefreshAt != "" {
				go func() {
					if err := scheduleDaily(ctx, svc, a.cfg.Server.RefreshAt, a.logger); err != nil && !errors.Is(err, context.Canceled) {
						a.logger.Error("icnatlas: scheduler stopped", zap.Error(err))
					}
				}()
			}

			srv := &http.Server{
				Addr:         addr,
				Handler:      httpapi.NewRouter(svc, a.logger),
				ReadTimeout:  serverIOTimeout,
				WriteTimeout: serverIOTimeout,
				IdleTimeout:  serverIdleTimeout,
			}
			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("icnatlas: listening", zap.String("addr", addr))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), serverIOTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}

// reloader is the slice of pipeline.Service the scheduler drives.
type reloader interface {
	Reload(ctx context.Context) (*pipeline.Result, error)
}

func scheduleDaily(ctx context.Context, svc reloader, refreshAt string, logger *zap.Logger) error {
	hour, minute, err := config.ParseClock(refreshAt)
	if err != nil {
		return err
	}
	for {
		next := nextRunTime(time.Now(), hour, minute)
		logger.Info("icnatlas: next reload scheduled", zap.Time("at", next))
		if err := sleepUntil(ctx, next); err != nil {
			return err
		}
		if err := reloadWithRetry(ctx, svc, reloadRetryDelay); err != nil {
			logger.Error("icnatlas: scheduled reload failed", zap.Error(err))
		}
	}
}

func reloadWithRetry(ctx context.Context, svc reloader, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 1; attempt <= maxReloadRetry; attempt++ {
		_, err := svc.Reload(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt == maxReloadRetry {
			break
		}
		if err := sleepWithContext(ctx, baseDelay*time.Duration(attempt)); err != nil {
			return err
		}
	}
	return lastErr
}

func nextRunTime(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func sleepUntil(ctx context.Context, target time.Time) error {
	return sleepWithContext(ctx, time.Until(target))
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
