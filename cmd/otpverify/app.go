package main

import (
	"context"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/otpverify/internal/config"
	"github.com/xxxsen/otpverify/internal/handler"
	"github.com/xxxsen/otpverify/internal/job"
	"github.com/xxxsen/otpverify/internal/repo"
	"github.com/xxxsen/otpverify/internal/schedule"
	"github.com/xxxsen/otpverify/internal/service"
)

const schedulerStopTimeout = 10 * time.Second

type app struct {
	store     repo.OtpRepo
	deps      handler.RouterDeps
	scheduler schedule.Scheduler
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	store, err := repo.New(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	sender, err := service.NewEmailSender(cfg.Mail)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("init mail sender: %w", err)
	}
	otps := service.NewOtpService(store, sender, nil, cfg.Mail.Subject)

	a := &app{
		store: store,
		deps: handler.RouterDeps{
			Otps:     handler.NewOtpHandler(otps),
			Callable: handler.NewCallableHandler(otps),
		},
	}
	if cfg.Cleanup.RetentionHours > 0 {
		scheduler := schedule.NewCronScheduler()
		retention := job.NewOtpRetentionJob(store, time.Duration(cfg.Cleanup.RetentionHours)*time.Hour)
		if err := scheduler.AddJob(retention, cfg.Cleanup.Spec); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("schedule retention job: %w", err)
		}
		a.scheduler = scheduler
	}
	return a, nil
}

func (a *app) start(ctx context.Context) {
	if a.scheduler != nil {
		a.scheduler.Start(ctx)
	}
}

func (a *app) close() {
	if a.scheduler != nil {
		ctx, cancel := context.WithTimeout(context.Background(), schedulerStopTimeout)
		defer cancel()
		if err := a.scheduler.Stop(ctx); err != nil {
			logutil.GetLogger(ctx).Warn("retention job still running at shutdown", zap.Error(err))
		}
	}
	if err := a.store.Close(); err != nil {
		logutil.GetLogger(context.Background()).Error("close store failed", zap.Error(err))
	}
}
