package cron

import (
	"context"
	"fmt"

	"github.com/kasirpos/kasir-terminal/pkg/logger"
)

const cartSweepJobName = "cart_session_sweep"

type sessionSweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// CartSweepJob evicts expired cart sessions from the in-memory store.
type CartSweepJob struct {
	store sessionSweeper
	logg  *logger.Logger
}

func NewCartSweepJob(store sessionSweeper, logg *logger.Logger) (*CartSweepJob, error) {
	if store == nil {
		return nil, fmt.Errorf("session store required")
	}
	return &CartSweepJob{store: store, logg: logg}, nil
}

func (j *CartSweepJob) Name() string { return cartSweepJobName }

func (j *CartSweepJob) Run(ctx context.Context) error {
	evicted, err := j.store.Sweep(ctx)
	if err != nil {
		return fmt.Errorf("sweep cart sessions: %w", err)
	}
	if evicted > 0 && j.logg != nil {
		j.logg.Info(j.logg.WithField(ctx, "evicted", evicted), "expired cart sessions evicted")
	}
	return nil
}
