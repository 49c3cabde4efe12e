package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/AmadouLah/pneumback-sub001/pkg/logger"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type QuoteExpiryJobParams struct {
	Logger     *logger.Logger
	Repository quoteExpiryRepo
}

type quoteExpiryRepo interface {
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

// NewQuoteExpiryJob sweeps quotes whose validation window has lapsed and
// cancels them so they cannot be validated afterwards.
func NewQuoteExpiryJob(params QuoteExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("quotes repository required")
	}
	return &quoteExpiryJob{
		logg: params.Logger,
		repo: params.Repository,
		now:  time.Now,
	}, nil
}

type quoteExpiryJob struct {
	logg *logger.Logger
	repo quoteExpiryRepo
	now  func() time.Time
}

func (j *quoteExpiryJob) Name() string { return "quote-expiry" }

func (j *quoteExpiryJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	expired, err := j.repo.ExpireOverdue(ctx, now)
	if err != nil {
		return fmt.Errorf("quote expiry sweep: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"as_of":         now,
		"quotes_closed": expired,
	})
	j.logg.Info(logCtx, "quote expiry sweep complete")
	return nil
}
