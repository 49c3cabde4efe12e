package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AmadouLah/pneumback-sub001/pkg/logger"
)

func TestQuoteExpiryJobClosesOverdueQuotes(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakeQuoteExpiryRepo{expired: 3}
	job := newQuoteExpiryJob(t, repo)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !repo.lastAsOf.Equal(now.UTC()) {
		t.Fatalf("expected sweep as of %s, got %s", now.UTC(), repo.lastAsOf)
	}
	if repo.called != 1 {
		t.Fatalf("expected repo called once, got %d", repo.called)
	}
}

func TestQuoteExpiryJobPropagatesError(t *testing.T) {
	repo := &fakeQuoteExpiryRepo{err: errors.New("boom")}
	job := newQuoteExpiryJob(t, repo)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func newQuoteExpiryJob(t *testing.T, repo *fakeQuoteExpiryRepo) *quoteExpiryJob {
	t.Helper()
	jobIface, err := NewQuoteExpiryJob(QuoteExpiryJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Repository: repo,
	})
	if err != nil {
		t.Fatalf("NewQuoteExpiryJob: %v", err)
	}
	job, ok := jobIface.(*quoteExpiryJob)
	if !ok {
		t.Fatalf("expected quoteExpiryJob, got %T", jobIface)
	}
	return job
}

type fakeQuoteExpiryRepo struct {
	lastAsOf time.Time
	expired  int64
	err      error
	called   int
}

func (f *fakeQuoteExpiryRepo) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	f.called++
	f.lastAsOf = now
	if f.err != nil {
		return 0, f.err
	}
	return f.expired, nil
}
