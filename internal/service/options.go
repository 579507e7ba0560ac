package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/event-attendance/internal/database"
	"github.com/iliyamo/event-attendance/internal/metrics"
)

type options struct {
	log       *zap.Logger
	metrics   *metrics.Manager
	retry     database.RetryPolicy
	publisher ConfirmationPublisher
	now       func() time.Time
}

// Option configures a service.
type Option func(*options)

// WithLogger sets the logger; the default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithMetrics records admission and feedback counters on m.
func WithMetrics(m *metrics.Manager) Option {
	return func(o *options) { o.metrics = m }
}

// WithRetry overrides the storage retry policy.
func WithRetry(p database.RetryPolicy) Option {
	return func(o *options) { o.retry = p }
}

// WithPublisher sends confirmations to p.
func WithPublisher(p ConfirmationPublisher) Option {
	return func(o *options) { o.publisher = p }
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(name string, opts []Option) options {
	o := options{
		log:   zap.NewNop(),
		retry: database.DefaultRetryPolicy,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	o.log = o.log.Named(name)
	log, m := o.log, o.metrics
	prev := o.retry.OnRetry
	o.retry.OnRetry = func(attempt int, err error) {
		log.Warn("retrying storage operation", zap.Int("attempt", attempt), zap.Error(err))
		m.StorageRetry()
		if prev != nil {
			prev(attempt, err)
		}
	}
	return o
}

// storage runs fn under the retry policy and turns a connectivity fault
// that outlived the retries into ErrUnavailable.
func (o options) storage(ctx context.Context, fn func() error) error {
	err := o.retry.Do(ctx, fn)
	if err != nil && database.IsTransient(err) {
		return newError(ErrUnavailable, "storage temporarily unavailable", err)
	}
	return err
}
