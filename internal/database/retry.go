package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
)

// RetryPolicy retries operations that failed because the database could
// not be reached.  Any other error is returned on the first attempt.
type RetryPolicy struct {
	Attempts int           // total attempts including the first one
	Base     time.Duration // delay before the second attempt, doubled each time
	Max      time.Duration // cap for a single delay

	// OnRetry, when set, is called before each sleep.
	OnRetry func(attempt int, err error)
}

// DefaultRetryPolicy is used when configuration does not override it.
var DefaultRetryPolicy = RetryPolicy{Attempts: 3, Base: 50 * time.Millisecond, Max: time.Second}

// Do runs fn until it succeeds, fails with a non-transient error, the
// attempts are used up or ctx is done.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := p.Base
	var err error
	for attempt := 1; ; attempt++ {
		err = fn()
		if err == nil || !IsTransient(err) || attempt >= attempts {
			return err
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}
		if backoff > 0 {
			t := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				t.Stop()
				return err
			case <-t.C:
			}
			backoff *= 2
			if p.Max > 0 && backoff > p.Max {
				backoff = p.Max
			}
		}
	}
}

// IsTransient reports whether err looks like a connectivity fault rather
// than a query or data problem.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
