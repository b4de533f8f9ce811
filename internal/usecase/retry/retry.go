package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"strings"
	"syscall"
	"time"

	"browser-commander/internal/application/port/output"
	"browser-commander/internal/domain/entity"
)

// Policy is an exponential backoff without jitter: InitialDelay,
// InitialDelay*Multiplier, ... capped at MaxDelay.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	OnRetry      func(attempt int, err error, delay time.Duration)
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func ContextSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type Retryer struct {
	policy Policy
	sleep  SleepFunc
	logger output.LoggerPort
}

func New(policy Policy, logger output.LoggerPort) *Retryer {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.InitialDelay <= 0 {
		policy.InitialDelay = time.Second
	}
	if policy.MaxDelay <= 0 {
		policy.MaxDelay = 30 * time.Second
	}
	if policy.Multiplier < 1.0 {
		policy.Multiplier = 2.0
	}
	return &Retryer{policy: policy, sleep: ContextSleep, logger: logger}
}

// WithSleep replaces the wait between attempts.
func (r *Retryer) WithSleep(sleep SleepFunc) *Retryer {
	cp := *r
	cp.sleep = sleep
	return &cp
}

// WithMaxAttempts returns a copy with a different attempt budget.
func (r *Retryer) WithMaxAttempts(n int) *Retryer {
	cp := *r
	if n >= 1 {
		cp.policy.MaxAttempts = n
	}
	return &cp
}

// Delay returns the wait before retry number attempt (1-based).
func (r *Retryer) Delay(attempt int) time.Duration {
	d := float64(r.policy.InitialDelay) * math.Pow(r.policy.Multiplier, float64(attempt-1))
	if d > float64(r.policy.MaxDelay) {
		d = float64(r.policy.MaxDelay)
	}
	return time.Duration(d)
}

// Do calls fn until it succeeds, fails with a non-retryable error or the
// attempt budget is spent. It returns the number of calls made.
func (r *Retryer) Do(ctx context.Context, fn func(ctx context.Context) error) (int, error) {
	var lastErr error
	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := r.Delay(attempt - 1)
			r.logger.Debug("Retrying",
				"attempt", attempt,
				"max_attempts", r.policy.MaxAttempts,
				"delay", delay,
				"error", lastErr,
			)
			if r.policy.OnRetry != nil {
				r.policy.OnRetry(attempt, lastErr, delay)
			}
			if err := r.sleep(ctx, delay); err != nil {
				return attempt - 1, fmt.Errorf("retry cancelled: %w", err)
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			if attempt > 1 {
				r.logger.Info("Retry succeeded", "attempt", attempt)
			}
			return attempt, nil
		}

		if !Classify(lastErr) {
			r.logger.Debug("Error is not retryable", "error", lastErr)
			return attempt, lastErr
		}
		if ctx.Err() != nil {
			return attempt, lastErr
		}
	}

	r.logger.Warn("Retry attempts exhausted", "attempts", r.policy.MaxAttempts, "error", lastErr)
	return r.policy.MaxAttempts, fmt.Errorf("%w after %d attempts: %w", entity.ErrRetryExhausted, r.policy.MaxAttempts, lastErr)
}

var (
	retryableMarkers = []string{
		"timeout", "timed out", "deadline exceeded", "connection refused", "connection reset",
		"err_connection", "err_timed_out", "err_network_changed", "err_empty_response",
		"broken pipe", "eof", "temporarily unavailable",
	}
	permanentMarkers = []string{
		"no such host", "err_name_not_resolved", "invalid url", "err_invalid_url", "unsupported protocol",
	}
)

// Classify reports whether err is a transient network failure: timeouts,
// refused or reset connections and 5xx/408/429 statuses. 4xx statuses, DNS
// failures and malformed URLs are permanent.
func Classify(err error) bool {
	if err == nil {
		return false
	}

	var netErr *entity.NetworkError
	if errors.As(err, &netErr) {
		if netErr.Retryable {
			return true
		}
		if netErr.StatusCode > 0 {
			return netErr.StatusCode >= 500 || netErr.StatusCode == 408 || netErr.StatusCode == 429
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTimeout
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, m := range permanentMarkers {
		if strings.Contains(msg, m) {
			return false
		}
	}
	for _, m := range retryableMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
