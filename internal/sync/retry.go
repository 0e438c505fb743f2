package sync

import (
	"context"
	"log/slog"
	"time"

	gh "github.com/alan/pr-sync/internal/github"
)

// rateLimitCooldown is how long a run suspends after the API reports an
// exhausted quota before retrying once. Deliberately a single fixed-length
// retry rather than exponential backoff with jitter: runs are periodic
// batch jobs where a minute of blocking is acceptable, and a second
// rate-limit hit right after the cooldown means the budget is gone for
// this window anyway. Known gap: no multi-attempt backoff.
const rateLimitCooldown = 60 * time.Second

// SleepFunc suspends for d or until ctx is done. Injectable so tests can
// observe cooldown waits without taking them.
type SleepFunc func(ctx context.Context, d time.Duration) error

// WaitSleep is the production SleepFunc
func WaitSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// withRateLimitRetry runs attempt, and on a rate-limit failure sleeps one
// fixed cooldown and retries exactly once. A second consecutive rate limit
// propagates. Transient network and upstream errors are never retried here.
func withRateLimitRetry(ctx context.Context, sleep SleepFunc, attempt func() error) error {
	err := attempt()
	if err == nil || !gh.IsRateLimited(err) {
		return err
	}

	slog.Warn("Rate limited, cooling down before retrying", "cooldown", rateLimitCooldown, "error", err)
	if sleepErr := sleep(ctx, rateLimitCooldown); sleepErr != nil {
		return sleepErr
	}

	return attempt()
}
