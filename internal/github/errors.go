package github

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/google/go-github/v57/github"
)

// RateLimitedError indicates the API rejected a call because the quota for
// the current window is exhausted. It is recoverable by waiting.
type RateLimitedError struct {
	ResetAt time.Time
	Err     error
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("github rate limit exhausted (resets %s): %v", e.ResetAt.Format(time.RFC3339), e.Err)
}

func (e *RateLimitedError) Unwrap() error { return e.Err }

// TransientNetworkError indicates a connection-level failure before any
// usable response arrived. The engine does not retry these; re-run instead.
type TransientNetworkError struct {
	Err error
}

func (e *TransientNetworkError) Error() string {
	return fmt.Sprintf("github request failed at transport level: %v", e.Err)
}

func (e *TransientNetworkError) Unwrap() error { return e.Err }

// UpstreamError covers every other API failure: non-2xx responses and
// payloads missing fields the sync engine depends on.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("github api error: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// classifyError maps go-github and transport errors onto the error taxonomy.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var rateLimit *github.RateLimitError
	if errors.As(err, &rateLimit) {
		return &RateLimitedError{ResetAt: rateLimit.Rate.Reset.Time, Err: err}
	}

	var abuse *github.AbuseRateLimitError
	if errors.As(err, &abuse) {
		reset := time.Now()
		if abuse.RetryAfter != nil {
			reset = reset.Add(*abuse.RetryAfter)
		}
		return &RateLimitedError{ResetAt: reset, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &TransientNetworkError{Err: err}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &TransientNetworkError{Err: err}
	}

	return &UpstreamError{Err: err}
}

// IsRateLimited reports whether err is a rate-limit signal.
func IsRateLimited(err error) bool {
	var rl *RateLimitedError
	return errors.As(err, &rl)
}
