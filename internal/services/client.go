package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/tunetrivia/curator/internal/shared"
)

// quotaSignals are response-body markers that turn a 403 into a quota error
// rather than a permanent one. YouTube reports daily-quota exhaustion as 403
// with one of these reasons.
var quotaSignals = []string{"quotaExceeded", "dailyLimitExceeded", "rateLimitExceeded", "userRateLimitExceeded"}

// ClassifyStatus maps an HTTP status (and, for 403s, the response body) to
// one of the source error sentinels in [shared].
//
// Callers wrap network failures and timeouts as [shared.ErrTransient]
// themselves; this function only sees completed responses.
func ClassifyStatus(status int, body string) error {
	switch {
	case status == http.StatusUnauthorized:
		return shared.ErrSourceAuth
	case status == http.StatusTooManyRequests:
		return shared.ErrQuotaExhausted
	case status == http.StatusForbidden:
		for _, signal := range quotaSignals {
			if strings.Contains(body, signal) {
				return shared.ErrQuotaExhausted
			}
		}
		return shared.ErrPermanent
	case status == http.StatusNotFound, status == http.StatusBadRequest:
		return shared.ErrPermanent
	case status >= 500:
		return shared.ErrTransient
	case status >= 400:
		return shared.ErrPermanent
	default:
		return nil
	}
}

// classifyTransportError wraps a transport-level failure. Timeouts and
// context deadlines count as transient so the responsible strategy moves on
// instead of retrying indefinitely.
func classifyTransportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return fmt.Errorf("%w: %v", shared.ErrTransient, err)
	}
	return fmt.Errorf("%w: %v", shared.ErrTransient, err)
}

// gate wraps a [rate.Limiter] configured as "at most one call per delay".
// One gate is shared by every call site of a source, so the minimum spacing
// holds globally even if callers overlap.
type gate struct {
	limiter *rate.Limiter
}

// newGate builds a gate enforcing the given minimum delay between calls.
// A non-positive delay disables pacing.
func newGate(delay time.Duration) *gate {
	if delay <= 0 {
		return &gate{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &gate{limiter: rate.NewLimiter(rate.Every(delay), 1)}
}

// wait blocks until the source's next allowed call time.
func (g *gate) wait(ctx context.Context) error {
	return g.limiter.Wait(ctx)
}

// newHTTPClient builds an [http.Client] with the configured per-call timeout.
// Every external call goes through one of these; nothing blocks indefinitely.
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
