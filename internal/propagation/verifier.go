// Package propagation waits for public DNS to converge on the host's IP.
package propagation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	perrors "github.com/ksyq12/vhost-provision/internal/errors"
	"github.com/ksyq12/vhost-provision/internal/logger"
)

// Lookup returns the current A records of a domain
type Lookup interface {
	LookupA(ctx context.Context, domain string) ([]string, error)
}

// SleepFunc waits d between polls and returns early with ctx's error
type SleepFunc func(ctx context.Context, d time.Duration) error

// Verifier polls Lookup until a record matches or the attempts run out
type Verifier struct {
	Lookup   Lookup
	Attempts int
	Interval time.Duration
	// Sleep waits between polls; nil uses a timer
	Sleep SleepFunc
}

var errNotConverged = errors.New("not converged")

// Wait polls the domain's A records until one equals ip. It returns the
// number of polls issued. Lookup errors count as a non-matching poll.
func (v *Verifier) Wait(ctx context.Context, domain, ip string) (int, error) {
	attempts := v.Attempts
	if attempts < 1 {
		attempts = 1
	}

	sleep := v.Sleep
	if sleep == nil {
		sleep = timerSleep
	}
	// the wait happens in sleep, so go-retry's own timer always gets zero
	backoff := retry.WithMaxRetries(uint64(attempts-1), retry.BackoffFunc(func() (time.Duration, bool) {
		if err := sleep(ctx, v.Interval); err != nil {
			return 0, true
		}
		return 0, false
	}))

	polls := 0
	var last []string
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		polls++
		records, err := v.Lookup.LookupA(ctx, domain)
		if err != nil {
			logger.Debug("poll %d/%d for %s failed: %v", polls, attempts, domain, err)
			return retry.RetryableError(err)
		}
		last = records
		logger.DebugFields("dns poll", map[string]interface{}{
			"domain": domain, "attempt": polls, "records": records, "want": ip,
		})
		for _, r := range records {
			if r == ip {
				return nil
			}
		}
		return retry.RetryableError(errNotConverged)
	})
	if err == nil {
		return polls, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return polls, perrors.WrapDomain(perrors.KindDNSMismatch, domain, "DNS verification interrupted", ctxErr)
	}
	msg := fmt.Sprintf("DNS does not resolve to %s after %d attempts (last answer: %v)", ip, polls, last)
	return polls, perrors.WithHint(
		&perrors.ProvisionError{Kind: perrors.KindDNSMismatch, Domain: domain, Message: msg},
		"If the record is correct and only slow to propagate, rerun with -f to skip this check.",
	)
}

func timerSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
