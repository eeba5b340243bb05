package propagation

import (
	"context"
	"errors"
	"testing"
	"time"

	perrors "github.com/ksyq12/vhost-provision/internal/errors"
)

// scriptedLookup answers poll n with answers[n-1], repeating the last one
type scriptedLookup struct {
	answers [][]string
	errs    []error
	calls   int
}

func (s *scriptedLookup) LookupA(ctx context.Context, domain string) ([]string, error) {
	s.calls++
	i := s.calls - 1
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	if i >= len(s.answers) {
		i = len(s.answers) - 1
	}
	if i < 0 {
		return nil, nil
	}
	return s.answers[i], nil
}

// recordingSleep records requested waits without blocking
type recordingSleep struct {
	waits []time.Duration
	err   error
}

func (r *recordingSleep) Sleep(ctx context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return r.err
}

func newVerifier(l Lookup, attempts int) *Verifier {
	return &Verifier{Lookup: l, Attempts: attempts, Interval: 10 * time.Second, Sleep: (&recordingSleep{}).Sleep}
}

func TestVerifier_Wait(t *testing.T) {
	const ip = "203.0.113.7"
	other := []string{"198.51.100.1"}
	match := []string{ip}

	t.Run("matches on first poll", func(t *testing.T) {
		l := &scriptedLookup{answers: [][]string{match}}
		polls, err := newVerifier(l, 30).Wait(context.Background(), "example.com", ip)
		if err != nil {
			t.Fatalf("Wait failed: %v", err)
		}
		if polls != 1 || l.calls != 1 {
			t.Errorf("expected 1 poll, got %d (lookups %d)", polls, l.calls)
		}
	})

	t.Run("stops at nth poll", func(t *testing.T) {
		for _, n := range []int{2, 7, 30} {
			answers := make([][]string, n)
			for i := 0; i < n-1; i++ {
				answers[i] = other
			}
			answers[n-1] = match
			// anything after the match must never be asked for
			answers = append(answers, other)

			l := &scriptedLookup{answers: answers}
			polls, err := newVerifier(l, 30).Wait(context.Background(), "example.com", ip)
			if err != nil {
				t.Fatalf("n=%d: Wait failed: %v", n, err)
			}
			if polls != n || l.calls != n {
				t.Errorf("n=%d: expected %d polls, got %d (lookups %d)", n, n, polls, l.calls)
			}
		}
	})

	t.Run("any record may match", func(t *testing.T) {
		l := &scriptedLookup{answers: [][]string{{"198.51.100.1", ip}}}
		if _, err := newVerifier(l, 3).Wait(context.Background(), "example.com", ip); err != nil {
			t.Errorf("expected match among multiple records: %v", err)
		}
	})

	t.Run("lookup errors are retried", func(t *testing.T) {
		l := &scriptedLookup{
			answers: [][]string{nil, nil, match},
			errs:    []error{errors.New("i/o timeout"), errors.New("i/o timeout")},
		}
		polls, err := newVerifier(l, 5).Wait(context.Background(), "example.com", ip)
		if err != nil {
			t.Fatalf("Wait failed: %v", err)
		}
		if polls != 3 {
			t.Errorf("expected 3 polls, got %d", polls)
		}
	})

	t.Run("exhausts attempts", func(t *testing.T) {
		l := &scriptedLookup{answers: [][]string{other}}
		polls, err := newVerifier(l, 30).Wait(context.Background(), "example.com", ip)
		if !perrors.Is(err, perrors.ErrDNSMismatch) {
			t.Fatalf("expected DNSMismatchError, got %v", err)
		}
		if polls != 30 || l.calls != 30 {
			t.Errorf("expected 30 polls, got %d (lookups %d)", polls, l.calls)
		}
		if perrors.HintOf(err) == "" {
			t.Error("expected rerun hint")
		}
	})

	t.Run("zero attempts still polls once", func(t *testing.T) {
		l := &scriptedLookup{answers: [][]string{other}}
		polls, _ := newVerifier(l, 0).Wait(context.Background(), "example.com", ip)
		if polls != 1 {
			t.Errorf("expected 1 poll, got %d", polls)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		l := &scriptedLookup{answers: [][]string{other}}
		_, err := newVerifier(l, 30).Wait(ctx, "example.com", ip)
		if !perrors.Is(err, perrors.ErrDNSMismatch) {
			t.Errorf("expected DNSMismatchError, got %v", err)
		}
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled in chain, got %v", err)
		}
	})

	t.Run("waits interval between polls", func(t *testing.T) {
		sleep := &recordingSleep{}
		l := &scriptedLookup{answers: [][]string{other, other, other, match}}
		v := &Verifier{Lookup: l, Attempts: 30, Interval: 10 * time.Second, Sleep: sleep.Sleep}

		start := time.Now()
		polls, err := v.Wait(context.Background(), "example.com", ip)
		if err != nil {
			t.Fatalf("Wait failed: %v", err)
		}
		if polls != 4 || len(sleep.waits) != 3 {
			t.Errorf("expected 4 polls and 3 waits, got %d polls, waits %v", polls, sleep.waits)
		}
		for _, d := range sleep.waits {
			if d != 10*time.Second {
				t.Errorf("expected 10s wait, got %v", d)
			}
		}
		if elapsed := time.Since(start); elapsed > 5*time.Second {
			t.Errorf("injected sleep should not block, took %v", elapsed)
		}
	})

	t.Run("no wait after last attempt", func(t *testing.T) {
		sleep := &recordingSleep{}
		l := &scriptedLookup{answers: [][]string{other}}
		v := &Verifier{Lookup: l, Attempts: 30, Interval: 10 * time.Second, Sleep: sleep.Sleep}

		if _, err := v.Wait(context.Background(), "example.com", ip); err == nil {
			t.Fatal("expected DNSMismatchError")
		}
		if len(sleep.waits) != 29 {
			t.Errorf("expected 29 waits, got %d", len(sleep.waits))
		}
	})

	t.Run("interrupted wait stops polling", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		l := &scriptedLookup{answers: [][]string{other}}
		v := &Verifier{Lookup: l, Attempts: 30, Interval: 10 * time.Second, Sleep: func(context.Context, time.Duration) error {
			cancel()
			return context.Canceled
		}}

		_, err := v.Wait(ctx, "example.com", ip)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled in chain, got %v", err)
		}
		if l.calls != 1 {
			t.Errorf("expected 1 lookup, got %d", l.calls)
		}
	})

	t.Run("default timer sleep", func(t *testing.T) {
		l := &scriptedLookup{answers: [][]string{other, match}}
		v := &Verifier{Lookup: l, Attempts: 3, Interval: time.Millisecond}
		if polls, err := v.Wait(context.Background(), "example.com", ip); err != nil || polls != 2 {
			t.Errorf("expected match on poll 2, got %d, %v", polls, err)
		}
	})
}
