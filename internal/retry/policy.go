package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Decision tells a Policy what to do with a failed attempt.
type Decision int

const (
	// Retry sleeps for the next backoff delay and tries again.
	Retry Decision = iota
	// FailFast stops immediately and returns the error.
	FailFast
)

// Classifier maps an attempt error to a Decision.
type Classifier func(error) Decision

// Clock sleeps between attempts. Tests substitute a fake.
type Clock interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SystemClock sleeps on the wall clock and wakes early on cancellation.
type SystemClock struct{}

// Sleep blocks for d or until ctx is done.
func (SystemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Policy is a bounded exponential backoff.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	// MaxDelay caps a single delay; zero leaves it uncapped.
	MaxDelay time.Duration
	Classify Classifier
	Clock    Clock
	// OnRetry is called before each sleep.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// ExhaustedError is returned once every attempt has failed.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// IsExhausted reports whether err came from running out of attempts.
func IsExhausted(err error) bool {
	var ex *ExhaustedError
	return errors.As(err, &ex)
}

// Do runs fn until it succeeds, the classifier fails fast, attempts run out
// or ctx is cancelled. Attempts are numbered from 1.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	clock := p.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	delay := p.BaseDelay
	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		last = fn(ctx, attempt)
		if last == nil {
			return nil
		}
		if p.Classify != nil && p.Classify(last) == FailFast {
			return last
		}
		if attempt == attempts {
			break
		}
		d := p.capped(delay)
		if p.OnRetry != nil {
			p.OnRetry(attempt, d, last)
		}
		if err := clock.Sleep(ctx, d); err != nil {
			return err
		}
		delay = p.next(delay)
	}
	return &ExhaustedError{Attempts: attempts, Last: last}
}

// Delays returns the sleep schedule between attempts.
func (p Policy) Delays() []time.Duration {
	if p.MaxAttempts <= 1 {
		return nil
	}
	out := make([]time.Duration, 0, p.MaxAttempts-1)
	d := p.BaseDelay
	for i := 1; i < p.MaxAttempts; i++ {
		out = append(out, p.capped(d))
		d = p.next(d)
	}
	return out
}

// Worst returns the total time spent sleeping when every attempt fails.
func (p Policy) Worst() time.Duration {
	var total time.Duration
	for _, d := range p.Delays() {
		total += d
	}
	return total
}

func (p Policy) next(d time.Duration) time.Duration {
	m := p.Multiplier
	if m <= 0 {
		m = 2
	}
	return time.Duration(float64(d) * m)
}

func (p Policy) capped(d time.Duration) time.Duration {
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}
