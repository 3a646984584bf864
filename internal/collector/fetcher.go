package collector

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"StockSentinel/internal/model"
)

// SourceAdapter retrieves raw daily bars from one upstream provider.
// Implementations enforce their own timeout and never retry.
type SourceAdapter interface {
	Name() string
	Fetch(ctx context.Context, symbol string, period model.Period, timeout time.Duration) (*model.BarSeries, error)
}

// Reason classifies an adapter failure.
type Reason string

const (
	ReasonTimeout   Reason = "timeout"
	ReasonTransport Reason = "transport-error"
	ReasonMalformed Reason = "malformed-payload"
	ReasonEmpty     Reason = "empty-result"
)

// FetchError is the failure value returned by every adapter.
type FetchError struct {
	Adapter string
	Reason  Reason
	Err     error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Adapter, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %v", e.Adapter, e.Reason, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ReasonOf extracts the failure reason of an adapter error.
func ReasonOf(err error) Reason {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Reason
	}
	if isTimeout(err) {
		return ReasonTimeout
	}
	return ReasonTransport
}

func failure(adapter string, reason Reason, err error) *FetchError {
	return &FetchError{Adapter: adapter, Reason: reason, Err: err}
}

// transportFailure maps a request error to timeout or transport-error.
func transportFailure(adapter string, ctx context.Context, err error) *FetchError {
	if isTimeout(err) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return failure(adapter, ReasonTimeout, err)
	}
	return failure(adapter, ReasonTransport, err)
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// withTimeout derives the per-attempt context.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// runBlocking executes a call that does not accept a context and abandons it
// when ctx expires. The result channel is buffered so the goroutine never leaks.
func runBlocking[T any](ctx context.Context, call func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := call()
		ch <- result{v, err}
	}()
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-ch:
		return r.v, r.err
	}
}
