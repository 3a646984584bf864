// Package notifier delivers alert messages to Telegram and Pushover.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Message is a channel-neutral notification. Text is plain; channels apply
// their own markup.
type Message struct {
	Title string
	Text  string
}

// Notifier delivers one message to one channel.
type Notifier interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// RetryBase is the first backoff delay of SendWithRetry; it doubles per attempt.
var RetryBase = time.Second

// SendWithRetry sends a message with exponential backoff retry.
func SendWithRetry(ctx context.Context, n Notifier, msg Message, maxRetries int, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		err := n.Send(ctx, msg)
		if err == nil {
			return nil
		}
		lastErr = err
		if i == maxRetries {
			break
		}
		backoff := RetryBase << uint(i)
		logger.Warn("send failed",
			zap.String("notifier", n.Name()),
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", maxRetries+1),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("%s: all %d attempts failed: %w", n.Name(), maxRetries+1, lastErr)
}

// Multi fans a message out to several notifiers.
type Multi struct {
	Notifiers  []Notifier
	MaxRetries int
	Logger     *zap.Logger
}

func (m *Multi) Name() string { return "multi" }

// Send delivers to every notifier and joins their errors. One channel
// failing does not stop the others.
func (m *Multi) Send(ctx context.Context, msg Message) error {
	var errs []error
	for _, n := range m.Notifiers {
		if err := SendWithRetry(ctx, n, msg, m.MaxRetries, m.Logger); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
