package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hypertd/hyperhook/internal/domain"
)

const (
	defaultRetryAttempts = 3
	defaultRetryBase     = 1 * time.Second
)

// Retrier reruns transient failures with exponential backoff. Only network
// and API errors are retried; validation errors are deterministic and retrying
// them would just replay the same rejection.
type Retrier struct {
	attempts int
	base     time.Duration
	logger   *zap.Logger
	sleep    func(time.Duration) // for testing
}

func NewRetrier(logger *zap.Logger) *Retrier {
	return &Retrier{
		attempts: defaultRetryAttempts,
		base:     defaultRetryBase,
		logger:   logger,
		sleep:    time.Sleep,
	}
}

// Run invokes fn up to the attempt limit. onFailure fires once per failed
// attempt, including the last, so every failure reaches the audit trail
// whether or not a later attempt succeeds.
func (r *Retrier) Run(ctx context.Context, op string, fn func() (*domain.OrderOutcome, error), onFailure func(attempt int, err error)) (*domain.OrderOutcome, error) {
	delay := r.base
	var lastErr error

	for attempt := 1; attempt <= r.attempts; attempt++ {
		out, err := fn()
		if err == nil {
			return out, nil
		}
		lastErr = err
		if onFailure != nil {
			onFailure(attempt, err)
		}

		if !domain.IsRetryable(err) {
			r.logger.Warn("Non-retryable failure",
				zap.String("op", op),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return nil, err
		}
		if attempt == r.attempts {
			break
		}

		r.logger.Warn("Transient failure, backing off",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		r.sleep(delay)
		delay *= 2
	}

	r.logger.Error("All attempts exhausted",
		zap.String("op", op),
		zap.Int("attempts", r.attempts),
		zap.Error(lastErr),
	)
	return nil, lastErr
}
