package resolver

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"

	"factorflow/config"
	"factorflow/models"
	"factorflow/observability"
)

// breakerName identifies the adjusted-read breaker in logs and metrics.
const breakerName = "factor_store"

// breakerStore decorates a PriceStore with a circuit breaker around the
// adjusted-price reads. When the store keeps failing, the breaker opens
// and adjusted reads fail fast; the resolver treats that like a tier
// miss and falls through to raw prices. Raw bar reads stay unwrapped:
// with raw gone there is nothing left to degrade to.
type breakerStore struct {
	store PriceStore
	cb    *gobreaker.CircuitBreaker[[]models.PricePoint]
}

func newBreakerStore(store PriceStore, cfg config.ResolverConfig) *breakerStore {
	settings := gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: cfg.BreakerMaxRequests,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Trip the breaker if failure ratio exceeds 50% with at least 5 requests
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			observability.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String())

			metrics := observability.GetMetrics()
			metrics.SetCircuitBreakerState(name, stateToInt(to))
			if to == gobreaker.StateOpen {
				metrics.RecordCircuitBreakerTrip(name)
			}
		},
	}

	return &breakerStore{
		store: store,
		cb:    gobreaker.NewCircuitBreaker[[]models.PricePoint](settings),
	}
}

func (b *breakerStore) GetBars(ctx context.Context, instrument string, from, to *time.Time) ([]models.Bar, error) {
	return b.store.GetBars(ctx, instrument, from, to)
}

func (b *breakerStore) GetFactorSeries(ctx context.Context, instrument string, from, to *time.Time, mode models.AdjustMode) ([]models.PricePoint, error) {
	return b.cb.Execute(func() ([]models.PricePoint, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return b.store.GetFactorSeries(ctx, instrument, from, to, mode)
	})
}

func (b *breakerStore) GetDailyAdjusted(ctx context.Context, instrument string, from, to *time.Time, mode models.AdjustMode) ([]models.PricePoint, error) {
	return b.cb.Execute(func() ([]models.PricePoint, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return b.store.GetDailyAdjusted(ctx, instrument, from, to, mode)
	})
}

// isBreakerRejection reports whether the error came from the breaker
// itself rather than the store.
func isBreakerRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// stateToInt converts a circuit breaker state to an integer for metrics
// 0=closed, 1=half-open, 2=open
func stateToInt(state gobreaker.State) int {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
