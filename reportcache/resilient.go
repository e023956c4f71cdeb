package reportcache

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ResilientLayer wraps a Layer with a circuit breaker and an operation
// timeout. When the backend fails repeatedly, reads degrade to cache misses
// and writes become no-ops instead of stalling the worker or the dashboard
// path.
type ResilientLayer struct {
	layer   Layer
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
	logger  *zap.Logger
}

type ResilientConfig struct {
	// Timeout bounds each backend operation. Zero disables the bound.
	Timeout time.Duration
	// MaxRequests allowed through while half-open.
	MaxRequests uint32
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
	// ConsecutiveFailures to trip the breaker.
	ConsecutiveFailures uint32
}

func DefaultResilientConfig() ResilientConfig {
	return ResilientConfig{
		Timeout:             2 * time.Second,
		MaxRequests:         1,
		OpenTimeout:         30 * time.Second,
		ConsecutiveFailures: 5,
	}
}

func NewResilient(layer Layer, config ResilientConfig, logger *zap.Logger) *ResilientLayer {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("reportcache").Named(layer.Name())

	trip := config.ConsecutiveFailures
	if trip == 0 {
		trip = 5
	}

	rl := &ResilientLayer{layer: layer, timeout: config.Timeout, logger: logger}
	rl.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        layer.Name(),
		MaxRequests: config.MaxRequests,
		Timeout:     config.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= trip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("layer", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			// A miss is a normal outcome, not a backend failure.
			return err == nil || errors.Is(err, ErrCacheMiss)
		},
	})
	return rl
}

func (rl *ResilientLayer) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := rl.bound(ctx)
	defer cancel()

	result, err := rl.cb.Execute(func() (interface{}, error) {
		return rl.layer.Get(ctx, key)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ErrCircuitOpen
		}
		return nil, err
	}
	return result.([]byte), nil
}

func (rl *ResilientLayer) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	ctx, cancel := rl.bound(ctx)
	defer cancel()

	_, err := rl.cb.Execute(func() (interface{}, error) {
		return nil, rl.layer.Set(ctx, key, payload, ttl)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrCircuitOpen
	}
	return err
}

func (rl *ResilientLayer) Delete(ctx context.Context, key string) error {
	ctx, cancel := rl.bound(ctx)
	defer cancel()

	_, err := rl.cb.Execute(func() (interface{}, error) {
		return nil, rl.layer.Delete(ctx, key)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrCircuitOpen
	}
	return err
}

func (rl *ResilientLayer) Name() string { return rl.layer.Name() }

func (rl *ResilientLayer) Close() error { return rl.layer.Close() }

func (rl *ResilientLayer) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if rl.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, rl.timeout)
}
