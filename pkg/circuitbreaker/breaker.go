// Package circuitbreaker wraps sony/gobreaker for outbound HTTP calls.
package circuitbreaker

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

var ErrOpen = errors.New("circuit breaker is open")

type Options struct {
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
	// IsFailure decides which errors count against the breaker. Nil means
	// every error does.
	IsFailure func(err error) bool
}

func DefaultOptions() Options {
	return Options{
		ConsecutiveFailures: 5,
		OpenTimeout:         30 * time.Second,
	}
}

type Breaker struct {
	cb *gobreaker.CircuitBreaker[[]byte]
}

func New(name string, opts Options, logger zerolog.Logger) *Breaker {
	if opts.ConsecutiveFailures == 0 {
		opts.ConsecutiveFailures = DefaultOptions().ConsecutiveFailures
	}
	if opts.OpenTimeout == 0 {
		opts.OpenTimeout = DefaultOptions().OpenTimeout
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	}
	if opts.IsFailure != nil {
		isFailure := opts.IsFailure
		settings.IsSuccessful = func(err error) bool {
			return err == nil || !isFailure(err)
		}
	}

	return &Breaker{cb: gobreaker.NewCircuitBreaker[[]byte](settings)}
}

// Execute runs fn unless the breaker is open.
func (b *Breaker) Execute(fn func() ([]byte, error)) ([]byte, error) {
	body, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrOpen
	}
	return body, err
}

func (b *Breaker) State() string {
	return b.cb.State().String()
}
