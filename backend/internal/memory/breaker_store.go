package memory

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	apperrors "memory-graph/backend/pkg/errors"
)

// BreakerSettings configures BreakerStore
type BreakerSettings struct {
	Name         string
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	FailureRatio float64
	MinRequests  uint32
}

// DefaultBreakerSettings mirrors the defaults of the service configuration
func DefaultBreakerSettings(name string) BreakerSettings {
	return BreakerSettings{
		Name:         name,
		MaxRequests:  5,
		Interval:     30 * time.Second,
		Timeout:      60 * time.Second,
		FailureRatio: 0.8,
		MinRequests:  5,
	}
}

// BreakerStore guards a Store with a circuit breaker. Only infrastructure
// failures count against the breaker; validation and not-found results are
// normal answers.
type BreakerStore struct {
	next   Store
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

// NewBreakerStore wraps next
func NewBreakerStore(next Store, settings BreakerSettings, logger *zap.Logger) *BreakerStore {
	s := &BreakerStore{next: next, logger: logger}
	s.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < settings.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= settings.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Store circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: isStoreSuccess,
	})
	return s
}

// State exposes the breaker state for health reporting
func (s *BreakerStore) State() gobreaker.State {
	return s.cb.State()
}

func isStoreSuccess(err error) bool {
	if err == nil {
		return true
	}
	if apperrors.IsNotFound(err) || apperrors.IsValidation(err) {
		return true
	}
	// A caller giving up is not the database's fault.
	return errors.Is(err, context.Canceled)
}

func (s *BreakerStore) guard(run func() (any, error)) (any, error) {
	out, err := s.cb.Execute(run)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, apperrors.NewStoreUnavailable(s.cb.Name(), err)
	}
	return out, err
}

func (s *BreakerStore) Create(ctx context.Context, in CreateInput, createdAt time.Time) (string, error) {
	out, err := s.guard(func() (any, error) {
		return s.next.Create(ctx, in, createdAt)
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

func (s *BreakerStore) List(ctx context.Context, userID string) ([]Memory, error) {
	out, err := s.guard(func() (any, error) {
		return s.next.List(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return out.([]Memory), nil
}

func (s *BreakerStore) Get(ctx context.Context, id, userID string) (*Memory, error) {
	out, err := s.guard(func() (any, error) {
		return s.next.Get(ctx, id, userID)
	})
	if err != nil {
		return nil, err
	}
	return out.(*Memory), nil
}

func (s *BreakerStore) Update(ctx context.Context, id, userID string, in UpdateInput) error {
	_, err := s.guard(func() (any, error) {
		return nil, s.next.Update(ctx, id, userID, in)
	})
	return err
}

func (s *BreakerStore) Delete(ctx context.Context, id, userID string) error {
	_, err := s.guard(func() (any, error) {
		return nil, s.next.Delete(ctx, id, userID)
	})
	return err
}

// Ping bypasses the breaker so health checks report the real database state
func (s *BreakerStore) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

func (s *BreakerStore) Close(ctx context.Context) error {
	return s.next.Close(ctx)
}
