package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "memory-graph/backend/pkg/errors"
)

// scriptedStore returns err from every call and counts how often it was reached
type scriptedStore struct {
	err   error
	calls int
}

func (s *scriptedStore) Create(context.Context, CreateInput, time.Time) (string, error) {
	s.calls++
	return "id", s.err
}

func (s *scriptedStore) List(context.Context, string) ([]Memory, error) {
	s.calls++
	return []Memory{}, s.err
}

func (s *scriptedStore) Get(context.Context, string, string) (*Memory, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &Memory{ID: "id"}, nil
}

func (s *scriptedStore) Update(context.Context, string, string, UpdateInput) error {
	s.calls++
	return s.err
}

func (s *scriptedStore) Delete(context.Context, string, string) error {
	s.calls++
	return s.err
}

func (s *scriptedStore) Ping(context.Context) error  { return s.err }
func (s *scriptedStore) Close(context.Context) error { return nil }

func testSettings() BreakerSettings {
	s := DefaultBreakerSettings("test-store")
	s.MinRequests = 3
	s.FailureRatio = 0.6
	s.Timeout = time.Hour
	return s
}

func TestBreakerStore_TripsOnInfrastructureErrors(t *testing.T) {
	inner := &scriptedStore{err: apperrors.NewGraphQueryFailed("list memories", errors.New("connection reset"))}
	store := NewBreakerStore(inner, testSettings(), zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.List(ctx, "user-1")
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, store.State())

	_, err := store.List(ctx, "user-1")
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeUnavailable))
	assert.Equal(t, 3, inner.calls)

	// health checks still reach the database
	assert.Error(t, store.Ping(ctx))
}

func TestBreakerStore_IgnoresDomainErrors(t *testing.T) {
	inner := &scriptedStore{err: apperrors.NewMemoryNotFound("m1")}
	store := NewBreakerStore(inner, testSettings(), zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := store.Get(ctx, "m1", "user-1")
		assert.True(t, apperrors.IsNotFound(err))
	}
	inner.err = apperrors.NewContextCancelled("get memory", context.Canceled)
	for i := 0; i < 5; i++ {
		assert.Error(t, store.Delete(ctx, "m1", "user-1"))
	}

	assert.Equal(t, gobreaker.StateClosed, store.State())
	assert.Equal(t, 10, inner.calls)
}

func TestBreakerStore_PassesResultsThrough(t *testing.T) {
	inner := &scriptedStore{}
	store := NewBreakerStore(inner, testSettings(), zap.NewNop())
	ctx := context.Background()

	id, err := store.Create(ctx, CreateInput{}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "id", id)

	m, err := store.Get(ctx, "id", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "id", m.ID)

	assert.NoError(t, store.Update(ctx, "id", "user-1", UpdateInput{}))
	assert.NoError(t, store.Close(ctx))
}
