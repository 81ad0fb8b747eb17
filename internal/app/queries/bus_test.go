package queries

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countQuery struct{ Host string }

func (countQuery) Key() string { return "test.count" }

type unknownQuery struct{}

func (unknownQuery) Key() string { return "test.unknown" }

func TestAskTyped(t *testing.T) {
	bus := NewInMemoryBus()
	RegisterHandler[countQuery, int](bus, HandlerFunc[countQuery, int](func(ctx context.Context, q countQuery) (int, error) {
		return len(q.Host), nil
	}))

	n, err := Ask[countQuery, int](context.Background(), bus, countQuery{Host: "host-1"})
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, []string{"test.count"}, bus.Keys())

	_, err = Ask[countQuery, string](context.Background(), bus, countQuery{})
	assert.ErrorIs(t, err, ErrResultType)
	assert.ErrorContains(t, err, "test.count returned int")

	_, err = bus.Ask(context.Background(), unknownQuery{})
	assert.ErrorIs(t, err, ErrHandlerNotFound)

	_, err = Ask[countQuery, int](context.Background(), nil, countQuery{})
	assert.ErrorIs(t, err, ErrNilBus)
}

func TestRegisterRawRejectsDuplicates(t *testing.T) {
	bus := NewInMemoryBus()
	noop := func(ctx context.Context, q Query) (any, error) { return nil, nil }
	bus.RegisterRaw("test.count", noop)
	assert.Panics(t, func() { bus.RegisterRaw("test.count", noop) })
	assert.Panics(t, func() { bus.RegisterRaw("", noop) })
}
