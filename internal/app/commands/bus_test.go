package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoCommand struct{ Text string }

func (echoCommand) Key() string { return "test.echo" }

type otherCommand struct{}

func (otherCommand) Key() string { return "test.other" }

func TestDispatchTyped(t *testing.T) {
	bus := NewInMemoryBus()
	RegisterHandler[echoCommand, string](bus, HandlerFunc[echoCommand, string](func(ctx context.Context, cmd echoCommand) (string, error) {
		return "echo:" + cmd.Text, nil
	}))

	out, err := Dispatch[echoCommand, string](context.Background(), bus, echoCommand{Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "echo:hi", out)
	assert.Equal(t, []string{"test.echo"}, bus.Keys())

	_, err = Dispatch[echoCommand, int](context.Background(), bus, echoCommand{})
	assert.ErrorIs(t, err, ErrResultType)

	_, err = bus.Dispatch(context.Background(), otherCommand{})
	assert.ErrorIs(t, err, ErrHandlerNotFound)

	_, err = Dispatch[echoCommand, string](context.Background(), nil, echoCommand{})
	assert.ErrorIs(t, err, ErrNilBus)
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	bus := NewInMemoryBus()
	h := HandlerFunc[echoCommand, string](func(ctx context.Context, cmd echoCommand) (string, error) { return "", nil })
	RegisterHandler[echoCommand, string](bus, h)
	assert.Panics(t, func() { RegisterHandler[echoCommand, string](bus, h) })
}
