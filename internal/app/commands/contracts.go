package commands

import (
	"context"
	"errors"
	"fmt"
)

// Command is a host or buyer intent that changes marketplace state. Key names the
// handler and scopes idempotency records.
type Command interface {
	Key() string
}

type Handler[C Command, R any] interface {
	Handle(ctx context.Context, cmd C) (R, error)
}

// HandlerFunc lets tests and small adapters register closures.
type HandlerFunc[C Command, R any] func(ctx context.Context, cmd C) (R, error)

func (f HandlerFunc[C, R]) Handle(ctx context.Context, cmd C) (R, error) {
	return f(ctx, cmd)
}

// Bus is the untyped dispatch surface middlewares wrap.
type Bus interface {
	Dispatch(ctx context.Context, cmd Command) (any, error)
}

var (
	ErrHandlerNotFound = errors.New("commands: handler not found")
	ErrInvalidCommand  = errors.New("commands: invalid command for handler")
	ErrResultType      = errors.New("commands: result type mismatch")
	ErrNilBus          = errors.New("commands: nil bus")
)

// Dispatch runs cmd and narrows the result to R. A nil result yields the zero R,
// which lets idempotent replays of empty results pass through unchanged.
func Dispatch[C Command, R any](ctx context.Context, bus Bus, cmd C) (R, error) {
	var zero R
	if bus == nil {
		return zero, ErrNilBus
	}
	res, err := bus.Dispatch(ctx, cmd)
	switch {
	case err != nil:
		return zero, err
	case res == nil:
		return zero, nil
	}
	if value, ok := res.(R); ok {
		return value, nil
	}
	return zero, fmt.Errorf("%w: %s returned %T", ErrResultType, cmd.Key(), res)
}
