package queries

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

type queryHandler func(ctx context.Context, q Query) (any, error)

// InMemoryBus keeps one handler per query key.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string]queryHandler
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{handlers: make(map[string]queryHandler)}
}

// RegisterRaw panics on an empty or already registered key; wiring mistakes
// surface at startup instead of on the first request.
func (b *InMemoryBus) RegisterRaw(key string, handler queryHandler) {
	if key == "" {
		panic("queries: empty key registration")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.handlers[key]; exists {
		panic(fmt.Sprintf("queries: duplicate registration for %q", key))
	}
	b.handlers[key] = handler
}

func (b *InMemoryBus) Ask(ctx context.Context, query Query) (any, error) {
	key := query.Key()
	b.mu.RLock()
	h, ok := b.handlers[key]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, key)
	}
	return h(ctx, query)
}

// Keys lists registered query keys in sorted order.
func (b *InMemoryBus) Keys() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	keys := make([]string, 0, len(b.handlers))
	for k := range b.handlers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func RegisterHandler[Q Query, R any](bus *InMemoryBus, handler Handler[Q, R]) {
	if bus == nil {
		panic("queries: nil bus")
	}
	var zero Q
	key := zero.Key()
	bus.RegisterRaw(key, func(ctx context.Context, raw Query) (any, error) {
		q, ok := raw.(Q)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrInvalidQuery, key)
		}
		return handler.Handle(ctx, q)
	})
}
