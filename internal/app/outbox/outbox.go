package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"programhub/internal/domain/shared/events"
)

type EventRecord struct {
	ID         string
	Name       string
	Payload    []byte
	OccurredAt time.Time
	Aggregate  string
	Headers    map[string]string
}

// Outbox buffers event records until the command that produced them commits.
type Outbox interface {
	Add(ctx context.Context, record EventRecord) error
	Flush(ctx context.Context) error
}

type EventEncoder interface {
	Encode(ev events.DomainEvent) (EventRecord, error)
}

// JSONEventEncoder serialises the event struct as the record payload.
type JSONEventEncoder struct {
	IDGenerator func() string
}

func (e JSONEventEncoder) Encode(ev events.DomainEvent) (EventRecord, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return EventRecord{}, err
	}
	idGen := e.IDGenerator
	if idGen == nil {
		idGen = uuid.NewString
	}
	return EventRecord{
		ID:         idGen(),
		Name:       ev.EventName(),
		Payload:    payload,
		OccurredAt: ev.OccurredAt().UTC(),
		Aggregate:  ev.AggregateID(),
		Headers:    map[string]string{},
	}, nil
}

const (
	HeaderTraceParent = "traceparent"
	HeaderRequestID   = "request-id"
)

type correlationKey struct{}

// WithCorrelation stores request correlation values that RecordDomainEvents copies
// into every record header. Empty values are skipped.
func WithCorrelation(ctx context.Context, requestID, traceParent string) context.Context {
	headers := make(map[string]string, 2)
	if requestID != "" {
		headers[HeaderRequestID] = requestID
	}
	if traceParent != "" {
		headers[HeaderTraceParent] = traceParent
	}
	if len(headers) == 0 {
		return ctx
	}
	return context.WithValue(ctx, correlationKey{}, headers)
}

func correlationFromContext(ctx context.Context) map[string]string {
	headers, _ := ctx.Value(correlationKey{}).(map[string]string)
	return headers
}

// RecordDomainEvents encodes evs and adds them to box in order.
func RecordDomainEvents(ctx context.Context, box Outbox, encoder EventEncoder, evs []events.DomainEvent) error {
	if box == nil || len(evs) == 0 {
		return nil
	}
	if encoder == nil {
		encoder = JSONEventEncoder{}
	}
	correlation := correlationFromContext(ctx)
	for _, ev := range evs {
		rec, err := encoder.Encode(ev)
		if err != nil {
			return err
		}
		if len(correlation) > 0 {
			if rec.Headers == nil {
				rec.Headers = make(map[string]string, len(correlation))
			}
			for k, v := range correlation {
				if _, set := rec.Headers[k]; !set {
					rec.Headers[k] = v
				}
			}
		}
		if err := box.Add(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}
