package outbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	appoutbox "programhub/internal/app/outbox"
)

var (
	ErrInvalidPayload      = errors.New("outbox: event payload is not valid JSON")
	ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")
)

// Publisher sends committed records straight to the broker. It backs the in-memory
// outbox, where there is no durable table for a worker to poll.
type Publisher struct {
	Producer Producer
	Envelope Envelope
	Logger   *slog.Logger
}

func (p *Publisher) Publish(ctx context.Context, records []appoutbox.EventRecord) error {
	if p.Producer == nil {
		return ErrWorkerNotConfigured
	}
	for i, rec := range records {
		body, headers, err := p.Envelope.Format(rec.ID, rec.Name, rec.Aggregate, rec.OccurredAt, rec.Payload, rec.Headers)
		if err != nil {
			return fmt.Errorf("format event %s: %w", rec.ID, err)
		}
		topic := p.Envelope.Topic(rec.Name)
		if err := p.Producer.Publish(ctx, topic, rec.Aggregate, body, headers); err != nil {
			if i > 0 && p.Logger != nil {
				p.Logger.Warn("outbox batch partially published", "published", i, "total", len(records))
			}
			return fmt.Errorf("publish %s to %s: %w", rec.Name, topic, err)
		}
		if p.Logger != nil {
			p.Logger.Debug("event published", "event", rec.Name, "topic", topic, "aggregate", rec.Aggregate)
		}
	}
	return nil
}

// LogProducer stands in for the broker when none is configured.
type LogProducer struct {
	Logger *slog.Logger
}

func (p LogProducer) Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error {
	if p.Logger != nil {
		p.Logger.InfoContext(ctx, "event", "topic", topic, "key", key, "bytes", len(payload))
	}
	return nil
}
