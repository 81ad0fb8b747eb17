package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ClaimStore is the part of Store the worker needs.
type ClaimStore interface {
	Claim(ctx context.Context, workerID string) (*EventDocument, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error
}

// Worker polls the durable outbox and publishes due records as CloudEvents.
type Worker struct {
	Store     ClaimStore
	Producer  Producer
	Envelope  Envelope
	Interval  time.Duration
	BatchSize int
	ID        string
	Backoff   []time.Duration
	Logger    *slog.Logger
	Now       func() time.Time
}

func (w *Worker) Run(ctx context.Context) error {
	if w.Store == nil || w.Producer == nil {
		return ErrWorkerNotConfigured
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.Drain(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if w.Logger != nil {
					w.Logger.Error("outbox poll failed", "worker_id", w.ID, "error", err)
				}
			}
		}
	}
}

// Drain publishes due records until none is left or the batch size is reached.
func (w *Worker) Drain(ctx context.Context) (int, error) {
	processed := 0
	for processed < w.batchSize() {
		done, err := w.processOnce(ctx)
		if err != nil || done {
			return processed, err
		}
		processed++
	}
	return processed, nil
}

func (w *Worker) processOnce(ctx context.Context) (bool, error) {
	doc, err := w.Store.Claim(ctx, w.ID)
	if err != nil {
		return false, err
	}
	if doc == nil {
		return true, nil
	}
	body, headers, err := w.Envelope.Format(doc.ID, doc.Name, doc.Aggregate, doc.OccurredAt, doc.Payload, doc.Headers)
	if err != nil {
		return false, w.fail(ctx, doc, err)
	}
	topic := w.Envelope.Topic(doc.Name)
	if err := w.Producer.Publish(ctx, topic, doc.Aggregate, body, headers); err != nil {
		return false, w.fail(ctx, doc, err)
	}
	return false, w.Store.MarkSent(ctx, doc.ID)
}

func (w *Worker) fail(ctx context.Context, doc *EventDocument, cause error) error {
	next := w.nextRetry(doc.Attempts)
	if w.Logger != nil {
		w.Logger.Warn("outbox publish failed", "event_id", doc.ID, "event", doc.Name, "attempts", doc.Attempts+1, "retry_at", next, "error", cause)
	}
	return w.Store.MarkFailed(ctx, doc.ID, next, cause.Error())
}

func (w *Worker) interval() time.Duration {
	if w.Interval <= 0 {
		return 500 * time.Millisecond
	}
	return w.Interval
}

func (w *Worker) batchSize() int {
	if w.BatchSize <= 0 {
		return 100
	}
	return w.BatchSize
}

func (w *Worker) nextRetry(attempts int) time.Time {
	now := time.Now()
	if w.Now != nil {
		now = w.Now()
	}
	if attempts < len(w.Backoff) {
		return now.Add(w.Backoff[attempts])
	}
	if len(w.Backoff) > 0 {
		return now.Add(w.Backoff[len(w.Backoff)-1])
	}
	return now.Add(5 * time.Second)
}
