package memory

import (
	"context"
	"sync"

	appoutbox "programhub/internal/app/outbox"
	"programhub/internal/app/uow"
)

// Publisher delivers committed event records, usually to a broker.
type Publisher interface {
	Publish(ctx context.Context, records []appoutbox.EventRecord) error
}

// Outbox buffers events in memory. Records added inside a memory unit of work are
// held by that unit and only become visible here once it commits.
type Outbox struct {
	mu        sync.Mutex
	records   []appoutbox.EventRecord
	publisher Publisher
}

// NewOutbox returns an outbox that hands flushed records to publisher. A nil
// publisher drops them on flush.
func NewOutbox(publisher Publisher) *Outbox {
	return &Outbox{publisher: publisher}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	if unit, ok := uow.FromContext(ctx); ok {
		if mu, ok := unit.(*Unit); ok && mu.outbox == o && !mu.readOnly {
			mu.stage(record)
			return nil
		}
	}
	o.enqueue(record)
	return nil
}

// Flush publishes the committed records. Records that fail to publish stay queued.
func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	batch := o.records
	o.records = nil
	o.mu.Unlock()
	if len(batch) == 0 || o.publisher == nil {
		return nil
	}
	if err := o.publisher.Publish(ctx, batch); err != nil {
		o.mu.Lock()
		o.records = append(batch, o.records...)
		o.mu.Unlock()
		return err
	}
	return nil
}

// Pending returns the committed records not yet flushed.
func (o *Outbox) Pending() []appoutbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]appoutbox.EventRecord(nil), o.records...)
}

func (o *Outbox) enqueue(records ...appoutbox.EventRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, records...)
}

var _ appoutbox.Outbox = (*Outbox)(nil)
