package memory

import (
	"context"
	"errors"
	"sync"

	appoutbox "programhub/internal/app/outbox"
	"programhub/internal/app/uow"
	domainbooking "programhub/internal/domain/booking"
	domainlistings "programhub/internal/domain/listings"
)

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	ListingsRepo domainlistings.ListingRepository
	BookingRepo  domainbooking.Repository
	Outbox       *Outbox
}

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Begin starts a lightweight boundary. Repository writes are applied immediately;
// only outbox records are staged until Commit.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.ListingsRepo == nil || f.BookingRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{
		listings: f.ListingsRepo,
		bookings: f.BookingRepo,
		outbox:   f.Outbox,
		readOnly: opts.ReadOnly,
	}, nil
}

// Unit is a uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	listings domainlistings.ListingRepository
	bookings domainbooking.Repository
	outbox   *Outbox
	readOnly bool

	mu     sync.Mutex
	staged []appoutbox.EventRecord
}

func (u *Unit) Listings() domainlistings.ListingRepository {
	return u.listings
}

func (u *Unit) Bookings() domainbooking.Repository {
	return u.bookings
}

func (u *Unit) stage(rec appoutbox.EventRecord) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.staged = append(u.staged, rec)
}

func (u *Unit) Commit(ctx context.Context) error {
	u.mu.Lock()
	staged := u.staged
	u.staged = nil
	u.mu.Unlock()
	if u.outbox != nil && len(staged) > 0 {
		u.outbox.enqueue(staged...)
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.staged = nil
	return nil
}

var _ uow.UnitOfWork = (*Unit)(nil)
