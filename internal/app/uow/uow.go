package uow

import (
	"context"
	"errors"

	domainbooking "programhub/internal/domain/booking"
	domainlistings "programhub/internal/domain/listings"
)

// ErrConcurrentUpdate is returned by repositories when the stored version moved on.
var ErrConcurrentUpdate = errors.New("uow: concurrent update detected")

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Listings() domainlistings.ListingRepository
	Bookings() domainbooking.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
