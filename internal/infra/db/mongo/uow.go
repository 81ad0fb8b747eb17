package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"programhub/internal/app/uow"
	domainbooking "programhub/internal/domain/booking"
	domainlistings "programhub/internal/domain/listings"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	ListingsRepo domainlistings.ListingRepository
	BookingRepo  domainbooking.Repository
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Begin starts a session. Writable units also open a transaction; read-only units
// only share the session so reads stay causally consistent.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil || f.ListingsRepo == nil || f.BookingRepo == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	unit := &Unit{session: session, listings: f.ListingsRepo, bookings: f.BookingRepo}
	if opts.ReadOnly {
		return unit, nil
	}
	txnOpts := options.Transaction().
		SetReadConcern(f.DB.ReadConcern()).
		SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	unit.inTxn = true
	return unit, nil
}

type Unit struct {
	session mongo.Session
	inTxn   bool
	ended   bool

	listings domainlistings.ListingRepository
	bookings domainbooking.Repository
}

func (u *Unit) Listings() domainlistings.ListingRepository {
	return u.listings
}

func (u *Unit) Bookings() domainbooking.Repository {
	return u.bookings
}

func (u *Unit) Commit(ctx context.Context) error {
	if u.ended {
		return nil
	}
	if !u.inTxn {
		u.end(ctx)
		return nil
	}
	if err := u.session.CommitTransaction(ctx); err != nil {
		// Rollback aborts and ends the session.
		return err
	}
	u.end(ctx)
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	if u.ended {
		return nil
	}
	defer u.end(ctx)
	if !u.inTxn {
		return nil
	}
	return u.session.AbortTransaction(ctx)
}

func (u *Unit) end(ctx context.Context) {
	u.session.EndSession(ctx)
	u.ended = true
}

// InjectContext ensures Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

var _ uow.UoWFactory = Factory{}
