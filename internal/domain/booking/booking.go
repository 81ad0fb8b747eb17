package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"programhub/internal/domain/listings"
	"programhub/internal/domain/pricing"
	"programhub/internal/domain/shared/events"
	"programhub/internal/domain/shared/money"
)

var (
	ErrInvalidQuantity   = errors.New("booking: quantity must be positive")
	ErrQuantityExceeded  = errors.New("booking: quantity exceeds the package limit")
	ErrTotalOutOfRange   = errors.New("booking: total price is out of range")
	ErrInvalidState      = errors.New("booking: invalid state transition")
	ErrBookingNotFound   = errors.New("booking: not found")
	ErrBookingNotAllowed = errors.New("booking: listing cannot be booked")
)

type BookingID string

type BookingState string

const (
	StatePending   BookingState = "PENDING"
	StateAccepted  BookingState = "ACCEPTED"
	StateDeclined  BookingState = "DECLINED"
	StateCancelled BookingState = "CANCELLED"
)

type Booking struct {
	ID        BookingID
	ListingID listings.ListingID
	HostID    listings.HostID
	BuyerID   string
	Quantity  int
	Quote     pricing.Quote
	Total     money.Money
	State     BookingState
	Message   string
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, booking *Booking) error
	ListByBuyer(ctx context.Context, buyerID string) ([]*Booking, error)
	ListByHost(ctx context.Context, hostID listings.HostID) ([]*Booking, error)
}

type CreateParams struct {
	ID              BookingID
	ListingID       listings.ListingID
	HostID          listings.HostID
	BuyerID         string
	Quantity        int
	Quote           pricing.Quote
	LimitedQuantity *int
	Message         string
	CreatedAt       time.Time
}

// NewBooking opens a pending request. The total is the quoted price times quantity.
func NewBooking(params CreateParams) (*Booking, error) {
	if strings.TrimSpace(params.BuyerID) == "" {
		return nil, errors.New("booking: buyer id required")
	}
	if params.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if params.LimitedQuantity != nil && params.Quantity > *params.LimitedQuantity {
		return nil, ErrQuantityExceeded
	}
	if !params.Quote.PriceIsSupported {
		return nil, ErrBookingNotAllowed
	}
	total, err := params.Quote.TotalPrice.MultiplyChecked(int64(params.Quantity))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTotalOutOfRange, err)
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:        params.ID,
		ListingID: params.ListingID,
		HostID:    params.HostID,
		BuyerID:   params.BuyerID,
		Quantity:  params.Quantity,
		Quote:     params.Quote,
		Total:     total,
		State:     StatePending,
		Message:   strings.TrimSpace(params.Message),
		CreatedAt: now,
		UpdatedAt: now,
	}
	b.Record(BookingRequested{BookingID: b.ID, ListingID: b.ListingID, BuyerID: b.BuyerID, Quantity: b.Quantity, Total: b.Total, At: now})
	return b, nil
}

func (b *Booking) Accept(now time.Time) error {
	if b.State != StatePending {
		return ErrInvalidState
	}
	b.State = StateAccepted
	b.UpdatedAt = now.UTC()
	b.Record(BookingAccepted{BookingID: b.ID, At: b.UpdatedAt})
	return nil
}

func (b *Booking) Decline(reason string, now time.Time) error {
	if b.State != StatePending {
		return ErrInvalidState
	}
	b.State = StateDeclined
	b.UpdatedAt = now.UTC()
	b.Record(BookingDeclined{BookingID: b.ID, Reason: reason, At: b.UpdatedAt})
	return nil
}

// Cancel withdraws a pending or accepted request on the buyer's behalf.
func (b *Booking) Cancel(reason string, now time.Time) error {
	switch b.State {
	case StatePending, StateAccepted:
	default:
		return ErrInvalidState
	}
	b.State = StateCancelled
	b.UpdatedAt = now.UTC()
	b.Record(BookingCancelled{BookingID: b.ID, Reason: reason, At: b.UpdatedAt})
	return nil
}

func (b *Booking) Snapshot() *Booking {
	if b == nil {
		return nil
	}
	return &Booking{
		ID:        b.ID,
		ListingID: b.ListingID,
		HostID:    b.HostID,
		BuyerID:   b.BuyerID,
		Quantity:  b.Quantity,
		Quote:     b.Quote,
		Total:     b.Total,
		State:     b.State,
		Message:   b.Message,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
		Version:   b.Version,
	}
}
