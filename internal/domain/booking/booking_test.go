package booking

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"programhub/internal/domain/listings"
	"programhub/internal/domain/pricing"
	"programhub/internal/domain/publication"
	"programhub/internal/domain/shared/money"
)

var now = time.Date(2025, 4, 2, 9, 30, 0, 0, time.UTC)

func supportedQuote() pricing.Quote {
	return pricing.Quote{
		UnitPrice:        money.Must(500, "USD"),
		TotalPrice:       money.Must(1500, "USD"),
		UnitLabelKey:     pricing.LabelPerHour,
		PriceIsSupported: true,
		PricingOption:    listings.PricingPerHour,
	}
}

func TestDecide(t *testing.T) {
	published := publication.Status{State: listings.StatePublished, BookingFormVisible: true}
	closed := publication.Status{State: listings.StateClosed, IsClosed: true}
	pending := publication.Status{State: listings.StatePendingApproval, IsPendingApproval: true}
	unsupported := supportedQuote()
	unsupported.PriceIsSupported = false

	cases := []struct {
		name     string
		quote    pricing.Quote
		status   publication.Status
		own      bool
		expected Decision
	}{
		{name: "own published listing", quote: supportedQuote(), status: published, own: true, expected: Decision{CTAKey: CTAOwnListing}},
		{name: "own closed listing", quote: supportedQuote(), status: closed, own: true, expected: Decision{CTAKey: CTAClosedListing}},
		{name: "closed listing", quote: supportedQuote(), status: closed, expected: Decision{CTAKey: CTAClosedListing}},
		{name: "published listing", quote: supportedQuote(), status: published, expected: Decision{CanOpenBookingModal: true, CTAKey: CTABook}},
		{name: "pending approval renders nothing", quote: supportedQuote(), status: pending, expected: Decision{}},
		{name: "unsupported currency renders nothing", quote: unsupported, status: published, expected: Decision{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Decide(tc.quote, tc.status, tc.own))
		})
	}
}

func TestNewBooking(t *testing.T) {
	b, err := NewBooking(CreateParams{
		ID:        "bk-1",
		ListingID: "lst-1",
		HostID:    "host-1",
		BuyerID:   "buyer-1",
		Quantity:  2,
		Quote:     supportedQuote(),
		CreatedAt: now,
	})
	require.NoError(t, err)
	assert.Equal(t, StatePending, b.State)
	assert.Equal(t, money.Must(3000, "USD"), b.Total)
	require.Len(t, b.PendingEvents(), 1)
	assert.Equal(t, "booking.requested", b.PendingEvents()[0].EventName())
}

func TestNewBookingValidation(t *testing.T) {
	base := CreateParams{ID: "bk-1", ListingID: "lst-1", BuyerID: "buyer-1", Quantity: 1, Quote: supportedQuote(), CreatedAt: now}

	zero := base
	zero.Quantity = 0
	_, err := NewBooking(zero)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	limited := base
	limited.Quantity = 6
	limited.LimitedQuantity = listings.IntPtr(5)
	_, err = NewBooking(limited)
	assert.ErrorIs(t, err, ErrQuantityExceeded)

	unsupported := base
	unsupported.Quote.PriceIsSupported = false
	_, err = NewBooking(unsupported)
	assert.ErrorIs(t, err, ErrBookingNotAllowed)

	anonymous := base
	anonymous.BuyerID = " "
	_, err = NewBooking(anonymous)
	assert.Error(t, err)
}

func TestNewBookingRejectsOverflowingTotal(t *testing.T) {
	params := CreateParams{ID: "bk-1", ListingID: "lst-1", BuyerID: "buyer-1", Quantity: math.MaxInt32, Quote: supportedQuote(), CreatedAt: now}
	params.Quote.TotalPrice = money.Must(math.MaxInt64/1000, "USD")

	b, err := NewBooking(params)
	assert.Nil(t, b)
	assert.ErrorIs(t, err, ErrTotalOutOfRange)
	assert.ErrorIs(t, err, money.ErrAmountOverflow)
}

func TestBookingTransitions(t *testing.T) {
	newPending := func() *Booking {
		b, err := NewBooking(CreateParams{ID: "bk-1", ListingID: "lst-1", BuyerID: "buyer-1", Quantity: 1, Quote: supportedQuote(), CreatedAt: now})
		require.NoError(t, err)
		b.ClearEvents()
		return b
	}

	accepted := newPending()
	require.NoError(t, accepted.Accept(now))
	assert.Equal(t, StateAccepted, accepted.State)
	assert.ErrorIs(t, accepted.Decline("late", now), ErrInvalidState)
	require.NoError(t, accepted.Cancel("changed plans", now))
	assert.Equal(t, StateCancelled, accepted.State)
	assert.ErrorIs(t, accepted.Cancel("again", now), ErrInvalidState)

	declined := newPending()
	require.NoError(t, declined.Decline("fully booked", now))
	assert.ErrorIs(t, declined.Accept(now), ErrInvalidState)
	assert.ErrorIs(t, declined.Cancel("", now), ErrInvalidState)

	events := declined.PullEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "booking.declined", events[0].EventName())
}
