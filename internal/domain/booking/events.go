package booking

import (
	"time"

	"programhub/internal/domain/listings"
	"programhub/internal/domain/shared/money"
)

type BookingRequested struct {
	BookingID BookingID          `json:"booking_id"`
	ListingID listings.ListingID `json:"listing_id"`
	BuyerID   string             `json:"buyer_id"`
	Quantity  int                `json:"quantity"`
	Total     money.Money        `json:"total"`
	At        time.Time          `json:"at"`
}

func (e BookingRequested) EventName() string     { return "booking.requested" }
func (e BookingRequested) AggregateID() string   { return string(e.BookingID) }
func (e BookingRequested) OccurredAt() time.Time { return e.At }

type BookingAccepted struct {
	BookingID BookingID `json:"booking_id"`
	At        time.Time `json:"at"`
}

func (e BookingAccepted) EventName() string     { return "booking.accepted" }
func (e BookingAccepted) AggregateID() string   { return string(e.BookingID) }
func (e BookingAccepted) OccurredAt() time.Time { return e.At }

type BookingDeclined struct {
	BookingID BookingID `json:"booking_id"`
	Reason    string    `json:"reason,omitempty"`
	At        time.Time `json:"at"`
}

func (e BookingDeclined) EventName() string     { return "booking.declined" }
func (e BookingDeclined) AggregateID() string   { return string(e.BookingID) }
func (e BookingDeclined) OccurredAt() time.Time { return e.At }

type BookingCancelled struct {
	BookingID BookingID `json:"booking_id"`
	Reason    string    `json:"reason,omitempty"`
	At        time.Time `json:"at"`
}

func (e BookingCancelled) EventName() string     { return "booking.cancelled" }
func (e BookingCancelled) AggregateID() string   { return string(e.BookingID) }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }
