package booking

import (
	"programhub/internal/domain/pricing"
	"programhub/internal/domain/publication"
)

// Booking panel call-to-action translation keys.
const (
	CTABook          = "ctaButtonMessage"
	CTAClosedListing = "closedListingButtonText"
	CTAOwnListing    = "ownListingNoBooking"
)

// Decision tells the booking panel whether the booking modal may open and which
// call-to-action to render. An empty CTAKey renders nothing.
type Decision struct {
	CanOpenBookingModal bool   `json:"can_open_booking_modal"`
	CTAKey              string `json:"cta_key,omitempty"`
}

// Decide is the booking eligibility gate.
func Decide(quote pricing.Quote, status publication.Status, isOwnListing bool) Decision {
	if isOwnListing || status.IsClosed {
		key := CTAOwnListing
		if status.IsClosed {
			key = CTAClosedListing
		}
		return Decision{CTAKey: key}
	}
	if status.BookingFormVisible && quote.PriceIsSupported {
		return Decision{CanOpenBookingModal: true, CTAKey: CTABook}
	}
	return Decision{}
}
