// Package publication derives what a listing's lifecycle state means for the
// editor wizard and the buyer-facing booking panel.
package publication

import (
	"programhub/internal/domain/listings"
)

const HelpTextClosedListing = "closedListingHelp"

// Status is the classification of a listing's lifecycle state.
type Status struct {
	State              listings.ListingState `json:"state"`
	IsDraft            bool                  `json:"is_draft"`
	IsClosed           bool                  `json:"is_closed"`
	IsPendingApproval  bool                  `json:"is_pending_approval"`
	BookingFormVisible bool                  `json:"booking_form_visible"`
	RedirectRequired   bool                  `json:"redirect_required"`
	HelpTextKey        string                `json:"help_text_key,omitempty"`
}

// Classify maps the listing state to UI affordances. isNewListingFlow is true when
// the editor was opened through the new or draft route.
func Classify(listing *listings.Listing, isNewListingFlow bool) Status {
	if listing == nil {
		return Status{}
	}
	state := listing.State
	status := Status{
		State:             state,
		IsDraft:           state == listings.StateDraft,
		IsClosed:          state == listings.StateClosed,
		IsPendingApproval: state == listings.StatePendingApproval,
	}
	status.BookingFormVisible = state == listings.StatePublished
	status.RedirectRequired = isNewListingFlow && listing.ID != "" && state.Valid() && !status.IsDraft
	if status.IsClosed {
		status.HelpTextKey = HelpTextClosedListing
	}
	return status
}
