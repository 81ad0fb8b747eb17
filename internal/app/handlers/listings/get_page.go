package listings

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"programhub/internal/app/dto"
	"programhub/internal/app/handlers/support"
	"programhub/internal/app/policies"
	"programhub/internal/app/queries"
	"programhub/internal/app/uow"
	"programhub/internal/domain/booking"
	domainlistings "programhub/internal/domain/listings"
	"programhub/internal/domain/publication"
	"programhub/internal/domain/shared/money"
)

const getListingPageKey = "listings.page"

// GetListingPageQuery loads the buyer-facing listing page.
type GetListingPageQuery struct {
	ListingID string
	ViewerID  string
	Locale    string
}

func (q GetListingPageQuery) Key() string { return getListingPageKey }

type GetListingPageHandler struct {
	UoWFactory uow.UoWFactory
	Pricing    policies.PricingPort
	Formatter  money.Formatter
	Fuzzer     policies.LocationFuzzer
	Locale     string
	Logger     *slog.Logger
}

func (h *GetListingPageHandler) Handle(ctx context.Context, q GetListingPageQuery) (dto.ListingPage, error) {
	if strings.TrimSpace(q.ListingID) == "" {
		return dto.ListingPage{}, domainlistings.ErrListingNotFound
	}
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ListingPage{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	listing, err := unit.Listings().ByID(execCtx, domainlistings.ListingID(q.ListingID))
	if err != nil {
		return dto.ListingPage{}, err
	}
	isOwn := q.ViewerID != "" && domainlistings.HostID(q.ViewerID) == listing.Host
	// drafts and listings awaiting approval are only shown to their host
	if !isOwn && listing.State != domainlistings.StatePublished && listing.State != domainlistings.StateClosed {
		return dto.ListingPage{}, domainlistings.ErrListingNotFound
	}

	quote, err := h.Pricing.Quote(execCtx, listing)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("listing pricing data inconsistent", "listing_id", listing.ID, "error", err)
		}
		return dto.ListingPage{}, err
	}
	status := publication.Classify(listing, false)
	decision := booking.Decide(quote, status, isOwn)

	locale := q.Locale
	if locale == "" {
		locale = h.Locale
	}
	page := dto.MapListingPage(listing)
	page.IsOwnListing = isOwn
	page.BookingPanel = dto.MapBookingPanel(quote, status, decision, h.Formatter, locale)
	page.Location = h.location(listing, isOwn)
	return page, nil
}

func (h *GetListingPageHandler) location(listing *domainlistings.Listing, isOwn bool) *dto.ListingLocation {
	if listing.Location == nil || !listing.PublicData.HasTeachingLocation(domainlistings.TeachingOnsite) {
		return nil
	}
	loc := &dto.ListingLocation{
		Address:  listing.Location.Address,
		Building: listing.Location.Building,
		Lat:      listing.Location.Lat,
		Lng:      listing.Location.Lng,
	}
	if h.Fuzzer != nil && !isOwn {
		loc.Lat, loc.Lng = h.Fuzzer.Fuzz(loc.Lat, loc.Lng)
		loc.Building = ""
		loc.Fuzzy = true
	}
	return loc
}

// IsNotFound reports whether err means the listing is missing or hidden.
func IsNotFound(err error) bool {
	return errors.Is(err, domainlistings.ErrListingNotFound) || errors.Is(err, ErrListingNotOwned)
}

var _ queries.Handler[GetListingPageQuery, dto.ListingPage] = (*GetListingPageHandler)(nil)
