package dto

import (
	"time"

	"programhub/internal/domain/booking"
	domainlistings "programhub/internal/domain/listings"
	"programhub/internal/domain/pricing"
	"programhub/internal/domain/publication"
	"programhub/internal/domain/shared/money"
)

const SubTitleClosedListing = "subTitleClosedListing"

// ListingLocation is the public location of an onsite program. Coordinates are
// fuzzed unless the viewer owns the listing.
type ListingLocation struct {
	Address  string  `json:"address,omitempty"`
	Building string  `json:"building,omitempty"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Fuzzy    bool    `json:"fuzzy"`
}

// BookingPanel carries everything the buyer-facing booking panel renders.
type BookingPanel struct {
	FormattedPrice   string           `json:"formatted_price"`
	PriceTitle       string           `json:"price_title"`
	UnitPrice        MoneyDTO         `json:"unit_price"`
	TotalPrice       MoneyDTO         `json:"total_price"`
	UnitLabelKey     string           `json:"unit_label_key"`
	PriceIsSupported bool             `json:"price_is_supported"`
	ShowBookingForm  bool             `json:"show_booking_form"`
	SubTitleKey      string           `json:"sub_title_key,omitempty"`
	HelpTextKey      string           `json:"help_text_key,omitempty"`
	Decision         booking.Decision `json:"decision"`
}

// MapBookingPanel combines the quote, the status and the gate decision.
func MapBookingPanel(quote pricing.Quote, status publication.Status, decision booking.Decision, formatter money.Formatter, locale string) BookingPanel {
	panel := BookingPanel{
		UnitPrice:        MapMoney(quote.UnitPrice, formatter, locale),
		TotalPrice:       MapMoney(quote.TotalPrice, formatter, locale),
		UnitLabelKey:     quote.UnitLabelKey,
		PriceIsSupported: quote.PriceIsSupported,
		ShowBookingForm:  decision.CanOpenBookingModal,
		HelpTextKey:      status.HelpTextKey,
		Decision:         decision,
	}
	if quote.PriceIsSupported {
		panel.FormattedPrice = panel.UnitPrice.Formatted
		panel.PriceTitle = panel.UnitPrice.Formatted
	} else {
		panel.FormattedPrice = "(" + quote.UnitPrice.Currency + ")"
		panel.PriceTitle = pricing.LabelUnsupportedCurrency
	}
	if status.IsClosed {
		panel.SubTitleKey = SubTitleClosedListing
	}
	return panel
}

type ListingPage struct {
	ID                string           `json:"id"`
	Slug              string           `json:"slug"`
	HostID            string           `json:"host_id"`
	Title             string           `json:"title"`
	Description       string           `json:"description"`
	State             string           `json:"state"`
	Category          string           `json:"category,omitempty"`
	Tags              []string         `json:"tags"`
	Difficulty        string           `json:"difficulty,omitempty"`
	PricingOption     string           `json:"pricing_option"`
	Hours             *int             `json:"hours,omitempty"`
	IsCustomHour      bool             `json:"is_custom_hour"`
	LimitedQuantity   *int             `json:"limited_quantity,omitempty"`
	TeachingLocations []string         `json:"teaching_locations"`
	Location          *ListingLocation `json:"location,omitempty"`
	Photos            []string         `json:"photos"`
	IsOwnListing      bool             `json:"is_own_listing"`
	BookingPanel      BookingPanel     `json:"booking_panel"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// MapListingPage copies public listing attributes; callers fill Location and BookingPanel.
func MapListingPage(listing *domainlistings.Listing) ListingPage {
	if listing == nil {
		return ListingPage{}
	}
	return ListingPage{
		ID:                string(listing.ID),
		Slug:              domainlistings.Slug(listing.Title),
		HostID:            string(listing.Host),
		Title:             listing.Title,
		Description:       listing.Description,
		State:             string(listing.State),
		Category:          listing.PublicData.Category,
		Tags:              nonNil(listing.PublicData.Tags),
		Difficulty:        string(listing.PublicData.Difficulty),
		PricingOption:     string(listing.PublicData.PricingOption),
		Hours:             listing.PublicData.Hours,
		IsCustomHour:      listing.PublicData.IsCustomHour,
		LimitedQuantity:   listing.PublicData.LimitedQuantity,
		TeachingLocations: nonNil(listing.PublicData.TeachingLocations),
		Photos:            nonNil(listing.Photos),
		UpdatedAt:         listing.UpdatedAt,
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return append([]string(nil), values...)
}
