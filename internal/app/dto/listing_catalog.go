package dto

import (
	domainlistings "programhub/internal/domain/listings"
	"programhub/internal/domain/pricing"
	"programhub/internal/domain/shared/money"
)

type ListingCard struct {
	ID                string   `json:"id"`
	Slug              string   `json:"slug"`
	Title             string   `json:"title"`
	Category          string   `json:"category,omitempty"`
	Difficulty        string   `json:"difficulty,omitempty"`
	PricingOption     string   `json:"pricing_option"`
	Hours             *int     `json:"hours,omitempty"`
	TeachingLocations []string `json:"teaching_locations"`
	ThumbnailURL      string   `json:"thumbnail_url,omitempty"`
	Price             MoneyDTO `json:"price"`
	TotalPrice        MoneyDTO `json:"total_price"`
	UnitLabelKey      string   `json:"unit_label_key"`
	PriceIsSupported  bool     `json:"price_is_supported"`
}

func MapListingCard(listing *domainlistings.Listing, quote pricing.Quote, formatter money.Formatter, locale string) ListingCard {
	card := ListingCard{
		ID:                string(listing.ID),
		Slug:              domainlistings.Slug(listing.Title),
		Title:             listing.Title,
		Category:          listing.PublicData.Category,
		Difficulty:        string(listing.PublicData.Difficulty),
		PricingOption:     string(listing.PublicData.PricingOption),
		Hours:             listing.PublicData.Hours,
		TeachingLocations: nonNil(listing.PublicData.TeachingLocations),
		Price:             MapMoney(quote.UnitPrice, formatter, locale),
		TotalPrice:        MapMoney(quote.TotalPrice, formatter, locale),
		UnitLabelKey:      quote.UnitLabelKey,
		PriceIsSupported:  quote.PriceIsSupported,
	}
	if len(listing.Photos) > 0 {
		card.ThumbnailURL = listing.Photos[0]
	}
	return card
}

// CatalogFilters echoes applied filters as encoded query parameter values.
type CatalogFilters struct {
	Hours            string `json:"pub_hours,omitempty"`
	TeachingLocation string `json:"pub_teachingLocation,omitempty"`
	Keywords         string `json:"keywords,omitempty"`
	Query            string `json:"query"`
}

type ListingCatalog struct {
	Items   []ListingCard  `json:"items"`
	Total   int            `json:"total"`
	Limit   int            `json:"limit"`
	Offset  int            `json:"offset"`
	Filters CatalogFilters `json:"filters"`
}
