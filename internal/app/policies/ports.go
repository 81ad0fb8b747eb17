package policies

import (
	"context"

	domainlistings "programhub/internal/domain/listings"
	"programhub/internal/domain/pricing"
)

// Notifier tells a user about something that happened to their listing or booking.
type Notifier interface {
	Send(ctx context.Context, to string, template string, data any) error
}

// PricingPort quotes listings in the marketplace currency.
type PricingPort interface {
	Quote(ctx context.Context, listing *domainlistings.Listing) (pricing.Quote, error)
	Currency() string
}

// MarketplacePricing resolves quotes against one configured currency.
type MarketplacePricing struct {
	ConfiguredCurrency string
}

func (p MarketplacePricing) Quote(_ context.Context, listing *domainlistings.Listing) (pricing.Quote, error) {
	return pricing.ForListing(listing, p.ConfiguredCurrency)
}

func (p MarketplacePricing) Currency() string {
	return p.ConfiguredCurrency
}

// PhotoUploader stores listing photos and returns their public URL.
type PhotoUploader interface {
	Upload(ctx context.Context, objectName string, data []byte, contentType string) (string, error)
}

// LocationFuzzer hides the exact coordinates of onsite programs.
type LocationFuzzer interface {
	Fuzz(lat, lng float64) (float64, float64)
}

var _ PricingPort = MarketplacePricing{}
