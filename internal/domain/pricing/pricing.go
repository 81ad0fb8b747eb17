// Package pricing derives the buyer-facing total for a listing from its pricing option.
package pricing

import (
	"errors"
	"fmt"

	"programhub/internal/domain/listings"
	"programhub/internal/domain/shared/money"
)

var ErrInvalidPricingData = errors.New("pricing: invalid pricing data")

// Unit label translation keys.
const (
	LabelPerUnit             = "perUnit"
	LabelPerHour             = "perHour"
	LabelPerPackage          = "perPackage"
	LabelUnsupportedCurrency = "unsupportedCurrency"
)

// Quote is the derived price of a listing for display and booking.
type Quote struct {
	UnitPrice        money.Money            `json:"unit_price"`
	TotalPrice       money.Money            `json:"total_price"`
	UnitLabelKey     string                 `json:"unit_label_key"`
	PriceIsSupported bool                   `json:"price_is_supported"`
	PricingOption    listings.PricingOption `json:"pricing_option"`
}

// Resolve computes the quote for price under the given public data. An unsupported
// currency is reported through PriceIsSupported and never fails.
func Resolve(price money.Money, data listings.PublicData, configuredCurrency string) (Quote, error) {
	option := listings.ParsePricingOption(string(data.PricingOption))
	quote := Quote{UnitPrice: price, TotalPrice: price, PricingOption: option}
	if !price.IsSupported(configuredCurrency) {
		quote.UnitLabelKey = LabelUnsupportedCurrency
		return quote, nil
	}
	quote.PriceIsSupported = true
	switch option {
	case listings.PricingPerHour:
		if data.Hours == nil || *data.Hours <= 0 {
			return Quote{}, fmt.Errorf("%w: hourly pricing needs positive hours", ErrInvalidPricingData)
		}
		total, err := price.MultiplyChecked(int64(*data.Hours))
		if err != nil {
			return Quote{}, fmt.Errorf("%w: %w", ErrInvalidPricingData, err)
		}
		quote.TotalPrice = total
		quote.UnitLabelKey = LabelPerHour
	case listings.PricingPerPackage:
		if data.LimitedQuantity == nil || *data.LimitedQuantity <= 0 {
			return Quote{}, fmt.Errorf("%w: package pricing needs a positive limited quantity", ErrInvalidPricingData)
		}
		quote.UnitLabelKey = LabelPerPackage
	default:
		quote.UnitLabelKey = LabelPerUnit
	}
	return quote, nil
}

// ForListing resolves the quote of a stored listing.
func ForListing(listing *listings.Listing, configuredCurrency string) (Quote, error) {
	if listing == nil {
		return Quote{}, fmt.Errorf("%w: listing is nil", ErrInvalidPricingData)
	}
	return Resolve(listing.Price, listing.PublicData, configuredCurrency)
}
