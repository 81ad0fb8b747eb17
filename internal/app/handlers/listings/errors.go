package listings

import "errors"

var (
	ErrListingNotOwned     = errors.New("listings: listing not found for host")
	ErrUnsupportedCurrency = errors.New("listings: price currency is not supported by the marketplace")
	ErrPriceBelowMinimum   = errors.New("listings: price is below the marketplace minimum")
	ErrUnknownTab          = errors.New("listings: unknown wizard tab")
	ErrEmptyPhoto          = errors.New("listings: photo is empty")
)
