package listings

import (
	"strings"

	"programhub/internal/domain/filterparams"
)

// CatalogSort defines a supported ordering.
type CatalogSort string

const (
	SortByPriceAsc  CatalogSort = "price_asc"
	SortByPriceDesc CatalogSort = "price_desc"
	SortByNewest    CatalogSort = "newest"
	SortByUpdated   CatalogSort = "updated"

	defaultSearchLimit = 24
	maxSearchLimit     = 60
)

// SearchParams describe catalog filters and paging options.
type SearchParams struct {
	Host              HostID
	States            []ListingState
	PricingOptions    []PricingOption
	Hours             *filterparams.Range
	TeachingLocations filterparams.Selection
	Keywords          string
	Sort              CatalogSort
	Limit             int
	Offset            int
	OnlyPublished     bool
}

// Normalized returns a sanitized copy of params.
func (p SearchParams) Normalized() SearchParams {
	normalized := p
	normalized.Keywords = strings.TrimSpace(strings.ToLower(normalized.Keywords))
	normalized.States = normalizeStates(normalized.States)
	normalized.PricingOptions = normalizePricingOptions(normalized.PricingOptions)
	if normalized.Hours != nil && !normalized.Hours.Valid() {
		normalized.Hours = nil
	}
	normalized.TeachingLocations.Keys = NormalizeTeachingLocations(normalized.TeachingLocations.Keys)
	if normalized.OnlyPublished {
		normalized.States = []ListingState{StatePublished}
	}
	if normalized.Limit <= 0 {
		normalized.Limit = defaultSearchLimit
	}
	if normalized.Limit > maxSearchLimit {
		normalized.Limit = maxSearchLimit
	}
	if normalized.Offset < 0 {
		normalized.Offset = 0
	}
	switch normalized.Sort {
	case SortByPriceAsc, SortByPriceDesc, SortByNewest, SortByUpdated:
	default:
		normalized.Sort = SortByNewest
	}
	return normalized
}

// Matches reports whether listing passes every filter of p. Call it on normalized params.
func (p SearchParams) Matches(listing *Listing) bool {
	if listing == nil {
		return false
	}
	if p.Host != "" && listing.Host != p.Host {
		return false
	}
	if len(p.States) > 0 && !containsState(p.States, listing.State) {
		return false
	}
	if len(p.PricingOptions) > 0 && !containsPricingOption(p.PricingOptions, listing.PublicData.PricingOption) {
		return false
	}
	if p.Hours != nil {
		if listing.PublicData.Hours == nil || !p.Hours.Contains(*listing.PublicData.Hours) {
			return false
		}
	}
	if !p.TeachingLocations.Matches(listing.PublicData.TeachingLocations) {
		return false
	}
	if p.Keywords != "" && !matchesKeywords(listing, p.Keywords) {
		return false
	}
	return true
}

func matchesKeywords(listing *Listing, keywords string) bool {
	haystack := strings.ToLower(listing.Title + " " + listing.Description + " " + listing.PublicData.Category + " " + strings.Join(listing.PublicData.Tags, " "))
	for _, word := range strings.Fields(keywords) {
		if !strings.Contains(haystack, word) {
			return false
		}
	}
	return true
}

func normalizeStates(values []ListingState) []ListingState {
	if len(values) == 0 {
		return nil
	}
	out := make([]ListingState, 0, len(values))
	for _, value := range values {
		state, ok := ParseState(string(value))
		if !ok || containsState(out, state) {
			continue
		}
		out = append(out, state)
	}
	return out
}

func normalizePricingOptions(values []PricingOption) []PricingOption {
	if len(values) == 0 {
		return nil
	}
	out := make([]PricingOption, 0, len(values))
	for _, value := range values {
		option := ParsePricingOption(string(value))
		if containsPricingOption(out, option) {
			continue
		}
		out = append(out, option)
	}
	return out
}

func containsState(values []ListingState, state ListingState) bool {
	for _, v := range values {
		if v == state {
			return true
		}
	}
	return false
}

func containsPricingOption(values []PricingOption, option PricingOption) bool {
	for _, v := range values {
		if v == option {
			return true
		}
	}
	return false
}

// SearchResult wraps search hits with meta.
type SearchResult struct {
	Items []*Listing
	Total int
}
