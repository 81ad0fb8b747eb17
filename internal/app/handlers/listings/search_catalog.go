package listings

import (
	"context"
	"errors"
	"log/slog"
	"net/url"

	"programhub/internal/app/dto"
	"programhub/internal/app/handlers/support"
	"programhub/internal/app/policies"
	"programhub/internal/app/queries"
	"programhub/internal/app/uow"
	"programhub/internal/domain/filterparams"
	domainlistings "programhub/internal/domain/listings"
	"programhub/internal/domain/pricing"
	"programhub/internal/domain/shared/money"
)

const searchCatalogKey = "listings.catalog"

// Query parameter names shared with the web client.
const (
	ParamHours            = "pub_hours"
	ParamTeachingLocation = "pub_teachingLocation"
	ParamKeywords         = "keywords"
)

// SearchCatalogQuery carries raw filter parameter values; malformed values mean no filter.
type SearchCatalogQuery struct {
	Hours            string
	TeachingLocation string
	PricingOptions   []string
	Keywords         string
	Sort             string
	Limit            int
	Offset           int
	Locale           string
}

func (q SearchCatalogQuery) Key() string { return searchCatalogKey }

type SearchCatalogHandler struct {
	UoWFactory uow.UoWFactory
	Pricing    policies.PricingPort
	Formatter  money.Formatter
	Locale     string
	Logger     *slog.Logger
}

func (h *SearchCatalogHandler) Handle(ctx context.Context, q SearchCatalogQuery) (dto.ListingCatalog, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ListingCatalog{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	params := domainlistings.SearchParams{
		TeachingLocations: filterparams.DecodeSelection(q.TeachingLocation),
		Keywords:          q.Keywords,
		Sort:              domainlistings.CatalogSort(q.Sort),
		Limit:             q.Limit,
		Offset:            q.Offset,
		OnlyPublished:     true,
	}
	if hours, ok := filterparams.DecodeRange(q.Hours); ok {
		params.Hours = &hours
	}
	for _, raw := range q.PricingOptions {
		params.PricingOptions = append(params.PricingOptions, domainlistings.PricingOption(raw))
	}
	params = params.Normalized()

	result, err := unit.Listings().Search(execCtx, params)
	if err != nil {
		return dto.ListingCatalog{}, err
	}

	locale := q.Locale
	if locale == "" {
		locale = h.Locale
	}
	catalog := dto.ListingCatalog{
		Items:   make([]dto.ListingCard, 0, len(result.Items)),
		Total:   result.Total,
		Limit:   params.Limit,
		Offset:  params.Offset,
		Filters: appliedFilters(params),
	}
	for _, listing := range result.Items {
		quote, err := h.Pricing.Quote(execCtx, listing)
		if err != nil {
			if errors.Is(err, pricing.ErrInvalidPricingData) {
				if h.Logger != nil {
					h.Logger.Warn("catalog skipped listing with inconsistent pricing", "listing_id", listing.ID, "error", err)
				}
				// Total counts rows the catalog can show.
				catalog.Total--
				continue
			}
			return dto.ListingCatalog{}, err
		}
		catalog.Items = append(catalog.Items, dto.MapListingCard(listing, quote, h.Formatter, locale))
	}
	return catalog, nil
}

// appliedFilters re-encodes the normalized filters so clients can rebuild their URL.
func appliedFilters(params domainlistings.SearchParams) dto.CatalogFilters {
	values := url.Values{}
	filterparams.EncodeRange(params.Hours, ParamHours).Apply(values)
	filterparams.EncodeSelection(params.TeachingLocations.Keys, ParamTeachingLocation, params.TeachingLocations.Mode).Apply(values)
	if params.Keywords != "" {
		values.Set(ParamKeywords, params.Keywords)
	}
	return dto.CatalogFilters{
		Hours:            values.Get(ParamHours),
		TeachingLocation: values.Get(ParamTeachingLocation),
		Keywords:         values.Get(ParamKeywords),
		Query:            values.Encode(),
	}
}

var _ queries.Handler[SearchCatalogQuery, dto.ListingCatalog] = (*SearchCatalogHandler)(nil)
