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
	domainlistings "programhub/internal/domain/listings"
	"programhub/internal/domain/pricing"
	"programhub/internal/domain/publication"
	"programhub/internal/domain/shared/money"
)

const (
	listHostListingsKey = "host.listings.list"
	listingEditorKey    = "host.listings.editor"

	PricingPanelTitle       = "EditProgramPricingPanel.title"
	PricingPanelCreateTitle = "EditProgramPricingPanel.createListingTitle"
)

type ListHostListingsQuery struct {
	HostID string
	States []string
	Limit  int
	Offset int
}

func (q ListHostListingsQuery) Key() string { return listHostListingsKey }

func (q ListHostListingsQuery) RequiredRole() string { return policies.RoleHost }

type ListHostListingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListHostListingsHandler) Handle(ctx context.Context, q ListHostListingsQuery) (dto.HostListingCollection, error) {
	if strings.TrimSpace(q.HostID) == "" {
		return dto.HostListingCollection{}, errors.New("host id is required")
	}
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.HostListingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	params := domainlistings.SearchParams{
		Host:   domainlistings.HostID(q.HostID),
		Sort:   domainlistings.SortByUpdated,
		Limit:  q.Limit,
		Offset: q.Offset,
	}
	for _, raw := range q.States {
		params.States = append(params.States, domainlistings.ListingState(raw))
	}
	result, err := unit.Listings().Search(execCtx, params.Normalized())
	if err != nil {
		return dto.HostListingCollection{}, err
	}
	out := dto.HostListingCollection{Items: make([]dto.HostListingSummary, 0, len(result.Items)), Total: result.Total}
	for _, listing := range result.Items {
		out.Items = append(out.Items, dto.MapHostListingSummary(listing))
	}
	return out, nil
}

// GetListingEditorQuery loads the wizard state of one listing. IsNewListingFlow is
// true when the host came through the new or draft route.
type GetListingEditorQuery struct {
	HostID           string
	ListingID        string
	Tab              string
	IsNewListingFlow bool
}

func (q GetListingEditorQuery) Key() string { return listingEditorKey }

func (q GetListingEditorQuery) RequiredRole() string { return policies.RoleHost }

type GetListingEditorHandler struct {
	UoWFactory uow.UoWFactory
	Pricing    policies.PricingPort
	Formatter  money.Formatter
	Locale     string
	Logger     *slog.Logger
}

func (h *GetListingEditorHandler) Handle(ctx context.Context, q GetListingEditorQuery) (dto.ListingEditor, error) {
	tab := publication.TabGeneral
	if q.Tab != "" {
		parsed, ok := publication.ParseTab(q.Tab)
		if !ok {
			return dto.ListingEditor{}, ErrUnknownTab
		}
		tab = parsed
	}
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ListingEditor{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	listing, err := loadOwned(execCtx, unit, q.HostID, q.ListingID)
	if err != nil {
		return dto.ListingEditor{}, err
	}
	return buildEditor(listing, tab, q.IsNewListingFlow, h.Pricing.Currency(), h.Formatter, h.Locale), nil
}

func buildEditor(listing *domainlistings.Listing, tab publication.Tab, isNewListingFlow bool, currency string, formatter money.Formatter, locale string) dto.ListingEditor {
	status := publication.Classify(listing, isNewListingFlow)
	editor := dto.ListingEditor{
		Listing: dto.MapHostListingDetail(listing),
		Status:  status,
		Tab:     string(tab),
		NextTab: string(publication.NextTab(tab)),
		Tabs:    make([]string, 0, len(publication.Tabs)),
		Pricing: pricingPanel(listing, currency, formatter, locale),
	}
	for _, t := range publication.Tabs {
		editor.Tabs = append(editor.Tabs, string(t))
	}
	if target, ok := publication.RedirectFor(listing, status); ok {
		editor.Redirect = &target
	}
	return editor
}

func pricingPanel(listing *domainlistings.Listing, currency string, formatter money.Formatter, locale string) dto.PricingPanel {
	panel := dto.PricingPanel{
		TitleKey:      PricingPanelCreateTitle,
		Currency:      currency,
		CurrencyValid: true,
	}
	if listing.ID != "" && listing.State != domainlistings.StateDraft {
		panel.TitleKey = PricingPanelTitle
	}
	if listing.Price.Currency == "" {
		return panel
	}
	panel.CurrencyValid = listing.Price.IsSupported(currency)
	quote, err := pricing.ForListing(listing, currency)
	if err != nil {
		panel.InvalidDataError = err.Error()
		return panel
	}
	panel.TotalPreview = dto.MapMoney(quote.TotalPrice, formatter, locale)
	panel.UnitLabelKey = quote.UnitLabelKey
	return panel
}

func loadOwned(ctx context.Context, unit uow.UnitOfWork, hostID, listingID string) (*domainlistings.Listing, error) {
	if strings.TrimSpace(hostID) == "" {
		return nil, errors.New("host id is required")
	}
	if strings.TrimSpace(listingID) == "" {
		return nil, errors.New("listing id is required")
	}
	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(listingID))
	if err != nil {
		return nil, err
	}
	if listing.Host != domainlistings.HostID(hostID) {
		return nil, ErrListingNotOwned
	}
	return listing, nil
}

var (
	_ queries.Handler[ListHostListingsQuery, dto.HostListingCollection] = (*ListHostListingsHandler)(nil)
	_ queries.Handler[GetListingEditorQuery, dto.ListingEditor]         = (*GetListingEditorHandler)(nil)
)
