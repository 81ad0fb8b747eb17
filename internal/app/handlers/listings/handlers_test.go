package listings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"programhub/internal/app/commands"
	"programhub/internal/app/dto"
	"programhub/internal/app/middleware"
	"programhub/internal/app/policies"
	"programhub/internal/app/queries"
	domainbooking "programhub/internal/domain/booking"
	domainlistings "programhub/internal/domain/listings"
	"programhub/internal/domain/pricing"
	"programhub/internal/domain/publication"
	"programhub/internal/domain/shared/money"
	"programhub/internal/infra/storage/memory"
)

type harness struct {
	commands commands.Bus
	queries  queries.Bus
	repo     *memory.ListingRepository
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	repo := memory.NewListingRepository()
	box := memory.NewOutbox(nil)
	factory := memory.Factory{ListingsRepo: repo, BookingRepo: memory.NewBookingRepository(), Outbox: box}
	pricingPort := policies.MarketplacePricing{ConfiguredCurrency: "USD"}
	settings := ListingSettings{MinPriceSubunits: 100}

	cmdBus := commands.NewInMemoryBus()
	commands.RegisterHandler[CreateDraftCommand, *EditorResult](cmdBus, &CreateDraftHandler{Pricing: pricingPort, Settings: settings, Outbox: box})
	commands.RegisterHandler[UpdateListingCommand, *EditorResult](cmdBus, &UpdateListingHandler{Pricing: pricingPort, Settings: settings, Outbox: box})
	commands.RegisterHandler[SubmitListingCommand, *EditorResult](cmdBus, &SubmitListingHandler{Pricing: pricingPort, Settings: settings, Outbox: box})
	commands.RegisterHandler[CloseListingCommand, *dto.HostListingDetail](cmdBus, &CloseListingHandler{Outbox: box})
	commands.RegisterHandler[ApproveListingCommand, *dto.HostListingDetail](cmdBus, &ApproveListingHandler{Outbox: box})
	commands.RegisterHandler[UploadPhotoCommand, *dto.HostListingPhotoUploadResult](cmdBus, &UploadPhotoHandler{Uploader: fakeUploader{}, Outbox: box})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler[GetListingPageQuery, dto.ListingPage](queryBus, &GetListingPageHandler{UoWFactory: factory, Pricing: pricingPort, Fuzzer: halfFuzzer{}})
	queries.RegisterHandler[SearchCatalogQuery, dto.ListingCatalog](queryBus, &SearchCatalogHandler{UoWFactory: factory, Pricing: pricingPort})
	queries.RegisterHandler[ListHostListingsQuery, dto.HostListingCollection](queryBus, &ListHostListingsHandler{UoWFactory: factory})
	queries.RegisterHandler[GetListingEditorQuery, dto.ListingEditor](queryBus, &GetListingEditorHandler{UoWFactory: factory, Pricing: pricingPort})

	return &harness{
		commands: middleware.ChainCommands(cmdBus,
			middleware.Authorization(policies.RoleAuthorizer{}),
			middleware.OutboxFlush(box, nil),
			middleware.Transaction(factory, nil),
		),
		queries: middleware.ChainQueries(queryBus, middleware.QueryAuthorization(policies.RoleAuthorizer{})),
		repo:    repo,
	}
}

type fakeUploader struct{}

func (fakeUploader) Upload(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
	return "https://cdn.test/" + objectName, nil
}

type halfFuzzer struct{}

func (halfFuzzer) Fuzz(lat, lng float64) (float64, float64) { return lat / 2, lng / 2 }

func as(id string, roles ...string) context.Context {
	return policies.WithActor(context.Background(), policies.Actor{ID: id, Roles: roles})
}

var hostCtx = as("host-1", policies.RoleHost)

func (h *harness) createPublishable(t *testing.T) string {
	t.Helper()
	created, err := commands.Dispatch[CreateDraftCommand, *EditorResult](hostCtx, h.commands, CreateDraftCommand{
		HostID:  "host-1",
		General: GeneralPayload{Title: "Watercolor basics", Category: "art", Tags: []string{"painting"}},
	})
	require.NoError(t, err)
	id := created.Editor.Listing.ID

	_, err = commands.Dispatch[UpdateListingCommand, *EditorResult](hostCtx, h.commands, UpdateListingCommand{
		HostID: "host-1", ListingID: id, Tab: "location",
		Location: &LocationPayload{TeachingLocations: []string{"onsite"}, Address: "1 Main St", Building: "B2", Lat: 50, Lng: 10},
	})
	require.NoError(t, err)
	_, err = commands.Dispatch[UpdateListingCommand, *EditorResult](hostCtx, h.commands, UpdateListingCommand{
		HostID: "host-1", ListingID: id, Tab: "pricing",
		Pricing: &PricingPayload{Amount: 500, Currency: "USD", PricingOption: "hourly", Hours: domainlistings.IntPtr(3)},
	})
	require.NoError(t, err)
	return id
}

func TestCreateDraftRequiresHostRole(t *testing.T) {
	h := newHarness(t)
	cmd := CreateDraftCommand{HostID: "u1", General: GeneralPayload{Title: "Yoga"}}

	_, err := commands.Dispatch[CreateDraftCommand, *EditorResult](context.Background(), h.commands, cmd)
	assert.ErrorIs(t, err, policies.ErrUnauthenticated)
	_, err = commands.Dispatch[CreateDraftCommand, *EditorResult](as("u1"), h.commands, cmd)
	assert.ErrorIs(t, err, policies.ErrForbidden)
}

func TestWizardFlow(t *testing.T) {
	h := newHarness(t)
	created, err := commands.Dispatch[CreateDraftCommand, *EditorResult](hostCtx, h.commands, CreateDraftCommand{
		HostID:  "host-1",
		General: GeneralPayload{Title: "Watercolor basics"},
	})
	require.NoError(t, err)
	editor := created.Editor
	assert.True(t, editor.Status.IsDraft)
	assert.Nil(t, editor.Redirect)
	assert.Equal(t, PricingPanelCreateTitle, editor.Pricing.TitleKey)
	id := editor.Listing.ID

	located, err := commands.Dispatch[UpdateListingCommand, *EditorResult](hostCtx, h.commands, UpdateListingCommand{
		HostID: "host-1", ListingID: id, Tab: "location", IsNewListingFlow: true,
		Location: &LocationPayload{TeachingLocations: []string{"online"}, Address: "ignored"},
	})
	require.NoError(t, err)
	assert.Equal(t, string(publication.TabPricing), located.Editor.NextTab)
	assert.Nil(t, located.Editor.Listing.Location)

	pricingCmd := UpdateListingCommand{HostID: "host-1", ListingID: id, Tab: "pricing", IsNewListingFlow: true}
	pricingCmd.Pricing = &PricingPayload{Amount: 500, Currency: "EUR"}
	_, err = commands.Dispatch[UpdateListingCommand, *EditorResult](hostCtx, h.commands, pricingCmd)
	assert.ErrorIs(t, err, ErrUnsupportedCurrency)

	pricingCmd.Pricing = &PricingPayload{Amount: 50, Currency: "USD"}
	_, err = commands.Dispatch[UpdateListingCommand, *EditorResult](hostCtx, h.commands, pricingCmd)
	assert.ErrorIs(t, err, ErrPriceBelowMinimum)

	pricingCmd.Pricing = &PricingPayload{Amount: 500, Currency: "USD", PricingOption: "hourly", Hours: domainlistings.IntPtr(3)}
	priced, err := commands.Dispatch[UpdateListingCommand, *EditorResult](hostCtx, h.commands, pricingCmd)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), priced.Editor.Pricing.TotalPreview.Amount)
	assert.Equal(t, pricing.LabelPerHour, priced.Editor.Pricing.UnitLabelKey)
	assert.Equal(t, string(publication.TabAvailability), priced.Editor.NextTab)

	submitted, err := commands.Dispatch[SubmitListingCommand, *EditorResult](hostCtx, h.commands, SubmitListingCommand{HostID: "host-1", ListingID: id})
	require.NoError(t, err)
	assert.Equal(t, string(domainlistings.StatePendingApproval), submitted.Editor.Listing.State)
	require.NotNil(t, submitted.Editor.Redirect)
	assert.Equal(t, publication.VariantPendingApproval, submitted.Editor.Redirect.Variant)
	assert.Equal(t, PricingPanelTitle, submitted.Editor.Pricing.TitleKey)
}

func TestUpdateRejectsOtherHostsAndUnknownTabs(t *testing.T) {
	h := newHarness(t)
	id := h.createPublishable(t)

	_, err := commands.Dispatch[UpdateListingCommand, *EditorResult](as("host-2", policies.RoleHost), h.commands, UpdateListingCommand{
		HostID: "host-2", ListingID: id, Tab: "general", General: &GeneralPayload{Title: "mine"},
	})
	assert.ErrorIs(t, err, ErrListingNotOwned)

	_, err = commands.Dispatch[UpdateListingCommand, *EditorResult](hostCtx, h.commands, UpdateListingCommand{
		HostID: "host-1", ListingID: id, Tab: "reviews",
	})
	assert.ErrorIs(t, err, ErrUnknownTab)
}

func TestPublicationLifecycleDrivesListingPage(t *testing.T) {
	h := newHarness(t)
	id := h.createPublishable(t)
	_, err := commands.Dispatch[SubmitListingCommand, *EditorResult](hostCtx, h.commands, SubmitListingCommand{HostID: "host-1", ListingID: id})
	require.NoError(t, err)

	buyerCtx := as("buyer-1")
	_, err = queries.Ask[GetListingPageQuery, dto.ListingPage](buyerCtx, h.queries, GetListingPageQuery{ListingID: id, ViewerID: "buyer-1"})
	assert.True(t, IsNotFound(err))

	ownPage, err := queries.Ask[GetListingPageQuery, dto.ListingPage](hostCtx, h.queries, GetListingPageQuery{ListingID: id, ViewerID: "host-1"})
	require.NoError(t, err)
	assert.True(t, ownPage.IsOwnListing)
	assert.False(t, ownPage.BookingPanel.ShowBookingForm)
	assert.Equal(t, domainbooking.CTAOwnListing, ownPage.BookingPanel.Decision.CTAKey)
	require.NotNil(t, ownPage.Location)
	assert.False(t, ownPage.Location.Fuzzy)

	_, err = commands.Dispatch[ApproveListingCommand, *dto.HostListingDetail](hostCtx, h.commands, ApproveListingCommand{ListingID: id})
	assert.ErrorIs(t, err, policies.ErrForbidden)
	approved, err := commands.Dispatch[ApproveListingCommand, *dto.HostListingDetail](as("admin-1", policies.RoleAdmin), h.commands, ApproveListingCommand{ListingID: id, ReviewerID: "admin-1"})
	require.NoError(t, err)
	assert.Equal(t, string(domainlistings.StatePublished), approved.State)

	page, err := queries.Ask[GetListingPageQuery, dto.ListingPage](buyerCtx, h.queries, GetListingPageQuery{ListingID: id, ViewerID: "buyer-1"})
	require.NoError(t, err)
	assert.Equal(t, "watercolor-basics", page.Slug)
	assert.True(t, page.BookingPanel.ShowBookingForm)
	assert.Equal(t, domainbooking.CTABook, page.BookingPanel.Decision.CTAKey)
	assert.Equal(t, int64(1500), page.BookingPanel.TotalPrice.Amount)
	require.NotNil(t, page.Location)
	assert.True(t, page.Location.Fuzzy)
	assert.Equal(t, 25.0, page.Location.Lat)
	assert.Empty(t, page.Location.Building)

	_, err = commands.Dispatch[CloseListingCommand, *dto.HostListingDetail](hostCtx, h.commands, CloseListingCommand{HostID: "host-1", ListingID: id, Reason: "season over"})
	require.NoError(t, err)
	closed, err := queries.Ask[GetListingPageQuery, dto.ListingPage](buyerCtx, h.queries, GetListingPageQuery{ListingID: id})
	require.NoError(t, err)
	assert.False(t, closed.BookingPanel.ShowBookingForm)
	assert.Equal(t, domainbooking.CTAClosedListing, closed.BookingPanel.Decision.CTAKey)
	assert.Equal(t, publication.HelpTextClosedListing, closed.BookingPanel.HelpTextKey)
	assert.Equal(t, dto.SubTitleClosedListing, closed.BookingPanel.SubTitleKey)
}

func TestSearchCatalogFilters(t *testing.T) {
	h := newHarness(t)
	id := h.createPublishable(t)
	ctx := context.Background()

	catalog, err := queries.Ask[SearchCatalogQuery, dto.ListingCatalog](ctx, h.queries, SearchCatalogQuery{})
	require.NoError(t, err)
	assert.Empty(t, catalog.Items)

	_, err = commands.Dispatch[SubmitListingCommand, *EditorResult](hostCtx, h.commands, SubmitListingCommand{HostID: "host-1", ListingID: id})
	require.NoError(t, err)
	_, err = commands.Dispatch[ApproveListingCommand, *dto.HostListingDetail](as("admin-1", policies.RoleAdmin), h.commands, ApproveListingCommand{ListingID: id})
	require.NoError(t, err)

	catalog, err = queries.Ask[SearchCatalogQuery, dto.ListingCatalog](ctx, h.queries, SearchCatalogQuery{Hours: "1,3", TeachingLocation: "has_any:onsite,online"})
	require.NoError(t, err)
	require.Len(t, catalog.Items, 1)
	assert.Equal(t, "1,3", catalog.Filters.Hours)
	assert.Equal(t, "has_any:onsite,online", catalog.Filters.TeachingLocation)

	catalog, err = queries.Ask[SearchCatalogQuery, dto.ListingCatalog](ctx, h.queries, SearchCatalogQuery{Hours: "4,8"})
	require.NoError(t, err)
	assert.Empty(t, catalog.Items)

	catalog, err = queries.Ask[SearchCatalogQuery, dto.ListingCatalog](ctx, h.queries, SearchCatalogQuery{Hours: "garbage", Keywords: "WATERCOLOR"})
	require.NoError(t, err)
	assert.Len(t, catalog.Items, 1)
	assert.Empty(t, catalog.Filters.Hours)
}

func TestCatalogSkipsInconsistentPricing(t *testing.T) {
	h := newHarness(t)
	broken, err := domainlistings.NewDraft(domainlistings.CreateDraftParams{ID: "broken", Host: "host-9", Title: "Broken"})
	require.NoError(t, err)
	broken.State = domainlistings.StatePublished
	broken.Price = money.Must(100, "USD")
	broken.PublicData.PricingOption = domainlistings.PricingPerHour
	require.NoError(t, h.repo.Save(context.Background(), broken))

	catalog, err := queries.Ask[SearchCatalogQuery, dto.ListingCatalog](context.Background(), h.queries, SearchCatalogQuery{})
	require.NoError(t, err)
	assert.Equal(t, 0, catalog.Total)
	assert.Empty(t, catalog.Items)
}

func TestHostQueriesAndPhotos(t *testing.T) {
	h := newHarness(t)
	id := h.createPublishable(t)

	uploaded, err := commands.Dispatch[UploadPhotoCommand, *dto.HostListingPhotoUploadResult](hostCtx, h.commands, UploadPhotoCommand{
		HostID: "host-1", ListingID: id, FileName: "Cover.JPG", ContentType: "image/jpeg", Data: []byte{1, 2, 3},
	})
	require.NoError(t, err)
	assert.Contains(t, uploaded.URL, "listings/"+id+"/")
	assert.Contains(t, uploaded.URL, ".jpg")
	assert.Len(t, uploaded.Photos, 1)

	_, err = commands.Dispatch[UploadPhotoCommand, *dto.HostListingPhotoUploadResult](hostCtx, h.commands, UploadPhotoCommand{HostID: "host-1", ListingID: id})
	assert.ErrorIs(t, err, ErrEmptyPhoto)

	list, err := queries.Ask[ListHostListingsQuery, dto.HostListingCollection](hostCtx, h.queries, ListHostListingsQuery{HostID: "host-1", States: []string{"draft"}})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, uploaded.URL, list.Items[0].ThumbnailURL)

	editor, err := queries.Ask[GetListingEditorQuery, dto.ListingEditor](hostCtx, h.queries, GetListingEditorQuery{HostID: "host-1", ListingID: id, Tab: "pricing"})
	require.NoError(t, err)
	assert.Equal(t, "pricing", editor.Tab)
	assert.Equal(t, "availability", editor.NextTab)
	assert.True(t, editor.Pricing.CurrencyValid)

	_, err = queries.Ask[GetListingEditorQuery, dto.ListingEditor](hostCtx, h.queries, GetListingEditorQuery{HostID: "host-1", ListingID: id, Tab: "nope"})
	assert.ErrorIs(t, err, ErrUnknownTab)
}
