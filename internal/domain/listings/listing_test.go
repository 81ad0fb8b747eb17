package listings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"programhub/internal/domain/filterparams"
	"programhub/internal/domain/shared/money"
)

var testNow = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func newTestDraft(t *testing.T) *Listing {
	t.Helper()
	listing, err := NewDraft(CreateDraftParams{
		ID:         "lst-1",
		Host:       "host-1",
		Title:      "  Watercolor basics ",
		Category:   "art",
		Tags:       []string{"Painting", "painting", " kids "},
		Difficulty: DifficultyBeginner,
		Now:        testNow,
	})
	require.NoError(t, err)
	return listing
}

func publishable(t *testing.T, listing *Listing) {
	t.Helper()
	require.NoError(t, listing.UpdateLocation(LocationParams{TeachingLocations: []string{TeachingOnline}, Now: testNow}))
	require.NoError(t, listing.UpdatePricing(PricingParams{
		Price:         money.Must(500, "USD"),
		PricingOption: PricingPerHour,
		Hours:         IntPtr(3),
		Now:           testNow,
	}))
}

func TestNewDraft(t *testing.T) {
	listing := newTestDraft(t)

	assert.Equal(t, StateDraft, listing.State)
	assert.Equal(t, "Watercolor basics", listing.Title)
	assert.Equal(t, []string{"painting", "kids"}, listing.PublicData.Tags)
	assert.Equal(t, PricingPerUnit, listing.PublicData.PricingOption)
	require.Len(t, listing.PendingEvents(), 1)
	assert.Equal(t, "listing.draft_created", listing.PendingEvents()[0].EventName())
}

func TestNewDraftRequiresTitle(t *testing.T) {
	_, err := NewDraft(CreateDraftParams{ID: "lst-1", Host: "host-1", Title: "  "})
	assert.ErrorIs(t, err, ErrTitleRequired)
}

func TestUpdatePricingInvariants(t *testing.T) {
	cases := []struct {
		name   string
		params PricingParams
		err    error
	}{
		{name: "hourly without hours", params: PricingParams{Price: money.Must(500, "USD"), PricingOption: PricingPerHour}, err: ErrHoursRequired},
		{name: "hourly with zero hours", params: PricingParams{Price: money.Must(500, "USD"), PricingOption: PricingPerHour, Hours: IntPtr(0)}, err: ErrHoursRequired},
		{name: "hourly above the limit", params: PricingParams{Price: money.Must(500, "USD"), PricingOption: PricingPerHour, Hours: IntPtr(MaxHours + 1)}, err: ErrHoursOutOfRange},
		{name: "package without quantity", params: PricingParams{Price: money.Must(500, "USD"), PricingOption: PricingPerPackage}, err: ErrQuantityRequired},
		{name: "negative price", params: PricingParams{Price: money.Money{Amount: -1, Currency: "USD"}, PricingOption: PricingPerUnit}, err: ErrNegativePrice},
		{name: "bad currency", params: PricingParams{Price: money.Money{Amount: 1, Currency: "usd"}, PricingOption: PricingPerUnit}, err: money.ErrInvalidCurrency},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			listing := newTestDraft(t)
			err := listing.UpdatePricing(tc.params)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestUpdatePricingKeepsQuantityOnlyForPackages(t *testing.T) {
	listing := newTestDraft(t)
	require.NoError(t, listing.UpdatePricing(PricingParams{
		Price:           money.Must(12000, "USD"),
		PricingOption:   PricingPerPackage,
		LimitedQuantity: IntPtr(5),
	}))
	require.NotNil(t, listing.PublicData.LimitedQuantity)
	assert.Equal(t, 5, *listing.PublicData.LimitedQuantity)

	require.NoError(t, listing.UpdatePricing(PricingParams{
		Price:           money.Must(900, "USD"),
		PricingOption:   PricingPerUnit,
		LimitedQuantity: IntPtr(5),
	}))
	assert.Nil(t, listing.PublicData.LimitedQuantity)
}

func TestUpdateLocationDropsAddressForOnlinePrograms(t *testing.T) {
	listing := newTestDraft(t)
	err := listing.UpdateLocation(LocationParams{TeachingLocations: []string{TeachingOnsite}})
	assert.ErrorIs(t, err, ErrAddressRequired)

	require.NoError(t, listing.UpdateLocation(LocationParams{
		TeachingLocations: []string{"ONSITE", "online"},
		Location:          &Location{Address: " 1 Main St ", Building: "B", Lat: 52.1, Lng: 4.3},
	}))
	require.NotNil(t, listing.Location)
	assert.Equal(t, "1 Main St", listing.Location.Address)

	require.NoError(t, listing.UpdateLocation(LocationParams{
		TeachingLocations: []string{TeachingOnline},
		Location:          &Location{Address: "ignored"},
	}))
	assert.Nil(t, listing.Location)
	assert.ErrorIs(t, listing.UpdateLocation(LocationParams{TeachingLocations: []string{"hybrid"}}), ErrTeachingLocation)
}

func TestUpdateLocationFailureLeavesListingUnchanged(t *testing.T) {
	listing := newTestDraft(t)
	require.NoError(t, listing.UpdateLocation(LocationParams{TeachingLocations: []string{TeachingOnline}, Now: testNow}))
	events := len(listing.PendingEvents())

	err := listing.UpdateLocation(LocationParams{TeachingLocations: []string{TeachingOnsite}})
	require.ErrorIs(t, err, ErrAddressRequired)
	assert.Equal(t, []string{TeachingOnline}, listing.PublicData.TeachingLocations)
	assert.Nil(t, listing.Location)
	assert.Len(t, listing.PendingEvents(), events)
}

func TestLifecycleTransitions(t *testing.T) {
	listing := newTestDraft(t)
	assert.ErrorIs(t, listing.SubmitForApproval(testNow), ErrPriceRequired)

	publishable(t, listing)
	assert.ErrorIs(t, listing.Approve(testNow), ErrInvalidState)
	require.NoError(t, listing.SubmitForApproval(testNow))
	assert.Equal(t, StatePendingApproval, listing.State)
	assert.ErrorIs(t, listing.Close(testNow, "done"), ErrInvalidState)

	require.NoError(t, listing.Approve(testNow))
	assert.Equal(t, StatePublished, listing.State)
	require.NoError(t, listing.Close(testNow, "season over"))
	assert.Equal(t, StateClosed, listing.State)

	assert.ErrorIs(t, listing.UpdateGeneral(GeneralParams{Title: "new"}), ErrClosedListingChanged)
	assert.ErrorIs(t, listing.SubmitForApproval(testNow), ErrInvalidState)

	names := make([]string, 0)
	for _, ev := range listing.PullEvents() {
		names = append(names, ev.EventName())
	}
	assert.Contains(t, names, "listing.submitted")
	assert.Contains(t, names, "listing.published")
	assert.Contains(t, names, "listing.closed")
	assert.Empty(t, listing.PendingEvents())
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	listing := newTestDraft(t)
	publishable(t, listing)
	snap := listing.Snapshot()

	*snap.PublicData.Hours = 99
	snap.PublicData.Tags[0] = "changed"

	assert.Equal(t, 3, *listing.PublicData.Hours)
	assert.Equal(t, "painting", listing.PublicData.Tags[0])
	assert.Empty(t, snap.PendingEvents())
}

func TestParseTags(t *testing.T) {
	state, ok := ParseState("pending-approval")
	assert.True(t, ok)
	assert.Equal(t, StatePendingApproval, state)
	_, ok = ParseState("archived")
	assert.False(t, ok)

	assert.Equal(t, PricingPerHour, ParsePricingOption("hourly"))
	assert.Equal(t, PricingPerPackage, ParsePricingOption(" Package "))
	assert.Equal(t, PricingPerUnit, ParsePricingOption("per-day"))
	assert.Equal(t, PricingPerUnit, ParsePricingOption(""))

	assert.Equal(t, DifficultyAdvanced, ParseDifficulty("ADVANCED"))
	assert.Equal(t, Difficulty(""), ParseDifficulty("expert"))
}

func TestSearchParamsNormalized(t *testing.T) {
	bad := filterparams.Range{Min: 5, Max: 1}
	params := SearchParams{
		States:         []ListingState{"draft", "bogus", "draft"},
		PricingOptions: []PricingOption{"hourly", "hour", "x"},
		Hours:          &bad,
		Keywords:       "  Yoga ",
		Limit:          500,
		Offset:         -3,
		Sort:           "random",
	}.Normalized()

	assert.Equal(t, []ListingState{StateDraft}, params.States)
	assert.Equal(t, []PricingOption{PricingPerHour, PricingPerUnit}, params.PricingOptions)
	assert.Nil(t, params.Hours)
	assert.Equal(t, "yoga", params.Keywords)
	assert.Equal(t, maxSearchLimit, params.Limit)
	assert.Equal(t, 0, params.Offset)
	assert.Equal(t, SortByNewest, params.Sort)

	published := SearchParams{OnlyPublished: true, States: []ListingState{StateDraft}}.Normalized()
	assert.Equal(t, []ListingState{StatePublished}, published.States)
}

func TestSearchParamsMatches(t *testing.T) {
	listing := newTestDraft(t)
	publishable(t, listing)

	hours := filterparams.Range{Min: 0, Max: 3}
	tooShort := filterparams.Range{Min: 4, Max: 8}

	assert.True(t, SearchParams{Hours: &hours}.Normalized().Matches(listing))
	assert.False(t, SearchParams{Hours: &tooShort}.Normalized().Matches(listing))
	assert.True(t, SearchParams{TeachingLocations: filterparams.Selection{Keys: []string{"online", "onsite"}}}.Normalized().Matches(listing))
	assert.False(t, SearchParams{TeachingLocations: filterparams.Selection{Keys: []string{"online", "onsite"}, Mode: filterparams.MatchAll}}.Normalized().Matches(listing))
	assert.True(t, SearchParams{Keywords: "watercolor KIDS"}.Normalized().Matches(listing))
	assert.False(t, SearchParams{Keywords: "guitar"}.Normalized().Matches(listing))
	assert.False(t, SearchParams{OnlyPublished: true}.Normalized().Matches(listing))
	assert.False(t, SearchParams{Host: "someone-else"}.Normalized().Matches(listing))
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "creme-brulee-for-beginners", Slug("Crème brûlée for Beginners!"))
	assert.Equal(t, "yoga-101", Slug("  Yoga -- 101  "))
	assert.Equal(t, "no-slug", Slug("!!!"))
	assert.Equal(t, "no-slug", Slug(""))
}
