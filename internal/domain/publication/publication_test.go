package publication

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"programhub/internal/domain/listings"
)

func listingIn(state listings.ListingState) *listings.Listing {
	return &listings.Listing{ID: "lst-42", Title: "Jazz Piano Nights", State: state}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		state    listings.ListingState
		newFlow  bool
		expected Status
	}{
		{
			state:    listings.StateDraft,
			newFlow:  true,
			expected: Status{State: listings.StateDraft, IsDraft: true},
		},
		{
			state:    listings.StatePendingApproval,
			newFlow:  true,
			expected: Status{State: listings.StatePendingApproval, IsPendingApproval: true, RedirectRequired: true},
		},
		{
			state:    listings.StatePublished,
			newFlow:  false,
			expected: Status{State: listings.StatePublished, BookingFormVisible: true},
		},
		{
			state:    listings.StatePublished,
			newFlow:  true,
			expected: Status{State: listings.StatePublished, BookingFormVisible: true, RedirectRequired: true},
		},
		{
			state:    listings.StateClosed,
			newFlow:  false,
			expected: Status{State: listings.StateClosed, IsClosed: true, HelpTextKey: HelpTextClosedListing},
		},
		{
			state:    listings.ListingState("archived"),
			newFlow:  true,
			expected: Status{State: listings.ListingState("archived")},
		},
	}
	for _, tc := range cases {
		t.Run(string(tc.state), func(t *testing.T) {
			assert.Equal(t, tc.expected, Classify(listingIn(tc.state), tc.newFlow))
		})
	}
}

func TestClassifyWithoutID(t *testing.T) {
	listing := listingIn(listings.StatePendingApproval)
	listing.ID = ""
	assert.False(t, Classify(listing, true).RedirectRequired)
	assert.Equal(t, Status{}, Classify(nil, true))
}

func TestNextTab(t *testing.T) {
	assert.Equal(t, TabLocation, NextTab(TabGeneral))
	assert.Equal(t, TabPricing, NextTab(TabLocation))
	assert.Equal(t, TabPhotos, NextTab(TabAvailability))
	assert.Equal(t, TabPhotos, NextTab(TabPhotos))
	assert.Equal(t, TabGeneral, NextTab(Tab("unknown")))
	assert.True(t, IsLastTab(TabPhotos))

	tab, ok := ParseTab("pricing")
	assert.True(t, ok)
	assert.Equal(t, TabPricing, tab)
	_, ok = ParseTab("features")
	assert.False(t, ok)
}

func TestRedirectFor(t *testing.T) {
	pending := listingIn(listings.StatePendingApproval)
	target, ok := RedirectFor(pending, Classify(pending, true))
	require.True(t, ok)
	assert.Equal(t, RouteListingPageVariant, target.Name)
	assert.Equal(t, VariantPendingApproval, target.Variant)
	assert.Equal(t, "jazz-piano-nights", target.Slug)
	assert.Equal(t, "/program/jazz-piano-nights/lst-42/pending-approval", target.Path)

	published := listingIn(listings.StatePublished)
	target, ok = RedirectFor(published, Classify(published, true))
	require.True(t, ok)
	assert.Equal(t, RouteListingPage, target.Name)
	assert.Empty(t, target.Variant)
	assert.Equal(t, "/program/jazz-piano-nights/lst-42", target.Path)

	draft := listingIn(listings.StateDraft)
	_, ok = RedirectFor(draft, Classify(draft, true))
	assert.False(t, ok)
}
