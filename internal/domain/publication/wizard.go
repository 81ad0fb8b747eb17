package publication

import (
	"programhub/internal/domain/listings"
)

// Tab is a step of the listing edit wizard.
type Tab string

const (
	TabGeneral      Tab = "general"
	TabLocation     Tab = "location"
	TabPricing      Tab = "pricing"
	TabAvailability Tab = "availability"
	TabPhotos       Tab = "photos"
)

// Tabs lists wizard steps in order.
var Tabs = []Tab{TabGeneral, TabLocation, TabPricing, TabAvailability, TabPhotos}

// ParseTab reports false for unknown tabs.
func ParseTab(raw string) (Tab, bool) {
	for _, tab := range Tabs {
		if string(tab) == raw {
			return tab, true
		}
	}
	return "", false
}

// NextTab returns the step after tab; the last step maps to itself and unknown tabs
// restart the wizard.
func NextTab(tab Tab) Tab {
	idx := -1
	for i, t := range Tabs {
		if t == tab {
			idx = i
			break
		}
	}
	next := idx + 1
	if next < len(Tabs) {
		return Tabs[next]
	}
	return Tabs[len(Tabs)-1]
}

// IsLastTab reports whether completing tab finishes the wizard.
func IsLastTab(tab Tab) bool {
	return tab == Tabs[len(Tabs)-1]
}

const (
	RouteListingPage        = "ProgramListingPage"
	RouteListingPageVariant = "ProgramListingPageVariant"

	VariantPendingApproval = "pending-approval"
)

// Redirect names the listing page the editor is sent to once the wizard is done.
type Redirect struct {
	Name    string `json:"name"`
	ID      string `json:"id"`
	Slug    string `json:"slug"`
	Variant string `json:"variant,omitempty"`
	Path    string `json:"path"`
}

// RedirectFor returns the redirect target for a listing whose status requires one.
func RedirectFor(listing *listings.Listing, status Status) (Redirect, bool) {
	if listing == nil || !status.RedirectRequired {
		return Redirect{}, false
	}
	slug := listings.Slug(listing.Title)
	target := Redirect{
		Name: RouteListingPage,
		ID:   string(listing.ID),
		Slug: slug,
		Path: "/program/" + slug + "/" + string(listing.ID),
	}
	if status.IsPendingApproval {
		target.Name = RouteListingPageVariant
		target.Variant = VariantPendingApproval
		target.Path += "/" + VariantPendingApproval
	}
	return target, true
}
