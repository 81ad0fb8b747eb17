package dto

import (
	"time"

	domainlistings "programhub/internal/domain/listings"
	"programhub/internal/domain/publication"
)

type HostListingLocation struct {
	Address  string  `json:"address"`
	Building string  `json:"building,omitempty"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
}

// HostListingDetail is the full editable state of a listing.
type HostListingDetail struct {
	ID                string               `json:"id"`
	Title             string               `json:"title"`
	Description       string               `json:"description"`
	State             string               `json:"state"`
	Price             MoneyDTO             `json:"price"`
	PricingOption     string               `json:"pricing_option"`
	Hours             *int                 `json:"hours,omitempty"`
	LimitedQuantity   *int                 `json:"limited_quantity,omitempty"`
	IsCustomHour      bool                 `json:"is_custom_hour"`
	Category          string               `json:"category,omitempty"`
	Tags              []string             `json:"tags"`
	Difficulty        string               `json:"difficulty,omitempty"`
	TeachingLocations []string             `json:"teaching_locations"`
	Location          *HostListingLocation `json:"location,omitempty"`
	Photos            []string             `json:"photos"`
	Version           int64                `json:"version"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

func MapHostListingDetail(listing *domainlistings.Listing) HostListingDetail {
	if listing == nil {
		return HostListingDetail{}
	}
	detail := HostListingDetail{
		ID:                string(listing.ID),
		Title:             listing.Title,
		Description:       listing.Description,
		State:             string(listing.State),
		Price:             MoneyDTO{Amount: listing.Price.Amount, Currency: listing.Price.Currency},
		PricingOption:     string(listing.PublicData.PricingOption),
		Hours:             listing.PublicData.Hours,
		LimitedQuantity:   listing.PublicData.LimitedQuantity,
		IsCustomHour:      listing.PublicData.IsCustomHour,
		Category:          listing.PublicData.Category,
		Tags:              nonNil(listing.PublicData.Tags),
		Difficulty:        string(listing.PublicData.Difficulty),
		TeachingLocations: nonNil(listing.PublicData.TeachingLocations),
		Photos:            nonNil(listing.Photos),
		Version:           listing.Version,
		CreatedAt:         listing.CreatedAt,
		UpdatedAt:         listing.UpdatedAt,
	}
	if listing.Location != nil {
		detail.Location = &HostListingLocation{
			Address:  listing.Location.Address,
			Building: listing.Location.Building,
			Lat:      listing.Location.Lat,
			Lng:      listing.Location.Lng,
		}
	}
	return detail
}

type HostListingSummary struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	State         string    `json:"state"`
	PricingOption string    `json:"pricing_option"`
	Price         MoneyDTO  `json:"price"`
	ThumbnailURL  string    `json:"thumbnail_url,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type HostListingCollection struct {
	Items []HostListingSummary `json:"items"`
	Total int                  `json:"total"`
}

func MapHostListingSummary(listing *domainlistings.Listing) HostListingSummary {
	summary := HostListingSummary{
		ID:            string(listing.ID),
		Title:         listing.Title,
		State:         string(listing.State),
		PricingOption: string(listing.PublicData.PricingOption),
		Price:         MoneyDTO{Amount: listing.Price.Amount, Currency: listing.Price.Currency},
		UpdatedAt:     listing.UpdatedAt,
	}
	if len(listing.Photos) > 0 {
		summary.ThumbnailURL = listing.Photos[0]
	}
	return summary
}

// PricingPanel is the pricing tab preview.
type PricingPanel struct {
	TitleKey         string   `json:"title_key"`
	CurrencyValid    bool     `json:"currency_valid"`
	Currency         string   `json:"currency"`
	TotalPreview     MoneyDTO `json:"total_preview"`
	UnitLabelKey     string   `json:"unit_label_key,omitempty"`
	InvalidDataError string   `json:"invalid_data_error,omitempty"`
}

// ListingEditor is the wizard state for the host editor.
type ListingEditor struct {
	Listing  HostListingDetail     `json:"listing"`
	Status   publication.Status    `json:"status"`
	Redirect *publication.Redirect `json:"redirect,omitempty"`
	Tab      string                `json:"tab"`
	NextTab  string                `json:"next_tab"`
	Tabs     []string              `json:"tabs"`
	Pricing  PricingPanel          `json:"pricing"`
}

type HostListingPhotoUploadResult struct {
	ListingID string   `json:"listing_id"`
	Photos    []string `json:"photos"`
	URL       string   `json:"url"`
}
