package listings

import (
	"time"

	"programhub/internal/domain/shared/money"
)

type ListingDraftCreatedEvent struct {
	ListingID ListingID `json:"listing_id"`
	HostID    HostID    `json:"host_id"`
	At        time.Time `json:"at"`
}

func (e ListingDraftCreatedEvent) EventName() string     { return "listing.draft_created" }
func (e ListingDraftCreatedEvent) AggregateID() string   { return string(e.ListingID) }
func (e ListingDraftCreatedEvent) OccurredAt() time.Time { return e.At }

type ListingUpdatedEvent struct {
	ListingID ListingID `json:"listing_id"`
	Section   string    `json:"section"`
	At        time.Time `json:"at"`
}

func (e ListingUpdatedEvent) EventName() string     { return "listing.updated" }
func (e ListingUpdatedEvent) AggregateID() string   { return string(e.ListingID) }
func (e ListingUpdatedEvent) OccurredAt() time.Time { return e.At }

type ListingPriceChangedEvent struct {
	ListingID     ListingID     `json:"listing_id"`
	Price         money.Money   `json:"price"`
	PricingOption PricingOption `json:"pricing_option"`
	At            time.Time     `json:"at"`
}

func (e ListingPriceChangedEvent) EventName() string     { return "listing.price_changed" }
func (e ListingPriceChangedEvent) AggregateID() string   { return string(e.ListingID) }
func (e ListingPriceChangedEvent) OccurredAt() time.Time { return e.At }

type ListingSubmittedEvent struct {
	ListingID ListingID `json:"listing_id"`
	HostID    HostID    `json:"host_id"`
	At        time.Time `json:"at"`
}

func (e ListingSubmittedEvent) EventName() string     { return "listing.submitted" }
func (e ListingSubmittedEvent) AggregateID() string   { return string(e.ListingID) }
func (e ListingSubmittedEvent) OccurredAt() time.Time { return e.At }

type ListingPublishedEvent struct {
	ListingID ListingID `json:"listing_id"`
	HostID    HostID    `json:"host_id"`
	At        time.Time `json:"at"`
}

func (e ListingPublishedEvent) EventName() string     { return "listing.published" }
func (e ListingPublishedEvent) AggregateID() string   { return string(e.ListingID) }
func (e ListingPublishedEvent) OccurredAt() time.Time { return e.At }

type ListingClosedEvent struct {
	ListingID ListingID `json:"listing_id"`
	Reason    string    `json:"reason,omitempty"`
	At        time.Time `json:"at"`
}

func (e ListingClosedEvent) EventName() string     { return "listing.closed" }
func (e ListingClosedEvent) AggregateID() string   { return string(e.ListingID) }
func (e ListingClosedEvent) OccurredAt() time.Time { return e.At }
