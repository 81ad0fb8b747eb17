package listings

import (
	"context"
	"errors"
	"strings"
	"time"

	"programhub/internal/domain/shared/events"
	"programhub/internal/domain/shared/money"
)

var (
	ErrInvalidState         = errors.New("listings: invalid state transition")
	ErrTitleRequired        = errors.New("listings: title is required")
	ErrPriceRequired        = errors.New("listings: price must be set before submitting")
	ErrNegativePrice        = errors.New("listings: price must be non-negative")
	ErrHoursRequired        = errors.New("listings: hourly pricing requires a positive number of hours")
	ErrHoursOutOfRange      = errors.New("listings: hours exceed the program limit")
	ErrQuantityRequired     = errors.New("listings: package pricing requires a positive limited quantity")
	ErrAddressRequired      = errors.New("listings: onsite programs require an address")
	ErrTeachingLocation     = errors.New("listings: at least one teaching location is required")
	ErrClosedListingChanged = errors.New("listings: closed listings cannot be edited")
	ErrListingNotFound      = errors.New("listings: not found")
)

// MaxHours caps the hours of a single program.
const MaxHours = 1000

type ListingID string
type HostID string

// Location is where onsite programs take place.
type Location struct {
	Address  string  `json:"address"`
	Building string  `json:"building,omitempty"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
}

func (l Location) Valid() bool {
	return strings.TrimSpace(l.Address) != ""
}

// PublicData holds the host-editable attributes shown to buyers.
type PublicData struct {
	PricingOption     PricingOption
	Hours             *int
	LimitedQuantity   *int
	IsCustomHour      bool
	Category          string
	Tags              []string
	Difficulty        Difficulty
	TeachingLocations []string
}

// HasTeachingLocation reports whether key is among the selected teaching locations.
func (p PublicData) HasTeachingLocation(key string) bool {
	for _, v := range p.TeachingLocations {
		if v == key {
			return true
		}
	}
	return false
}

func (p PublicData) clone() PublicData {
	out := p
	out.Hours = cloneInt(p.Hours)
	out.LimitedQuantity = cloneInt(p.LimitedQuantity)
	out.Tags = append([]string(nil), p.Tags...)
	out.TeachingLocations = append([]string(nil), p.TeachingLocations...)
	return out
}

type Listing struct {
	ID          ListingID
	Host        HostID
	Title       string
	Description string
	State       ListingState
	Price       money.Money
	PublicData  PublicData
	Location    *Location
	Photos      []string
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	events.EventRecorder
}

type ListingRepository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	Save(ctx context.Context, listing *Listing) error
	Search(ctx context.Context, params SearchParams) (SearchResult, error)
}

// CreateDraftParams carries the general tab values that open a new draft.
type CreateDraftParams struct {
	ID          ListingID
	Host        HostID
	Title       string
	Description string
	Category    string
	Tags        []string
	Difficulty  Difficulty
	Now         time.Time
}

func NewDraft(params CreateDraftParams) (*Listing, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errors.New("listings: id is required")
	}
	if strings.TrimSpace(string(params.Host)) == "" {
		return nil, errors.New("listings: host is required")
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrTitleRequired
	}
	now := params.Now.UTC()
	listing := &Listing{
		ID:          params.ID,
		Host:        params.Host,
		Title:       strings.TrimSpace(params.Title),
		Description: strings.TrimSpace(params.Description),
		State:       StateDraft,
		PublicData: PublicData{
			PricingOption: PricingPerUnit,
			Category:      strings.TrimSpace(params.Category),
			Tags:          normalizeTags(params.Tags),
			Difficulty:    params.Difficulty,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	listing.Record(ListingDraftCreatedEvent{ListingID: listing.ID, HostID: listing.Host, At: now})
	return listing, nil
}

// GeneralParams are the values of the general wizard tab.
type GeneralParams struct {
	Title       string
	Description string
	Category    string
	Tags        []string
	Difficulty  Difficulty
	Now         time.Time
}

func (l *Listing) UpdateGeneral(params GeneralParams) error {
	if err := l.ensureEditable(); err != nil {
		return err
	}
	if strings.TrimSpace(params.Title) == "" {
		return ErrTitleRequired
	}
	l.Title = strings.TrimSpace(params.Title)
	l.Description = strings.TrimSpace(params.Description)
	l.PublicData.Category = strings.TrimSpace(params.Category)
	l.PublicData.Tags = normalizeTags(params.Tags)
	l.PublicData.Difficulty = params.Difficulty
	l.touch(params.Now, "general")
	return nil
}

// LocationParams are the values of the location wizard tab.
type LocationParams struct {
	TeachingLocations []string
	Location          *Location
	Now               time.Time
}

// UpdateLocation stores teaching locations; the address is kept only for onsite programs.
func (l *Listing) UpdateLocation(params LocationParams) error {
	if err := l.ensureEditable(); err != nil {
		return err
	}
	teaching := NormalizeTeachingLocations(params.TeachingLocations)
	if len(teaching) == 0 {
		return ErrTeachingLocation
	}
	var loc *Location
	if (PublicData{TeachingLocations: teaching}).HasTeachingLocation(TeachingOnsite) {
		if params.Location == nil || !params.Location.Valid() {
			return ErrAddressRequired
		}
		trimmed := *params.Location
		trimmed.Address = strings.TrimSpace(trimmed.Address)
		trimmed.Building = strings.TrimSpace(trimmed.Building)
		loc = &trimmed
	}
	l.PublicData.TeachingLocations = teaching
	l.Location = loc
	l.touch(params.Now, "location")
	return nil
}

// PricingParams are the values of the pricing wizard tab.
type PricingParams struct {
	Price           money.Money
	PricingOption   PricingOption
	Hours           *int
	LimitedQuantity *int
	IsCustomHour    bool
	Now             time.Time
}

// UpdatePricing enforces the per-option invariants: hourly pricing needs hours,
// package pricing needs a limited quantity.
func (l *Listing) UpdatePricing(params PricingParams) error {
	if err := l.ensureEditable(); err != nil {
		return err
	}
	if params.Price.Amount < 0 {
		return ErrNegativePrice
	}
	if _, err := money.New(params.Price.Amount, params.Price.Currency); err != nil {
		return err
	}
	option := ParsePricingOption(string(params.PricingOption))
	if option == PricingPerHour && !positive(params.Hours) {
		return ErrHoursRequired
	}
	if params.Hours != nil && *params.Hours > MaxHours {
		return ErrHoursOutOfRange
	}
	if option == PricingPerPackage && !positive(params.LimitedQuantity) {
		return ErrQuantityRequired
	}
	l.Price = params.Price
	l.PublicData.PricingOption = option
	l.PublicData.Hours = cloneInt(params.Hours)
	l.PublicData.IsCustomHour = params.IsCustomHour
	if option == PricingPerPackage {
		l.PublicData.LimitedQuantity = cloneInt(params.LimitedQuantity)
	} else {
		l.PublicData.LimitedQuantity = nil
	}
	now := l.touch(params.Now, "pricing")
	l.Record(ListingPriceChangedEvent{ListingID: l.ID, Price: l.Price, PricingOption: option, At: now})
	return nil
}

func (l *Listing) AddPhoto(url string, now time.Time) error {
	if err := l.ensureEditable(); err != nil {
		return err
	}
	url = strings.TrimSpace(url)
	if url == "" {
		return errors.New("listings: photo url is required")
	}
	l.Photos = append(l.Photos, url)
	l.touch(now, "photos")
	return nil
}

// SubmitForApproval moves a completed draft to pending approval.
func (l *Listing) SubmitForApproval(now time.Time) error {
	if l.State != StateDraft {
		return ErrInvalidState
	}
	if strings.TrimSpace(l.Title) == "" {
		return ErrTitleRequired
	}
	if l.Price.Currency == "" {
		return ErrPriceRequired
	}
	if len(l.PublicData.TeachingLocations) == 0 {
		return ErrTeachingLocation
	}
	l.State = StatePendingApproval
	l.UpdatedAt = now.UTC()
	l.Record(ListingSubmittedEvent{ListingID: l.ID, HostID: l.Host, At: l.UpdatedAt})
	return nil
}

func (l *Listing) Approve(now time.Time) error {
	if l.State != StatePendingApproval {
		return ErrInvalidState
	}
	l.State = StatePublished
	l.UpdatedAt = now.UTC()
	l.Record(ListingPublishedEvent{ListingID: l.ID, HostID: l.Host, At: l.UpdatedAt})
	return nil
}

func (l *Listing) Close(now time.Time, reason string) error {
	if l.State != StatePublished {
		return ErrInvalidState
	}
	l.State = StateClosed
	l.UpdatedAt = now.UTC()
	l.Record(ListingClosedEvent{ListingID: l.ID, Reason: strings.TrimSpace(reason), At: l.UpdatedAt})
	return nil
}

// Snapshot returns a deep copy without pending events; repositories store snapshots.
func (l *Listing) Snapshot() *Listing {
	if l == nil {
		return nil
	}
	out := &Listing{
		ID:          l.ID,
		Host:        l.Host,
		Title:       l.Title,
		Description: l.Description,
		State:       l.State,
		Price:       l.Price,
		PublicData:  l.PublicData.clone(),
		Photos:      append([]string(nil), l.Photos...),
		Version:     l.Version,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
	if l.Location != nil {
		loc := *l.Location
		out.Location = &loc
	}
	return out
}

func (l *Listing) ensureEditable() error {
	if l.State == StateClosed {
		return ErrClosedListingChanged
	}
	return nil
}

func (l *Listing) touch(now time.Time, section string) time.Time {
	if now.IsZero() {
		now = time.Now()
	}
	l.UpdatedAt = now.UTC()
	l.Record(ListingUpdatedEvent{ListingID: l.ID, Section: section, At: l.UpdatedAt})
	return l.UpdatedAt
}

func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(strings.ToLower(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func positive(v *int) bool {
	return v != nil && *v > 0
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// IntPtr is a small helper for optional counts.
func IntPtr(v int) *int {
	return &v
}
