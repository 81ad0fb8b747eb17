package memory

import (
	"context"
	"sort"
	"sync"

	"programhub/internal/app/uow"
	domainbooking "programhub/internal/domain/booking"
	domainlistings "programhub/internal/domain/listings"
)

// ListingRepository keeps listing snapshots in memory. Callers always receive copies,
// so an aggregate mutated by a failed command never leaks into the store.
type ListingRepository struct {
	mu    sync.RWMutex
	items map[domainlistings.ListingID]*domainlistings.Listing
}

func NewListingRepository() *ListingRepository {
	return &ListingRepository{
		items: make(map[domainlistings.ListingID]*domainlistings.Listing),
	}
}

// ByID returns a listing or domainlistings.ErrListingNotFound.
func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	listing, ok := r.items[id]
	if !ok {
		return nil, domainlistings.ErrListingNotFound
	}
	return listing.Snapshot(), nil
}

// Save stores listing when its version matches the stored one and bumps the version.
func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.items[listing.ID]
	switch {
	case ok && current.Version != listing.Version:
		return uow.ErrConcurrentUpdate
	case !ok && listing.Version != 0:
		return uow.ErrConcurrentUpdate
	}
	listing.Version++
	r.items[listing.ID] = listing.Snapshot()
	return nil
}

// Search filters, sorts and pages the stored listings.
func (r *ListingRepository) Search(ctx context.Context, params domainlistings.SearchParams) (domainlistings.SearchResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	opts := params.Normalized()
	matches := make([]*domainlistings.Listing, 0, len(r.items))
	for _, listing := range r.items {
		if err := ctx.Err(); err != nil {
			return domainlistings.SearchResult{}, err
		}
		if !opts.Matches(listing) {
			continue
		}
		matches = append(matches, listing)
	}
	SortListings(matches, opts.Sort)

	total := len(matches)
	start := opts.Offset
	if start > total {
		start = total
	}
	end := start + opts.Limit
	if end > total {
		end = total
	}
	items := make([]*domainlistings.Listing, 0, end-start)
	for _, listing := range matches[start:end] {
		items = append(items, listing.Snapshot())
	}
	return domainlistings.SearchResult{Items: items, Total: total}, nil
}

// SortListings orders listings for the catalog. Ties fall back to the listing id.
func SortListings(items []*domainlistings.Listing, order domainlistings.CatalogSort) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		switch order {
		case domainlistings.SortByPriceAsc:
			if a.Price.Amount != b.Price.Amount {
				return a.Price.Amount < b.Price.Amount
			}
		case domainlistings.SortByPriceDesc:
			if a.Price.Amount != b.Price.Amount {
				return a.Price.Amount > b.Price.Amount
			}
		case domainlistings.SortByUpdated:
			if !a.UpdatedAt.Equal(b.UpdatedAt) {
				return a.UpdatedAt.After(b.UpdatedAt)
			}
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		}
		return a.ID < b.ID
	})
}

// BookingRepository stores bookings in memory.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	booking, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return booking.Snapshot(), nil
}

func (r *BookingRepository) Save(ctx context.Context, booking *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.items[booking.ID]
	switch {
	case ok && current.Version != booking.Version:
		return uow.ErrConcurrentUpdate
	case !ok && booking.Version != 0:
		return uow.ErrConcurrentUpdate
	}
	booking.Version++
	r.items[booking.ID] = booking.Snapshot()
	return nil
}

func (r *BookingRepository) ListByBuyer(ctx context.Context, buyerID string) ([]*domainbooking.Booking, error) {
	return r.filter(func(b *domainbooking.Booking) bool { return b.BuyerID == buyerID }), nil
}

func (r *BookingRepository) ListByHost(ctx context.Context, hostID domainlistings.HostID) ([]*domainbooking.Booking, error) {
	return r.filter(func(b *domainbooking.Booking) bool { return b.HostID == hostID }), nil
}

func (r *BookingRepository) filter(keep func(*domainbooking.Booking) bool) []*domainbooking.Booking {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainbooking.Booking, 0)
	for _, booking := range r.items {
		if keep(booking) {
			out = append(out, booking.Snapshot())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

var (
	_ domainlistings.ListingRepository = (*ListingRepository)(nil)
	_ domainbooking.Repository         = (*BookingRepository)(nil)
)
