package listings

import (
	"context"

	"programhub/internal/app/outbox"
	domainlistings "programhub/internal/domain/listings"
)

// saveAndRecord persists listing and moves its pending events into box.
func saveAndRecord(ctx context.Context, repo domainlistings.ListingRepository, box outbox.Outbox, encoder outbox.EventEncoder, listing *domainlistings.Listing) error {
	if err := repo.Save(ctx, listing); err != nil {
		return err
	}
	return outbox.RecordDomainEvents(ctx, box, encoder, listing.PullEvents())
}
