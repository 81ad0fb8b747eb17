package booking

import (
	"context"
	"errors"
	"log/slog"

	"programhub/internal/app/outbox"
	"programhub/internal/app/policies"
	domainbooking "programhub/internal/domain/booking"
)

var (
	ErrBookingNotOwned = errors.New("booking: not owned by caller")
	ErrInvalidStatus   = errors.New("booking: unknown status filter")
)

func saveAndRecord(ctx context.Context, repo domainbooking.Repository, box outbox.Outbox, encoder outbox.EventEncoder, booking *domainbooking.Booking) error {
	if err := repo.Save(ctx, booking); err != nil {
		return err
	}
	return outbox.RecordDomainEvents(ctx, box, encoder, booking.PullEvents())
}

// notify is best effort; a failed notification never fails the command.
func notify(ctx context.Context, n policies.Notifier, logger *slog.Logger, to, template string, booking *domainbooking.Booking) {
	if n == nil || to == "" {
		return
	}
	data := map[string]string{
		"booking_id": string(booking.ID),
		"listing_id": string(booking.ListingID),
		"status":     string(booking.State),
	}
	if err := n.Send(ctx, to, template, data); err != nil && logger != nil {
		logger.Warn("booking notification failed", "booking_id", booking.ID, "template", template, "error", err)
	}
}
