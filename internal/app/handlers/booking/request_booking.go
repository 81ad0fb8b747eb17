package booking

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"programhub/internal/app/commands"
	"programhub/internal/app/dto"
	"programhub/internal/app/handlers/support"
	"programhub/internal/app/middleware"
	"programhub/internal/app/outbox"
	"programhub/internal/app/policies"
	domainbooking "programhub/internal/domain/booking"
	domainlistings "programhub/internal/domain/listings"
	"programhub/internal/domain/publication"
)

const requestBookingKey = "bookings.request"

const templateBookingRequested = "booking_requested"

type RequestBookingCommand struct {
	ListingID       string
	BuyerID         string
	Quantity        int
	Message         string
	IdempotencyKeyV string
}

func (c RequestBookingCommand) Key() string { return requestBookingKey }

func (c RequestBookingCommand) RequiresActor() bool { return true }

func (c RequestBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RequestBookingCommand) ResultPrototype() any { return &dto.BookingDetail{} }

type RequestBookingHandler struct {
	Pricing  policies.PricingPort
	Notifier policies.Notifier
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
	Logger   *slog.Logger
	Now      func() time.Time
}

// Handle opens a booking request after the listing passes the eligibility gate.
func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (*dto.BookingDetail, error) {
	buyerID := strings.TrimSpace(cmd.BuyerID)
	if buyerID == "" {
		return nil, errors.New("buyer id is required")
	}
	unit, err := support.RequireUnit(ctx)
	if err != nil {
		return nil, err
	}
	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}

	quote, err := h.Pricing.Quote(ctx, listing)
	if err != nil {
		return nil, err
	}
	status := publication.Classify(listing, false)
	isOwn := listing.Host == domainlistings.HostID(buyerID)
	decision := domainbooking.Decide(quote, status, isOwn)
	if !decision.CanOpenBookingModal {
		if h.Logger != nil {
			h.Logger.Info("booking request rejected", "listing_id", listing.ID, "buyer_id", buyerID, "cta", decision.CTAKey)
		}
		return nil, domainbooking.ErrBookingNotAllowed
	}

	now := time.Now()
	if h.Now != nil {
		now = h.Now()
	}
	booking, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:              domainbooking.BookingID(uuid.NewString()),
		ListingID:       listing.ID,
		HostID:          listing.Host,
		BuyerID:         buyerID,
		Quantity:        cmd.Quantity,
		Quote:           quote,
		LimitedQuantity: listing.PublicData.LimitedQuantity,
		Message:         cmd.Message,
		CreatedAt:       now,
	})
	if err != nil {
		return nil, err
	}
	if err := saveAndRecord(ctx, unit.Bookings(), h.Outbox, h.Encoder, booking); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("booking requested", "booking_id", booking.ID, "listing_id", listing.ID, "buyer_id", buyerID)
	}
	notify(ctx, h.Notifier, h.Logger, string(listing.Host), templateBookingRequested, booking)

	result := dto.MapBookingDetail(booking)
	return &result, nil
}

var _ commands.Handler[RequestBookingCommand, *dto.BookingDetail] = (*RequestBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*RequestBookingCommand)(nil)
