package booking

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"programhub/internal/app/commands"
	"programhub/internal/app/dto"
	"programhub/internal/app/handlers/support"
	"programhub/internal/app/outbox"
	"programhub/internal/app/policies"
	"programhub/internal/app/queries"
	"programhub/internal/app/uow"
	domainbooking "programhub/internal/domain/booking"
)

const (
	listBuyerBookingsKey = "bookings.buyer.list"
	cancelBookingKey     = "bookings.cancel"

	templateBookingCancelled = "booking_cancelled"
)

type ListBuyerBookingsQuery struct {
	BuyerID string
	Status  string
}

func (q ListBuyerBookingsQuery) Key() string { return listBuyerBookingsKey }

func (q ListBuyerBookingsQuery) RequiresActor() bool { return true }

type ListBuyerBookingsHandler struct {
	UoWFactory uow.UoWFactory
}

// Handle lists every booking of the buyer unless a status filter is given.
func (h *ListBuyerBookingsHandler) Handle(ctx context.Context, q ListBuyerBookingsQuery) (dto.BookingCollection, error) {
	buyerID := strings.TrimSpace(q.BuyerID)
	if buyerID == "" {
		return dto.BookingCollection{}, errors.New("buyer id is required")
	}
	statusFilter, err := parseStatusFilter(q.Status, allStatusesFilterValue)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	bookings, err := unit.Bookings().ListByBuyer(execCtx, buyerID)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	return collect(bookings, statusFilter), nil
}

type CancelBookingCommand struct {
	BuyerID   string
	BookingID string
	Reason    string
}

func (c CancelBookingCommand) Key() string { return cancelBookingKey }

func (c CancelBookingCommand) RequiresActor() bool { return true }

type CancelBookingHandler struct {
	Notifier policies.Notifier
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
	Logger   *slog.Logger
}

func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) (*dto.BookingDetail, error) {
	buyerID := strings.TrimSpace(cmd.BuyerID)
	if buyerID == "" {
		return nil, errors.New("buyer id is required")
	}
	unit, err := support.RequireUnit(ctx)
	if err != nil {
		return nil, err
	}
	booking, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(strings.TrimSpace(cmd.BookingID)))
	if err != nil {
		return nil, err
	}
	if booking.BuyerID != buyerID {
		return nil, ErrBookingNotOwned
	}
	if err := booking.Cancel(strings.TrimSpace(cmd.Reason), time.Now()); err != nil {
		return nil, err
	}
	if err := saveAndRecord(ctx, unit.Bookings(), h.Outbox, h.Encoder, booking); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("booking cancelled", "booking_id", booking.ID, "buyer_id", buyerID)
	}
	notify(ctx, h.Notifier, h.Logger, string(booking.HostID), templateBookingCancelled, booking)
	result := dto.MapBookingDetail(booking)
	return &result, nil
}

var (
	_ queries.Handler[ListBuyerBookingsQuery, dto.BookingCollection] = (*ListBuyerBookingsHandler)(nil)
	_ commands.Handler[CancelBookingCommand, *dto.BookingDetail]     = (*CancelBookingHandler)(nil)
)
