package booking

import (
	"context"
	"errors"
	"log/slog"
	"sort"
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
	domainlistings "programhub/internal/domain/listings"
)

const (
	listHostBookingsKey    = "bookings.host.list"
	acceptHostBookingKey   = "bookings.accept"
	declineHostBookingKey  = "bookings.decline"
	allStatusesFilterValue = "ALL"

	templateBookingAccepted = "booking_accepted"
	templateBookingDeclined = "booking_declined"
)

type ListHostBookingsQuery struct {
	HostID string
	Status string
}

func (q ListHostBookingsQuery) Key() string { return listHostBookingsKey }

func (q ListHostBookingsQuery) RequiredRole() string { return policies.RoleHost }

type ListHostBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

// Handle lists the host's bookings, newest first. An empty status means pending.
func (h *ListHostBookingsHandler) Handle(ctx context.Context, q ListHostBookingsQuery) (dto.BookingCollection, error) {
	hostID := strings.TrimSpace(q.HostID)
	if hostID == "" {
		return dto.BookingCollection{}, errors.New("host id is required")
	}
	statusFilter, err := parseStatusFilter(q.Status, domainbooking.StatePending)
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

	bookings, err := unit.Bookings().ListByHost(execCtx, domainlistings.HostID(hostID))
	if err != nil {
		return dto.BookingCollection{}, err
	}
	out := collect(bookings, statusFilter)
	if h.Logger != nil {
		h.Logger.Debug("host bookings listed", "host_id", hostID, "count", len(out.Items), "status", statusFilter)
	}
	return out, nil
}

type AcceptBookingCommand struct {
	HostID    string
	BookingID string
}

func (c AcceptBookingCommand) Key() string { return acceptHostBookingKey }

func (c AcceptBookingCommand) RequiredRole() string { return policies.RoleHost }

type DeclineBookingCommand struct {
	HostID    string
	BookingID string
	Reason    string
}

func (c DeclineBookingCommand) Key() string { return declineHostBookingKey }

func (c DeclineBookingCommand) RequiredRole() string { return policies.RoleHost }

type AcceptBookingHandler struct {
	Notifier policies.Notifier
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
	Logger   *slog.Logger
}

func (h *AcceptBookingHandler) Handle(ctx context.Context, cmd AcceptBookingCommand) (*dto.BookingDetail, error) {
	unit, booking, err := loadHostBooking(ctx, cmd.HostID, cmd.BookingID)
	if err != nil {
		return nil, err
	}
	if err := booking.Accept(time.Now()); err != nil {
		return nil, err
	}
	if err := saveAndRecord(ctx, unit.Bookings(), h.Outbox, h.Encoder, booking); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("booking accepted", "booking_id", booking.ID, "host_id", cmd.HostID)
	}
	notify(ctx, h.Notifier, h.Logger, booking.BuyerID, templateBookingAccepted, booking)
	result := dto.MapBookingDetail(booking)
	return &result, nil
}

type DeclineBookingHandler struct {
	Notifier policies.Notifier
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
	Logger   *slog.Logger
}

func (h *DeclineBookingHandler) Handle(ctx context.Context, cmd DeclineBookingCommand) (*dto.BookingDetail, error) {
	unit, booking, err := loadHostBooking(ctx, cmd.HostID, cmd.BookingID)
	if err != nil {
		return nil, err
	}
	if err := booking.Decline(strings.TrimSpace(cmd.Reason), time.Now()); err != nil {
		return nil, err
	}
	if err := saveAndRecord(ctx, unit.Bookings(), h.Outbox, h.Encoder, booking); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("booking declined", "booking_id", booking.ID, "host_id", cmd.HostID)
	}
	notify(ctx, h.Notifier, h.Logger, booking.BuyerID, templateBookingDeclined, booking)
	result := dto.MapBookingDetail(booking)
	return &result, nil
}

func loadHostBooking(ctx context.Context, hostID, bookingID string) (uow.UnitOfWork, *domainbooking.Booking, error) {
	hostID = strings.TrimSpace(hostID)
	if hostID == "" {
		return nil, nil, errors.New("host id is required")
	}
	bookingID = strings.TrimSpace(bookingID)
	if bookingID == "" {
		return nil, nil, errors.New("booking id is required")
	}
	unit, err := support.RequireUnit(ctx)
	if err != nil {
		return nil, nil, err
	}
	booking, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(bookingID))
	if err != nil {
		return nil, nil, err
	}
	if booking.HostID != domainlistings.HostID(hostID) {
		return nil, nil, ErrBookingNotOwned
	}
	return unit, booking, nil
}

func parseStatusFilter(raw string, fallback domainbooking.BookingState) (string, error) {
	status := strings.ToUpper(strings.TrimSpace(raw))
	switch status {
	case "":
		return string(fallback), nil
	case allStatusesFilterValue:
		return status, nil
	case string(domainbooking.StatePending), string(domainbooking.StateAccepted),
		string(domainbooking.StateDeclined), string(domainbooking.StateCancelled):
		return status, nil
	default:
		return "", ErrInvalidStatus
	}
}

func collect(bookings []*domainbooking.Booking, statusFilter string) dto.BookingCollection {
	items := make([]dto.BookingDetail, 0, len(bookings))
	for _, booking := range bookings {
		if statusFilter != allStatusesFilterValue && string(booking.State) != statusFilter {
			continue
		}
		items = append(items, dto.MapBookingDetail(booking))
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return dto.BookingCollection{Items: items}
}

var (
	_ queries.Handler[ListHostBookingsQuery, dto.BookingCollection] = (*ListHostBookingsHandler)(nil)
	_ commands.Handler[AcceptBookingCommand, *dto.BookingDetail]    = (*AcceptBookingHandler)(nil)
	_ commands.Handler[DeclineBookingCommand, *dto.BookingDetail]   = (*DeclineBookingHandler)(nil)
)
