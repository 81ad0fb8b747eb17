package booking

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"programhub/internal/app/commands"
	"programhub/internal/app/dto"
	"programhub/internal/app/middleware"
	"programhub/internal/app/policies"
	"programhub/internal/app/queries"
	domainbooking "programhub/internal/domain/booking"
	domainlistings "programhub/internal/domain/listings"
	"programhub/internal/domain/shared/money"
	"programhub/internal/infra/storage/memory"
)

type sentNotification struct {
	To       string
	Template string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *recordingNotifier) Send(ctx context.Context, to string, template string, data any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{To: to, Template: template})
	return nil
}

type harness struct {
	commands commands.Bus
	queries  queries.Bus
	listings *memory.ListingRepository
	notifier *recordingNotifier
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	listings := memory.NewListingRepository()
	box := memory.NewOutbox(nil)
	factory := memory.Factory{ListingsRepo: listings, BookingRepo: memory.NewBookingRepository(), Outbox: box}
	notifier := &recordingNotifier{}
	pricingPort := policies.MarketplacePricing{ConfiguredCurrency: "USD"}

	cmdBus := commands.NewInMemoryBus()
	commands.RegisterHandler[RequestBookingCommand, *dto.BookingDetail](cmdBus, &RequestBookingHandler{Pricing: pricingPort, Notifier: notifier, Outbox: box})
	commands.RegisterHandler[AcceptBookingCommand, *dto.BookingDetail](cmdBus, &AcceptBookingHandler{Notifier: notifier, Outbox: box})
	commands.RegisterHandler[DeclineBookingCommand, *dto.BookingDetail](cmdBus, &DeclineBookingHandler{Notifier: notifier, Outbox: box})
	commands.RegisterHandler[CancelBookingCommand, *dto.BookingDetail](cmdBus, &CancelBookingHandler{Notifier: notifier, Outbox: box})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler[ListHostBookingsQuery, dto.BookingCollection](queryBus, &ListHostBookingsHandler{UoWFactory: factory})
	queries.RegisterHandler[ListBuyerBookingsQuery, dto.BookingCollection](queryBus, &ListBuyerBookingsHandler{UoWFactory: factory})

	return &harness{
		commands: middleware.ChainCommands(cmdBus,
			middleware.Authorization(policies.RoleAuthorizer{}),
			middleware.Idempotency(memory.NewIdempotencyStore(), nil),
			middleware.OutboxFlush(box, nil),
			middleware.Transaction(factory, nil),
		),
		queries:  middleware.ChainQueries(queryBus, middleware.QueryAuthorization(policies.RoleAuthorizer{})),
		listings: listings,
		notifier: notifier,
	}
}

func (h *harness) seedListing(t *testing.T, id string, state domainlistings.ListingState, price money.Money, quantity *int) {
	t.Helper()
	listing, err := domainlistings.NewDraft(domainlistings.CreateDraftParams{ID: domainlistings.ListingID(id), Host: "host-1", Title: "Pottery"})
	require.NoError(t, err)
	option := domainlistings.PricingPerUnit
	if quantity != nil {
		option = domainlistings.PricingPerPackage
	}
	require.NoError(t, listing.UpdatePricing(domainlistings.PricingParams{Price: price, PricingOption: option, LimitedQuantity: quantity}))
	listing.State = state
	listing.ClearEvents()
	require.NoError(t, h.listings.Save(context.Background(), listing))
}

func as(id string, roles ...string) context.Context {
	return policies.WithActor(context.Background(), policies.Actor{ID: id, Roles: roles})
}

func TestRequestBookingHonoursGate(t *testing.T) {
	h := newHarness(t)
	h.seedListing(t, "open", domainlistings.StatePublished, money.Must(2500, "USD"), nil)
	h.seedListing(t, "closed", domainlistings.StateClosed, money.Must(2500, "USD"), nil)
	h.seedListing(t, "euro", domainlistings.StatePublished, money.Must(2500, "EUR"), nil)
	buyer := as("buyer-1")

	cases := []struct {
		name    string
		ctx     context.Context
		cmd     RequestBookingCommand
		wantErr error
	}{
		{name: "anonymous", ctx: context.Background(), cmd: RequestBookingCommand{ListingID: "open", BuyerID: "buyer-1", Quantity: 1}, wantErr: policies.ErrUnauthenticated},
		{name: "closed listing", ctx: buyer, cmd: RequestBookingCommand{ListingID: "closed", BuyerID: "buyer-1", Quantity: 1}, wantErr: domainbooking.ErrBookingNotAllowed},
		{name: "unsupported currency", ctx: buyer, cmd: RequestBookingCommand{ListingID: "euro", BuyerID: "buyer-1", Quantity: 1}, wantErr: domainbooking.ErrBookingNotAllowed},
		{name: "own listing", ctx: as("host-1"), cmd: RequestBookingCommand{ListingID: "open", BuyerID: "host-1", Quantity: 1}, wantErr: domainbooking.ErrBookingNotAllowed},
		{name: "zero quantity", ctx: buyer, cmd: RequestBookingCommand{ListingID: "open", BuyerID: "buyer-1"}, wantErr: domainbooking.ErrInvalidQuantity},
		{name: "missing listing", ctx: buyer, cmd: RequestBookingCommand{ListingID: "nope", BuyerID: "buyer-1", Quantity: 1}, wantErr: domainlistings.ErrListingNotFound},
		{name: "total overflows", ctx: buyer, cmd: RequestBookingCommand{ListingID: "open", BuyerID: "buyer-1", Quantity: math.MaxInt}, wantErr: domainbooking.ErrTotalOutOfRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := commands.Dispatch[RequestBookingCommand, *dto.BookingDetail](tc.ctx, h.commands, tc.cmd)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}

	booked, err := commands.Dispatch[RequestBookingCommand, *dto.BookingDetail](buyer, h.commands, RequestBookingCommand{ListingID: "open", BuyerID: "buyer-1", Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, string(domainbooking.StatePending), booked.Status)
	assert.Equal(t, int64(5000), booked.Total.Amount)
	assert.Equal(t, "host-1", booked.HostID)
	require.Len(t, h.notifier.sent, 1)
	assert.Equal(t, sentNotification{To: "host-1", Template: templateBookingRequested}, h.notifier.sent[0])
}

func TestRequestBookingPackageLimit(t *testing.T) {
	h := newHarness(t)
	h.seedListing(t, "pkg", domainlistings.StatePublished, money.Must(9000, "USD"), domainlistings.IntPtr(2))
	buyer := as("buyer-1")

	_, err := commands.Dispatch[RequestBookingCommand, *dto.BookingDetail](buyer, h.commands, RequestBookingCommand{ListingID: "pkg", BuyerID: "buyer-1", Quantity: 3})
	assert.ErrorIs(t, err, domainbooking.ErrQuantityExceeded)
}

func TestRequestBookingIsIdempotent(t *testing.T) {
	h := newHarness(t)
	h.seedListing(t, "open", domainlistings.StatePublished, money.Must(1000, "USD"), nil)
	buyer := as("buyer-1")
	cmd := RequestBookingCommand{ListingID: "open", BuyerID: "buyer-1", Quantity: 1, IdempotencyKeyV: "req-1"}

	first, err := commands.Dispatch[RequestBookingCommand, *dto.BookingDetail](buyer, h.commands, cmd)
	require.NoError(t, err)
	second, err := commands.Dispatch[RequestBookingCommand, *dto.BookingDetail](buyer, h.commands, cmd)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	list, err := queries.Ask[ListBuyerBookingsQuery, dto.BookingCollection](buyer, h.queries, ListBuyerBookingsQuery{BuyerID: "buyer-1"})
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)
	assert.Len(t, h.notifier.sent, 1)

	failing := RequestBookingCommand{ListingID: "open", BuyerID: "buyer-1", IdempotencyKeyV: "req-2"}
	_, err = commands.Dispatch[RequestBookingCommand, *dto.BookingDetail](buyer, h.commands, failing)
	assert.ErrorIs(t, err, domainbooking.ErrInvalidQuantity)
	_, err = commands.Dispatch[RequestBookingCommand, *dto.BookingDetail](buyer, h.commands, failing)
	assert.ErrorIs(t, err, middleware.ErrReplayedFailure)
}

func TestHostAndBuyerTransitions(t *testing.T) {
	h := newHarness(t)
	h.seedListing(t, "open", domainlistings.StatePublished, money.Must(1000, "USD"), nil)
	buyer := as("buyer-1")
	host := as("host-1", policies.RoleHost)

	first, err := commands.Dispatch[RequestBookingCommand, *dto.BookingDetail](buyer, h.commands, RequestBookingCommand{ListingID: "open", BuyerID: "buyer-1", Quantity: 1})
	require.NoError(t, err)
	second, err := commands.Dispatch[RequestBookingCommand, *dto.BookingDetail](buyer, h.commands, RequestBookingCommand{ListingID: "open", BuyerID: "buyer-1", Quantity: 1})
	require.NoError(t, err)

	pending, err := queries.Ask[ListHostBookingsQuery, dto.BookingCollection](host, h.queries, ListHostBookingsQuery{HostID: "host-1"})
	require.NoError(t, err)
	assert.Len(t, pending.Items, 2)

	_, err = commands.Dispatch[AcceptBookingCommand, *dto.BookingDetail](as("host-2", policies.RoleHost), h.commands, AcceptBookingCommand{HostID: "host-2", BookingID: first.ID})
	assert.ErrorIs(t, err, ErrBookingNotOwned)

	accepted, err := commands.Dispatch[AcceptBookingCommand, *dto.BookingDetail](host, h.commands, AcceptBookingCommand{HostID: "host-1", BookingID: first.ID})
	require.NoError(t, err)
	assert.Equal(t, string(domainbooking.StateAccepted), accepted.Status)

	declined, err := commands.Dispatch[DeclineBookingCommand, *dto.BookingDetail](host, h.commands, DeclineBookingCommand{HostID: "host-1", BookingID: second.ID, Reason: "full"})
	require.NoError(t, err)
	assert.Equal(t, string(domainbooking.StateDeclined), declined.Status)

	_, err = commands.Dispatch[CancelBookingCommand, *dto.BookingDetail](buyer, h.commands, CancelBookingCommand{BuyerID: "buyer-1", BookingID: second.ID})
	assert.ErrorIs(t, err, domainbooking.ErrInvalidState)
	_, err = commands.Dispatch[CancelBookingCommand, *dto.BookingDetail](as("buyer-2"), h.commands, CancelBookingCommand{BuyerID: "buyer-2", BookingID: first.ID})
	assert.ErrorIs(t, err, ErrBookingNotOwned)
	cancelled, err := commands.Dispatch[CancelBookingCommand, *dto.BookingDetail](buyer, h.commands, CancelBookingCommand{BuyerID: "buyer-1", BookingID: first.ID})
	require.NoError(t, err)
	assert.Equal(t, string(domainbooking.StateCancelled), cancelled.Status)

	all, err := queries.Ask[ListHostBookingsQuery, dto.BookingCollection](host, h.queries, ListHostBookingsQuery{HostID: "host-1", Status: "all"})
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)
	_, err = queries.Ask[ListHostBookingsQuery, dto.BookingCollection](host, h.queries, ListHostBookingsQuery{HostID: "host-1", Status: "archived"})
	assert.True(t, errors.Is(err, ErrInvalidStatus))

	templates := make([]string, 0, len(h.notifier.sent))
	for _, n := range h.notifier.sent {
		templates = append(templates, n.Template)
	}
	assert.Equal(t, []string{templateBookingRequested, templateBookingRequested, templateBookingAccepted, templateBookingDeclined, templateBookingCancelled}, templates)
}
