package listings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"programhub/internal/app/commands"
	"programhub/internal/app/dto"
	"programhub/internal/app/handlers/support"
	"programhub/internal/app/outbox"
	"programhub/internal/app/policies"
	domainlistings "programhub/internal/domain/listings"
	"programhub/internal/domain/publication"
	"programhub/internal/domain/shared/money"
)

const (
	createDraftKey    = "host.listings.create_draft"
	updateListingKey  = "host.listings.update"
	submitListingKey  = "host.listings.submit"
	closeListingKey   = "host.listings.close"
	approveListingKey = "admin.listings.approve"
)

type GeneralPayload struct {
	Title       string
	Description string
	Category    string
	Tags        []string
	Difficulty  string
}

type LocationPayload struct {
	TeachingLocations []string
	Address           string
	Building          string
	Lat               float64
	Lng               float64
}

type PricingPayload struct {
	Amount          int64
	Currency        string
	PricingOption   string
	Hours           *int
	LimitedQuantity *int
	IsCustomHour    bool
}

// ListingSettings holds the marketplace rules the wizard enforces.
type ListingSettings struct {
	MinPriceSubunits int64
	Locale           string
	Formatter        money.Formatter
}

// EditorResult is returned by wizard commands.
type EditorResult struct {
	Editor dto.ListingEditor `json:"editor"`
}

type CreateDraftCommand struct {
	HostID  string
	General GeneralPayload
}

func (c CreateDraftCommand) Key() string { return createDraftKey }

func (c CreateDraftCommand) RequiredRole() string { return policies.RoleHost }

type CreateDraftHandler struct {
	Pricing  policies.PricingPort
	Settings ListingSettings
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
	Logger   *slog.Logger
}

func (h *CreateDraftHandler) Handle(ctx context.Context, cmd CreateDraftCommand) (*EditorResult, error) {
	if strings.TrimSpace(cmd.HostID) == "" {
		return nil, errors.New("host id is required")
	}
	unit, err := support.RequireUnit(ctx)
	if err != nil {
		return nil, err
	}
	listing, err := domainlistings.NewDraft(domainlistings.CreateDraftParams{
		ID:          domainlistings.ListingID(uuid.NewString()),
		Host:        domainlistings.HostID(cmd.HostID),
		Title:       cmd.General.Title,
		Description: cmd.General.Description,
		Category:    cmd.General.Category,
		Tags:        cmd.General.Tags,
		Difficulty:  domainlistings.ParseDifficulty(cmd.General.Difficulty),
		Now:         time.Now(),
	})
	if err != nil {
		return nil, err
	}
	if err := saveAndRecord(ctx, unit.Listings(), h.Outbox, h.Encoder, listing); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("listing draft created", "listing_id", listing.ID, "host_id", cmd.HostID)
	}
	editor := buildEditor(listing, publication.TabGeneral, true, h.Pricing.Currency(), h.Settings.Formatter, h.Settings.Locale)
	return &EditorResult{Editor: editor}, nil
}

// UpdateListingCommand saves one wizard tab. Exactly the payload matching Tab is read.
type UpdateListingCommand struct {
	HostID           string
	ListingID        string
	Tab              string
	IsNewListingFlow bool
	General          *GeneralPayload
	Location         *LocationPayload
	Pricing          *PricingPayload
}

func (c UpdateListingCommand) Key() string { return updateListingKey }

func (c UpdateListingCommand) RequiredRole() string { return policies.RoleHost }

type UpdateListingHandler struct {
	Pricing  policies.PricingPort
	Settings ListingSettings
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
	Logger   *slog.Logger
}

func (h *UpdateListingHandler) Handle(ctx context.Context, cmd UpdateListingCommand) (*EditorResult, error) {
	tab, ok := publication.ParseTab(cmd.Tab)
	if !ok {
		return nil, ErrUnknownTab
	}
	unit, err := support.RequireUnit(ctx)
	if err != nil {
		return nil, err
	}
	listing, err := loadOwned(ctx, unit, cmd.HostID, cmd.ListingID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	switch tab {
	case publication.TabGeneral:
		if cmd.General == nil {
			return nil, fmt.Errorf("%w: general payload missing", ErrUnknownTab)
		}
		err = listing.UpdateGeneral(domainlistings.GeneralParams{
			Title:       cmd.General.Title,
			Description: cmd.General.Description,
			Category:    cmd.General.Category,
			Tags:        cmd.General.Tags,
			Difficulty:  domainlistings.ParseDifficulty(cmd.General.Difficulty),
			Now:         now,
		})
	case publication.TabLocation:
		if cmd.Location == nil {
			return nil, fmt.Errorf("%w: location payload missing", ErrUnknownTab)
		}
		err = listing.UpdateLocation(domainlistings.LocationParams{
			TeachingLocations: cmd.Location.TeachingLocations,
			Location: &domainlistings.Location{
				Address:  cmd.Location.Address,
				Building: cmd.Location.Building,
				Lat:      cmd.Location.Lat,
				Lng:      cmd.Location.Lng,
			},
			Now: now,
		})
	case publication.TabPricing:
		if cmd.Pricing == nil {
			return nil, fmt.Errorf("%w: pricing payload missing", ErrUnknownTab)
		}
		err = h.updatePricing(listing, *cmd.Pricing, now)
	default:
		// availability and photos are saved through their own endpoints
	}
	if err != nil {
		return nil, err
	}

	if err := saveAndRecord(ctx, unit.Listings(), h.Outbox, h.Encoder, listing); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("listing tab saved", "listing_id", listing.ID, "tab", tab)
	}
	next := tab
	if cmd.IsNewListingFlow {
		next = publication.NextTab(tab)
	}
	editor := buildEditor(listing, next, cmd.IsNewListingFlow, h.Pricing.Currency(), h.Settings.Formatter, h.Settings.Locale)
	return &EditorResult{Editor: editor}, nil
}

func (h *UpdateListingHandler) updatePricing(listing *domainlistings.Listing, payload PricingPayload, now time.Time) error {
	price, err := money.New(payload.Amount, payload.Currency)
	if err != nil {
		return err
	}
	if !price.IsSupported(h.Pricing.Currency()) {
		return ErrUnsupportedCurrency
	}
	if h.Settings.MinPriceSubunits > 0 && price.Amount < h.Settings.MinPriceSubunits {
		return ErrPriceBelowMinimum
	}
	return listing.UpdatePricing(domainlistings.PricingParams{
		Price:           price,
		PricingOption:   domainlistings.PricingOption(payload.PricingOption),
		Hours:           payload.Hours,
		LimitedQuantity: payload.LimitedQuantity,
		IsCustomHour:    payload.IsCustomHour,
		Now:             now,
	})
}

type SubmitListingCommand struct {
	HostID    string
	ListingID string
}

func (c SubmitListingCommand) Key() string { return submitListingKey }

func (c SubmitListingCommand) RequiredRole() string { return policies.RoleHost }

type SubmitListingHandler struct {
	Pricing  policies.PricingPort
	Settings ListingSettings
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
	Logger   *slog.Logger
}

// Handle submits the draft; the editor in the result carries the redirect target.
func (h *SubmitListingHandler) Handle(ctx context.Context, cmd SubmitListingCommand) (*EditorResult, error) {
	unit, err := support.RequireUnit(ctx)
	if err != nil {
		return nil, err
	}
	listing, err := loadOwned(ctx, unit, cmd.HostID, cmd.ListingID)
	if err != nil {
		return nil, err
	}
	if _, err := h.Pricing.Quote(ctx, listing); err != nil {
		return nil, err
	}
	if err := listing.SubmitForApproval(time.Now()); err != nil {
		return nil, err
	}
	if err := saveAndRecord(ctx, unit.Listings(), h.Outbox, h.Encoder, listing); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("listing submitted for approval", "listing_id", listing.ID, "host_id", cmd.HostID)
	}
	editor := buildEditor(listing, publication.Tabs[len(publication.Tabs)-1], true, h.Pricing.Currency(), h.Settings.Formatter, h.Settings.Locale)
	return &EditorResult{Editor: editor}, nil
}

type CloseListingCommand struct {
	HostID    string
	ListingID string
	Reason    string
}

func (c CloseListingCommand) Key() string { return closeListingKey }

func (c CloseListingCommand) RequiredRole() string { return policies.RoleHost }

type CloseListingHandler struct {
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
}

func (h *CloseListingHandler) Handle(ctx context.Context, cmd CloseListingCommand) (*dto.HostListingDetail, error) {
	unit, err := support.RequireUnit(ctx)
	if err != nil {
		return nil, err
	}
	listing, err := loadOwned(ctx, unit, cmd.HostID, cmd.ListingID)
	if err != nil {
		return nil, err
	}
	if err := listing.Close(time.Now(), cmd.Reason); err != nil {
		return nil, err
	}
	if err := saveAndRecord(ctx, unit.Listings(), h.Outbox, h.Encoder, listing); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("listing closed", "listing_id", listing.ID, "host_id", cmd.HostID)
	}
	result := dto.MapHostListingDetail(listing)
	return &result, nil
}

type ApproveListingCommand struct {
	ListingID  string
	ReviewerID string
}

func (c ApproveListingCommand) Key() string { return approveListingKey }

func (c ApproveListingCommand) RequiredRole() string { return policies.RoleAdmin }

type ApproveListingHandler struct {
	Notifier policies.Notifier
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
	Logger   *slog.Logger
}

func (h *ApproveListingHandler) Handle(ctx context.Context, cmd ApproveListingCommand) (*dto.HostListingDetail, error) {
	if strings.TrimSpace(cmd.ListingID) == "" {
		return nil, errors.New("listing id is required")
	}
	unit, err := support.RequireUnit(ctx)
	if err != nil {
		return nil, err
	}
	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}
	if err := listing.Approve(time.Now()); err != nil {
		return nil, err
	}
	if err := saveAndRecord(ctx, unit.Listings(), h.Outbox, h.Encoder, listing); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("listing approved", "listing_id", listing.ID, "reviewer_id", cmd.ReviewerID)
	}
	if h.Notifier != nil {
		if err := h.Notifier.Send(ctx, string(listing.Host), "listing_published", map[string]string{"listing_id": string(listing.ID)}); err != nil && h.Logger != nil {
			h.Logger.Warn("listing approval notification failed", "listing_id", listing.ID, "error", err)
		}
	}
	result := dto.MapHostListingDetail(listing)
	return &result, nil
}

var (
	_ commands.Handler[CreateDraftCommand, *EditorResult]             = (*CreateDraftHandler)(nil)
	_ commands.Handler[UpdateListingCommand, *EditorResult]           = (*UpdateListingHandler)(nil)
	_ commands.Handler[SubmitListingCommand, *EditorResult]           = (*SubmitListingHandler)(nil)
	_ commands.Handler[CloseListingCommand, *dto.HostListingDetail]   = (*CloseListingHandler)(nil)
	_ commands.Handler[ApproveListingCommand, *dto.HostListingDetail] = (*ApproveListingHandler)(nil)
)
