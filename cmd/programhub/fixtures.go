package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	domainlistings "programhub/internal/domain/listings"
	"programhub/internal/domain/shared/money"
)

type listingFixture struct {
	ID                string           `json:"id"`
	Host              string           `json:"host"`
	Title             string           `json:"title"`
	Description       string           `json:"description"`
	Category          string           `json:"category"`
	Tags              []string         `json:"tags"`
	Difficulty        string           `json:"difficulty"`
	TeachingLocations []string         `json:"teaching_locations"`
	Location          *fixtureLocation `json:"location"`
	PriceSubunits     int64            `json:"price_subunits"`
	Currency          string           `json:"currency"`
	PricingOption     string           `json:"pricing_option"`
	Hours             *int             `json:"hours"`
	LimitedQuantity   *int             `json:"limited_quantity"`
	IsCustomHour      bool             `json:"is_custom_hour"`
	Photos            []string         `json:"photos"`
	State             string           `json:"state"`
	CreatedAt         string           `json:"created_at"`
}

type fixtureLocation struct {
	Address  string  `json:"address"`
	Building string  `json:"building"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
}

// loadListingFixtures seeds the repository with demo programs. Fixtures that already
// exist are left alone so restarts against a persistent store are harmless.
func loadListingFixtures(ctx context.Context, repo domainlistings.ListingRepository, path, currency string, logger *slog.Logger) error {
	if repo == nil {
		return errors.New("fixtures: listing repository is not configured")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("listing fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	if len(data) == 0 {
		logger.Warn("listing fixtures file empty", "path", path)
		return nil
	}

	var fixtures []listingFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	now := time.Now().UTC()
	imported := 0
	for _, fx := range fixtures {
		if existing, err := repo.ByID(ctx, domainlistings.ListingID(fx.ID)); err == nil && existing != nil {
			continue
		}
		listing, err := fx.build(currency, now)
		if err != nil {
			logger.Error("fixture invalid", "listing_id", fx.ID, "error", err)
			continue
		}
		if err := repo.Save(ctx, listing); err != nil {
			logger.Error("cannot store fixture listing", "listing_id", fx.ID, "error", err)
			continue
		}
		imported++
	}
	logger.Info("listing fixtures imported", "count", imported, "path", path)
	return nil
}

// build replays the wizard on a fresh draft so fixtures obey the same invariants
// as listings created through the API.
func (fx listingFixture) build(currency string, now time.Time) (*domainlistings.Listing, error) {
	createdAt := parseFixtureTime(fx.CreatedAt, now)
	listing, err := domainlistings.NewDraft(domainlistings.CreateDraftParams{
		ID:          domainlistings.ListingID(fx.ID),
		Host:        domainlistings.HostID(fx.Host),
		Title:       fx.Title,
		Description: fx.Description,
		Category:    fx.Category,
		Tags:        fx.Tags,
		Difficulty:  domainlistings.ParseDifficulty(fx.Difficulty),
		Now:         createdAt,
	})
	if err != nil {
		return nil, err
	}
	var loc *domainlistings.Location
	if fx.Location != nil {
		loc = &domainlistings.Location{Address: fx.Location.Address, Building: fx.Location.Building, Lat: fx.Location.Lat, Lng: fx.Location.Lng}
	}
	if err := listing.UpdateLocation(domainlistings.LocationParams{TeachingLocations: fx.TeachingLocations, Location: loc, Now: createdAt}); err != nil {
		return nil, err
	}
	if fx.Currency != "" {
		currency = fx.Currency
	}
	price, err := money.New(fx.PriceSubunits, currency)
	if err != nil {
		return nil, err
	}
	if err := listing.UpdatePricing(domainlistings.PricingParams{
		Price:           price,
		PricingOption:   domainlistings.PricingOption(fx.PricingOption),
		Hours:           fx.Hours,
		LimitedQuantity: fx.LimitedQuantity,
		IsCustomHour:    fx.IsCustomHour,
		Now:             createdAt,
	}); err != nil {
		return nil, err
	}
	for _, photo := range fx.Photos {
		if err := listing.AddPhoto(photo, createdAt); err != nil {
			return nil, err
		}
	}

	state := domainlistings.StatePublished
	if strings.TrimSpace(fx.State) != "" {
		parsed, ok := domainlistings.ParseState(fx.State)
		if !ok {
			return nil, fmt.Errorf("unknown state %q", fx.State)
		}
		state = parsed
	}
	if state != domainlistings.StateDraft {
		if err := listing.SubmitForApproval(now); err != nil {
			return nil, err
		}
	}
	if state == domainlistings.StatePublished || state == domainlistings.StateClosed {
		if err := listing.Approve(now); err != nil {
			return nil, err
		}
	}
	if state == domainlistings.StateClosed {
		if err := listing.Close(now, "fixture"); err != nil {
			return nil, err
		}
	}
	listing.ClearEvents()
	return listing, nil
}

func parseFixtureTime(value string, fallback time.Time) time.Time {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC()
	}
	return fallback
}

func defaultListingFixturesPath() string {
	candidates := []string{
		filepath.Join("data", "listings.json"),
		filepath.Join("..", "..", "data", "listings.json"),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return candidates[0]
}
