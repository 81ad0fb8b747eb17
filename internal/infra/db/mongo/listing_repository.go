package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"programhub/internal/app/uow"
	domainlistings "programhub/internal/domain/listings"
	"programhub/internal/domain/shared/money"
)

type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{col: db.Collection("agg_listing")}
}

func (r *ListingRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "host_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "state", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "state", Value: 1}, {Key: "price.amount", Value: 1}}},
	})
	return err
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainlistings.ErrListingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Save upserts listing guarded by its version. A stale version either matches nothing
// or collides with the existing _id on upsert; both mean a concurrent update.
func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	doc := newListingDocument(listing)
	filter := bson.M{"_id": doc.ID, "version": listing.Version}
	doc.Version = listing.Version + 1
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return uow.ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return uow.ErrConcurrentUpdate
	}
	listing.Version = doc.Version
	return nil
}

// Search pushes the indexable filters and the ordering to Mongo, then applies the
// remaining filters in process before paging.
func (r *ListingRepository) Search(ctx context.Context, params domainlistings.SearchParams) (domainlistings.SearchResult, error) {
	opts := params.Normalized()
	cur, err := r.col.Find(ctx, searchFilter(opts), options.Find().SetSort(searchSort(opts.Sort)))
	if err != nil {
		return domainlistings.SearchResult{}, err
	}
	defer cur.Close(ctx)

	result := domainlistings.SearchResult{Items: make([]*domainlistings.Listing, 0, opts.Limit)}
	for cur.Next(ctx) {
		var doc listingDocument
		if err := cur.Decode(&doc); err != nil {
			return domainlistings.SearchResult{}, err
		}
		listing := doc.toAggregate()
		if !opts.Matches(listing) {
			continue
		}
		if result.Total >= opts.Offset && len(result.Items) < opts.Limit {
			result.Items = append(result.Items, listing)
		}
		result.Total++
	}
	if err := cur.Err(); err != nil {
		return domainlistings.SearchResult{}, err
	}
	return result, nil
}

func searchFilter(p domainlistings.SearchParams) bson.M {
	filter := bson.M{}
	if p.Host != "" {
		filter["host_id"] = string(p.Host)
	}
	if len(p.States) > 0 {
		states := make(bson.A, 0, len(p.States))
		for _, s := range p.States {
			states = append(states, string(s))
		}
		filter["state"] = bson.M{"$in": states}
	}
	if len(p.PricingOptions) > 0 {
		pricingOptions := make(bson.A, 0, len(p.PricingOptions))
		for _, o := range p.PricingOptions {
			pricingOptions = append(pricingOptions, string(o))
		}
		filter["public_data.pricing_option"] = bson.M{"$in": pricingOptions}
	}
	if p.Hours != nil {
		filter["public_data.hours"] = bson.M{"$gte": p.Hours.Min, "$lte": p.Hours.Max}
	}
	return filter
}

func searchSort(order domainlistings.CatalogSort) bson.D {
	switch order {
	case domainlistings.SortByPriceAsc:
		return bson.D{{Key: "price.amount", Value: 1}, {Key: "_id", Value: 1}}
	case domainlistings.SortByPriceDesc:
		return bson.D{{Key: "price.amount", Value: -1}, {Key: "_id", Value: 1}}
	case domainlistings.SortByUpdated:
		return bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: 1}}
	default:
		return bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}
	}
}

type listingDocument struct {
	ID          string             `bson:"_id"`
	HostID      string             `bson:"host_id"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	State       string             `bson:"state"`
	Price       money.Money        `bson:"price"`
	PublicData  publicDataDocument `bson:"public_data"`
	Location    *locationDocument  `bson:"location,omitempty"`
	Photos      []string           `bson:"photos"`
	CreatedAt   int64              `bson:"created_at"`
	UpdatedAt   int64              `bson:"updated_at"`
	Version     int64              `bson:"version"`
}

type publicDataDocument struct {
	PricingOption     string   `bson:"pricing_option"`
	Hours             *int     `bson:"hours,omitempty"`
	LimitedQuantity   *int     `bson:"limited_quantity,omitempty"`
	IsCustomHour      bool     `bson:"is_custom_hour"`
	Category          string   `bson:"category"`
	Tags              []string `bson:"tags"`
	Difficulty        string   `bson:"difficulty,omitempty"`
	TeachingLocations []string `bson:"teaching_locations"`
}

type locationDocument struct {
	Address  string  `bson:"address"`
	Building string  `bson:"building,omitempty"`
	Lat      float64 `bson:"lat"`
	Lng      float64 `bson:"lng"`
}

func newListingDocument(l *domainlistings.Listing) listingDocument {
	doc := listingDocument{
		ID:          string(l.ID),
		HostID:      string(l.Host),
		Title:       l.Title,
		Description: l.Description,
		State:       string(l.State),
		Price:       l.Price,
		PublicData: publicDataDocument{
			PricingOption:     string(l.PublicData.PricingOption),
			Hours:             l.PublicData.Hours,
			LimitedQuantity:   l.PublicData.LimitedQuantity,
			IsCustomHour:      l.PublicData.IsCustomHour,
			Category:          l.PublicData.Category,
			Tags:              l.PublicData.Tags,
			Difficulty:        string(l.PublicData.Difficulty),
			TeachingLocations: l.PublicData.TeachingLocations,
		},
		Photos:    l.Photos,
		CreatedAt: l.CreatedAt.UnixMilli(),
		UpdatedAt: l.UpdatedAt.UnixMilli(),
		Version:   l.Version,
	}
	if l.Location != nil {
		doc.Location = &locationDocument{
			Address:  l.Location.Address,
			Building: l.Location.Building,
			Lat:      l.Location.Lat,
			Lng:      l.Location.Lng,
		}
	}
	return doc
}

// toAggregate tolerates legacy state and option tags through the domain parsers.
func (d listingDocument) toAggregate() *domainlistings.Listing {
	state, ok := domainlistings.ParseState(d.State)
	if !ok {
		state = domainlistings.ListingState(d.State)
	}
	l := &domainlistings.Listing{
		ID:          domainlistings.ListingID(d.ID),
		Host:        domainlistings.HostID(d.HostID),
		Title:       d.Title,
		Description: d.Description,
		State:       state,
		Price:       d.Price,
		PublicData: domainlistings.PublicData{
			PricingOption:     domainlistings.ParsePricingOption(d.PublicData.PricingOption),
			Hours:             d.PublicData.Hours,
			LimitedQuantity:   d.PublicData.LimitedQuantity,
			IsCustomHour:      d.PublicData.IsCustomHour,
			Category:          d.PublicData.Category,
			Tags:              d.PublicData.Tags,
			Difficulty:        domainlistings.ParseDifficulty(d.PublicData.Difficulty),
			TeachingLocations: d.PublicData.TeachingLocations,
		},
		Photos:    d.Photos,
		CreatedAt: timestampToTime(d.CreatedAt),
		UpdatedAt: timestampToTime(d.UpdatedAt),
		Version:   d.Version,
	}
	if d.Location != nil {
		l.Location = &domainlistings.Location{
			Address:  d.Location.Address,
			Building: d.Location.Building,
			Lat:      d.Location.Lat,
			Lng:      d.Location.Lng,
		}
	}
	return l
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

var _ domainlistings.ListingRepository = (*ListingRepository)(nil)
