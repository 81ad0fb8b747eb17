package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"programhub/internal/app/uow"
	domainbooking "programhub/internal/domain/booking"
	"programhub/internal/domain/listings"
	"programhub/internal/domain/pricing"
	"programhub/internal/domain/shared/money"
)

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection("agg_booking")}
}

func (r *BookingRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "buyer_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "host_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	return err
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
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
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) ListByBuyer(ctx context.Context, buyerID string) ([]*domainbooking.Booking, error) {
	return r.list(ctx, bson.M{"buyer_id": buyerID})
}

func (r *BookingRepository) ListByHost(ctx context.Context, hostID listings.HostID) ([]*domainbooking.Booking, error) {
	return r.list(ctx, bson.M{"host_id": string(hostID)})
}

func (r *BookingRepository) list(ctx context.Context, filter bson.M) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []bookingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainbooking.Booking, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toAggregate())
	}
	return out, nil
}

type bookingDocument struct {
	ID        string        `bson:"_id"`
	ListingID string        `bson:"listing_id"`
	HostID    string        `bson:"host_id"`
	BuyerID   string        `bson:"buyer_id"`
	Quantity  int           `bson:"quantity"`
	Quote     quoteDocument `bson:"quote"`
	Total     money.Money   `bson:"total"`
	State     string        `bson:"state"`
	Message   string        `bson:"message,omitempty"`
	CreatedAt int64         `bson:"created_at"`
	UpdatedAt int64         `bson:"updated_at"`
	Version   int64         `bson:"version"`
}

type quoteDocument struct {
	UnitPrice        money.Money `bson:"unit_price"`
	TotalPrice       money.Money `bson:"total_price"`
	UnitLabelKey     string      `bson:"unit_label_key"`
	PriceIsSupported bool        `bson:"price_is_supported"`
	PricingOption    string      `bson:"pricing_option"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:        string(b.ID),
		ListingID: string(b.ListingID),
		HostID:    string(b.HostID),
		BuyerID:   b.BuyerID,
		Quantity:  b.Quantity,
		Quote: quoteDocument{
			UnitPrice:        b.Quote.UnitPrice,
			TotalPrice:       b.Quote.TotalPrice,
			UnitLabelKey:     b.Quote.UnitLabelKey,
			PriceIsSupported: b.Quote.PriceIsSupported,
			PricingOption:    string(b.Quote.PricingOption),
		},
		Total:     b.Total,
		State:     string(b.State),
		Message:   b.Message,
		CreatedAt: b.CreatedAt.UnixMilli(),
		UpdatedAt: b.UpdatedAt.UnixMilli(),
		Version:   b.Version,
	}
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:        domainbooking.BookingID(d.ID),
		ListingID: listings.ListingID(d.ListingID),
		HostID:    listings.HostID(d.HostID),
		BuyerID:   d.BuyerID,
		Quantity:  d.Quantity,
		Quote: pricing.Quote{
			UnitPrice:        d.Quote.UnitPrice,
			TotalPrice:       d.Quote.TotalPrice,
			UnitLabelKey:     d.Quote.UnitLabelKey,
			PriceIsSupported: d.Quote.PriceIsSupported,
			PricingOption:    listings.PricingOption(d.Quote.PricingOption),
		},
		Total:     d.Total,
		State:     domainbooking.BookingState(d.State),
		Message:   d.Message,
		CreatedAt: timestampToTime(d.CreatedAt),
		UpdatedAt: timestampToTime(d.UpdatedAt),
		Version:   d.Version,
	}
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
