package dto

import (
	"time"

	domainbooking "programhub/internal/domain/booking"
)

type BookingDetail struct {
	ID           string    `json:"id"`
	ListingID    string    `json:"listing_id"`
	HostID       string    `json:"host_id"`
	BuyerID      string    `json:"buyer_id"`
	Quantity     int       `json:"quantity"`
	UnitLabelKey string    `json:"unit_label_key"`
	UnitTotal    MoneyDTO  `json:"unit_total"`
	Total        MoneyDTO  `json:"total"`
	Status       string    `json:"status"`
	Message      string    `json:"message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type BookingCollection struct {
	Items []BookingDetail `json:"items"`
}

func MapBookingDetail(b *domainbooking.Booking) BookingDetail {
	if b == nil {
		return BookingDetail{}
	}
	return BookingDetail{
		ID:           string(b.ID),
		ListingID:    string(b.ListingID),
		HostID:       string(b.HostID),
		BuyerID:      b.BuyerID,
		Quantity:     b.Quantity,
		UnitLabelKey: b.Quote.UnitLabelKey,
		UnitTotal:    MoneyDTO{Amount: b.Quote.TotalPrice.Amount, Currency: b.Quote.TotalPrice.Currency},
		Total:        MoneyDTO{Amount: b.Total.Amount, Currency: b.Total.Currency},
		Status:       string(b.State),
		Message:      b.Message,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}
