package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"programhub/internal/app/commands"
	"programhub/internal/app/dto"
	bookingapp "programhub/internal/app/handlers/booking"
	"programhub/internal/app/queries"
)

const headerIdempotencyKey = "Idempotency-Key"

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type requestBookingRequest struct {
	ListingID string `json:"listing_id" binding:"required"`
	Quantity  int    `json:"quantity"`
	Message   string `json:"message"`
}

// Request opens a booking request. Retries with the same Idempotency-Key replay the first outcome.
func (h BookingHandler) Request(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req requestBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := bookingapp.RequestBookingCommand{
		ListingID:       req.ListingID,
		BuyerID:         callerID(c),
		Quantity:        req.Quantity,
		Message:         req.Message,
		IdempotencyKeyV: c.GetHeader(headerIdempotencyKey),
	}
	result, err := commands.Dispatch[bookingapp.RequestBookingCommand, *dto.BookingDetail](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusAccepted, result)
}

func (h BookingHandler) ListMine(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	query := bookingapp.ListBuyerBookingsQuery{BuyerID: callerID(c), Status: c.Query("status")}
	result, err := queries.Ask[bookingapp.ListBuyerBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Cancel(c *gin.Context) {
	var req reasonRequest
	if !h.bindReason(c, &req) {
		return
	}
	cmd := bookingapp.CancelBookingCommand{BuyerID: callerID(c), BookingID: c.Param("id"), Reason: req.Reason}
	result, err := commands.Dispatch[bookingapp.CancelBookingCommand, *dto.BookingDetail](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) ListHost(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	query := bookingapp.ListHostBookingsQuery{HostID: callerID(c), Status: c.Query("status")}
	result, err := queries.Ask[bookingapp.ListHostBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Accept(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	cmd := bookingapp.AcceptBookingCommand{HostID: callerID(c), BookingID: c.Param("id")}
	result, err := commands.Dispatch[bookingapp.AcceptBookingCommand, *dto.BookingDetail](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Decline(c *gin.Context) {
	var req reasonRequest
	if !h.bindReason(c, &req) {
		return
	}
	cmd := bookingapp.DeclineBookingCommand{HostID: callerID(c), BookingID: c.Param("id"), Reason: req.Reason}
	result, err := commands.Dispatch[bookingapp.DeclineBookingCommand, *dto.BookingDetail](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) bindReason(c *gin.Context, req *reasonRequest) bool {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return false
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(req); err != nil {
			badRequest(c, err)
			return false
		}
	}
	return true
}

var _ BookingHTTP = BookingHandler{}
