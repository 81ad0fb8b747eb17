package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	bookingapp "programhub/internal/app/handlers/booking"
	listingapp "programhub/internal/app/handlers/listings"
	"programhub/internal/app/middleware"
	"programhub/internal/app/policies"
	"programhub/internal/app/uow"
	domainbooking "programhub/internal/domain/booking"
	domainlistings "programhub/internal/domain/listings"
	"programhub/internal/domain/pricing"
	"programhub/internal/domain/shared/money"
	"programhub/internal/infra/storage/s3"
)

var errListingIDRequired = errors.New("listing id is required")

// statusFor classifies application errors for the HTTP response.
func statusFor(err error) int {
	switch {
	case errors.Is(err, policies.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, policies.ErrForbidden),
		errors.Is(err, domainbooking.ErrBookingNotAllowed):
		return http.StatusForbidden
	case listingapp.IsNotFound(err),
		errors.Is(err, domainbooking.ErrBookingNotFound),
		errors.Is(err, bookingapp.ErrBookingNotOwned):
		return http.StatusNotFound
	case errors.Is(err, middleware.ErrReplayedFailure),
		errors.Is(err, uow.ErrConcurrentUpdate),
		errors.Is(err, domainlistings.ErrInvalidState),
		errors.Is(err, domainlistings.ErrClosedListingChanged),
		errors.Is(err, domainbooking.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, pricing.ErrInvalidPricingData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, s3.ErrUploaderDisabled):
		return http.StatusServiceUnavailable
	case isValidationError(err):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, domainlistings.ErrTitleRequired),
		errors.Is(err, domainlistings.ErrPriceRequired),
		errors.Is(err, domainlistings.ErrNegativePrice),
		errors.Is(err, domainlistings.ErrHoursRequired),
		errors.Is(err, domainlistings.ErrHoursOutOfRange),
		errors.Is(err, domainlistings.ErrQuantityRequired),
		errors.Is(err, domainlistings.ErrAddressRequired),
		errors.Is(err, domainlistings.ErrTeachingLocation),
		errors.Is(err, listingapp.ErrUnsupportedCurrency),
		errors.Is(err, listingapp.ErrPriceBelowMinimum),
		errors.Is(err, listingapp.ErrUnknownTab),
		errors.Is(err, listingapp.ErrEmptyPhoto),
		errors.Is(err, money.ErrInvalidCurrency),
		errors.Is(err, domainbooking.ErrInvalidQuantity),
		errors.Is(err, domainbooking.ErrQuantityExceeded),
		errors.Is(err, domainbooking.ErrTotalOutOfRange),
		errors.Is(err, bookingapp.ErrInvalidStatus):
		return true
	}
	return false
}

func respondWithError(c *gin.Context, logger *slog.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		if logger != nil {
			logger.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		}
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
