package ginserver

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	gin "github.com/gin-gonic/gin"

	"programhub/internal/app/dto"
	listingapp "programhub/internal/app/handlers/listings"
	"programhub/internal/app/queries"
)

// ListingHandler wires buyer-facing listing queries to HTTP.
type ListingHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

// Catalog responds with published listings matching the filter parameters.
func (h ListingHandler) Catalog(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "listing handler unavailable"})
		return
	}
	query := listingapp.SearchCatalogQuery{
		Hours:            c.Query(listingapp.ParamHours),
		TeachingLocation: c.Query(listingapp.ParamTeachingLocation),
		PricingOptions:   splitCSV(c.Query("pricing_option")),
		Keywords:         c.Query(listingapp.ParamKeywords),
		Sort:             c.Query("sort"),
		Limit:            parseInt(c.Query("limit")),
		Offset:           parseInt(c.Query("offset")),
		Locale:           c.Query("locale"),
	}
	result, err := queries.Ask[listingapp.SearchCatalogQuery, dto.ListingCatalog](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Page(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "listing handler unavailable"})
		return
	}
	listingID := strings.TrimSpace(c.Param("id"))
	if listingID == "" {
		badRequest(c, errListingIDRequired)
		return
	}
	query := listingapp.GetListingPageQuery{
		ListingID: listingID,
		ViewerID:  callerID(c),
		Locale:    c.Query("locale"),
	}
	result, err := queries.Ask[listingapp.GetListingPageQuery, dto.ListingPage](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ ListingHTTP = ListingHandler{}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func parseInt(raw string) int {
	value, _ := strconv.Atoi(strings.TrimSpace(raw))
	if value < 0 {
		return 0
	}
	return value
}
