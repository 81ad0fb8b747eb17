package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"programhub/internal/app/commands"
	"programhub/internal/app/dto"
	listingapp "programhub/internal/app/handlers/listings"
)

type AdminHandler struct {
	Commands commands.Bus
	Logger   *slog.Logger
}

// Approve publishes a listing waiting for review.
func (h AdminHandler) Approve(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	listingID := strings.TrimSpace(c.Param("id"))
	if listingID == "" {
		badRequest(c, errListingIDRequired)
		return
	}
	cmd := listingapp.ApproveListingCommand{ListingID: listingID, ReviewerID: callerID(c)}
	result, err := commands.Dispatch[listingapp.ApproveListingCommand, *dto.HostListingDetail](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ AdminHTTP = AdminHandler{}
