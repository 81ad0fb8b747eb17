package ginserver

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	gin "github.com/gin-gonic/gin"

	"programhub/internal/app/commands"
	"programhub/internal/app/dto"
	listingapp "programhub/internal/app/handlers/listings"
	"programhub/internal/app/queries"
)

const maxListingPhotoSizeBytes int64 = 10 * 1024 * 1024

type HostListingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

func (h HostListingHandler) List(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries bus unavailable"})
		return
	}
	query := listingapp.ListHostListingsQuery{
		HostID: callerID(c),
		States: splitCSV(c.Query("state")),
		Limit:  parseInt(c.Query("limit")),
		Offset: parseInt(c.Query("offset")),
	}
	result, err := queries.Ask[listingapp.ListHostListingsQuery, dto.HostListingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HostListingHandler) Create(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands bus unavailable"})
		return
	}
	var req generalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := listingapp.CreateDraftCommand{HostID: callerID(c), General: req.payload()}
	result, err := commands.Dispatch[listingapp.CreateDraftCommand, *listingapp.EditorResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.Header("Location", fmt.Sprintf("/api/v1/host/listings/%s", result.Editor.Listing.ID))
	c.JSON(http.StatusCreated, result)
}

// Editor returns the wizard state. ?new=true marks the new-listing flow.
func (h HostListingHandler) Editor(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries bus unavailable"})
		return
	}
	query := listingapp.GetListingEditorQuery{
		HostID:           callerID(c),
		ListingID:        c.Param("id"),
		Tab:              c.Query("tab"),
		IsNewListingFlow: parseBool(c.Query("new")),
	}
	result, err := queries.Ask[listingapp.GetListingEditorQuery, dto.ListingEditor](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HostListingHandler) Update(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands bus unavailable"})
		return
	}
	var req updateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	tab := strings.TrimSpace(req.Tab)
	if tab == "" {
		tab = c.Query("tab")
	}
	cmd := listingapp.UpdateListingCommand{
		HostID:           callerID(c),
		ListingID:        c.Param("id"),
		Tab:              tab,
		IsNewListingFlow: req.IsNewListingFlow || parseBool(c.Query("new")),
	}
	if req.General != nil {
		general := req.General.payload()
		cmd.General = &general
	}
	if req.Location != nil {
		location := req.Location.payload()
		cmd.Location = &location
	}
	if req.Pricing != nil {
		pricing := req.Pricing.payload()
		cmd.Pricing = &pricing
	}
	result, err := commands.Dispatch[listingapp.UpdateListingCommand, *listingapp.EditorResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HostListingHandler) Submit(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands bus unavailable"})
		return
	}
	cmd := listingapp.SubmitListingCommand{HostID: callerID(c), ListingID: c.Param("id")}
	result, err := commands.Dispatch[listingapp.SubmitListingCommand, *listingapp.EditorResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HostListingHandler) Close(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands bus unavailable"})
		return
	}
	var req reasonRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	cmd := listingapp.CloseListingCommand{HostID: callerID(c), ListingID: c.Param("id"), Reason: req.Reason}
	result, err := commands.Dispatch[listingapp.CloseListingCommand, *dto.HostListingDetail](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HostListingHandler) UploadPhoto(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands bus unavailable"})
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		badRequest(c, fmt.Errorf("file is required: %w", err))
		return
	}
	if fileHeader.Size > maxListingPhotoSizeBytes {
		badRequest(c, fmt.Errorf("file too large (max %d MB)", maxListingPhotoSizeBytes/1024/1024))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		badRequest(c, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxListingPhotoSizeBytes+1))
	if err != nil {
		respondWithError(c, h.Logger, fmt.Errorf("read upload: %w", err))
		return
	}
	if int64(len(data)) > maxListingPhotoSizeBytes {
		badRequest(c, fmt.Errorf("file too large (max %d MB)", maxListingPhotoSizeBytes/1024/1024))
		return
	}
	contentType := http.DetectContentType(data)
	if len(data) > 0 && !isAllowedImageType(contentType) {
		badRequest(c, fmt.Errorf("unsupported content type: %s", contentType))
		return
	}

	cmd := listingapp.UploadPhotoCommand{
		HostID:      callerID(c),
		ListingID:   c.Param("id"),
		FileName:    fileHeader.Filename,
		ContentType: contentType,
		Data:        data,
	}
	result, err := commands.Dispatch[listingapp.UploadPhotoCommand, *dto.HostListingPhotoUploadResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

var _ HostListingHTTP = HostListingHandler{}

func isAllowedImageType(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/png", "image/webp", "image/gif":
		return true
	}
	return false
}

func parseBool(raw string) bool {
	v, _ := strconv.ParseBool(strings.TrimSpace(raw))
	return v
}

type generalRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	Difficulty  string   `json:"difficulty"`
}

func (r generalRequest) payload() listingapp.GeneralPayload {
	return listingapp.GeneralPayload{
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		Tags:        r.Tags,
		Difficulty:  r.Difficulty,
	}
}

type locationRequest struct {
	TeachingLocations []string `json:"teaching_locations"`
	Address           string   `json:"address"`
	Building          string   `json:"building"`
	Lat               float64  `json:"lat"`
	Lng               float64  `json:"lng"`
}

func (r locationRequest) payload() listingapp.LocationPayload {
	return listingapp.LocationPayload{
		TeachingLocations: r.TeachingLocations,
		Address:           r.Address,
		Building:          r.Building,
		Lat:               r.Lat,
		Lng:               r.Lng,
	}
}

type pricingRequest struct {
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	PricingOption   string `json:"pricing_option"`
	Hours           *int   `json:"hours"`
	LimitedQuantity *int   `json:"limited_quantity"`
	IsCustomHour    bool   `json:"is_custom_hour"`
}

func (r pricingRequest) payload() listingapp.PricingPayload {
	return listingapp.PricingPayload{
		Amount:          r.Amount,
		Currency:        r.Currency,
		PricingOption:   r.PricingOption,
		Hours:           r.Hours,
		LimitedQuantity: r.LimitedQuantity,
		IsCustomHour:    r.IsCustomHour,
	}
}

type updateListingRequest struct {
	Tab              string           `json:"tab"`
	IsNewListingFlow bool             `json:"is_new_listing_flow"`
	General          *generalRequest  `json:"general"`
	Location         *locationRequest `json:"location"`
	Pricing          *pricingRequest  `json:"pricing"`
}

type reasonRequest struct {
	Reason string `json:"reason"`
}
