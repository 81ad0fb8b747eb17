package ginserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"programhub/internal/app/commands"
	"programhub/internal/app/dto"
	bookingapp "programhub/internal/app/handlers/booking"
	listingapp "programhub/internal/app/handlers/listings"
	"programhub/internal/app/middleware"
	"programhub/internal/app/policies"
	"programhub/internal/app/queries"
	"programhub/internal/app/uow"
	domainbooking "programhub/internal/domain/booking"
	domainlistings "programhub/internal/domain/listings"
	"programhub/internal/domain/pricing"
	"programhub/internal/domain/shared/money"
	"programhub/internal/infra/obs"
	"programhub/internal/infra/storage/s3"
)

var testSecret = []byte("test-secret")

type recordingBus struct {
	ctx    context.Context
	last   any
	result any
	err    error
}

func (b *recordingBus) Dispatch(ctx context.Context, cmd commands.Command) (any, error) {
	b.ctx, b.last = ctx, cmd
	return b.result, b.err
}

func (b *recordingBus) Ask(ctx context.Context, q queries.Query) (any, error) {
	b.ctx, b.last = ctx, q
	return b.result, b.err
}

func newTestRouter(bus *recordingBus) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return newRouter(obs.Middleware{}, obs.HealthHandlers{}, Handlers{
		Listing:        ListingHandler{Queries: bus},
		HostListing:    HostListingHandler{Commands: bus, Queries: bus},
		Booking:        BookingHandler{Commands: bus, Queries: bus},
		Admin:          AdminHandler{Commands: bus},
		AuthMiddleware: JWTAuth{Secret: testSecret}.Handle,
	})
}

func bearer(t *testing.T, subject string, roles ...string) string {
	t.Helper()
	token, err := SignToken(testSecret, subject, roles, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func perform(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	router := newRouter(obs.Middleware{}, obs.HealthHandlers{Ready: func(context.Context) error { return errors.New("mongo down") }}, Handlers{})

	rec := perform(router, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(obs.HeaderRequestID))

	rec = perform(router, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestJWTAuthSetsActor(t *testing.T) {
	bus := &recordingBus{result: dto.ListingPage{}}
	router := newTestRouter(bus)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings/lst-1", nil)
	req.Header.Set("Authorization", bearer(t, "buyer-1", "buyer"))
	rec := perform(router, req)
	require.Equal(t, http.StatusOK, rec.Code)

	actor, ok := policies.ActorFromContext(bus.ctx)
	require.True(t, ok)
	assert.Equal(t, "buyer-1", actor.ID)
	assert.Equal(t, []string{"buyer"}, actor.Roles)
	assert.Equal(t, listingapp.GetListingPageQuery{ListingID: "lst-1", ViewerID: "buyer-1"}, bus.last)
}

func TestJWTAuthRejectsBadTokens(t *testing.T) {
	bus := &recordingBus{result: dto.ListingPage{}}
	router := newTestRouter(bus)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings/lst-1", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, perform(router, req).Code)

	forged, err := SignToken([]byte("other-secret"), "admin-1", []string{"admin"}, time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/api/v1/listings/lst-1", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	assert.Equal(t, http.StatusUnauthorized, perform(router, req).Code)

	expired, err := SignToken(testSecret, "buyer-1", nil, -time.Minute)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/api/v1/listings/lst-1", nil)
	req.Header.Set("Authorization", "Bearer "+expired)
	assert.Equal(t, http.StatusUnauthorized, perform(router, req).Code)
	assert.Nil(t, bus.last)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/listings/lst-1", nil)
	assert.Equal(t, http.StatusOK, perform(router, req).Code)
	_, ok := policies.ActorFromContext(bus.ctx)
	assert.False(t, ok)
}

func TestCatalogPassesFilters(t *testing.T) {
	bus := &recordingBus{result: dto.ListingCatalog{}}
	router := newTestRouter(bus)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings?pub_hours=1,3&pub_teachingLocation=has_any:onsite&pricing_option=hourly,%20package&keywords=yoga&sort=price_asc&limit=10&offset=-5", nil)
	rec := perform(router, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, listingapp.SearchCatalogQuery{
		Hours:            "1,3",
		TeachingLocation: "has_any:onsite",
		PricingOptions:   []string{"hourly", "package"},
		Keywords:         "yoga",
		Sort:             "price_asc",
		Limit:            10,
		Offset:           0,
	}, bus.last)
}

func TestCreateDraftRespondsWithLocation(t *testing.T) {
	result := &listingapp.EditorResult{Editor: dto.ListingEditor{Listing: dto.HostListingDetail{ID: "lst-9"}}}
	bus := &recordingBus{result: result}
	router := newTestRouter(bus)

	body := bytes.NewBufferString(`{"title":"Watercolor","tags":["art"],"difficulty":"beginner"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/host/listings", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, "host-1", policies.RoleHost))
	rec := perform(router, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/api/v1/host/listings/lst-9", rec.Header().Get("Location"))
	cmd, ok := bus.last.(listingapp.CreateDraftCommand)
	require.True(t, ok)
	assert.Equal(t, "host-1", cmd.HostID)
	assert.Equal(t, "Watercolor", cmd.General.Title)
	assert.Equal(t, "beginner", cmd.General.Difficulty)
}

func TestUpdateBuildsTabPayload(t *testing.T) {
	bus := &recordingBus{result: &listingapp.EditorResult{}}
	router := newTestRouter(bus)

	body := bytes.NewBufferString(`{"pricing":{"amount":1500,"currency":"USD","pricing_option":"package","limited_quantity":4}}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/host/listings/lst-1?tab=pricing&new=true", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, "host-1", policies.RoleHost))
	rec := perform(router, req)

	require.Equal(t, http.StatusOK, rec.Code)
	cmd, ok := bus.last.(listingapp.UpdateListingCommand)
	require.True(t, ok)
	assert.Equal(t, "pricing", cmd.Tab)
	assert.True(t, cmd.IsNewListingFlow)
	assert.Nil(t, cmd.General)
	require.NotNil(t, cmd.Pricing)
	assert.Equal(t, int64(1500), cmd.Pricing.Amount)
	require.NotNil(t, cmd.Pricing.LimitedQuantity)
	assert.Equal(t, 4, *cmd.Pricing.LimitedQuantity)
}

func TestUploadPhoto(t *testing.T) {
	bus := &recordingBus{result: &dto.HostListingPhotoUploadResult{ListingID: "lst-1", URL: "https://cdn/x.png"}}
	router := newTestRouter(bus)

	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "cover.png")
	require.NoError(t, err)
	_, err = part.Write(png)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/host/listings/lst-1/photos", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", bearer(t, "host-1", policies.RoleHost))
	rec := perform(router, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	cmd, ok := bus.last.(listingapp.UploadPhotoCommand)
	require.True(t, ok)
	assert.Equal(t, "image/png", cmd.ContentType)
	assert.Equal(t, "cover.png", cmd.FileName)
	assert.Len(t, cmd.Data, len(png))
}

func TestUploadPhotoRejectsNonImages(t *testing.T) {
	bus := &recordingBus{}
	router := newTestRouter(bus)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("plain text body"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/host/listings/lst-1/photos", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := perform(router, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, bus.last)
}

func TestRequestBookingForwardsIdempotencyKey(t *testing.T) {
	bus := &recordingBus{result: &dto.BookingDetail{ID: "bk-1"}}
	router := newTestRouter(bus)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", bytes.NewBufferString(`{"listing_id":"lst-1","quantity":2}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, "buyer-1"))
	req.Header.Set(headerIdempotencyKey, "retry-1")
	rec := perform(router, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, bookingapp.RequestBookingCommand{ListingID: "lst-1", BuyerID: "buyer-1", Quantity: 2, IdempotencyKeyV: "retry-1"}, bus.last)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "bk-1", body["id"])

	req = httptest.NewRequest(http.MethodPost, "/api/v1/bookings", bytes.NewBufferString(`{"quantity":2}`))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, perform(router, req).Code)
}

func TestErrorResponses(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{policies.ErrUnauthenticated, http.StatusUnauthorized},
		{policies.ErrForbidden, http.StatusForbidden},
		{domainbooking.ErrBookingNotAllowed, http.StatusForbidden},
		{domainlistings.ErrListingNotFound, http.StatusNotFound},
		{fmt.Errorf("load: %w", listingapp.ErrListingNotOwned), http.StatusNotFound},
		{bookingapp.ErrBookingNotOwned, http.StatusNotFound},
		{errors.Join(middleware.ErrReplayedFailure, errors.New("booking: listing cannot be booked")), http.StatusConflict},
		{uow.ErrConcurrentUpdate, http.StatusConflict},
		{domainlistings.ErrInvalidState, http.StatusConflict},
		{pricing.ErrInvalidPricingData, http.StatusUnprocessableEntity},
		{listingapp.ErrPriceBelowMinimum, http.StatusBadRequest},
		{domainbooking.ErrQuantityExceeded, http.StatusBadRequest},
		{fmt.Errorf("%w: %w", domainbooking.ErrTotalOutOfRange, money.ErrAmountOverflow), http.StatusBadRequest},
		{domainlistings.ErrHoursOutOfRange, http.StatusBadRequest},
		{s3.ErrUploaderDisabled, http.StatusServiceUnavailable},
		{errors.New("mongo: connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			bus := &recordingBus{err: tc.err}
			router := newTestRouter(bus)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/listings/lst-1/approve", nil)
			rec := perform(router, req)
			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusInternalServerError {
				assert.NotContains(t, rec.Body.String(), "mongo")
			}
		})
	}
}

func TestExtractBearerToken(t *testing.T) {
	assert.Equal(t, "abc", extractBearerToken("Bearer abc"))
	assert.Equal(t, "abc", extractBearerToken("bearer  abc "))
	assert.Empty(t, extractBearerToken("Basic abc"))
	assert.Empty(t, extractBearerToken("Bearer"))
}
