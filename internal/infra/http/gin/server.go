package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"programhub/internal/infra/config"
	"programhub/internal/infra/obs"
)

type ListingHTTP interface {
	Catalog(c *gin.Context)
	Page(c *gin.Context)
}

type HostListingHTTP interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Editor(c *gin.Context)
	Update(c *gin.Context)
	Submit(c *gin.Context)
	Close(c *gin.Context)
	UploadPhoto(c *gin.Context)
}

type BookingHTTP interface {
	Request(c *gin.Context)
	ListMine(c *gin.Context)
	Cancel(c *gin.Context)
	ListHost(c *gin.Context)
	Accept(c *gin.Context)
	Decline(c *gin.Context)
}

type AdminHTTP interface {
	Approve(c *gin.Context)
}

type Handlers struct {
	Listing        ListingHTTP
	HostListing    HostListingHTTP
	Booking        BookingHTTP
	Admin          AdminHTTP
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           newRouter(obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func newRouter(obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"Location",
			obs.HeaderRequestID,
		},
		MaxAge: 12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.AuthMiddleware != nil {
		api.Use(h.AuthMiddleware)
	}
	if h.Listing != nil {
		api.GET("/listings", h.Listing.Catalog)
		api.GET("/listings/:id", h.Listing.Page)
	}
	if h.HostListing != nil {
		hostGroup := api.Group("/host/listings")
		hostGroup.GET("", h.HostListing.List)
		hostGroup.POST("", h.HostListing.Create)
		hostGroup.GET("/:id", h.HostListing.Editor)
		hostGroup.PUT("/:id", h.HostListing.Update)
		hostGroup.POST("/:id/submit", h.HostListing.Submit)
		hostGroup.POST("/:id/close", h.HostListing.Close)
		hostGroup.POST("/:id/photos", h.HostListing.UploadPhoto)
	}
	if h.Booking != nil {
		api.POST("/bookings", h.Booking.Request)
		api.GET("/bookings", h.Booking.ListMine)
		api.POST("/bookings/:id/cancel", h.Booking.Cancel)
		api.GET("/host/bookings", h.Booking.ListHost)
		api.POST("/host/bookings/:id/accept", h.Booking.Accept)
		api.POST("/host/bookings/:id/decline", h.Booking.Decline)
	}
	if h.Admin != nil {
		api.POST("/admin/listings/:id/approve", h.Admin.Approve)
	}
	return router
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug", "dev", "local":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
