package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"programhub/internal/app/commands"
	"programhub/internal/app/dto"
	bookingapp "programhub/internal/app/handlers/booking"
	listingapp "programhub/internal/app/handlers/listings"
	"programhub/internal/app/middleware"
	appoutbox "programhub/internal/app/outbox"
	"programhub/internal/app/policies"
	"programhub/internal/app/queries"
	"programhub/internal/app/uow"
	domainlistings "programhub/internal/domain/listings"
	"programhub/internal/infra/broker/kafka"
	redisstore "programhub/internal/infra/cache/redis"
	"programhub/internal/infra/config"
	mongostore "programhub/internal/infra/db/mongo"
	"programhub/internal/infra/format"
	"programhub/internal/infra/geo"
	ginserver "programhub/internal/infra/http/gin"
	"programhub/internal/infra/obs"
	outboxinfra "programhub/internal/infra/outbox"
	"programhub/internal/infra/storage/memory"
	"programhub/internal/infra/storage/s3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		obs.NewLogger(os.Getenv("APP_ENV")).Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application wiring failed", "error", err)
		os.Exit(1)
	}
	defer app.close(logger)

	fixturesPath := cfg.ListingsFixtures
	if fixturesPath == "" {
		fixturesPath = defaultListingFixturesPath()
	}
	if err := loadListingFixtures(ctx, app.listings, fixturesPath, cfg.MarketplaceCurrency, logger); err != nil {
		logger.Warn("listing fixtures load failed", "error", err, "path", fixturesPath)
	}

	if app.worker != nil {
		go func() {
			if err := app.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{Ready: app.ready}, app.handlers)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers ginserver.Handlers
	listings domainlistings.ListingRepository
	worker   *outboxinfra.Worker
	checks   []func(ctx context.Context) error
	closers  []func(ctx context.Context) error
}

func (a *application) ready(ctx context.Context) error {
	for _, check := range a.checks {
		if err := check(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (a *application) close(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			logger.Warn("resource close failed", "error", err)
		}
	}
}

type persistence struct {
	factory     uow.UoWFactory
	outbox      appoutbox.Outbox
	idempotency middleware.IdempotencyStore
	listings    domainlistings.ListingRepository
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{}

	producer, err := buildProducer(cfg, logger, app)
	if err != nil {
		return nil, err
	}
	envelope := outboxinfra.Envelope{Source: cfg.EventSource, TopicPrefix: cfg.KafkaTopicPrefix}

	var store persistence
	switch cfg.StorageMode {
	case config.StorageMongo:
		store, err = buildMongo(ctx, cfg, logger, app, producer, envelope)
		if err != nil {
			app.close(logger)
			return nil, err
		}
	default:
		store = buildMemory(producer, envelope, cfg.IdempotencyTTL, logger)
	}
	app.listings = store.listings

	if cfg.RedisAddr != "" {
		client, err := redisstore.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			app.close(logger)
			return nil, err
		}
		app.checks = append(app.checks, func(ctx context.Context) error { return client.Ping(ctx).Err() })
		app.closers = append(app.closers, func(context.Context) error { return client.Close() })
		store.idempotency = redisstore.NewIdempotencyStore(client, cfg.IdempotencyTTL)
		logger.Info("idempotency keys stored in redis", "addr", cfg.RedisAddr)
	}

	var uploader policies.PhotoUploader = s3.DisabledUploader{}
	if cfg.S3Endpoint != "" {
		client, err := s3.NewClient(s3.Config{
			Endpoint:       cfg.S3Endpoint,
			PublicEndpoint: cfg.S3PublicEndpoint,
			AccessKey:      cfg.S3AccessKey,
			SecretKey:      cfg.S3SecretKey,
			Bucket:         cfg.S3Bucket,
			UseSSL:         cfg.S3UseSSL,
		}, logger)
		if err != nil {
			app.close(logger)
			return nil, err
		}
		uploader = client
	} else {
		logger.Warn("S3_ENDPOINT not set, photo uploads are disabled")
	}

	pricingPort := policies.MarketplacePricing{ConfiguredCurrency: cfg.MarketplaceCurrency}
	formatter := format.NewMoneyFormatter(cfg.MarketplaceLocale)
	notifier := obs.LogNotifier{Logger: logger}
	encoder := appoutbox.JSONEventEncoder{}
	settings := listingapp.ListingSettings{
		MinPriceSubunits: cfg.ListingMinPriceSubunits,
		Locale:           cfg.MarketplaceLocale,
		Formatter:        formatter,
	}
	var fuzzer policies.LocationFuzzer
	if cfg.FuzzyLocation {
		fuzzer = geo.GeohashFuzzer{Precision: cfg.FuzzyPrecision}
	}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler[listingapp.CreateDraftCommand, *listingapp.EditorResult](commandBus, &listingapp.CreateDraftHandler{Pricing: pricingPort, Settings: settings, Outbox: store.outbox, Encoder: encoder, Logger: logger})
	commands.RegisterHandler[listingapp.UpdateListingCommand, *listingapp.EditorResult](commandBus, &listingapp.UpdateListingHandler{Pricing: pricingPort, Settings: settings, Outbox: store.outbox, Encoder: encoder, Logger: logger})
	commands.RegisterHandler[listingapp.SubmitListingCommand, *listingapp.EditorResult](commandBus, &listingapp.SubmitListingHandler{Pricing: pricingPort, Settings: settings, Outbox: store.outbox, Encoder: encoder, Logger: logger})
	commands.RegisterHandler[listingapp.CloseListingCommand, *dto.HostListingDetail](commandBus, &listingapp.CloseListingHandler{Outbox: store.outbox, Encoder: encoder, Logger: logger})
	commands.RegisterHandler[listingapp.ApproveListingCommand, *dto.HostListingDetail](commandBus, &listingapp.ApproveListingHandler{Notifier: notifier, Outbox: store.outbox, Encoder: encoder, Logger: logger})
	commands.RegisterHandler[listingapp.UploadPhotoCommand, *dto.HostListingPhotoUploadResult](commandBus, &listingapp.UploadPhotoHandler{Uploader: uploader, Outbox: store.outbox, Encoder: encoder, Logger: logger, Now: time.Now})
	commands.RegisterHandler[bookingapp.RequestBookingCommand, *dto.BookingDetail](commandBus, &bookingapp.RequestBookingHandler{Pricing: pricingPort, Notifier: notifier, Outbox: store.outbox, Encoder: encoder, Logger: logger, Now: time.Now})
	commands.RegisterHandler[bookingapp.CancelBookingCommand, *dto.BookingDetail](commandBus, &bookingapp.CancelBookingHandler{Notifier: notifier, Outbox: store.outbox, Encoder: encoder, Logger: logger})
	commands.RegisterHandler[bookingapp.AcceptBookingCommand, *dto.BookingDetail](commandBus, &bookingapp.AcceptBookingHandler{Notifier: notifier, Outbox: store.outbox, Encoder: encoder, Logger: logger})
	commands.RegisterHandler[bookingapp.DeclineBookingCommand, *dto.BookingDetail](commandBus, &bookingapp.DeclineBookingHandler{Notifier: notifier, Outbox: store.outbox, Encoder: encoder, Logger: logger})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler[listingapp.SearchCatalogQuery, dto.ListingCatalog](queryBus, &listingapp.SearchCatalogHandler{UoWFactory: store.factory, Pricing: pricingPort, Formatter: formatter, Locale: cfg.MarketplaceLocale, Logger: logger})
	queries.RegisterHandler[listingapp.GetListingPageQuery, dto.ListingPage](queryBus, &listingapp.GetListingPageHandler{UoWFactory: store.factory, Pricing: pricingPort, Formatter: formatter, Fuzzer: fuzzer, Locale: cfg.MarketplaceLocale, Logger: logger})
	queries.RegisterHandler[listingapp.ListHostListingsQuery, dto.HostListingCollection](queryBus, &listingapp.ListHostListingsHandler{UoWFactory: store.factory})
	queries.RegisterHandler[listingapp.GetListingEditorQuery, dto.ListingEditor](queryBus, &listingapp.GetListingEditorHandler{UoWFactory: store.factory, Pricing: pricingPort, Formatter: formatter, Locale: cfg.MarketplaceLocale, Logger: logger})
	queries.RegisterHandler[bookingapp.ListBuyerBookingsQuery, dto.BookingCollection](queryBus, &bookingapp.ListBuyerBookingsHandler{UoWFactory: store.factory})
	queries.RegisterHandler[bookingapp.ListHostBookingsQuery, dto.BookingCollection](queryBus, &bookingapp.ListHostBookingsHandler{UoWFactory: store.factory, Logger: logger})

	logger.Debug("buses wired", "commands", commandBus.Keys(), "queries", queryBus.Keys())

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Logging(logger),
		middleware.Authorization(policies.RoleAuthorizer{}),
		middleware.Idempotency(store.idempotency, nil),
		middleware.OutboxFlush(store.outbox, logger),
		middleware.Transaction(store.factory, nil),
	)
	queryBusWithMiddleware := middleware.ChainQueries(
		queryBus,
		middleware.QueryLogging(logger),
		middleware.QueryAuthorization(policies.RoleAuthorizer{}),
	)

	secret := cfg.JWTSecret
	if secret == "" {
		secret = uuid.NewString()
		logger.Warn("JWT_SECRET not set, using an ephemeral signing secret")
	}

	app.handlers = ginserver.Handlers{
		Listing:        ginserver.ListingHandler{Queries: queryBusWithMiddleware, Logger: logger},
		HostListing:    ginserver.HostListingHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware, Logger: logger},
		Booking:        ginserver.BookingHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware, Logger: logger},
		Admin:          ginserver.AdminHandler{Commands: commandBusWithMiddleware, Logger: logger},
		AuthMiddleware: ginserver.JWTAuth{Secret: []byte(secret), Logger: logger}.Handle,
	}
	return app, nil
}

func buildProducer(cfg config.Config, logger *slog.Logger, app *application) (outboxinfra.Producer, error) {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Warn("KAFKA_BROKERS not set, events are only logged")
		return outboxinfra.LogProducer{Logger: logger}, nil
	}
	producer, err := kafka.NewProducer(cfg.KafkaBrokers, kafka.NewConfig("programhub"))
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, func(context.Context) error { return producer.Close() })
	logger.Info("kafka producer connected", "brokers", cfg.KafkaBrokers)
	return producer, nil
}

func buildMemory(producer outboxinfra.Producer, envelope outboxinfra.Envelope, ttl time.Duration, logger *slog.Logger) persistence {
	listingsRepo := memory.NewListingRepository()
	bookingRepo := memory.NewBookingRepository()
	box := memory.NewOutbox(&outboxinfra.Publisher{Producer: producer, Envelope: envelope, Logger: logger})
	idem := memory.NewIdempotencyStore()
	idem.TTL = ttl
	return persistence{
		factory:     memory.Factory{ListingsRepo: listingsRepo, BookingRepo: bookingRepo, Outbox: box},
		outbox:      box,
		idempotency: idem,
		listings:    listingsRepo,
	}
}

func buildMongo(ctx context.Context, cfg config.Config, logger *slog.Logger, app *application, producer outboxinfra.Producer, envelope outboxinfra.Envelope) (persistence, error) {
	client, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return persistence{}, err
	}
	app.checks = append(app.checks, client.Ping)
	app.closers = append(app.closers, client.Close)

	listingsRepo := mongostore.NewListingRepository(client.DB)
	if err := listingsRepo.EnsureIndexes(ctx); err != nil {
		return persistence{}, err
	}
	bookingRepo := mongostore.NewBookingRepository(client.DB)
	if err := bookingRepo.EnsureIndexes(ctx); err != nil {
		return persistence{}, err
	}
	box, err := outboxinfra.NewStore(ctx, client.DB)
	if err != nil {
		return persistence{}, err
	}
	idem, err := mongostore.NewIdempotencyStore(ctx, client.DB, cfg.IdempotencyTTL)
	if err != nil {
		return persistence{}, err
	}
	app.worker = &outboxinfra.Worker{
		Store:    box,
		Producer: producer,
		Envelope: envelope,
		Interval: cfg.OutboxPollInterval,
		Backoff:  cfg.RetryBackoff,
		Logger:   logger,
	}
	logger.Info("mongo storage connected", "db", cfg.MongoDB)
	return persistence{
		factory:     mongostore.Factory{DB: client.DB, ListingsRepo: listingsRepo, BookingRepo: bookingRepo},
		outbox:      box,
		idempotency: idem,
		listings:    listingsRepo,
	}, nil
}
