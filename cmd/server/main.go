package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	cartapp "github.com/japabox/storefront/internal/application/cart"
	catalogapp "github.com/japabox/storefront/internal/application/catalog"
	checkoutapp "github.com/japabox/storefront/internal/application/checkout"
	couponapp "github.com/japabox/storefront/internal/application/coupon"
	identityapp "github.com/japabox/storefront/internal/application/identity"
	mediaapp "github.com/japabox/storefront/internal/application/media"
	orderapp "github.com/japabox/storefront/internal/application/order"
	paymentapp "github.com/japabox/storefront/internal/application/payment"
	storeapp "github.com/japabox/storefront/internal/application/store"
	trackingapp "github.com/japabox/storefront/internal/application/tracking"
	"github.com/japabox/storefront/internal/domain/payment"
	"github.com/japabox/storefront/internal/infrastructure/ai"
	"github.com/japabox/storefront/internal/infrastructure/auth"
	"github.com/japabox/storefront/internal/infrastructure/cache"
	"github.com/japabox/storefront/internal/infrastructure/config"
	"github.com/japabox/storefront/internal/infrastructure/event"
	"github.com/japabox/storefront/internal/infrastructure/logger"
	infrapayment "github.com/japabox/storefront/internal/infrastructure/payment"
	"github.com/japabox/storefront/internal/infrastructure/persistence"
	"github.com/japabox/storefront/internal/infrastructure/printing"
	"github.com/japabox/storefront/internal/infrastructure/realtime"
	"github.com/japabox/storefront/internal/infrastructure/scheduler"
	"github.com/japabox/storefront/internal/infrastructure/storage"
	"github.com/japabox/storefront/internal/infrastructure/telemetry"
	"github.com/japabox/storefront/internal/infrastructure/tracking"
	"github.com/japabox/storefront/internal/interfaces/http/handler"
	"github.com/japabox/storefront/internal/interfaces/http/middleware"
	"github.com/japabox/storefront/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			Japan Box Storefront API
//	@version		1.0
//	@description	Storefront, checkout and back office of a Japanese food delivery shop.

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting storefront",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	if err := run(cfg, log); err != nil {
		log.Fatal("Server stopped with error", zap.Error(err))
	}
	log.Info("Server exited gracefully")
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := time.LoadLocation(cfg.Store.Timezone)
	if err != nil {
		log.Warn("Unknown store timezone, using UTC", zap.String("timezone", cfg.Store.Timezone), zap.Error(err))
		loc = time.UTC
	}

	tp, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		return err
	}
	lp, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		return err
	}
	log = lp.Bridge(log)
	mp, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		return err
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		return err
	}
	if cfg.Database.Driver == "sqlite" {
		// Postgres is migrated by cmd/migrate
		if err := db.AutoMigrate(); err != nil {
			return err
		}
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		if err := telemetry.RegisterGormTracing(db.DB, cfg.Database.Driver, log); err != nil {
			log.Warn("Database tracing disabled", zap.Error(err))
		}
	}
	dbMetrics, err := telemetry.RegisterDBMetrics(ctx, db.DB, mp, log)
	if err != nil {
		log.Warn("Database metrics disabled", zap.Error(err))
	}
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	storeRepo := persistence.NewGormStoreRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	couponRepo := persistence.NewGormCouponRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	adminRepo := persistence.NewGormAdminUserRepository(db.DB)

	// Carts and idempotency keys live in Redis when configured
	stores, err := cache.NewFactory(cfg.Redis, cfg.Store.CartTTL, cache.WithLogger(log)).CreateStores()
	if err != nil {
		return err
	}

	var blacklist auth.TokenBlacklist = auth.NewInMemoryTokenBlacklist()
	if stores.Client != nil {
		blacklist = auth.NewRedisTokenBlacklistWithClient(stores.Client)
	}

	// Realtime fan-out
	hub := realtime.NewHub(cfg.Realtime.MaxClients, cfg.Realtime.ClientBuffer, log)
	var streamPublisher realtime.Publisher = realtime.NewLocalPublisher(hub)
	if stores.Client != nil {
		bridge := realtime.NewRedisBridge(stores.Client, cfg.Realtime.RedisChannel, hub, log)
		if err := bridge.Start(ctx); err != nil {
			return err
		}
		streamPublisher = bridge
	}

	// Domain events
	metaClient := tracking.NewClient(cfg.Meta, tracking.WithLogger(log))
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(tracking.NewPurchaseHandler(storeRepo, metaClient, log))
	eventBus.Subscribe(realtime.NewProjector(streamPublisher, log))
	if err := eventBus.Start(ctx); err != nil {
		return err
	}

	// Optional integrations
	var gateway payment.Gateway
	if cfg.Asaas.APIKey != "" {
		adapter, err := infrapayment.NewAsaasAdapter(&infrapayment.AsaasConfig{
			APIKey:  cfg.Asaas.APIKey,
			Sandbox: cfg.Asaas.Sandbox,
			Timeout: cfg.Asaas.Timeout,
		}, infrapayment.WithLogger(log))
		if err != nil {
			return err
		}
		gateway = adapter
		log.Info("Asaas gateway enabled", zap.Bool("sandbox", cfg.Asaas.Sandbox))
	} else {
		log.Warn("Asaas API key not set, online payments are disabled")
	}

	var renderer printing.PDFRenderer
	var chrome *printing.ChromedpRenderer
	if cfg.Printing.Enabled {
		chrome, err = printing.NewChromedpRenderer(&printing.ChromedpConfig{
			DefaultTimeout: cfg.Printing.Timeout,
			ExecPath:       cfg.Printing.ChromePath,
			NoSandbox:      true,
			Logger:         log,
		})
		if err != nil {
			return err
		}
		renderer = chrome
	}

	var objects mediaapp.ObjectStorage
	if cfg.Storage.Enabled {
		s3, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			return err
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			return err
		}
		objects = s3
	}

	enhancer := ai.NewGeminiEnhancer(cfg.Gemini, log)
	if !enhancer.Enabled() {
		log.Info("Gemini API key not set, description enhancement echoes input")
	}

	// Application services
	storeService, err := storeapp.NewService(storeRepo, categoryRepo, productRepo, couponRepo, eventBus, loc, log,
		storeapp.WithTransactionScope(persistence.NewGormStoreTransactionScope(db.DB)),
	)
	if err != nil {
		return err
	}
	categoryService := catalogapp.NewCategoryService(storeRepo, categoryRepo, eventBus)
	productService := catalogapp.NewProductService(storeRepo, categoryRepo, productRepo, enhancer, eventBus, loc)
	couponService := couponapp.NewService(storeRepo, couponRepo)
	quoter := cartapp.NewQuoter(storeRepo, productRepo, couponService)
	cartService := cartapp.NewService(stores.Carts, storeRepo, quoter, couponService, log)
	orderService := orderapp.NewService(orderRepo, storeRepo, renderer, eventBus, loc, log)
	paymentService := paymentapp.NewService(orderRepo, gateway, stores.Idempotency, eventBus, paymentapp.Config{
		WebhookToken: cfg.Asaas.WebhookToken,
		DedupeTTL:    cfg.Store.IdempotencyTTL,
	}, loc)
	checkoutService := checkoutapp.NewService(storeRepo, orderRepo, cartService, quoter, gateway, stores.Idempotency, eventBus,
		checkoutapp.Config{
			EmailDomain:    cfg.Asaas.DefaultDomain,
			IdempotencyTTL: cfg.Store.IdempotencyTTL,
		}, loc)
	trackingService := trackingapp.NewService(storeRepo, metaClient, cfg.Meta.Timeout)
	mediaService := mediaapp.NewService(storeRepo, objects, cfg.Storage.MaxUploadSize)

	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(adminRepo, jwtService, blacklist, identityapp.DefaultAuthServiceConfig(), log)

	var reconciler *scheduler.PaymentReconciler
	if gateway != nil && cfg.Asaas.ReconcileInterval > 0 {
		reconciler = scheduler.NewPaymentReconciler(scheduler.PaymentReconcilerConfig{
			Interval: cfg.Asaas.ReconcileInterval,
			MinAge:   cfg.Asaas.ReconcileMinAge,
			MaxAge:   cfg.Asaas.ReconcileMaxAge,
		}, paymentService, log)
		if err := reconciler.Start(ctx); err != nil {
			return err
		}
	}

	if err := bootstrap(ctx, storeService, authService, cfg.Admin, log); err != nil {
		return err
	}

	engine := newEngine(cfg, log, mp)

	checks := map[string]handler.HealthCheck{
		"database": func(context.Context) error { return db.Ping() },
	}
	if stores.Client != nil {
		checks["redis"] = func(ctx context.Context) error { return stores.Client.Ping(ctx).Err() }
	}

	handlers := router.Handlers{
		Store:    handler.NewStoreHandler(storeService),
		Catalog:  handler.NewCatalogHandler(categoryService, productService),
		Coupon:   handler.NewCouponHandler(couponService),
		Cart:     handler.NewCartHandler(cartService),
		Checkout: handler.NewCheckoutHandler(checkoutService),
		Order:    handler.NewOrderHandler(orderService, paymentService),
		Webhook:  handler.NewWebhookHandler(paymentService),
		Tracking: handler.NewTrackingHandler(trackingService),
		Media:    handler.NewMediaHandler(mediaService),
		Auth:     handler.NewAuthHandler(authService),
		Stream:   handler.NewStreamHandler(hub, storeService, orderService, cfg.Realtime.Heartbeat),
		System:   handler.NewSystemHandler(cfg.App.Name, version, checks),
	}

	guards := router.Guards{
		Admin: middleware.JWTAuthMiddleware(middleware.JWTMiddlewareConfig{
			JWTService:     jwtService,
			TokenBlacklist: blacklist,
			Logger:         log,
		}),
		AdminStream: middleware.JWTAuthMiddleware(middleware.JWTMiddlewareConfig{
			JWTService:     jwtService,
			TokenBlacklist: blacklist,
			TokenFromQuery: true,
			Logger:         log,
		}),
	}
	if cfg.HTTP.RateLimitEnabled {
		guards.PublicWrite = middleware.RateLimit(middleware.NewRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst))
		guards.Login = middleware.RateLimit(middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRPS, cfg.HTTP.AuthRateLimitBurst))
	}

	engine.GET("/health", handlers.System.Health)
	router.NewRouter(engine).
		Register(router.Storefront(handlers, guards)...).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Open streams never go idle, so they are closed before Shutdown waits.
	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if reconciler != nil {
		if err := reconciler.Stop(shutdownCtx); err != nil {
			log.Warn("Payment reconciler stop", zap.Error(err))
		}
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Warn("Event bus stop", zap.Error(err))
	}
	trackingService.Wait()
	if chrome != nil {
		if err := chrome.Close(); err != nil {
			log.Warn("Chrome close", zap.Error(err))
		}
	}
	if err := stores.Close(); err != nil {
		log.Warn("Cache close", zap.Error(err))
	}
	if dbMetrics != nil {
		dbMetrics.Stop()
	}
	if err := db.Close(); err != nil {
		log.Error("Error closing database", zap.Error(err))
	}
	if err := mp.Shutdown(shutdownCtx); err != nil {
		log.Warn("Meter shutdown", zap.Error(err))
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Warn("Tracer shutdown", zap.Error(err))
	}
	if err := lp.Shutdown(shutdownCtx); err != nil {
		log.Warn("Logger provider shutdown", zap.Error(err))
	}
	return nil
}

// bootstrap makes sure a fresh install has a store and an admin account
func bootstrap(ctx context.Context, stores *storeapp.Service, authService *identityapp.AuthService, admin config.AdminConfig, log *zap.Logger) error {
	ids, err := stores.ListStoreIDs(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		st, err := stores.CreateStore(ctx)
		if err != nil {
			return err
		}
		log.Info("Created default store", zap.String("store_id", st.ID))
	}

	created, err := authService.Bootstrap(ctx, admin.Username, admin.Password)
	if err != nil {
		return err
	}
	if created {
		log.Info("Created admin user", zap.String("username", admin.Username))
	}
	return nil
}

func newEngine(cfg *config.Config, log *zap.Logger, mp *telemetry.MeterProvider) *gin.Engine {
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Warn("Invalid trusted proxies", zap.Error(err))
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Tracing(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		middleware.SpanEnricher(),
		middleware.HTTPMetrics(mp, log),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.Secure(middleware.SecurityConfig{
			HSTSEnabled: cfg.App.IsProduction(),
			HSTSMaxAge:  31536000,
		}),
		middleware.CORS(middleware.CORSConfig{
			AllowOrigins: cfg.HTTP.CORSAllowOrigins,
			AllowMethods: cfg.HTTP.CORSAllowMethods,
			AllowHeaders: cfg.HTTP.CORSAllowHeaders,
		}),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)
	return engine
}
