package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"archie-core-order-ingest/internal/application"
	"archie-core-order-ingest/internal/application/providers"
	"archie-core-order-ingest/internal/config"
	apiinfra "archie-core-order-ingest/internal/infrastructure/api"
	"archie-core-order-ingest/internal/infrastructure/audit"
	"archie-core-order-ingest/internal/infrastructure/cache"
	"archie-core-order-ingest/internal/infrastructure/metrics"
	"archie-core-order-ingest/internal/infrastructure/notification"
	"archie-core-order-ingest/internal/infrastructure/repository"
	"archie-core-order-ingest/internal/infrastructure/repository/memory"
	"archie-core-order-ingest/internal/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	securitymiddleware "archie-core-order-ingest/internal/infrastructure/middleware"
)

type stores struct {
	integrations ports.IntegrationRepository
	customers    ports.CustomerRepository
	orders       ports.OrderRepository
	items        ports.OrderItemRepository
	audit        ports.AuditSink
	close        func()
}

func main() {
	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load(logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}
	logger = logger.Level(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize store")
	}
	defer st.close()

	auditSink := ports.AuditSink(audit.NewLogSink(logger))
	if cfg.AuditDriver == config.AuditMongo {
		auditSink = audit.MultiSink{st.audit, auditSink}
	}

	// The redis hint cache is optional; a nil cache disables hint ordering
	var hints ports.CandidateHintCache
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedisHintCache(ctx, cfg.RedisURL, cfg.HintTTL)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisCache.Close()
		hints = redisCache
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	var dispatcher *application.NotificationDispatcher
	switch cfg.NotifyDriver {
	case config.NotifySlack:
		dispatcher = application.NewNotificationDispatcher(
			notification.NewSlackNotifier(&http.Client{Timeout: cfg.NotifyTimeout}),
			cfg.NotifyDestination, cfg.NotifyTimeout, m, logger,
		)
	case config.NotifyWebhook:
		dispatcher = application.NewNotificationDispatcher(
			notification.NewWebhookNotifier(cfg.NotifyTimeout),
			cfg.NotifyDestination, cfg.NotifyTimeout, m, logger,
		)
	}

	// Initialize application services
	credentials := application.NewCredentialStore(st.integrations, hints, logger)
	ingestionService := application.NewIngestionService(
		[]ports.ProviderAdapter{
			providers.NewWooCommerceAdapter(credentials, logger),
			providers.NewShopifyAdapter(credentials, logger),
		},
		application.NewOrderReconciler(st.orders, logger),
		application.NewCustomerReconciler(st.customers, logger),
		application.NewItemReplacer(st.items, st.orders, logger),
		dispatcher,
		auditSink,
		m,
		logger,
	)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(securitymiddleware.NewAccessLogger(logger, providers.SecretQueryParams...))
	r.Use(middleware.Recoverer)
	r.Use(securitymiddleware.SecurityHeadersMiddleware())
	r.Use(securitymiddleware.NoCacheMiddleware())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, "./docs/swagger.json")
	})

	// Webhook endpoint: POST /webhooks/{provider}
	apiinfra.NewWebhookHandler(ingestionService, cfg.MaxBodyBytes, logger).Routes(r)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("store", cfg.StoreDriver).
			Str("notify", cfg.NotifyDriver).
			Bool("hint_cache", hints != nil).
			Msg("Starting API server")
		logger.Info().Msg("Swagger documentation available at http://localhost:" + cfg.Port + "/swagger/index.html")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown did not complete")
	}

	// In-flight notifications were detached from their requests
	dispatcher.Wait()
	logger.Info().Msg("Server stopped")
}

func openStores(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*stores, error) {
	if cfg.StoreDriver == config.StoreMemory {
		store := memory.NewStore()
		if cfg.IntegrationsFile != "" {
			data, err := os.ReadFile(cfg.IntegrationsFile)
			if err != nil {
				return nil, err
			}
			n, err := store.LoadIntegrations(data)
			if err != nil {
				return nil, err
			}
			logger.Info().Int("integrations", n).Str("file", cfg.IntegrationsFile).Msg("Loaded integrations")
		}
		logger.Warn().Msg("Using in-memory store; data is lost on restart")
		return &stores{
			integrations: store.Integrations(),
			customers:    store.Customers(),
			orders:       store.Orders(),
			items:        store.OrderItems(),
			close:        func() {},
		}, nil
	}

	// Connect to MongoDB
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, err
	}
	db := client.Database(cfg.MongoDatabase)

	indexCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := repository.EnsureIndexes(indexCtx, db); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}

	return &stores{
		integrations: repository.NewMongoIntegrationRepository(db),
		customers:    repository.NewMongoCustomerRepository(db),
		orders:       repository.NewMongoOrderRepository(db),
		items:        repository.NewMongoOrderItemRepository(db),
		audit:        repository.NewMongoAuditRepository(db),
		close:        func() { client.Disconnect(context.Background()) },
	}, nil
}
