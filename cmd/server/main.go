package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"taxi-tariff/internal/config"
	"taxi-tariff/internal/database"
	"taxi-tariff/internal/handlers"
	"taxi-tariff/internal/kafka"
	"taxi-tariff/internal/logger"
	"taxi-tariff/internal/models"
	"taxi-tariff/internal/redis"
	"taxi-tariff/internal/services"
	"taxi-tariff/internal/tariff"
)

// Фабричные функции для подключения внешних сервисов (подменяемые в тестах).
var (
	dbConnect        = database.Connect
	redisConnect     = redis.Connect
	newKafkaProducer = kafka.NewProducer
	newKafkaConsumer = kafka.NewConsumer
	kafkaHealthCheck = handlers.CheckKafkaHealth
	loadConfig       = config.Load
	loadTenants      = config.LoadTenants
	newLogger        = logger.New
)

// application агрегирует собранные зависимости.
type application struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *database.DB
	redis    *redis.Client
	producer *kafka.Producer
	consumer *kafka.Consumer
	mux      *http.ServeMux
	server   *http.Server
}

func main() {
	app, err := buildApplication()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build app: %v\n", err)
		os.Exit(1)
	}
	app.log.Info("Starting taxi tariff server...")

	go func() {
		app.log.WithField("address", app.server.Addr).Info("HTTP server starting")
		if err := app.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	app.log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = app.consumer.Stop()
	if err := app.server.Shutdown(ctx); err != nil {
		app.log.WithError(err).Error("Server forced to shutdown")
	}
	_ = app.producer.Close()
	_ = app.redis.Close()
	_ = app.db.Close()
	app.log.Info("Server exited")
}

// buildApplication создает все зависимости (подменяемые в тестах).
func buildApplication() (*application, error) {
	cfg := loadConfig()
	log := newLogger(&cfg.Logger)

	registry, err := loadTenants(cfg.Tenants.File)
	if err != nil {
		return nil, fmt.Errorf("tenants: %w", err)
	}

	location, err := time.LoadLocation(cfg.Tariff.Timezone)
	if err != nil {
		return nil, fmt.Errorf("tariff timezone %q: %w", cfg.Tariff.Timezone, err)
	}

	db, err := dbConnect(&cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}

	migrateCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.Migrate(migrateCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db migrate: %w", err)
	}

	redisClient, err := redisConnect(&cfg.Redis, log)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("redis connect: %w", err)
	}

	producer, err := newKafkaProducer(&cfg.Kafka, log)
	if err != nil {
		_ = redisClient.Close()
		_ = db.Close()
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	consumer, err := newKafkaConsumer(&cfg.Kafka, log)
	if err != nil {
		_ = producer.Close()
		_ = redisClient.Close()
		_ = db.Close()
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}

	defaults := tariff.Rate{
		Start:     cfg.Tariff.Start,
		Km0To10:   cfg.Tariff.Km0To10,
		KmOver10:  cfg.Tariff.KmOver10,
		PerMinute: cfg.Tariff.PerMinute,
	}
	cacheTTL := time.Duration(cfg.Tariff.CacheTTLMinutes) * time.Minute

	tenantResolver := services.NewTenantResolver(registry, cfg.Tariff.DefaultTenant, location, log)
	tariffService := services.NewTariffService(db, redisClient, producer, tenantResolver, defaults, cacheTTL, log)
	quoteService := services.NewQuoteService(tariffService, services.NewHolidayCalendar(), tenantResolver, cfg.Tariff.MaxTripMinutes, log)
	rateLimiter := services.NewRateLimiter(redisClient, log, &cfg.RateLimit)

	quoteHandler := handlers.NewQuoteHandler(quoteService, log)
	tariffHandler := handlers.NewTariffHandler(quoteService, tariffService, log)
	holidayHandler := handlers.NewHolidayHandler(quoteService, log)
	healthHandler := handlers.NewHealthHandler(db, redisClient, cfg.Kafka.Brokers, kafkaHealthCheck)
	rateLimitHandler := handlers.NewRateLimitHandler(rateLimiter, log, &cfg.RateLimit)

	registerEventHandlers(consumer, tariffService, log)
	if err := consumer.Start(); err != nil {
		_ = consumer.Stop()
		_ = producer.Close()
		_ = redisClient.Close()
		_ = db.Close()
		return nil, fmt.Errorf("kafka consumer start: %w", err)
	}

	mux := setupRoutes(routes{
		quotes:    quoteHandler,
		tariffs:   tariffHandler,
		holidays:  holidayHandler,
		health:    healthHandler,
		rateLimit: rateLimitHandler,
	}, tenantResolver, rateLimiter, log)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	log.WithFields(map[string]interface{}{
		"default_tenant": cfg.Tariff.DefaultTenant,
		"tenants":        len(registry.Tenants),
		"timezone":       location.String(),
	}).Info("Tariff engine configured")

	return &application{
		cfg:      cfg,
		log:      log,
		db:       db,
		redis:    redisClient,
		producer: producer,
		consumer: consumer,
		mux:      mux,
		server:   server,
	}, nil
}

// routes группирует HTTP обработчики
type routes struct {
	quotes    *handlers.QuoteHandler
	tariffs   *handlers.TariffHandler
	holidays  *handlers.HolidayHandler
	health    *handlers.HealthHandler
	rateLimit *handlers.RateLimitHandler
}

// setupRoutes настраивает маршруты HTTP сервера
func setupRoutes(h routes, resolver handlers.TenantResolver, limiter handlers.MiddlewareLimiter, log *logger.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	applyAPI := func(next http.HandlerFunc) http.HandlerFunc {
		return corsMiddleware(handlers.TenantMiddleware(resolver, handlers.RateLimitMiddleware(limiter, log, next)))
	}

	// Health check endpoints
	mux.HandleFunc("/health", corsMiddleware(h.health.Health))
	mux.HandleFunc("/health/readiness", corsMiddleware(h.health.Readiness))
	mux.HandleFunc("/health/liveness", corsMiddleware(h.health.Liveness))

	// Quote endpoints
	mux.HandleFunc("/api/quotes/estimate", applyAPI(h.quotes.Estimate))
	mux.HandleFunc("/api/quotes/matrix", applyAPI(h.quotes.Matrix))

	// Tariff endpoints
	mux.HandleFunc("/api/tariffs", applyAPI(h.tariffs.Route))
	mux.HandleFunc("/api/holidays", applyAPI(h.holidays.List))

	// Rate limit status
	mux.HandleFunc("/api/rate-limit/status", applyAPI(h.rateLimit.Status))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeErrorResponse(w, http.StatusNotFound, "Route not found")
	})

	return mux
}

// tariffEventHandler обрабатывает события изменения тарифа
type tariffEventHandler interface {
	HandleTariffUpdated(ctx context.Context, event *models.Event) error
}

// eventRegistrar регистрирует обработчики событий
type eventRegistrar interface {
	RegisterHandler(eventType models.EventType, handler kafka.EventHandler)
}

// registerEventHandlers регистрирует обработчики событий Kafka
func registerEventHandlers(consumer eventRegistrar, tariffs tariffEventHandler, log *logger.Logger) {
	consumer.RegisterHandler(models.EventTypeTariffUpdated, func(ctx context.Context, event *models.Event) error {
		log.WithField("event_id", event.ID).Info("Processing tariff updated event")
		return tariffs.HandleTariffUpdated(ctx, event)
	})
}

// corsMiddleware и другие helper функции
func corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Tenant-ID")
		w.Header().Set("Access-Control-Expose-Headers", "X-Tenant-ID, X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	type errorResponse struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}
