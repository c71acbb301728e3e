package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/pharmastock/pharmastock-backend/internal/auth/jwt"
	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/consumers"
	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/events"
	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/handler"
	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/repository"
	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/service"
	"github.com/pharmastock/pharmastock-backend/pkg/config"
	"github.com/pharmastock/pharmastock-backend/pkg/database"
	"github.com/pharmastock/pharmastock-backend/pkg/httputil"
	"github.com/pharmastock/pharmastock-backend/pkg/logger"
	"github.com/pharmastock/pharmastock-backend/pkg/messaging"
)

const serviceName = "pharmacy-service"

func main() {
	cfg, err := config.LoadWithValidation(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(serviceName, cfg.Server.Environment)
	log.Info().Msg("starting Pharmacy Service")

	loc, err := cfg.Alerts.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid alerts timezone")
	}
	clock := service.SystemClock(loc)

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Messaging is optional. Without it the publisher stays nil and every
	// publish is a no-op.
	var (
		rmq       *messaging.RabbitMQ
		publisher *events.PharmacyEventPublisher
	)
	if cfg.RabbitMQ.Enabled {
		rmq, err = messaging.New(&cfg.RabbitMQ, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
		}
		defer rmq.Close()

		if err := rmq.DeclareDeadLetterQueue(serviceName); err != nil {
			log.Fatal().Err(err).Msg("failed to declare dead letter queue")
		}
		publisher, err = events.NewPharmacyEventPublisher(rmq, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create event publisher")
		}
	} else {
		log.Info().Msg("messaging disabled, events will not be published")
	}

	productRepo := repository.NewProductRepository(db)
	batchRepo := repository.NewBatchRepository(db)
	storeRepo := repository.NewStoreRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	userRepo := repository.NewUserRepository(db)

	jwtManager := jwt.NewManager(&cfg.JWT)

	stockService := service.NewStockService(productRepo, batchRepo, log)
	alertService := service.NewAlertService(productRepo, batchRepo, cfg.Alerts, clock, log)
	catalogService := service.NewCatalogService(db, productRepo, batchRepo, stockService, log)
	storeService := service.NewStoreService(storeRepo, log)
	receiptService := service.NewReceiptService(productRepo, storeRepo, batchRepo, publisher, clock, log)
	saleService := service.NewSaleService(db, productRepo, storeRepo, batchRepo, saleRepo, publisher, clock, log)
	dashboardService := service.NewDashboardService(productRepo, storeRepo, saleRepo, alertService, clock, log)
	authService := service.NewAuthService(userRepo, jwtManager, log)

	if rmq != nil {
		receiptConsumer, err := consumers.NewReceiptConsumer(rmq, cfg.RabbitMQ.ReceiptQueue, receiptService, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create receipt consumer")
		}
		if err := receiptConsumer.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to start receipt consumer")
		}
	}

	var notifier *service.AlertNotifier
	if publisher != nil && cfg.Alerts.ScanInterval > 0 {
		notifier = service.NewAlertNotifier(alertService, publisher, cfg.Alerts.ScanInterval, clock, log)
		notifier.Start(ctx)
	}

	handlers := &handler.Handlers{
		Auth:      handler.NewAuthHandler(authService, log),
		Stock:     handler.NewStockHandler(stockService, alertService, log),
		Products:  handler.NewProductHandler(catalogService, log),
		Batches:   handler.NewBatchHandler(receiptService, log),
		Stores:    handler.NewStoreHandler(storeService, log),
		Sales:     handler.NewSaleHandler(saleService, log),
		Dashboard: handler.NewDashboardHandler(dashboardService, log),
	}

	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(middleware.Timeout(cfg.Server.WriteTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := map[string]interface{}{
			"status":   "healthy",
			"service":  serviceName,
			"database": db.Health(r.Context()),
		}
		if rmq != nil {
			status["rabbitmq"] = rmq.Health()
		}
		httputil.JSON(w, http.StatusOK, status)
	})

	handlers.Mount(r, handler.NewAuthenticator(jwtManager, log))

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	if notifier != nil {
		notifier.Stop()
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
