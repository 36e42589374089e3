package server

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"vendo/internal/config"
	custommiddleware "vendo/internal/middleware"
	"vendo/internal/repository"
	"vendo/internal/service"
	"vendo/internal/session"
	"vendo/internal/transport"
)

type Server struct {
	*http.Server
	config   *config.Config
	logger   *zap.Logger
	db       *sql.DB
	sessions *session.Manager
	stop     chan struct{}
}

func NewServer(cfg *config.Config, logger *zap.Logger, db *sql.DB, redisClient *redis.Client) *Server {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.Server.Env == "development"))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Initialize repositories
	productRepo := repository.NewProductRepository(db)
	brandRepo := repository.NewBrandRepository(db)
	coinRepo := repository.NewCoinRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	// Session manager holds the single machine lock
	sessions := session.NewManager(cfg.Session.TTL, logger)
	stop := make(chan struct{})
	sessions.StartJanitor(cfg.Session.SweepInterval, stop)

	// Initialize services
	catalogService := service.NewCatalogService(productRepo, brandRepo)
	cartService := service.NewCartService(productRepo, sessions)
	settlementService := service.NewSettlementService(productRepo, coinRepo, orderRepo, sessions, logger)
	importService := service.NewImportService(productRepo, brandRepo, logger)
	orderService := service.NewOrderService(orderRepo)

	// Rate limit the write-heavy endpoints
	var rateLimit func(http.Handler) http.Handler
	if redisClient != nil {
		rateLimit = custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
			RequestsPerWindow: 30,
			Window:            time.Minute,
			KeyPrefix:         "vendo_rate_limit",
		}, logger)
	}

	// Initialize handlers
	catalogHandler := transport.NewCatalogHandler(catalogService, sessions, logger)
	cartHandler := transport.NewCartHandler(cartService, sessions, logger)
	paymentHandler := transport.NewPaymentHandler(settlementService, sessions, logger)
	importHandler := transport.NewImportHandler(importService, logger)
	orderHandler := transport.NewOrderHandler(orderService, logger)

	// Register routes
	catalogHandler.RegisterRoutes(router)
	cartHandler.RegisterRoutes(router)
	paymentHandler.RegisterRoutes(router, rateLimit)
	importHandler.RegisterRoutes(router, rateLimit)
	orderHandler.RegisterRoutes(router)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config:   cfg,
		logger:   logger,
		db:       db,
		sessions: sessions,
		stop:     stop,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	close(s.stop)

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
