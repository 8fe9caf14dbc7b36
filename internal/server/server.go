package server

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/Kokonsdelche/dg-sub000/internal/config"
	"github.com/Kokonsdelche/dg-sub000/internal/database"
	custommiddleware "github.com/Kokonsdelche/dg-sub000/internal/middleware"
	"github.com/Kokonsdelche/dg-sub000/internal/repository"
	"github.com/Kokonsdelche/dg-sub000/internal/service"
	"github.com/Kokonsdelche/dg-sub000/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config      *config.Config
	logger      *zap.Logger
	db          *sql.DB
	redisClient *redis.Client
}

func NewServer(cfg *config.Config, logger *zap.Logger, dbService database.Service) *Server {
	db := dbService.DB()

	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.ClientURL, cfg.Server.Env == "development"))

	// Redis backs the rate limiter only; the API works without it.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Health check endpoint: reports database connectivity and pool stats,
	// answering 503 so load balancers stop routing when the database is down.
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := dbService.Health()
		status := http.StatusOK
		if health["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		custommiddleware.RespondWithJSON(w, status, health)
	})

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	statsRepo := repository.NewStatsRepository(db)
	bannerRepo := repository.NewBannerRepository(db)

	// Initialize services
	userService := service.NewUserService(userRepo, orderRepo, productRepo, cfg.JWT.Secret, cfg.JWT.AccessExpiry)
	catalogService := service.NewCatalogService(productRepo, bannerRepo, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, cfg.Shop.FreeShippingThreshold, cfg.Shop.ShippingFee)
	adminService := service.NewAdminService(productRepo, orderRepo, userRepo, statsRepo, bannerRepo)

	// Initialize handlers
	authHandler := transport.NewAuthHandler(userService, logger)
	productHandler := transport.NewProductHandler(catalogService, logger)
	orderHandler := transport.NewOrderHandler(orderService, logger)
	adminHandler := transport.NewAdminHandler(adminService, logger)

	// Create auth middleware
	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, userRepo, logger)
	optionalAuthMiddleware := custommiddleware.OptionalAuthMiddleware(cfg.JWT.Secret, userRepo, logger)
	requireAdmin := custommiddleware.RequireAdmin(logger)

	writeLimiter := custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: 30,
		Window:            time.Minute,
		KeyPrefix:         "ratelimit:write",
	}, logger)

	// Register routes
	authHandler.RegisterRoutes(router, authMiddleware, writeLimiter)
	productHandler.RegisterRoutes(router, authMiddleware, optionalAuthMiddleware, writeLimiter)
	orderHandler.RegisterRoutes(router, authMiddleware, writeLimiter)
	adminHandler.RegisterRoutes(router, authMiddleware, requireAdmin)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config:      cfg,
		logger:      logger,
		db:          db,
		redisClient: redisClient,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
