package api

import (
	"fmt"
	"net/http"

	"lanhall/internal/billing"
	"lanhall/internal/cache"
	"lanhall/internal/config"
	"lanhall/internal/database"
	"lanhall/internal/handlers"
	"lanhall/internal/logger"
	"lanhall/internal/messaging"
	"lanhall/internal/metrics"
	"lanhall/internal/middleware"
	"lanhall/internal/repository"
	"lanhall/internal/search"
	"lanhall/internal/service"

	"github.com/gin-gonic/gin"
)

// Server wires the HTTP API together.
type Server struct {
	router   *gin.Engine
	config   *config.Config
	db       *database.DB
	nats     *messaging.NATSClient
	redis    *cache.Client
	services *service.Services
	repos    *repository.Repositories
}

// NewServer builds the full dependency graph. Postgres is required;
// Redis, NATS and Elasticsearch degrade to warnings so a flaky sidecar
// never keeps the API down.
func NewServer(cfg *config.Config) *Server {
	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	if err := db.RunMigrations(); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	var events service.Publisher
	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		logger.Get().Warn("NATS unavailable, domain events disabled", "error", err)
	} else {
		events = natsClient
	}

	var presence service.Presence
	redisClient, err := cache.NewClient(cfg.Redis)
	if err != nil {
		logger.Get().Warn("Redis unavailable, auth cache and presence disabled", "error", err)
	} else {
		presence = redisClient
	}

	var archive service.Archive
	esClient, err := search.NewClient(config.LoadElasticsearchConfig())
	if err != nil {
		logger.Get().Warn("Elasticsearch unavailable, session search disabled", "error", err)
	} else {
		archive = esClient
	}

	repos := repository.NewRepositories(db)

	tariff := billing.Tariff{
		Deposit:     cfg.Billing.Deposit,
		RatePerHour: cfg.Billing.RatePerHour,
	}
	services := service.NewServices(repos, events, presence, archive, tariff, nil)

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(metrics.Middleware())

	server := &Server{
		router:   router,
		config:   cfg,
		db:       db,
		nats:     natsClient,
		redis:    redisClient,
		services: services,
		repos:    repos,
	}

	server.setupRoutes()

	return server
}

func (s *Server) setupRoutes() {
	h := handlers.NewHandlers(s.services)

	api := s.router.Group("/api")
	api.Use(middleware.BasicAuth(s.repos.Accounts, s.redis))
	{
		seats := api.Group("/seats")
		{
			seats.GET("", h.ListSeats)
			seats.POST("/reserve", h.ReserveSeat)
			seats.POST("/enter", h.EnterSeat)
		}

		sessions := api.Group("/sessions")
		{
			sessions.POST("/end", h.EndSession)
			sessions.GET("/remaining", h.PreviewRemaining)
		}

		admin := api.Group("/admin")
		admin.Use(middleware.RequireOperator(s.repos.Accounts))
		{
			admin.POST("/seats", h.CreateSeat)
			admin.DELETE("/seats/:id", h.DeleteSeat)
			admin.PATCH("/seats/:id/status", h.SetSeatStatus)
			admin.POST("/seats/:id/force-logout", h.ForceLogout)
			admin.POST("/seats/:id/refund", h.RefundBooking)
			admin.GET("/sessions/search", h.SearchSessions)
			admin.POST("/accounts", h.CreateAccount)
		}
	}

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", metrics.Handler())
}

func (s *Server) healthCheck(c *gin.Context) {
	dbHealth := s.db.HealthCheck(c.Request.Context())

	status := http.StatusOK
	if dbHealth.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":   dbHealth.Status,
		"service":  "lanhall-api",
		"database": dbHealth,
	})
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%s", s.config.Port)
	return s.router.Run(addr)
}

// GetRouter exposes the router for tests.
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// Cleanup closes external connections.
func (s *Server) Cleanup() error {
	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			logger.Get().Warn("Error closing NATS connection", "error", err)
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			logger.Get().Warn("Error closing Redis connection", "error", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			logger.Get().Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
