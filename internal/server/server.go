// Package server wires the services, handlers and HTTP stack together.
package server

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/userhub/backend/config"
	"github.com/userhub/backend/internal/api"
	"github.com/userhub/backend/internal/metrics"
	"github.com/userhub/backend/internal/middleware"
	"github.com/userhub/backend/internal/pubsub"
	"github.com/userhub/backend/internal/router"
	"github.com/userhub/backend/internal/service"
	"github.com/userhub/backend/internal/session"
)

// Server represents the HTTP server
type Server struct {
	router   *gin.Engine
	http     *http.Server
	db       *gorm.DB
	broker   pubsub.Broker
	observer *session.Observer

	unobserve func()
}

// NewServer creates a new server instance with all services wired up
func NewServer(
	cfg *config.Config,
	db *gorm.DB,
	redisClient *redis.Client,
	blobs service.BlobStore,
	uploader service.ImageUploader,
) *Server {
	observer := session.NewObserver()

	var broker pubsub.Broker
	if redisClient != nil {
		broker = pubsub.NewRedisBroker(redisClient)
	} else {
		broker = pubsub.NewMemoryBroker()
	}

	identityService := service.NewIdentityService(db, cfg.JWTSecret, cfg.ReauthWindow, observer)
	profileService := service.NewProfileService(db, broker)
	accountService := service.NewAccountService(identityService, profileService, blobs)
	watcher := service.NewProfileWatcher(profileService, broker)

	// When a session ends, every watch that session opened goes with it.
	unobserve := observer.OnChange(watchTeardown(watcher))

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	authHandler := api.NewAuthHandler(accountService, identityService, collector)
	profileHandler := api.NewProfileHandler(profileService, watcher, uploader, identityService, collector)
	accountHandler := api.NewAccountHandler(accountService, collector)

	rateLimiter := middleware.NewLifecycleRateLimiter(redisClient)

	engine := router.SetupRouter(
		authHandler,
		profileHandler,
		accountHandler,
		identityService,
		rateLimiter,
		metrics.Handler(registry),
	)

	return &Server{
		router:    engine,
		db:        db,
		broker:    broker,
		observer:  observer,
		unobserve: unobserve,
	}
}

// Router returns the configured gin engine
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start(host, port string) error {
	s.http = &http.Server{
		Addr:    host + ":" + port,
		Handler: s.router,
	}

	log.Printf("Starting server on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server and tears down open watches
func (s *Server) Shutdown(ctx context.Context) error {
	if s.unobserve != nil {
		s.unobserve()
	}
	if err := s.broker.Close(); err != nil {
		log.Printf("Failed to close broker: %v", err)
	}
	if s.http != nil {
		return s.http.Shutdown(ctx)
	}
	return nil
}
