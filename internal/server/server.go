// FilePath: internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aquasense/hub/api"
	"github.com/aquasense/hub/internal/config"
	"github.com/aquasense/hub/internal/database"
	"github.com/aquasense/hub/internal/monitoring"
	"github.com/aquasense/hub/internal/presence"
	"github.com/aquasense/hub/internal/registry"
	"github.com/aquasense/hub/internal/repository"
	"github.com/aquasense/hub/internal/repository/memory"
	"github.com/aquasense/hub/internal/repository/postgres"
	nuts "github.com/vaudience/go-nuts"
)

// Server represents our HTTP server
type Server struct {
	config     *config.Config
	srv        *http.Server
	registry   *registry.Registry
	monitoring *monitoring.Service
	presence   *presence.Service
}

// New creates a new server instance
func New(cfg *config.Config) *Server {
	return &Server{
		config: cfg,
	}
}

// Start begins listening for requests
func (s *Server) Start() error {
	// Initialize services
	s.registry = s.initializeRegistry()
	s.monitoring = monitoring.NewService()

	// Set up cleanup event handlers
	s.setupCleanupHandlers()

	// Setup router
	router := api.NewRouter(s.registry, s.config.CORS.AllowedOrigins)
	router.SetHealthCheck(s.handleHealth())

	s.srv = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port),
		Handler:      router,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
	}

	// Start server
	go func() {
		nuts.L.Infof("[Server] Starting server on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			nuts.L.Errorf("[Server] Error starting server: %v", err)
			os.Exit(1)
		}
	}()

	return s.waitForShutdown()
}

// waitForShutdown waits for interrupt signal and gracefully shuts down the server
func (s *Server) waitForShutdown() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	nuts.L.Infof("[Server] Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}

	if s.presence != nil {
		if err := s.presence.Close(); err != nil {
			nuts.L.Errorf("[Server] Error closing presence cache: %v", err)
		}
	}

	nuts.L.Infof("[Server] Server shut down successfully")
	return nil
}

// handleHealth returns a simple health check handler
func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "ok",
			"version": nuts.GetVersion(),
			"uptime":  s.monitoring.Uptime().String(),
			"events":  s.monitoring.Counters(),
		})
	}
}

func (s *Server) setupCleanupHandlers() {
	// Handle device deletion events
	s.registry.Cleanup.OnCleanup("device.deleted", func(id string) {
		nuts.L.Infof("[Cleanup] Device %s and all associated data deleted", id)
		s.monitoring.RecordEvent("device_deletion", map[string]string{
			"device_id": id,
		})
	})

	// Handle sensor unassignment events
	s.registry.Cleanup.OnCleanup("sensor.unassigned", func(id string) {
		nuts.L.Infof("[Cleanup] Sensor %s unassigned from its cloud node", id)
		s.monitoring.RecordEvent("sensor_unassignment", map[string]string{
			"sensor_id": id,
		})
	})
}

// initializeRegistry creates and configures the device registry
func (s *Server) initializeRegistry() *registry.Registry {
	var (
		devices    repository.DeviceRepository
		sensorData repository.SensorDataRepository
	)

	switch s.config.Database.Backend {
	case "memory":
		nuts.L.Infof("[Server] Using in-memory device store")
		devices = memory.NewDeviceRepository()
		sensorData = memory.NewSensorDataRepository()
	default:
		appDB := initAppDB(s.config.Database.AppDB)

		var err error
		devices, err = postgres.NewDeviceRepository(appDB)
		if err != nil {
			nuts.L.Fatalf("[Server] Failed to initialize device repository: %v", err)
		}
		sensorData, err = postgres.NewSensorDataRepository(appDB)
		if err != nil {
			nuts.L.Fatalf("[Server] Failed to initialize sensor data repository: %v", err)
		}
	}

	var liveness registry.Presence
	if s.config.Redis.Enabled {
		svc, err := presence.NewService(s.config.Redis)
		if err != nil {
			nuts.L.Fatalf("[Server] Failed to connect to Redis: %v", err)
		}
		s.presence = svc
		liveness = svc
	}

	svc := registry.New(devices, sensorData, liveness)
	if err := svc.Validate(); err != nil {
		nuts.L.Fatalf("[Server] Invalid registry configuration: %v", err)
	}
	return svc
}

func initAppDB(cfg config.PostgresConfig) database.DB {
	wrappedDB, err := database.NewPostgresDB(cfg)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to connect to AppDB: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := wrappedDB.Ping(ctx); err != nil {
		nuts.L.Fatalf("[Server] Failed to ping AppDB: %v", err)
	}
	return wrappedDB
}
