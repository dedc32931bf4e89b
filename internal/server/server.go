// FilePath: internal/server/server.go
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gearlog/wican-hub/api"
	"github.com/gearlog/wican-hub/internal/cache"
	"github.com/gearlog/wican-hub/internal/config"
	"github.com/gearlog/wican-hub/internal/database"
	"github.com/gearlog/wican-hub/internal/firmware"
	"github.com/gearlog/wican-hub/internal/hubservice"
	"github.com/gearlog/wican-hub/internal/notify"
	"github.com/gearlog/wican-hub/internal/repository/postgres"
	"github.com/gearlog/wican-hub/internal/scheduler"
	"github.com/gearlog/wican-hub/internal/settings"
	"github.com/gorilla/handlers"
	nuts "github.com/vaudience/go-nuts"
)

// Server represents our HTTP server
type Server struct {
	config     *config.Config
	srv        *http.Server
	db         database.DB
	releases   *cache.Cache
	hubservice *hubservice.HubService
	scheduler  *scheduler.Scheduler
	cancelJobs context.CancelFunc
}

// New creates a new server instance
func New(cfg *config.Config) *Server {
	return &Server{config: cfg}
}

// Start wires all services, begins listening and blocks until shutdown
func (s *Server) Start() error {
	if err := s.initialize(); err != nil {
		return err
	}

	s.setupNotifyHandlers()

	router := api.NewRouter(s.hubservice, s.config.Auth.GlobalToken)
	router.Resources().SetHealthCheck(s.handleHealth())

	handler := handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{}),
	)(handlers.CombinedLoggingHandler(os.Stdout, router))

	s.srv = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port),
		Handler:      handler,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
	}

	jobCtx, cancel := context.WithCancel(context.Background())
	s.cancelJobs = cancel
	s.scheduler.Start(jobCtx)

	go func() {
		nuts.L.Infof("[Server] Starting server on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			nuts.L.Errorf("[Server] Error starting server: %v", err)
			os.Exit(1)
		}
	}()

	return s.waitForShutdown()
}

// initialize connects the database and cache and builds the service graph
func (s *Server) initialize() error {
	db, err := initDB(s.config.Database)
	if err != nil {
		return err
	}
	s.db = db

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	releases, err := cache.New(ctx, s.config.Redis)
	if err != nil {
		return fmt.Errorf("error connecting cache: %w", err)
	}
	s.releases = releases

	devices := postgres.NewDeviceRepository(db)
	vehicles := postgres.NewVehicleRepository(db)
	sessions := postgres.NewSessionRepository(db)
	telemetry := postgres.NewTelemetryRepository(db)
	dtcs := postgres.NewDTCRepository(db)
	settingsRepo := postgres.NewSettingsRepository(db)

	settingsLoader := settings.NewLoader(settingsRepo)
	dispatcher := notify.NewDispatcher()
	advisor := firmware.NewAdvisor(s.config.Firmware, releases, devices)

	s.hubservice = hubservice.New(
		devices, vehicles, sessions, telemetry, dtcs,
		settingsLoader, dispatcher, advisor,
		s.config.Auth.GlobalToken,
	)
	if err := s.hubservice.Validate(); err != nil {
		return err
	}

	s.scheduler = scheduler.New(settingsLoader, scheduler.BuildJobs(s.hubservice, s.config.Jobs)...)
	return nil
}

// waitForShutdown waits for interrupt signal and gracefully shuts down the server
func (s *Server) waitForShutdown() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	nuts.L.Infof("[Server] Shutting down server...")

	if s.cancelJobs != nil {
		s.cancelJobs()
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}

	if s.releases != nil {
		s.releases.Close()
	}
	if s.db != nil {
		s.db.Close()
	}

	nuts.L.Infof("[Server] Server shut down successfully")
	return nil
}

// handleHealth returns a simple health check handler
func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := s.db.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"degraded"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","version":"` + nuts.GetVersion() + `"}`))
	}
}

// setupNotifyHandlers attaches the default log sink to every alert event.
// External sinks (webhooks, push) register the same way.
func (s *Server) setupNotifyHandlers() {
	events := []string{
		notify.EventThresholdBreach,
		notify.EventSessionTimeout,
		notify.EventDeviceOffline,
		notify.EventDeviceDiscovered,
		notify.EventFirmwareOutdated,
	}
	for _, name := range events {
		s.hubservice.Notify.On(name, "server-log-"+name, func(event notify.AlertEvent) {
			nuts.L.Infof("[Alert] %s device=%s vin=%s: %s", event.Name, event.DeviceID, event.VIN, event.Message)
		})
	}
}

func initDB(cfg config.PostgresConfig) (database.DB, error) {
	wrappedDB, err := database.NewPostgresDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("error connecting database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := wrappedDB.GetDB().PingContext(ctx); err != nil {
		return nil, fmt.Errorf("error pinging database: %w", err)
	}

	if err := postgres.InitializeSchema(wrappedDB); err != nil {
		return nil, fmt.Errorf("error initializing schema: %w", err)
	}
	return wrappedDB, nil
}

// recoveryLogger routes panic traces from the HTTP recovery middleware
// into the structured logger.
type recoveryLogger struct{}

func (recoveryLogger) Println(args ...interface{}) {
	nuts.L.Errorf("[Server] Panic recovered: %v", args)
}
