package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hafsabajwa/chatApp/api/ws"
	"github.com/hafsabajwa/chatApp/internal/config"
	"github.com/hafsabajwa/chatApp/internal/hub"
	"github.com/hafsabajwa/chatApp/internal/natsbus"
	"github.com/hafsabajwa/chatApp/internal/presence"
	"github.com/hafsabajwa/chatApp/pkg/logger"
)

// App holds every server-side dependency of the room server.
type App struct {
	cfg        config.Config
	logger     logger.Logger
	bus        *natsbus.Bus
	presence   *presence.Client
	hub        *hub.Hub
	httpServer *http.Server
	rootCtx    context.Context
	cancel     context.CancelFunc
}

// NewApp initializes and connects all application dependencies.
func NewApp(cfg config.Config) (*App, error) {
	baseLogger := logger.NewLogger(cfg.LogLevel, cfg.LogFile)
	rootCtx := logger.NewContext(context.Background(), baseLogger)
	rootCtx, rootCancel := context.WithCancel(rootCtx)

	log := logger.FromContext(rootCtx).WithModule("app")
	log.Infof("Initializing application components...")

	bus, err := natsbus.Connect(cfg.NATSURL, baseLogger)
	if err != nil {
		rootCancel()
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	presenceClient, err := presence.NewClient(cfg.RedisURL)
	if err != nil {
		rootCancel()
		bus.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	if err := presenceClient.Clear(); err != nil {
		log.Warnf("could not clear presence set: %v", err)
	}

	roomHub := hub.New(bus, presenceClient, baseLogger)
	if err := bus.Subscribe(roomHub.Broadcast); err != nil {
		rootCancel()
		bus.Close()
		presenceClient.Close()
		return nil, fmt.Errorf("failed to subscribe hub to bus: %w", err)
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: ws.SetupRoutes(ws.Config{Hub: roomHub, RootCtx: rootCtx}),
	}

	app := &App{
		cfg:        cfg,
		logger:     log,
		bus:        bus,
		presence:   presenceClient,
		hub:        roomHub,
		httpServer: httpServer,
		rootCtx:    rootCtx,
		cancel:     rootCancel,
	}

	log.Infof("Application initialized successfully")
	return app, nil
}

// Start runs the hub and HTTP server, blocking until a shutdown signal.
func (a *App) Start() error {
	log := a.logger.WithFields(map[string]interface{}{"port": a.cfg.Port})
	log.Infof("Starting room server")

	go a.hub.Run(a.rootCtx)

	go func() {
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Warnf("Received shutdown signal: %s", sig)

	return a.Stop()
}

// Stop gracefully shuts down the server and closes all connections.
func (a *App) Stop() error {
	a.logger.Infof("Initiating graceful shutdown")

	a.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Errorf("HTTP server shutdown error: %v", err)
	}

	a.logger.Infof("Closing NATS connection")
	a.bus.Close()

	a.logger.Infof("Closing Redis connection")
	a.presence.Close()

	a.logger.Infof("Shutdown completed successfully")
	return nil
}
