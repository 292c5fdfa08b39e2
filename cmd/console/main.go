package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"equipment-console/internal/config"
	"equipment-console/internal/database"
	"equipment-console/internal/gateway"
	"equipment-console/internal/handler"
	"equipment-console/internal/middleware"
	"equipment-console/internal/notification"
	"equipment-console/internal/repository"
	"equipment-console/internal/router"
	notificationservice "equipment-console/internal/service/notification"
	"equipment-console/internal/view"
	"equipment-console/internal/workflow"
	"equipment-console/pkg/logger"
	"equipment-console/pkg/validation"

	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	code := 0
	if err := run(cfg, zl); err != nil {
		zl.Error("Equipment console stopped", zap.Error(err))
		code = 1
	}
	_ = zl.Sync()
	os.Exit(code)
}

// run wires the console and serves until a shutdown signal. Deferred
// cleanups run before it returns, including on startup errors.
func run(cfg *config.Config, zl *zap.Logger) error {

	// Remote API clients
	api := gateway.NewClient(gateway.Config{
		BaseURL:      cfg.RemoteAPI.BaseURL,
		Timeout:      cfg.RemoteAPI.Timeout,
		UserAgent:    cfg.RemoteAPI.UserAgent,
		MaxBodyBytes: cfg.RemoteAPI.MaxBodyBytes,
	}, zl.Named("gateway"))
	equipments := gateway.NewEquipmentClient(api)
	characteristics := gateway.NewCharacteristicClient(api)
	organs := gateway.NewOrganClient(api)
	affectations := gateway.NewAffectationClient(api)
	references := gateway.NewReferenceClient(api)

	validator, err := validation.NewDraftValidator(cfg.Workflow.States)
	if err != nil {
		return fmt.Errorf("failed to initialize draft validator: %w", err)
	}

	// View controllers, one list per console session
	sessions := view.NewSessions(equipments, zl)
	detail := view.NewDetailController(equipments, affectations, organs, characteristics, zl)

	deps := workflow.Dependencies{
		Equipments:      equipments,
		Characteristics: characteristics,
		Organs:          organs,
		Assignments:     affectations,
		Validator:       validator,
		Refresher:       sessions,
		Logger:          zl,
	}

	handlerDeps := handler.Dependencies{
		Lists:           handler.SessionLists(sessions),
		Detail:          detail,
		Lookup:          equipments,
		Characteristics: characteristics,
		References:      references,
		RemoteAPI:       api,
		States:          validator.States(),
	}

	// Submission journal
	if cfg.Journal.Enabled() {
		db, err := database.InitDB(cfg.Journal)
		if err != nil {
			return fmt.Errorf("failed to initialize journal database: %w", err)
		}
		defer db.Close()

		runs := repository.NewWorkflowRunRepository(db)
		if err := runs.EnsureSchema(context.Background()); err != nil {
			return fmt.Errorf("failed to create journal schema: %w", err)
		}
		deps.Recorder = runs
		handlerDeps.Journal = runs
	} else {
		zl.Info("Workflow journal disabled")
	}

	// Outcome notifications
	var publisher *notificationservice.ServiceAdapter
	if cfg.NotificationService.Enabled() {
		notifier := notification.NewNotifierWithConfig(notification.NotificationConfig{
			URL:            cfg.NotificationService.URL,
			Timeout:        cfg.NotificationService.Timeout,
			RetryAttempts:  cfg.NotificationService.RetryAttempts,
			RetryDelay:     cfg.NotificationService.RetryDelay,
			MaxPayloadSize: cfg.NotificationService.MaxPayloadSize,
		}, zl)
		publisher = notificationservice.NewServiceAdapter(notifier, cfg.NotificationService.Timeout, zl)
		deps.Publisher = publisher
		handlerDeps.Notifier = notifier
	}

	handlerDeps.Workflow = workflow.New(deps)
	h := handler.NewConsoleHandler(handlerDeps, zl.Named("handler"))

	// Setup router with security configuration
	r := router.NewRouter(h, cfg)
	finalHandler := middleware.NewLoggingMiddleware(zl.Named("http")).LogRequests(r)

	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Port),
		Handler:        finalHandler,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		zl.Info("Starting equipment console",
			zap.Int("port", cfg.Port),
			zap.String("remote_api", cfg.RemoteAPI.BaseURL),
			zap.Strings("states", validator.States()),
			zap.Int("rate_limit_rps", cfg.Security.RateLimitRPS),
			zap.Bool("cors", cfg.Security.EnableCORS),
		)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("failed to start server: %w", err)
	case <-done:
	}
	zl.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Security.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		zl.Warn("Server forced to shutdown", zap.Error(err))
	} else {
		zl.Info("Server exited gracefully")
	}

	if publisher != nil {
		publisher.Wait()
	}
	return nil
}
