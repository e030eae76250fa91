package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/phumblot-gs/gs-webhook-2-events/internal/clients"
	"github.com/phumblot-gs/gs-webhook-2-events/internal/config"
	"github.com/phumblot-gs/gs-webhook-2-events/internal/database"
	"github.com/phumblot-gs/gs-webhook-2-events/internal/failedevents"
	"github.com/phumblot-gs/gs-webhook-2-events/internal/handlers"
	"github.com/phumblot-gs/gs-webhook-2-events/internal/logger"
	"github.com/phumblot-gs/gs-webhook-2-events/internal/retry"
	"github.com/phumblot-gs/gs-webhook-2-events/internal/routes"
	"github.com/phumblot-gs/gs-webhook-2-events/internal/stream"
	"github.com/phumblot-gs/gs-webhook-2-events/internal/webhook"
)

func main() {
	if err := logger.Init(os.Getenv("LOG_LEVEL")); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	db, err := database.Connect(&cfg.Database, logger.Logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, logger.Logger); err != nil {
			logger.Error("Error closing database", zap.Error(err))
		}
	}()

	if err := database.RunMigrations(&cfg.Database, logger.Logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Wire the relay pipeline
	clientsService := clients.NewService(db)
	streamClient := stream.NewClient(&cfg.StreamAPI, logger.Logger)
	failedEventsStore := failedevents.NewStore(db)
	processor := webhook.NewProcessor(clientsService, streamClient, failedEventsStore, logger.Logger)
	scheduler := retry.NewScheduler(failedEventsStore, streamClient, &cfg.Retry, logger.Logger)

	scheduler.Start()
	defer scheduler.Stop()

	app := fiber.New(fiber.Config{
		AppName:      stream.AppName,
		ServerHeader: "Fiber",
	})

	// Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-API-Key",
	}))

	routes.SetupRoutes(app, routes.Handlers{
		Health:       handlers.NewHealthHandler(db),
		Webhook:      handlers.NewWebhookHandler(clientsService, processor, logger.Logger),
		Clients:      handlers.NewClientsHandler(clientsService, logger.Logger),
		FailedEvents: handlers.NewFailedEventsHandler(failedEventsStore, scheduler, cfg.Retry.MaxRetries, logger.Logger),
	}, cfg.Admin.APIKey)

	// Start server in a goroutine
	go func() {
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		logger.Info("Server starting",
			zap.String("address", addr),
		)
		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	// Stop the retry scheduler before shared resources go away
	scheduler.Stop()

	if err := app.Shutdown(); err != nil {
		logger.Error("Error during server shutdown", zap.Error(err))
	}

	logger.Info("Server stopped")
}
