package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/emyflow/emyflow-backend/database"
	"github.com/emyflow/emyflow-backend/internal/handlers"
	"github.com/emyflow/emyflow-backend/internal/jobs"
	"github.com/emyflow/emyflow-backend/internal/mcpserver"
	"github.com/emyflow/emyflow-backend/internal/models"
	"github.com/emyflow/emyflow-backend/internal/routes"
	"github.com/emyflow/emyflow-backend/internal/services"
	"github.com/emyflow/emyflow-backend/internal/storage"
)

const version = "1.0.0"

func main() {
	// Load .env file for local development
	if os.Getenv("INSTANCE_CONNECTION_NAME") == "" {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("⚠️  No .env file found - checking environment variables")
		}
	}

	// Initialize storage
	var store storage.Store

	if os.Getenv("USE_MEMORY_STORE") == "true" {
		log.Println("⚠️  Using in-memory storage (not for production!)")
		store = storage.NewMemoryStore()
	} else {
		log.Println("📦 Connecting to PostgreSQL database...")
		database.Connect()

		log.Println("🔄 Running database migrations...")
		err := database.DB.AutoMigrate(
			&models.Tenant{},
			&models.AnalyticsEvent{},
		)
		if err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
		log.Println("✅ Database migrations completed!")

		store = storage.NewDatabaseStore(database.DB)
		log.Println("✅ Using PostgreSQL database storage")
	}
	storage.SetStore(store)

	// Provider clients
	messaging := services.NewWassengerService()
	calendar := services.NewGoogleCalendarService(services.NewGoogleAuthService())
	marketing := services.NewMetaCAPIService()

	// Core services
	analytics := services.NewAnalyticsService(store)
	handoff := services.NewHandoffGuard()
	leads := services.NewLeadDeduplicator(marketing, messaging, analytics)
	availability := services.NewAvailabilityService(calendar)
	booking := services.NewBookingService(calendar, messaging, marketing, analytics)
	crm := services.NewCRMService(messaging)

	forwarder := services.NewForwardService(store)
	buffer := services.NewDebounceBuffer(services.BufferDelay, forwarder.DeliverCombined)

	sweep := jobs.NewSweepJob(leads.Guard(), handoff.State())
	sweep.Start()

	log.Println("✅ All services initialized and scheduled jobs started")

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "EmyFlow Backend v" + version,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Webhook-Secret",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	routes.SetupRoutes(app, routes.Handlers{
		Webhook:   handlers.NewWebhookHandler(store, buffer, handoff, leads, analytics),
		Tenants:   handlers.NewTenantHandler(store),
		Analytics: handlers.NewAnalyticsHandler(store),
		Health:    handlers.NewHealthHandler(version, getStorageType()),
	})

	// Tool surface for the agent layer, on its own port
	mcpPort := os.Getenv("MCP_PORT")
	if mcpPort == "" {
		mcpPort = "8081"
	}
	mcpSrv := mcpserver.New(store, availability, booking, marketing, crm)
	go func() {
		if err := mcpSrv.ServeSSE(":"+mcpPort, os.Getenv("MCP_BASE_URL")); err != nil {
			log.Printf("⚠️  MCP server stopped: %v", err)
		}
	}()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("\n🛑 Gracefully shutting down...")
		log.Println("⏹️  Stopping cache sweep job...")
		sweep.Stop()
		log.Println("⏳ Waiting for in-flight conversion calls...")
		leads.Wait()
		booking.Wait()
		log.Println("⏹️  Shutting down server...")
		_ = app.Shutdown()
	}()

	log.Println("========================================")
	log.Printf("🚀 EmyFlow Backend starting on port %s", port)
	log.Printf("📊 Storage: %s", getStorageType())
	log.Printf("🌍 Environment: %s", getEnvironment())
	log.Printf("🤖 MCP tools on port %s", mcpPort)
	log.Println("========================================")

	log.Fatal(app.Listen(":" + port))
}

func getEnvironment() string {
	if os.Getenv("INSTANCE_CONNECTION_NAME") != "" {
		return "Production (Cloud Run)"
	}
	return "Development (Local)"
}

func getStorageType() string {
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		return "In-Memory (Testing)"
	}
	return "PostgreSQL Database"
}
