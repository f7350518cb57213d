package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"toolhost/internal/config"
	"toolhost/internal/database"
	"toolhost/internal/handlers"
	"toolhost/internal/jobs"
	"toolhost/internal/middleware"
	"toolhost/internal/services"
	"toolhost/internal/tools"
	"toolhost/pkg/auth"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP tool host",
		Run:   runServe,
	})
}

func runServe(cmd *cobra.Command, args []string) {
	log.Println("🚀 Starting toolhost server...")

	cfg := config.Load()
	log.Printf("📋 Configuration loaded (Port: %s, Environment: %s)", cfg.Port, cfg.Environment)

	if cfg.IsProduction() && cfg.JWTSecret == "" {
		log.Fatal("❌ CRITICAL SECURITY ERROR: JWT_SECRET is required in production")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessions := services.NewSessionService(cfg.SessionIdleTTL)
	log.Printf("🧠 Session store ready (idle TTL %v)", cfg.SessionIdleTTL)

	// Collaborator stores are optional; their tools are only registered when configured
	var collaborators tools.Collaborators
	healthChecks := map[string]handlers.HealthCheck{}

	if cfg.DatabaseURL != "" {
		db, err := database.New(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("❌ Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := db.Initialize(); err != nil {
			log.Fatalf("❌ Failed to initialize database: %v", err)
		}
		collaborators.DDRs = services.NewDDRService(db)
		healthChecks[string(db.Dialect)] = db.PingContext
	} else {
		log.Println("⚠️  DATABASE_URL not set, DDR tools disabled")
	}

	if cfg.MongoURI != "" {
		mongoDB, err := database.NewMongoDB(cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
		}
		defer mongoDB.Close(context.Background())

		if err := mongoDB.Initialize(ctx); err != nil {
			log.Printf("⚠️  Failed to initialize MongoDB indexes: %v", err)
		}
		collaborators.Categories = services.NewCategoryService(mongoDB)
		healthChecks["mongodb"] = mongoDB.Ping
	} else {
		log.Println("⚠️  MONGODB_URI not set, categories_list disabled")
	}

	// Registry options
	var opts []tools.Option

	metrics := services.InitMetrics(prometheus.DefaultRegisterer, sessions)
	opts = append(opts, tools.WithObserver(metrics))

	policy, err := services.NewCatalogPolicy(cfg.CatalogPolicy)
	if err != nil {
		log.Fatalf("❌ Failed to load catalog policy: %v", err)
	}
	if err := policy.Watch(ctx); err != nil {
		log.Printf("⚠️  Catalog policy hot-reload disabled: %v", err)
	}
	opts = append(opts, tools.WithPolicy(policy))

	if cfg.RedisURL != "" {
		redisService, err := services.NewRedisService(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️  Redis unavailable, session events disabled: %v", err)
		} else {
			defer redisService.Close()
			healthChecks["redis"] = redisService.Ping
			opts = append(opts, tools.WithChangeNotifier(services.NewSessionEventPublisher(redisService, cfg.InstanceID)))
			log.Printf("📡 [PUBSUB] Publishing session events (instance: %s)", cfg.InstanceID)
		}
	}

	registry, err := tools.NewBuiltinRegistry(collaborators, opts...)
	if err != nil {
		log.Fatalf("❌ Failed to build tool registry: %v", err)
	}

	// Background jobs
	jobScheduler, err := jobs.NewJobScheduler()
	if err != nil {
		log.Fatalf("❌ Failed to create job scheduler: %v", err)
	}
	if err := jobScheduler.Register("session_sweep", jobs.NewSessionSweepJob(sessions, cfg.SessionSweepInterval)); err != nil {
		log.Fatalf("❌ Failed to register session sweep: %v", err)
	}
	jobScheduler.Start()

	var jwtAuth *auth.LocalJWTAuth
	if cfg.JWTSecret != "" {
		jwtAuth, err = auth.NewLocalJWTAuth(cfg.JWTSecret, 0)
		if err != nil {
			log.Fatalf("❌ Failed to initialize JWT auth: %v", err)
		}
	} else {
		log.Println("⚠️  JWT_SECRET not set, authentication bypassed (development mode)")
	}

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "toolhost",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    4 * 1024 * 1024,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())

	if cfg.MetricsEnabled {
		httpMetrics := fiberprometheus.New("toolhost")
		httpMetrics.RegisterAt(app, "/metrics")
		app.Use(httpMetrics.Middleware)
		log.Println("📊 Prometheus metrics endpoint enabled at /metrics")
	}

	allowedOrigins := strings.Join(cfg.AllowedOrigins, ",")
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: allowedOrigins != "*",
	}))
	log.Printf("🔒 [SECURITY] CORS allowed origins: %s", allowedOrigins)

	handlers.Routes{
		Health:      handlers.NewHealthHandler(sessions, registry, healthChecks),
		Tools:       handlers.NewToolsHandler(registry, sessions),
		Sessions:    handlers.NewSessionHandler(sessions),
		Admin:       handlers.NewAdminHandler(jobScheduler, policy),
		Auth:        middleware.LocalAuthMiddleware(jwtAuth, cfg.Environment),
		AdminAuth:   middleware.AdminMiddleware(cfg.AdminUserIDs),
		ToolLimiter: middleware.NewToolCallLimiter(cfg.ToolCallsPerSecond, cfg.ToolCallBurst).Handler(),
	}.Register(app)

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("🛑 Shutting down server...")

		if err := jobScheduler.Stop(); err != nil {
			log.Printf("⚠️ Error stopping job scheduler: %v", err)
		}
		cancel()

		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}
