package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"remod3/internal/chat"
	"remod3/internal/config"
	"remod3/internal/email"
	"remod3/internal/handler"
	"remod3/internal/middleware"
	"remod3/internal/repository/postgres"
	"remod3/internal/service"
	"remod3/internal/stats"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}
	jwtSecret := []byte(cfg.JWTSecret)

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected")

	tables := postgres.NewTableNames(cfg.TablePrefix)
	if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	// Create repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	userRepo := postgres.NewUserRepository(repoConfig)
	projectRepo := postgres.NewProjectRepository(repoConfig)
	nodeRepo := postgres.NewNodeRepository(repoConfig)
	chatRepo := postgres.NewChatMessageRepository(repoConfig)
	serviceRepo := postgres.NewServiceRepository(repoConfig)
	resetRepo := postgres.NewPasswordResetRepository(repoConfig)
	resetReqRepo := postgres.NewAdminResetRequestRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	// Outbound email
	mailer := email.NewService(email.Config{
		Host:      cfg.SMTPHost,
		Port:      cfg.SMTPPort,
		Username:  cfg.SMTPUsername,
		Password:  cfg.SMTPPassword,
		From:      cfg.EmailFrom,
		FromName:  cfg.EmailFromName,
		ContactTo: cfg.ContactEmailTo,
	})

	// Create services
	accountService := service.NewAccountService(
		userRepo, resetRepo, resetReqRepo, txManager,
		mailer, jwtSecret, cfg.FrontendURL, logger,
	)
	projectService := service.NewProjectService(projectRepo, nodeRepo, txManager, logger)
	nodeService := service.NewNodeService(nodeRepo, projectRepo, txManager, logger)
	catalogService := service.NewCatalogService(serviceRepo, logger)
	statsClient := stats.NewClient(cfg.WakatimeAPIKey, logger)

	// Live chat hub
	registry := chat.NewRegistry()
	hub := chat.NewHub(registry, chatRepo, logger)

	// Create handlers
	authHandler := handler.NewAuthHandler(accountService, logger)
	adminHandler := handler.NewAdminHandler(accountService, logger)
	projectHandler := handler.NewProjectHandler(projectService, logger)
	nodeHandler := handler.NewNodeHandler(nodeService, logger)
	servicesHandler := handler.NewServicesHandler(catalogService, logger)
	contactHandler := handler.NewContactHandler(mailer, logger)
	statsHandler := handler.NewStatsHandler(statsClient, logger)
	chatHandler := handler.NewChatHandler(hub, userRepo, jwtSecret, logger)
	healthHandler := handler.NewHealthHandler(pool)

	logger.Info("services initialized")

	requireAuth := middleware.Auth(jwtSecret)
	authed := func(h http.HandlerFunc) http.Handler {
		return requireAuth(h)
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return requireAuth(middleware.RequireAdmin(h))
	}

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", healthHandler.Check)

	// Auth routes
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/reset-password", authHandler.RequestPasswordReset)
	mux.HandleFunc("GET /api/auth/reset-password/verify", authHandler.VerifyResetCode)
	mux.HandleFunc("POST /api/auth/reset-password/confirm", authHandler.ConfirmPasswordReset)
	mux.Handle("GET /api/auth/me", authed(authHandler.Me))
	mux.Handle("POST /api/auth/change-password", authed(authHandler.ChangePassword))

	// Project routes
	mux.Handle("GET /api/projects", authed(projectHandler.List))
	mux.Handle("POST /api/projects", admin(projectHandler.Create))
	mux.Handle("GET /api/projects/{id}", authed(projectHandler.Get))
	mux.Handle("PATCH /api/projects/{id}", admin(projectHandler.Update))
	mux.Handle("DELETE /api/projects/{id}", admin(projectHandler.Delete))

	// File tree routes
	mux.Handle("GET /api/projects/{id}/tree", authed(nodeHandler.Tree))
	mux.Handle("POST /api/projects/{id}/nodes", authed(nodeHandler.Create))
	mux.Handle("POST /api/projects/{id}/upload", authed(nodeHandler.Upload))
	mux.Handle("GET /api/nodes/{id}", authed(nodeHandler.Get))
	mux.Handle("PATCH /api/nodes/{id}", authed(nodeHandler.Update))
	mux.Handle("DELETE /api/nodes/{id}", authed(nodeHandler.Delete))
	mux.Handle("POST /api/nodes/{id}/rename", authed(nodeHandler.Rename))
	mux.Handle("POST /api/nodes/{id}/move", authed(nodeHandler.Move))

	// Live chat channel - the bearer token rides the query string and is
	// checked after the upgrade
	mux.HandleFunc("GET /api/chat/ws", chatHandler.Connect)

	// Public catalog
	mux.HandleFunc("GET /api/services", servicesHandler.List)
	mux.HandleFunc("GET /api/services/{id}", servicesHandler.Get)
	mux.Handle("POST /api/services", admin(servicesHandler.Create))
	mux.Handle("PATCH /api/services/{id}", admin(servicesHandler.Update))
	mux.Handle("DELETE /api/services/{id}", admin(servicesHandler.Delete))

	// Contact form and activity stats
	mux.HandleFunc("POST /api/contact", contactHandler.Submit)
	mux.HandleFunc("GET /api/stats", statsHandler.Get)

	// Admin routes
	mux.Handle("GET /api/admin/users", admin(adminHandler.ListUsers))
	mux.Handle("PATCH /api/admin/users/{id}/role", admin(adminHandler.UpdateUserRole))
	mux.Handle("POST /api/admin/users/{id}/reset-password", admin(adminHandler.ResetUserPassword))
	mux.Handle("GET /api/admin/reset-requests", admin(adminHandler.ListResetRequests))

	// Build middleware chain
	var root http.Handler = mux
	root = middleware.Recovery(logger)(root)

	// CORS - outermost so OPTIONS pre-flight requests are answered
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Disabled to allow long-lived websocket sessions
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
