package main // Entry point package

import (
	"context" // Contexts bound the startup database work
	"log"     // Logging library
	"time"    // Timeouts for startup steps

	"github.com/joho/godotenv"    // Loads .env files into the environment in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/cristianml/tomevault/internal/config"     // Internal config loader
	"github.com/cristianml/tomevault/internal/database"   // MySQL pool, schema and seed data
	"github.com/cristianml/tomevault/internal/handler"    // HTTP handlers
	"github.com/cristianml/tomevault/internal/middleware" // Identity, authorization, rate limit and cache middleware
	"github.com/cristianml/tomevault/internal/queue"      // Audit event consumer
	"github.com/cristianml/tomevault/internal/repository" // Data access layer
	"github.com/cristianml/tomevault/internal/router"     // Route registration
	"github.com/cristianml/tomevault/internal/service"    // Business services
)

func main() {
	// Load .env if present; in production the variables come from the
	// environment directly and the file is simply absent.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config, fatally on missing values

	// Open the MySQL pool and bring the schema and seed data up to date.
	// Seeding is idempotent: the role/permission catalog and the bootstrap
	// admin are inserted only when missing, so restarts are safe.
	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := database.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("schema: %v", err)
	}
	if err := database.SeedRoleCatalog(ctx, db); err != nil {
		log.Fatalf("seed roles: %v", err)
	}
	if err := database.SeedBootstrapAdmin(ctx, db, cfg.BcryptCost); err != nil {
		log.Fatalf("seed admin: %v", err)
	}
	cancel()

	// Redis is optional: without it the rate limiter and the catalog
	// response cache simply stay disabled.
	rdb := config.NewRedisClient()

	// Repositories and services.
	userRepo := repository.NewUserRepo(db)
	bookRepo := repository.NewBookRepo(db)
	wishlistRepo := repository.NewWishlistRepo(db)

	audit := service.NewAMQPAuditPublisher()
	authSvc := service.NewAuthService(
		userRepo, audit,
		cfg.JWTSecret, cfg.JWTIssuer,
		time.Duration(cfg.AccessTTLMin)*time.Minute,
		cfg.BcryptCost,
	)
	catalog := service.NewGoogleBooksClient(cfg.GoogleBooksURL, cfg.GoogleBooksKey)

	// The audit consumer runs for the life of the process and reconnects
	// on broker failures; losing the broker never blocks request handling.
	go queue.StartAuditConsumer()

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userRepo, cfg.BcryptCost)
	bookHandler := handler.NewBookHandler(bookRepo, catalog)
	wishlistHandler := handler.NewWishlistHandler(wishlistRepo, catalog)
	adminHandler := handler.NewAdminUserHandler(userRepo, authSvc, audit, cfg.BcryptCost)

	e := echo.New()
	e.HideBanner = true

	// The identity middleware runs on every request: it resolves the token
	// subject against the database so role changes, disabling and soft
	// deletion take effect immediately, not at token expiry.  Requests
	// without a token pass through anonymously and are stopped later by
	// the per-route policy if the route needs a principal.
	e.Use(middleware.RequestIdentity(cfg.JWTSecret, cfg.JWTIssuer, userRepo))

	var rateLimit echo.MiddlewareFunc
	var cache echo.MiddlewareFunc
	if rdb != nil {
		rateLimit = middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
		cache = middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	}

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, rateLimit)
	router.RegisterCatalog(e, bookHandler, cache)
	router.RegisterBooks(e, bookHandler)
	router.RegisterWishlist(e, wishlistHandler)
	router.RegisterUser(e, userHandler)
	router.RegisterAdmin(e, adminHandler)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
