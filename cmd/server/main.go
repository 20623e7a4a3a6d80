package main

import (
	"context"   // Startup and shutdown deadlines
	"errors"    // Server close detection
	"net/http"  // HTTP server
	"os"        // Signal types
	"os/signal" // Graceful shutdown
	"syscall"   // SIGTERM
	"time"      // Timeouts

	"invest_tracker/internal/api"        // HTTP handlers and router
	"invest_tracker/internal/audit"      // Ledger event trail
	"invest_tracker/internal/config"     // Configuration
	"invest_tracker/internal/db"         // Connection and migration
	"invest_tracker/internal/ledger"     // Business operations
	"invest_tracker/internal/middleware" // Rate limiting
	"invest_tracker/internal/notify"     // Notification mail
	"invest_tracker/internal/store"      // Persistence

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration
	cfg.ConfigureLogging()     // Setup logger

	if cfg.JWTSecret == "" {
		logrus.Fatal("JWT_SECRET must be set")
	}

	ctx := context.Background()
	st := openStore(ctx, cfg)

	// Setup Redis client; caching is skipped when no address is configured
	var cache redis.Cmdable
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr, // Redis server address
			Password: cfg.RedisPass, // Redis password
			DB:       cfg.RedisDB,   // Redis database number
		})
		if _, err := redisClient.Ping(ctx).Result(); err != nil {
			logrus.Fatalf("failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		cache = redisClient
	} else {
		logrus.Warn("REDIS_ADDR not set, caching disabled")
	}

	// Audit trail
	var recorder audit.Recorder = audit.NewLogRecorder(500)
	if cfg.MongoURI != "" {
		client, mongoRecorder, err := audit.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			logrus.Fatalf("failed to connect to MongoDB: %v", err)
		}
		defer client.Disconnect(context.Background())
		recorder = mongoRecorder
	}

	// Mail delivery
	sender, closeSender := mailSender(cfg)
	defer closeSender()
	dispatcher := notify.NewDispatcher(sender, 4, 256)

	svc := ledger.NewService(st, cache, dispatcher, recorder, ledger.Options{
		JWTSecret:                cfg.JWTSecret,
		JWTTTL:                   time.Duration(cfg.JWTTTLHrs) * time.Hour,
		BaseURL:                  cfg.BaseURL,
		AdminRegSecret:           cfg.AdminRegSecret,
		RequireEmailVerification: cfg.RequireEmailVerification,
	})

	// Seed the admin account from the environment
	if created, err := svc.SeedAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminWallet); err != nil {
		logrus.Fatalf("failed to seed admin: %v", err)
	} else if created {
		logrus.WithField("email", cfg.AdminEmail).Info("Admin account created")
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	stop := make(chan struct{})
	limiter := middleware.NewRateLimiter(cfg.AuthRatePerS, cfg.AuthRateBurst)
	limiter.StartCleanup(time.Minute, stop)

	r, err := api.NewRouter(svc, api.RouterOptions{
		JWTSecret:      cfg.JWTSecret,
		CORSOrigins:    cfg.CORSOrigins,
		TrustedProxies: []string{"127.0.0.1"},
		AuthLimiter:    limiter,
	})
	if err != nil {
		logrus.Fatalf("failed to build router: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logrus.Info("Server running on " + cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Forced shutdown")
	}
	close(stop)
	dispatcher.Close() // Flush queued mail
}

// openStore connects the store named by STORE_DRIVER
func openStore(ctx context.Context, cfg *config.Config) store.Store {
	switch cfg.StoreDriver {
	case "memory":
		if cfg.IsProd {
			logrus.Fatal("STORE_DRIVER=memory is not allowed in production")
		}
		logrus.Warn("Using the in-memory store, data is lost on exit")
		mem := store.NewMemoryStore()
		if _, err := db.SeedPackages(ctx, mem); err != nil {
			logrus.Fatalf("failed to seed packages: %v", err)
		}
		return mem
	case "mysql":
		gdb, err := db.Open(cfg.DSN(), !cfg.IsProd && cfg.LogLevel == "debug")
		if err != nil {
			logrus.Fatalf("failed to connect to DB: %v", err)
		}
		if err := db.Migrate(gdb); err != nil {
			logrus.Fatalf("migration failed: %v", err)
		}
		return store.NewGormStore(gdb)
	default:
		logrus.Fatalf("unknown STORE_DRIVER %q", cfg.StoreDriver)
		return nil
	}
}

// mailSender picks the transport named by MAIL_TRANSPORT
func mailSender(cfg *config.Config) (notify.Sender, func()) {
	switch cfg.MailTransport {
	case "smtp":
		if cfg.SMTPHost == "" {
			logrus.Fatal("MAIL_TRANSPORT=smtp requires SMTP_HOST")
		}
		return notify.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom), func() {}
	case "queue":
		q, err := notify.DialQueue(cfg.AMQPURL, cfg.MailQueue)
		if err != nil {
			logrus.Fatalf("failed to connect to RabbitMQ: %v", err)
		}
		return q, q.Close
	default:
		logrus.Info("Mail transport: log only")
		return notify.LogSender{}, func() {}
	}
}
