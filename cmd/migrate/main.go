package main

import (
	"context" // Seeding context

	"invest_tracker/internal/config" // Custom import path (Config)
	"invest_tracker/internal/db"     // Custom import path (Database)
	"invest_tracker/internal/ledger" // Admin seeding
	"invest_tracker/internal/store"  // Persistence

	"github.com/sirupsen/logrus" // Structured logging
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig() // Load configuration
	cfg.ConfigureLogging()

	gdb, err := db.Open(cfg.DSN(), false)
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		logrus.Fatalf("migration failed: %v", err)
	}

	ctx := context.Background()
	st := store.NewGormStore(gdb)
	created, err := db.SeedPackages(ctx, st)
	if err != nil {
		logrus.Fatalf("package seeding failed: %v", err)
	}
	logrus.WithField("created", created).Info("Default packages seeded")

	svc := ledger.NewService(st, nil, nil, nil, ledger.Options{JWTSecret: cfg.JWTSecret})
	if _, err := svc.SeedAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminWallet); err != nil {
		logrus.Fatalf("admin seeding failed: %v", err)
	}
}
