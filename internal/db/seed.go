package db

import (
	"context" // Request scoped cancellation
	"errors"  // Error inspection

	"invest_tracker/internal/domain" // Domain models
	"invest_tracker/internal/store"  // Persistence

	"github.com/shopspring/decimal" // Exact money arithmetic
	"github.com/sirupsen/logrus"    // Structured logging
)

// DefaultPackages is the catalog a fresh installation starts with
func DefaultPackages() []domain.Package {
	tier := func(name string, min, max, roi int64) domain.Package {
		return domain.Package{
			Name:          name,
			MinAmount:     decimal.NewFromInt(min),
			MaxAmount:     decimal.NewFromInt(max),
			ROIPercentage: decimal.NewFromInt(roi),
			DurationDays:  30,
			IsActive:      true,
		}
	}
	return []domain.Package{
		tier("Starter", 100, 999, 12),
		tier("Professional", 1000, 4999, 15),
		tier("Premium", 5000, 19999, 20),
		tier("Elite", 20000, 100000, 30),
	}
}

// SeedPackages inserts the default packages that do not exist yet and
// returns how many were created. Existing packages are left untouched.
func SeedPackages(ctx context.Context, st store.PackageStore) (int, error) {
	created := 0
	for _, p := range DefaultPackages() {
		_, err := st.GetPackageByName(ctx, p.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return created, err
		}
		if err := st.CreatePackage(ctx, &p); err != nil && !errors.Is(err, store.ErrDuplicate) {
			return created, err
		}
		created++
		logrus.WithField("package", p.Name).Info("Default package seeded")
	}
	return created, nil
}
