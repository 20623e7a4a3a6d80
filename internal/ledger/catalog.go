package ledger

import (
	"context" // Request scoped cancellation
	"errors"  // Error inspection
	"strings" // Name trimming

	"invest_tracker/internal/audit"  // Ledger event trail
	"invest_tracker/internal/domain" // Domain models
	"invest_tracker/internal/store"  // Persistence

	"github.com/shopspring/decimal" // Exact money arithmetic
	"github.com/sirupsen/logrus"    // Structured logging
)

// PackageInput carries package fields. Nil fields are unset: required on
// create, unchanged on update.
type PackageInput struct {
	Name          *string
	MinAmount     *decimal.Decimal
	MaxAmount     *decimal.Decimal
	ROIPercentage *decimal.Decimal
	DurationDays  *int
	IsActive      *bool
}

func (in PackageInput) apply(p *domain.Package) {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.MinAmount != nil {
		p.MinAmount = *in.MinAmount
	}
	if in.MaxAmount != nil {
		p.MaxAmount = *in.MaxAmount
	}
	if in.ROIPercentage != nil {
		p.ROIPercentage = *in.ROIPercentage
	}
	if in.DurationDays != nil {
		p.DurationDays = *in.DurationDays
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
}

var one = decimal.NewFromInt(1)

func validatePackage(p *domain.Package) error {
	switch {
	case p.Name == "":
		return invalid("Package name is required")
	case p.MinAmount.LessThan(one):
		return invalid("Minimum amount must be at least 1")
	case p.MaxAmount.LessThan(one):
		return invalid("Maximum amount must be at least 1")
	case !p.MinAmount.LessThan(p.MaxAmount):
		return invalid("Minimum amount must be less than maximum amount")
	case !p.ROIPercentage.IsPositive():
		return invalid("ROI percentage must be greater than 0")
	case p.DurationDays < 1:
		return invalid("Duration must be at least 1 day")
	}
	return nil
}

// ActivePackages lists the packages investors can choose, cheapest first
func (s *Service) ActivePackages(ctx context.Context) ([]domain.Package, error) {
	return cached(ctx, s.rdb, keyActivePackages, packagesTTL, func() ([]domain.Package, error) {
		return s.store.ListPackages(ctx, true)
	})
}

// AllPackages lists the whole catalog, newest first
func (s *Service) AllPackages(ctx context.Context) ([]domain.Package, error) {
	return s.store.ListPackages(ctx, false)
}

// CreatePackage adds a package to the catalog. New packages are active
// unless IsActive says otherwise.
func (s *Service) CreatePackage(ctx context.Context, in PackageInput) (*domain.Package, error) {
	if in.Name == nil || in.MinAmount == nil || in.MaxAmount == nil || in.ROIPercentage == nil || in.DurationDays == nil {
		return nil, invalid("All fields are required")
	}
	p := &domain.Package{IsActive: true}
	in.apply(p)
	if err := validatePackage(p); err != nil {
		return nil, err
	}
	if err := s.store.CreatePackage(ctx, p); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, invalid("Package name already exists")
		}
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"package_id": p.ID, "name": p.Name}).Info("Package created")
	s.invalidatePackages(ctx)
	return p, nil
}

// UpdatePackage applies a partial edit to package id
func (s *Service) UpdatePackage(ctx context.Context, id uint, in PackageInput) (*domain.Package, error) {
	p, err := s.store.GetPackage(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(p)
	if err := validatePackage(p); err != nil {
		return nil, err
	}
	if err := s.store.SavePackage(ctx, p); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, invalid("Package name already exists")
		}
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"package_id": p.ID, "name": p.Name}).Info("Package updated")
	s.invalidatePackages(ctx)
	return p, nil
}

// DeletePackage removes package id unless deposits reference it
func (s *Service) DeletePackage(ctx context.Context, id uint) error {
	if err := s.store.DeletePackage(ctx, id); err != nil {
		return err
	}
	logrus.WithField("package_id", id).Info("Package deleted")
	s.invalidatePackages(ctx)
	return nil
}

// SwitchPackage marks packageID as the preferred package of userID. The
// balance must cover the package minimum; no funds move.
func (s *Service) SwitchPackage(ctx context.Context, userID, packageID uint) (*domain.User, error) {
	if packageID == 0 {
		return nil, invalid("packageId is required")
	}
	u, err := s.activeUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	p, err := s.store.GetPackage(ctx, packageID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, invalid("Package is not active")
	}
	if u.Balance.LessThan(p.MinAmount) {
		return nil, invalid("Insufficient balance")
	}
	u.ActivePackageID = &p.ID
	if err := s.store.SaveUser(ctx, u, store.ColActivePackage); err != nil {
		return nil, err
	}
	u.ActivePackage = p
	s.audit.Record(ctx, audit.Event{Kind: audit.PackageSwitched, UserID: u.ID, EntityID: p.ID, At: s.now().UTC()})
	s.invalidateLedger(ctx, u.ID)
	return u, nil
}
