package ledger

import (
	"context" // Request scoped cancellation
	"errors"  // Error inspection

	"invest_tracker/internal/audit"  // Ledger event trail
	"invest_tracker/internal/domain" // Domain models
	"invest_tracker/internal/store"  // Persistence

	"github.com/shopspring/decimal" // Exact money arithmetic
)

// AccountStats is the investor dashboard
type AccountStats struct {
	Balance decimal.Decimal `json:"balance"`
	store.Totals
	ActivePackage  *domain.Package `json:"activePackage"`
	InvestedAmount decimal.Decimal `json:"investedAmount"` // Latest approved deposit
	DailyProfit    decimal.Decimal `json:"dailyProfit"`    // Projected from the active package
}

// AdminDashboard holds the platform wide figures
type AdminDashboard struct {
	TotalUsers int64 `json:"totalUsers"`
	store.Totals
	PendingDeposits int64 `json:"pendingDeposits"`
}

// Report summarizes profit payouts
type Report struct {
	TotalProfits   decimal.Decimal  `json:"totalProfits"`
	ROIPayouts     int64            `json:"roiPayouts"`
	ActivePackages []domain.Package `json:"activePackages"`
}

// Reconciliation compares the stored balance with the ledgers
type Reconciliation struct {
	UserID         uint            `json:"userId"`
	StoredBalance  decimal.Decimal `json:"storedBalance"`
	DerivedBalance decimal.Decimal `json:"derivedBalance"`
	Difference     decimal.Decimal `json:"difference"`
	Matches        bool            `json:"matches"`
}

// Stats returns the dashboard of userID
func (s *Service) Stats(ctx context.Context, userID uint) (AccountStats, error) {
	u, err := s.activeUser(ctx, userID)
	if err != nil {
		return AccountStats{}, err
	}
	return cached(ctx, s.rdb, userStatsKey(userID), statsTTL, func() (AccountStats, error) {
		totals, err := s.store.Totals(ctx, &userID)
		if err != nil {
			return AccountStats{}, err
		}
		stats := AccountStats{Balance: u.Balance, Totals: totals, InvestedAmount: decimal.Zero, DailyProfit: decimal.Zero}

		latest, err := s.store.LatestApprovedDeposit(ctx, userID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return AccountStats{}, err
		}
		if latest != nil {
			stats.InvestedAmount = latest.Amount
			stats.ActivePackage = latest.Package
		}
		if u.ActivePackageID != nil {
			p, err := s.store.GetPackage(ctx, *u.ActivePackageID)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return AccountStats{}, err
			}
			if p != nil {
				stats.ActivePackage = p // An explicit switch wins over the latest deposit
			}
		}
		if stats.ActivePackage != nil {
			stats.DailyProfit = stats.ActivePackage.DailyProfit(stats.InvestedAmount)
		}
		return stats, nil
	})
}

// Dashboard returns the admin dashboard
func (s *Service) Dashboard(ctx context.Context) (AdminDashboard, error) {
	return cached(ctx, s.rdb, keyAdminDashboard, statsTTL, func() (AdminDashboard, error) {
		users, err := s.store.CountUsers(ctx)
		if err != nil {
			return AdminDashboard{}, err
		}
		totals, err := s.store.Totals(ctx, nil)
		if err != nil {
			return AdminDashboard{}, err
		}
		_, pending, err := s.store.ListDeposits(ctx, store.LedgerFilter{Status: domain.StatusPending, Page: store.Page{Number: 1, Size: 1}})
		if err != nil {
			return AdminDashboard{}, err
		}
		return AdminDashboard{TotalUsers: users, Totals: totals, PendingDeposits: pending}, nil
	})
}

// Reports returns the profit report
func (s *Service) Reports(ctx context.Context) (Report, error) {
	totals, err := s.store.Totals(ctx, nil)
	if err != nil {
		return Report{}, err
	}
	active, err := s.store.ListPackages(ctx, true)
	if err != nil {
		return Report{}, err
	}
	return Report{TotalProfits: totals.Profits, ROIPayouts: totals.ProfitCount, ActivePackages: active}, nil
}

// Reconcile recomputes the balance of userID from its ledgers
func (s *Service) Reconcile(ctx context.Context, userID uint) (Reconciliation, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return Reconciliation{}, err
	}
	totals, err := s.store.Totals(ctx, &userID)
	if err != nil {
		return Reconciliation{}, err
	}
	derived := totals.Derived()
	return Reconciliation{
		UserID:         userID,
		StoredBalance:  u.Balance,
		DerivedBalance: derived,
		Difference:     u.Balance.Sub(derived),
		Matches:        u.Balance.Equal(derived),
	}, nil
}

// AuditTrail returns the newest ledger events, optionally for one user
func (s *Service) AuditTrail(ctx context.Context, userID *uint, limit int64) ([]audit.Event, error) {
	if limit < 1 || limit > MaxPageSize {
		limit = MaxPageSize
	}
	return s.audit.Recent(ctx, userID, limit)
}
