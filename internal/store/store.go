// Package store persists accounts, the package catalog and the three ledgers.
//
// Every balance mutation happens inside the same unit of work as the ledger
// write that causes it, so a ledger entry and the owner's balance can never
// disagree after a failed or concurrent request.
package store

import (
	"context" // Request scoped cancellation
	"errors"  // Sentinel errors
	"fmt"     // Error wrapping

	"invest_tracker/internal/domain" // Domain models

	"github.com/shopspring/decimal" // Exact money arithmetic
)

// Sentinel errors returned by every Store implementation
var (
	ErrNotFound            = errors.New("record not found")
	ErrDuplicate           = errors.New("duplicate record")
	ErrAlreadyDecided      = errors.New("entry already decided")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrPackageInUse        = errors.New("package referenced by deposits")
	ErrUnknownColumn       = errors.New("unknown user column")
)

// User columns SaveUser may write. Callers name the columns their operation
// owns so a stale copy never overwrites a concurrent change to another one.
const (
	ColName          = "name"
	ColWalletAddress = "wallet_address"
	ColPassword      = "password"
	ColBlocked       = "is_blocked"
	ColEmailVerified = "email_verified"
	ColVerifyToken   = "email_verification_token"
	ColVerifyExpires = "email_verification_token_expires"
	ColResetToken    = "password_reset_token"
	ColResetExpires  = "password_reset_token_expires"
	ColActivePackage = "active_package_id"
)

// userColumns maps columns onto their values in u
func userColumns(u *domain.User, columns []string) (map[string]any, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: none given", ErrUnknownColumn)
	}
	values := make(map[string]any, len(columns))
	for _, col := range columns {
		switch col {
		case ColName:
			values[col] = u.Name
		case ColWalletAddress:
			values[col] = u.WalletAddress
		case ColPassword:
			values[col] = u.Password
		case ColBlocked:
			values[col] = u.IsBlocked
		case ColEmailVerified:
			values[col] = u.EmailVerified
		case ColVerifyToken:
			values[col] = u.EmailVerificationToken
		case ColVerifyExpires:
			values[col] = u.EmailVerificationTokenExpires
		case ColResetToken:
			values[col] = u.PasswordResetToken
		case ColResetExpires:
			values[col] = u.PasswordResetTokenExpires
		case ColActivePackage:
			values[col] = u.ActivePackageID
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, col)
		}
	}
	return values, nil
}

// Page selects a window of a listing. A zero Size means no limit.
type Page struct {
	Number int // 1-based page number
	Size   int // Page size
}

// Offset returns the number of rows to skip
func (p Page) Offset() int {
	if p.Number < 1 || p.Size < 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// LedgerFilter narrows ledger listings
type LedgerFilter struct {
	UserID   *uint  // Only entries owned by this user
	Status   string // Only entries in this status
	WithUser bool   // Attach the owning user
	Page     Page   // Pagination window
}

// Totals aggregates ledger activity
type Totals struct {
	Deposits           decimal.Decimal `json:"totalDeposits"`      // Sum of approved deposits
	Withdrawals        decimal.Decimal `json:"totalWithdrawals"`   // Sum of approved withdrawals
	Profits            decimal.Decimal `json:"totalProfits"`       // Sum of profit credits
	PendingWithdrawals decimal.Decimal `json:"pendingWithdrawals"` // Sum of pending withdrawals
	ProfitCount        int64           `json:"roiPayouts"`         // Number of profit credits
}

// Derived is the balance implied by the ledgers
func (t Totals) Derived() decimal.Decimal {
	return t.Deposits.Add(t.Profits).Sub(t.Withdrawals)
}

// AccountStore holds user accounts
type AccountStore interface {
	CreateUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, id uint) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByVerificationToken(ctx context.Context, token string) (*domain.User, error)
	GetUserByResetToken(ctx context.Context, token string) (*domain.User, error)
	// SaveUser writes the named columns of u and leaves every other column,
	// the balance included, as stored.
	SaveUser(ctx context.Context, u *domain.User, columns ...string) error
	ListUsers(ctx context.Context, page Page) ([]domain.User, int64, error)
	CountUsers(ctx context.Context) (int64, error)
	// DeleteUser removes the user together with all deposits, withdrawals and profits.
	DeleteUser(ctx context.Context, id uint) error
}

// PackageStore holds the package catalog
type PackageStore interface {
	CreatePackage(ctx context.Context, p *domain.Package) error
	GetPackage(ctx context.Context, id uint) (*domain.Package, error)
	GetPackageByName(ctx context.Context, name string) (*domain.Package, error)
	ListPackages(ctx context.Context, activeOnly bool) ([]domain.Package, error)
	SavePackage(ctx context.Context, p *domain.Package) error
	DeletePackage(ctx context.Context, id uint) error
}

// LedgerStore holds deposits, withdrawals and profits
type LedgerStore interface {
	// CreateDeposit inserts d. A deposit created already approved credits
	// the owner's balance in the same unit of work.
	CreateDeposit(ctx context.Context, d *domain.Deposit) error
	GetDeposit(ctx context.Context, id uint) (*domain.Deposit, error)
	ListDeposits(ctx context.Context, f LedgerFilter) ([]domain.Deposit, int64, error)
	LatestApprovedDeposit(ctx context.Context, userID uint) (*domain.Deposit, error)
	// DecideDeposit moves a pending deposit to status, crediting the owner on approval.
	DecideDeposit(ctx context.Context, id uint, status string) (*domain.Deposit, error)

	// CreateWithdrawal inserts w unless it exceeds the owner's balance minus
	// the withdrawals already pending.
	CreateWithdrawal(ctx context.Context, w *domain.Withdrawal) error
	GetWithdrawal(ctx context.Context, id uint) (*domain.Withdrawal, error)
	ListWithdrawals(ctx context.Context, f LedgerFilter) ([]domain.Withdrawal, int64, error)
	// DecideWithdrawal moves a pending withdrawal to status, debiting the owner
	// on approval. The debit never takes the balance below zero.
	DecideWithdrawal(ctx context.Context, id uint, status string) (*domain.Withdrawal, error)

	// CreditProfit inserts p and credits the owner's balance.
	CreditProfit(ctx context.Context, p *domain.Profit) error
	ListProfits(ctx context.Context, f LedgerFilter) ([]domain.Profit, int64, error)

	// Totals aggregates the ledgers of one user, or of everyone when userID is nil.
	Totals(ctx context.Context, userID *uint) (Totals, error)
}

// Store is the full persistence surface
type Store interface {
	AccountStore
	PackageStore
	LedgerStore
}

var (
	_ Store = (*GormStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
