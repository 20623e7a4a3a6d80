package store

import (
	"context" // Request scoped cancellation
	"errors"  // Error matching

	"invest_tracker/internal/domain" // Domain models

	"github.com/shopspring/decimal" // Exact money arithmetic
	"gorm.io/gorm"                  // GORM ORM library
	"gorm.io/gorm/clause"           // Row locking clauses
)

// GormStore implements Store on top of GORM (MySQL in production)
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open GORM connection
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// translate maps GORM errors onto the package sentinels
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}

// forUpdate locks the selected rows until the surrounding transaction ends
func forUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// credit increments a user's balance
func credit(tx *gorm.DB, userID uint, amount decimal.Decimal) error {
	res := tx.Model(&domain.User{}).Where("id = ?", userID).Update("balance", gorm.Expr("balance + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound // Owner vanished
	}
	return nil
}

// debit decrements a user's balance, refusing to go below zero
func debit(tx *gorm.DB, userID uint, amount decimal.Decimal) error {
	res := tx.Model(&domain.User{}).
		Where("id = ? AND balance >= ?", userID, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientBalance
	}
	return nil
}

// decide flips a pending ledger row to status; table rows are matched by id and pending status
func decide(tx *gorm.DB, model any, id uint, status string) error {
	res := tx.Model(model).Where("id = ? AND status = ?", id, domain.StatusPending).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return ErrAlreadyDecided // Lost a race with another decision
	}
	return nil
}

// sum totals the amount column of a ledger table
func sum(tx *gorm.DB, model any, userID *uint, status string) (decimal.Decimal, error) {
	q := tx.Model(model).Select("COALESCE(SUM(amount), 0)")
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total decimal.Decimal
	if err := q.Row().Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// filtered applies a LedgerFilter to a ledger query
func filtered(tx *gorm.DB, model any, f LedgerFilter) *gorm.DB {
	q := tx.Model(model)
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	return q
}

// paged applies ordering and the pagination window
func paged(q *gorm.DB, p Page) *gorm.DB {
	q = q.Order("created_at desc").Order("id desc")
	if p.Size > 0 {
		q = q.Offset(p.Offset()).Limit(p.Size)
	}
	return q
}

// Accounts

func (s *GormStore) CreateUser(ctx context.Context, u *domain.User) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&domain.User{}).Where("email = ?", u.Email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicate
	}
	return translate(s.db.WithContext(ctx).Create(u).Error)
}

func (s *GormStore) GetUser(ctx context.Context, id uint) (*domain.User, error) {
	var u domain.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.findUser(ctx, "email = ?", email)
}

func (s *GormStore) GetUserByVerificationToken(ctx context.Context, token string) (*domain.User, error) {
	return s.findUser(ctx, "email_verification_token = ?", token)
}

func (s *GormStore) GetUserByResetToken(ctx context.Context, token string) (*domain.User, error) {
	return s.findUser(ctx, "password_reset_token = ?", token)
}

func (s *GormStore) findUser(ctx context.Context, query string, arg any) (*domain.User, error) {
	var u domain.User
	if err := s.db.WithContext(ctx).Where(query, arg).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *GormStore) SaveUser(ctx context.Context, u *domain.User, columns ...string) error {
	values, err := userColumns(u, columns)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", u.ID).Updates(values)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) ListUsers(ctx context.Context, page Page) ([]domain.User, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&domain.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	q := s.db.WithContext(ctx).Order("id asc")
	if page.Size > 0 {
		q = q.Offset(page.Offset()).Limit(page.Size)
	}
	var users []domain.User
	if err := q.Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (s *GormStore) CountUsers(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&domain.User{}).Count(&total).Error
	return total, err
}

func (s *GormStore) DeleteUser(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u domain.User
		if err := forUpdate(tx).First(&u, id).Error; err != nil {
			return translate(err)
		}
		// Related ledgers go first so no orphan rows survive
		for _, model := range []any{&domain.Profit{}, &domain.Withdrawal{}, &domain.Deposit{}} {
			if err := tx.Where("user_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&domain.User{}, id).Error
	})
}

// Packages

func (s *GormStore) CreatePackage(ctx context.Context, p *domain.Package) error {
	return translate(s.db.WithContext(ctx).Create(p).Error)
}

func (s *GormStore) GetPackage(ctx context.Context, id uint) (*domain.Package, error) {
	var p domain.Package
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *GormStore) GetPackageByName(ctx context.Context, name string) (*domain.Package, error) {
	var p domain.Package
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *GormStore) ListPackages(ctx context.Context, activeOnly bool) ([]domain.Package, error) {
	q := s.db.WithContext(ctx)
	if activeOnly {
		q = q.Where("is_active = ?", true).Order("min_amount asc")
	} else {
		q = q.Order("created_at desc")
	}
	var pkgs []domain.Package
	if err := q.Find(&pkgs).Error; err != nil {
		return nil, err
	}
	return pkgs, nil
}

func (s *GormStore) SavePackage(ctx context.Context, p *domain.Package) error {
	res := s.db.WithContext(ctx).Model(&domain.Package{}).Where("id = ?", p.ID).Updates(map[string]any{
		"name":           p.Name,
		"min_amount":     p.MinAmount,
		"max_amount":     p.MaxAmount,
		"roi_percentage": p.ROIPercentage,
		"duration_days":  p.DurationDays,
		"is_active":      p.IsActive,
	})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) DeletePackage(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p domain.Package
		if err := forUpdate(tx).First(&p, id).Error; err != nil {
			return translate(err)
		}
		var refs int64
		if err := tx.Model(&domain.Deposit{}).Where("package_id = ?", id).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return ErrPackageInUse
		}
		// Switched accounts fall back to "no preference"
		if err := tx.Model(&domain.User{}).Where("active_package_id = ?", id).Update("active_package_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Package{}, id).Error
	})
}

// Deposits

func (s *GormStore) CreateDeposit(ctx context.Context, d *domain.Deposit) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("User", "Package").Create(d).Error; err != nil {
			return translate(err)
		}
		if d.Status == domain.StatusApproved {
			return credit(tx, d.UserID, d.Amount)
		}
		return nil
	})
}

func (s *GormStore) GetDeposit(ctx context.Context, id uint) (*domain.Deposit, error) {
	var d domain.Deposit
	if err := s.db.WithContext(ctx).Preload("Package").First(&d, id).Error; err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

func (s *GormStore) ListDeposits(ctx context.Context, f LedgerFilter) ([]domain.Deposit, int64, error) {
	var total int64
	if err := filtered(s.db.WithContext(ctx), &domain.Deposit{}, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	q := paged(filtered(s.db.WithContext(ctx), &domain.Deposit{}, f), f.Page).Preload("Package")
	if f.WithUser {
		q = q.Preload("User")
	}
	var out []domain.Deposit
	if err := q.Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *GormStore) LatestApprovedDeposit(ctx context.Context, userID uint) (*domain.Deposit, error) {
	var d domain.Deposit
	err := s.db.WithContext(ctx).Preload("Package").
		Where("user_id = ? AND status = ?", userID, domain.StatusApproved).
		Order("created_at desc").Order("id desc").
		First(&d).Error
	if err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

func (s *GormStore) DecideDeposit(ctx context.Context, id uint, status string) (*domain.Deposit, error) {
	var d domain.Deposit
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&d, id).Error; err != nil {
			return translate(err)
		}
		if d.Status != domain.StatusPending {
			return ErrAlreadyDecided
		}
		if err := decide(tx, &domain.Deposit{}, id, status); err != nil {
			return err
		}
		d.Status = status
		if status == domain.StatusApproved {
			return credit(tx, d.UserID, d.Amount)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Withdrawals

func (s *GormStore) CreateWithdrawal(ctx context.Context, w *domain.Withdrawal) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u domain.User
		if err := forUpdate(tx).First(&u, w.UserID).Error; err != nil {
			return translate(err)
		}
		pending, err := sum(tx, &domain.Withdrawal{}, &w.UserID, domain.StatusPending)
		if err != nil {
			return err
		}
		if u.Balance.Sub(pending).LessThan(w.Amount) {
			return ErrInsufficientBalance
		}
		return translate(tx.Omit("User").Create(w).Error)
	})
}

func (s *GormStore) GetWithdrawal(ctx context.Context, id uint) (*domain.Withdrawal, error) {
	var w domain.Withdrawal
	if err := s.db.WithContext(ctx).First(&w, id).Error; err != nil {
		return nil, translate(err)
	}
	return &w, nil
}

func (s *GormStore) ListWithdrawals(ctx context.Context, f LedgerFilter) ([]domain.Withdrawal, int64, error) {
	var total int64
	if err := filtered(s.db.WithContext(ctx), &domain.Withdrawal{}, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	q := paged(filtered(s.db.WithContext(ctx), &domain.Withdrawal{}, f), f.Page)
	if f.WithUser {
		q = q.Preload("User")
	}
	var out []domain.Withdrawal
	if err := q.Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *GormStore) DecideWithdrawal(ctx context.Context, id uint, status string) (*domain.Withdrawal, error) {
	var w domain.Withdrawal
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&w, id).Error; err != nil {
			return translate(err)
		}
		if w.Status != domain.StatusPending {
			return ErrAlreadyDecided
		}
		if err := decide(tx, &domain.Withdrawal{}, id, status); err != nil {
			return err
		}
		w.Status = status
		if status == domain.StatusApproved {
			return debit(tx, w.UserID, w.Amount)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Profits

func (s *GormStore) CreditProfit(ctx context.Context, p *domain.Profit) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return translate(err)
		}
		return credit(tx, p.UserID, p.Amount)
	})
}

func (s *GormStore) ListProfits(ctx context.Context, f LedgerFilter) ([]domain.Profit, int64, error) {
	f.Status = "" // Profits carry no status
	var total int64
	if err := filtered(s.db.WithContext(ctx), &domain.Profit{}, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []domain.Profit
	if err := paged(filtered(s.db.WithContext(ctx), &domain.Profit{}, f), f.Page).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *GormStore) Totals(ctx context.Context, userID *uint) (Totals, error) {
	db := s.db.WithContext(ctx)
	var (
		t   Totals
		err error
	)
	if t.Deposits, err = sum(db, &domain.Deposit{}, userID, domain.StatusApproved); err != nil {
		return Totals{}, err
	}
	if t.Withdrawals, err = sum(db, &domain.Withdrawal{}, userID, domain.StatusApproved); err != nil {
		return Totals{}, err
	}
	if t.PendingWithdrawals, err = sum(db, &domain.Withdrawal{}, userID, domain.StatusPending); err != nil {
		return Totals{}, err
	}
	if t.Profits, err = sum(db, &domain.Profit{}, userID, ""); err != nil {
		return Totals{}, err
	}
	q := db.Model(&domain.Profit{})
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}
	if err := q.Count(&t.ProfitCount).Error; err != nil {
		return Totals{}, err
	}
	return t, nil
}
