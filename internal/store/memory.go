package store

import (
	"context" // Interface parity with GormStore
	"sort"    // Listing order
	"sync"    // Guards the maps
	"time"    // Timestamps

	"invest_tracker/internal/domain" // Domain models

	"github.com/shopspring/decimal" // Exact money arithmetic
)

// MemoryStore is an in-process Store. A single mutex serializes every
// operation, which gives it the same all-or-nothing semantics as the
// transactional GormStore. Returned values are copies.
type MemoryStore struct {
	mu          sync.Mutex
	seq         uint
	users       map[uint]domain.User
	packages    map[uint]domain.Package
	deposits    map[uint]domain.Deposit
	withdrawals map[uint]domain.Withdrawal
	profits     map[uint]domain.Profit
	now         func() time.Time
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[uint]domain.User),
		packages:    make(map[uint]domain.Package),
		deposits:    make(map[uint]domain.Deposit),
		withdrawals: make(map[uint]domain.Withdrawal),
		profits:     make(map[uint]domain.Profit),
		now:         time.Now,
	}
}

// nextID hands out ids in creation order across all tables
func (m *MemoryStore) nextID() uint {
	m.seq++
	return m.seq
}

func (m *MemoryStore) stamp() time.Time {
	return m.now().Add(time.Duration(m.seq)) // Strictly increasing creation times
}

// Accounts

func (m *MemoryStore) CreateUser(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return ErrDuplicate
		}
	}
	u.ID = m.nextID()
	u.CreatedAt = m.stamp()
	u.UpdatedAt = u.CreatedAt
	if u.Role == "" {
		u.Role = domain.RoleInvestor
	}
	stored := *u
	stored.ActivePackage = nil
	m.users[u.ID] = stored
	return nil
}

func (m *MemoryStore) GetUser(_ context.Context, id uint) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	return m.findUser(func(u domain.User) bool { return u.Email == email })
}

func (m *MemoryStore) GetUserByVerificationToken(_ context.Context, token string) (*domain.User, error) {
	return m.findUser(func(u domain.User) bool {
		return u.EmailVerificationToken != nil && *u.EmailVerificationToken == token
	})
}

func (m *MemoryStore) GetUserByResetToken(_ context.Context, token string) (*domain.User, error) {
	return m.findUser(func(u domain.User) bool {
		return u.PasswordResetToken != nil && *u.PasswordResetToken == token
	})
}

func (m *MemoryStore) findUser(match func(domain.User) bool) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) SaveUser(_ context.Context, u *domain.User, columns ...string) error {
	values, err := userColumns(u, columns)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	for col, v := range values {
		switch col {
		case ColName:
			stored.Name = v.(string)
		case ColWalletAddress:
			stored.WalletAddress = v.(string)
		case ColPassword:
			stored.Password = v.(string)
		case ColBlocked:
			stored.IsBlocked = v.(bool)
		case ColEmailVerified:
			stored.EmailVerified = v.(bool)
		case ColVerifyToken:
			stored.EmailVerificationToken = v.(*string)
		case ColVerifyExpires:
			stored.EmailVerificationTokenExpires = v.(*time.Time)
		case ColResetToken:
			stored.PasswordResetToken = v.(*string)
		case ColResetExpires:
			stored.PasswordResetTokenExpires = v.(*time.Time)
		case ColActivePackage:
			stored.ActivePackageID = v.(*uint)
		}
	}
	stored.UpdatedAt = m.now()
	m.users[u.ID] = stored
	return nil
}

func (m *MemoryStore) ListUsers(_ context.Context, page Page) ([]domain.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return window(all, page), int64(len(all)), nil
}

func (m *MemoryStore) CountUsers(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.users)), nil
}

func (m *MemoryStore) DeleteUser(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	for k, p := range m.profits {
		if p.UserID == id {
			delete(m.profits, k)
		}
	}
	for k, w := range m.withdrawals {
		if w.UserID == id {
			delete(m.withdrawals, k)
		}
	}
	for k, d := range m.deposits {
		if d.UserID == id {
			delete(m.deposits, k)
		}
	}
	delete(m.users, id)
	return nil
}

// Packages

func (m *MemoryStore) CreatePackage(_ context.Context, p *domain.Package) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.packages {
		if existing.Name == p.Name {
			return ErrDuplicate
		}
	}
	p.ID = m.nextID()
	p.CreatedAt = m.stamp()
	p.UpdatedAt = p.CreatedAt
	m.packages[p.ID] = *p
	return nil
}

func (m *MemoryStore) GetPackage(_ context.Context, id uint) (*domain.Package, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.packages[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *MemoryStore) GetPackageByName(_ context.Context, name string) (*domain.Package, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.packages {
		if p.Name == name {
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) ListPackages(_ context.Context, activeOnly bool) ([]domain.Package, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Package, 0, len(m.packages))
	for _, p := range m.packages {
		if activeOnly && !p.IsActive {
			continue
		}
		out = append(out, p)
	}
	if activeOnly {
		sort.Slice(out, func(i, j int) bool { return out[i].MinAmount.LessThan(out[j].MinAmount) })
	} else {
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	}
	return out, nil
}

func (m *MemoryStore) SavePackage(_ context.Context, p *domain.Package) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.packages[p.ID]
	if !ok {
		return ErrNotFound
	}
	for id, other := range m.packages {
		if id != p.ID && other.Name == p.Name {
			return ErrDuplicate
		}
	}
	updated := *p
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = m.now()
	m.packages[p.ID] = updated
	return nil
}

func (m *MemoryStore) DeletePackage(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.packages[id]; !ok {
		return ErrNotFound
	}
	for _, d := range m.deposits {
		if d.PackageID == id {
			return ErrPackageInUse
		}
	}
	for uid, u := range m.users {
		if u.ActivePackageID != nil && *u.ActivePackageID == id {
			u.ActivePackageID = nil
			m.users[uid] = u
		}
	}
	delete(m.packages, id)
	return nil
}

// Deposits

func (m *MemoryStore) CreateDeposit(_ context.Context, d *domain.Deposit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	owner, ok := m.users[d.UserID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := m.packages[d.PackageID]; !ok {
		return ErrNotFound
	}
	if d.Status == "" {
		d.Status = domain.StatusPending
	}
	d.ID = m.nextID()
	d.CreatedAt = m.stamp()
	d.UpdatedAt = d.CreatedAt
	stored := *d
	stored.User, stored.Package = nil, nil
	m.deposits[d.ID] = stored
	if d.Status == domain.StatusApproved {
		owner.Balance = owner.Balance.Add(d.Amount)
		m.users[owner.ID] = owner
	}
	return nil
}

func (m *MemoryStore) GetDeposit(_ context.Context, id uint) (*domain.Deposit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deposits[id]
	if !ok {
		return nil, ErrNotFound
	}
	m.attachDeposit(&d, false)
	return &d, nil
}

// attachDeposit fills the package and optionally the owner relations
func (m *MemoryStore) attachDeposit(d *domain.Deposit, withUser bool) {
	if p, ok := m.packages[d.PackageID]; ok {
		d.Package = &p
	}
	if withUser {
		if u, ok := m.users[d.UserID]; ok {
			d.User = &u
		}
	}
}

func (m *MemoryStore) ListDeposits(_ context.Context, f LedgerFilter) ([]domain.Deposit, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Deposit
	for _, d := range m.deposits {
		if matches(f, d.UserID, d.Status) {
			m.attachDeposit(&d, f.WithUser)
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return window(out, f.Page), int64(len(out)), nil
}

func (m *MemoryStore) LatestApprovedDeposit(_ context.Context, userID uint) (*domain.Deposit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *domain.Deposit
	for _, d := range m.deposits {
		if d.UserID != userID || d.Status != domain.StatusApproved {
			continue
		}
		if latest == nil || d.ID > latest.ID {
			candidate := d
			latest = &candidate
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	m.attachDeposit(latest, false)
	return latest, nil
}

func (m *MemoryStore) DecideDeposit(_ context.Context, id uint, status string) (*domain.Deposit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deposits[id]
	if !ok {
		return nil, ErrNotFound
	}
	if d.Status != domain.StatusPending {
		return nil, ErrAlreadyDecided
	}
	if status == domain.StatusApproved {
		owner, ok := m.users[d.UserID]
		if !ok {
			return nil, ErrNotFound
		}
		owner.Balance = owner.Balance.Add(d.Amount)
		m.users[owner.ID] = owner
	}
	d.Status = status
	d.UpdatedAt = m.now()
	m.deposits[id] = d
	return &d, nil
}

// Withdrawals

func (m *MemoryStore) CreateWithdrawal(_ context.Context, w *domain.Withdrawal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	owner, ok := m.users[w.UserID]
	if !ok {
		return ErrNotFound
	}
	pending := decimal.Zero
	for _, existing := range m.withdrawals {
		if existing.UserID == w.UserID && existing.Status == domain.StatusPending {
			pending = pending.Add(existing.Amount)
		}
	}
	if owner.Balance.Sub(pending).LessThan(w.Amount) {
		return ErrInsufficientBalance
	}
	if w.Status == "" {
		w.Status = domain.StatusPending
	}
	w.ID = m.nextID()
	w.CreatedAt = m.stamp()
	w.UpdatedAt = w.CreatedAt
	stored := *w
	stored.User = nil
	m.withdrawals[w.ID] = stored
	return nil
}

func (m *MemoryStore) GetWithdrawal(_ context.Context, id uint) (*domain.Withdrawal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.withdrawals[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &w, nil
}

func (m *MemoryStore) ListWithdrawals(_ context.Context, f LedgerFilter) ([]domain.Withdrawal, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Withdrawal
	for _, w := range m.withdrawals {
		if !matches(f, w.UserID, w.Status) {
			continue
		}
		if f.WithUser {
			if u, ok := m.users[w.UserID]; ok {
				w.User = &u
			}
		}
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return window(out, f.Page), int64(len(out)), nil
}

func (m *MemoryStore) DecideWithdrawal(_ context.Context, id uint, status string) (*domain.Withdrawal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.withdrawals[id]
	if !ok {
		return nil, ErrNotFound
	}
	if w.Status != domain.StatusPending {
		return nil, ErrAlreadyDecided
	}
	if status == domain.StatusApproved {
		owner, ok := m.users[w.UserID]
		if !ok {
			return nil, ErrNotFound
		}
		if owner.Balance.LessThan(w.Amount) {
			return nil, ErrInsufficientBalance
		}
		owner.Balance = owner.Balance.Sub(w.Amount)
		m.users[owner.ID] = owner
	}
	w.Status = status
	w.UpdatedAt = m.now()
	m.withdrawals[id] = w
	return &w, nil
}

// Profits

func (m *MemoryStore) CreditProfit(_ context.Context, p *domain.Profit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	owner, ok := m.users[p.UserID]
	if !ok {
		return ErrNotFound
	}
	p.ID = m.nextID()
	p.CreatedAt = m.stamp()
	m.profits[p.ID] = *p
	owner.Balance = owner.Balance.Add(p.Amount)
	m.users[owner.ID] = owner
	return nil
}

func (m *MemoryStore) ListProfits(_ context.Context, f LedgerFilter) ([]domain.Profit, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f.Status = ""
	var out []domain.Profit
	for _, p := range m.profits {
		if matches(f, p.UserID, "") {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return window(out, f.Page), int64(len(out)), nil
}

func (m *MemoryStore) Totals(_ context.Context, userID *uint) (Totals, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	owned := func(id uint) bool { return userID == nil || *userID == id }
	t := Totals{Deposits: decimal.Zero, Withdrawals: decimal.Zero, Profits: decimal.Zero, PendingWithdrawals: decimal.Zero}
	for _, d := range m.deposits {
		if owned(d.UserID) && d.Status == domain.StatusApproved {
			t.Deposits = t.Deposits.Add(d.Amount)
		}
	}
	for _, w := range m.withdrawals {
		if !owned(w.UserID) {
			continue
		}
		switch w.Status {
		case domain.StatusApproved:
			t.Withdrawals = t.Withdrawals.Add(w.Amount)
		case domain.StatusPending:
			t.PendingWithdrawals = t.PendingWithdrawals.Add(w.Amount)
		}
	}
	for _, p := range m.profits {
		if owned(p.UserID) {
			t.Profits = t.Profits.Add(p.Amount)
			t.ProfitCount++
		}
	}
	return t, nil
}

func matches(f LedgerFilter, userID uint, status string) bool {
	if f.UserID != nil && *f.UserID != userID {
		return false
	}
	return f.Status == "" || f.Status == status
}

// window cuts one page out of an ordered slice
func window[T any](all []T, p Page) []T {
	if p.Size < 1 {
		return all
	}
	start := p.Offset()
	if start >= len(all) {
		return []T{}
	}
	end := start + p.Size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}
