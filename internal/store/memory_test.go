package store

import (
	"context"
	"sync"
	"testing"

	"invest_tracker/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedMemory(t *testing.T) (*MemoryStore, *domain.User, *domain.Package) {
	t.Helper()
	ctx := context.Background()
	m := NewMemoryStore()
	u := &domain.User{Name: "Ada", Email: "ada@example.com", Role: domain.RoleInvestor, WalletAddress: "0x1234567890"}
	require.NoError(t, m.CreateUser(ctx, u))
	p := &domain.Package{
		Name:          "Starter",
		MinAmount:     decimal.NewFromInt(100),
		MaxAmount:     decimal.NewFromInt(999),
		ROIPercentage: decimal.NewFromInt(12),
		DurationDays:  30,
		IsActive:      true,
	}
	require.NoError(t, m.CreatePackage(ctx, p))
	return m, u, p
}

func balanceOf(t *testing.T, m *MemoryStore, id uint) decimal.Decimal {
	t.Helper()
	u, err := m.GetUser(context.Background(), id)
	require.NoError(t, err)
	return u.Balance
}

func TestMemoryCreateUserDuplicateEmail(t *testing.T) {
	m, _, _ := seedMemory(t)
	err := m.CreateUser(context.Background(), &domain.User{Email: "ada@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestMemoryConcurrentApprovalCreditsOnce(t *testing.T) {
	m, u, p := seedMemory(t)
	ctx := context.Background()
	d := &domain.Deposit{UserID: u.ID, PackageID: p.ID, Amount: decimal.NewFromInt(500), TxHash: "0xabc"}
	require.NoError(t, m.CreateDeposit(ctx, d))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.DecideDeposit(ctx, d.ID, domain.StatusApproved); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.True(t, balanceOf(t, m, u.ID).Equal(decimal.NewFromInt(500)))
}

func TestMemoryWithdrawalAvailability(t *testing.T) {
	m, u, p := seedMemory(t)
	ctx := context.Background()
	require.NoError(t, m.CreateDeposit(ctx, &domain.Deposit{
		UserID: u.ID, PackageID: p.ID, Amount: decimal.NewFromInt(300), TxHash: domain.ManualTxHash, Status: domain.StatusApproved,
	}))

	require.NoError(t, m.CreateWithdrawal(ctx, &domain.Withdrawal{UserID: u.ID, Amount: decimal.NewFromInt(200)}))
	// 300 balance minus 200 pending leaves 100 available
	err := m.CreateWithdrawal(ctx, &domain.Withdrawal{UserID: u.ID, Amount: decimal.NewFromInt(150)})
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.NoError(t, m.CreateWithdrawal(ctx, &domain.Withdrawal{UserID: u.ID, Amount: decimal.NewFromInt(100)}))
}

func TestMemoryDecideWithdrawalNeverNegative(t *testing.T) {
	m, u, _ := seedMemory(t)
	ctx := context.Background()
	require.NoError(t, m.CreditProfit(ctx, &domain.Profit{UserID: u.ID, Amount: decimal.NewFromInt(50)}))
	w := &domain.Withdrawal{UserID: u.ID, Amount: decimal.NewFromInt(50)}
	require.NoError(t, m.CreateWithdrawal(ctx, w))

	// Another path drains the balance before the admin decides
	other := &domain.Withdrawal{UserID: u.ID, Amount: decimal.NewFromInt(50), Status: domain.StatusPending}
	m.mu.Lock()
	other.ID = m.nextID()
	m.withdrawals[other.ID] = *other
	m.mu.Unlock()
	_, err := m.DecideWithdrawal(ctx, other.ID, domain.StatusApproved)
	require.NoError(t, err)

	_, err = m.DecideWithdrawal(ctx, w.ID, domain.StatusApproved)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.True(t, balanceOf(t, m, u.ID).IsZero())
	got, err := m.GetWithdrawal(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)
}

func TestMemoryTotalsMatchBalance(t *testing.T) {
	m, u, p := seedMemory(t)
	ctx := context.Background()
	d := &domain.Deposit{UserID: u.ID, PackageID: p.ID, Amount: decimal.NewFromInt(500), TxHash: "0xabc"}
	require.NoError(t, m.CreateDeposit(ctx, d))
	_, err := m.DecideDeposit(ctx, d.ID, domain.StatusApproved)
	require.NoError(t, err)
	require.NoError(t, m.CreditProfit(ctx, &domain.Profit{UserID: u.ID, Amount: decimal.RequireFromString("60.5")}))
	w := &domain.Withdrawal{UserID: u.ID, Amount: decimal.NewFromInt(100)}
	require.NoError(t, m.CreateWithdrawal(ctx, w))
	_, err = m.DecideWithdrawal(ctx, w.ID, domain.StatusApproved)
	require.NoError(t, err)

	totals, err := m.Totals(ctx, &u.ID)
	require.NoError(t, err)
	assert.Equal(t, "500", totals.Deposits.String())
	assert.Equal(t, "100", totals.Withdrawals.String())
	assert.Equal(t, "60.5", totals.Profits.String())
	assert.Equal(t, int64(1), totals.ProfitCount)
	assert.True(t, totals.Derived().Equal(balanceOf(t, m, u.ID)))
}

func TestMemoryDeleteUserCascades(t *testing.T) {
	m, u, p := seedMemory(t)
	ctx := context.Background()
	require.NoError(t, m.CreateDeposit(ctx, &domain.Deposit{UserID: u.ID, PackageID: p.ID, Amount: decimal.NewFromInt(100), TxHash: "0x1"}))
	require.NoError(t, m.CreditProfit(ctx, &domain.Profit{UserID: u.ID, Amount: decimal.NewFromInt(5)}))

	require.NoError(t, m.DeleteUser(ctx, u.ID))

	deposits, _, _ := m.ListDeposits(ctx, LedgerFilter{})
	profits, _, _ := m.ListProfits(ctx, LedgerFilter{})
	assert.Empty(t, deposits)
	assert.Empty(t, profits)
	assert.ErrorIs(t, m.DeleteUser(ctx, u.ID), ErrNotFound)
}

func TestMemoryDeletePackageInUse(t *testing.T) {
	m, u, p := seedMemory(t)
	ctx := context.Background()
	require.NoError(t, m.CreateDeposit(ctx, &domain.Deposit{UserID: u.ID, PackageID: p.ID, Amount: decimal.NewFromInt(100), TxHash: "0x1"}))
	assert.ErrorIs(t, m.DeletePackage(ctx, p.ID), ErrPackageInUse)
}

func TestMemorySaveUserKeepsBalance(t *testing.T) {
	m, u, _ := seedMemory(t)
	ctx := context.Background()
	require.NoError(t, m.CreditProfit(ctx, &domain.Profit{UserID: u.ID, Amount: decimal.NewFromInt(10)}))

	stale := *u // Balance still zero in this copy
	stale.Name = "Ada L."
	require.NoError(t, m.SaveUser(ctx, &stale, ColName))

	got, err := m.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", got.Name)
	assert.Equal(t, "10", got.Balance.String())
}

func TestMemorySaveUserKeepsConcurrentBlock(t *testing.T) {
	m, u, _ := seedMemory(t)
	ctx := context.Background()
	stale, err := m.GetUser(ctx, u.ID)
	require.NoError(t, err)

	blocked := *stale
	blocked.IsBlocked = true
	require.NoError(t, m.SaveUser(ctx, &blocked, ColBlocked))

	stale.Name = "Ada L."
	require.NoError(t, m.SaveUser(ctx, stale, ColName))

	got, err := m.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.IsBlocked)
	assert.Equal(t, "Ada L.", got.Name)
}

func TestMemorySaveUserRejectsUnknownColumns(t *testing.T) {
	m, u, _ := seedMemory(t)
	ctx := context.Background()
	assert.ErrorIs(t, m.SaveUser(ctx, u), ErrUnknownColumn)
	assert.ErrorIs(t, m.SaveUser(ctx, u, "balance"), ErrUnknownColumn)
	assert.ErrorIs(t, m.SaveUser(ctx, &domain.User{ID: 999}, ColName), ErrNotFound)
}

func TestWindow(t *testing.T) {
	all := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{3, 4}, window(all, Page{Number: 2, Size: 2}))
	assert.Equal(t, []int{5}, window(all, Page{Number: 3, Size: 2}))
	assert.Empty(t, window(all, Page{Number: 9, Size: 2}))
	assert.Equal(t, all, window(all, Page{}))
}
