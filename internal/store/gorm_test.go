package store

import (
	"context"
	"testing"

	"invest_tracker/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockStore(t *testing.T) (*GormStore, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return NewGormStore(db), mock
}

func depositRow(status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "package_id", "amount", "tx_hash", "status"}).
		AddRow(7, 3, 1, "500", "0xabc", status)
}

func TestGormDecideDepositApproveCreditsOwner(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `deposits`").WillReturnRows(depositRow(domain.StatusPending))
	mock.ExpectExec("UPDATE `deposits` SET `status`=\\?").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `users` SET `balance`=balance \\+ \\?").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	d, err := s.DecideDeposit(context.Background(), 7, domain.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, d.Status)
	assert.Equal(t, "500", d.Amount.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormDecideDepositDeclineLeavesBalance(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `deposits`").WillReturnRows(depositRow(domain.StatusPending))
	mock.ExpectExec("UPDATE `deposits` SET `status`=\\?").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	d, err := s.DecideDeposit(context.Background(), 7, domain.StatusDeclined)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDeclined, d.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormDecideDepositRejectsSecondDecision(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `deposits`").WillReturnRows(depositRow(domain.StatusApproved))
	mock.ExpectRollback()

	_, err := s.DecideDeposit(context.Background(), 7, domain.StatusApproved)
	assert.ErrorIs(t, err, ErrAlreadyDecided)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormDecideDepositLostRace(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `deposits`").WillReturnRows(depositRow(domain.StatusPending))
	mock.ExpectExec("UPDATE `deposits` SET `status`=\\?").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := s.DecideDeposit(context.Background(), 7, domain.StatusApproved)
	assert.ErrorIs(t, err, ErrAlreadyDecided)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormDecideDepositNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `deposits`").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := s.DecideDeposit(context.Background(), 99, domain.StatusApproved)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormDecideWithdrawalInsufficientBalanceRollsBack(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `withdrawals`").WillReturnRows(
		sqlmock.NewRows([]string{"id", "user_id", "amount", "status"}).AddRow(4, 3, "800", domain.StatusPending))
	mock.ExpectExec("UPDATE `withdrawals` SET `status`=\\?").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `users` SET `balance`=balance - \\?").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := s.DecideWithdrawal(context.Background(), 4, domain.StatusApproved)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormDecideWithdrawalApproveDebitsOwner(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `withdrawals`").WillReturnRows(
		sqlmock.NewRows([]string{"id", "user_id", "amount", "status"}).AddRow(4, 3, "200", domain.StatusPending))
	mock.ExpectExec("UPDATE `withdrawals` SET `status`=\\?").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `users` SET `balance`=balance - \\?").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	w, err := s.DecideWithdrawal(context.Background(), 4, domain.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, w.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormGetUserNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT \\* FROM `users`").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.GetUser(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormSaveUserWritesOnlyNamedColumns(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("^UPDATE `users` SET `name`=\\?,`updated_at`=\\? WHERE id = \\?").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	u := &domain.User{ID: 3, Name: "Ada L.", IsBlocked: false} // Stale block flag must not be written
	require.NoError(t, s.SaveUser(context.Background(), u, ColName))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormSaveUserRejectsUnknownColumns(t *testing.T) {
	s, mock := newMockStore(t)

	err := s.SaveUser(context.Background(), &domain.User{ID: 3}, "balance")
	assert.ErrorIs(t, err, ErrUnknownColumn)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func userBalanceRow(balance string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "email", "balance"}).AddRow(3, "ada@example.com", balance)
}

func TestGormCreateWithdrawalCountsPendingRequests(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `users`.*FOR UPDATE").WillReturnRows(userBalanceRow("400"))
	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\) FROM `withdrawals`").
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow("300"))
	mock.ExpectRollback()

	// 400 balance minus 300 pending leaves 100 available
	w := &domain.Withdrawal{UserID: 3, Amount: decimal.NewFromInt(200), Status: domain.StatusPending}
	err := s.CreateWithdrawal(context.Background(), w)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Zero(t, w.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormCreateWithdrawalInsertsWhenAvailable(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `users`.*FOR UPDATE").WillReturnRows(userBalanceRow("400"))
	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\) FROM `withdrawals`").
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow("100"))
	mock.ExpectExec("INSERT INTO `withdrawals`").WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectCommit()

	w := &domain.Withdrawal{UserID: 3, Amount: decimal.NewFromInt(300), Status: domain.StatusPending}
	require.NoError(t, s.CreateWithdrawal(context.Background(), w))
	assert.Equal(t, uint(9), w.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormCreateWithdrawalUnknownUser(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `users`").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err := s.CreateWithdrawal(context.Background(), &domain.Withdrawal{UserID: 42, Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormCreditProfitInsertsAndCredits(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `profits`").WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectExec("UPDATE `users` SET `balance`=balance \\+ \\?").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	p := &domain.Profit{UserID: 3, Amount: decimal.NewFromInt(60), Description: "Weekly ROI"}
	require.NoError(t, s.CreditProfit(context.Background(), p))
	assert.Equal(t, uint(5), p.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormCreditProfitRollsBackWithoutOwner(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `profits`").WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectExec("UPDATE `users` SET `balance`=balance \\+ \\?").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := s.CreditProfit(context.Background(), &domain.Profit{UserID: 42, Amount: decimal.NewFromInt(60)})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormDeleteUserCascadesLedgers(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `users`.*FOR UPDATE").WillReturnRows(userBalanceRow("0"))
	mock.ExpectExec("DELETE FROM `profits` WHERE user_id = \\?").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM `withdrawals` WHERE user_id = \\?").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM `deposits` WHERE user_id = \\?").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM `users`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.DeleteUser(context.Background(), 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormDeleteUserNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `users`").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	assert.ErrorIs(t, s.DeleteUser(context.Background(), 42), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
