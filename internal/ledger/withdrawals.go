package ledger

import (
	"context" // Request scoped cancellation

	"invest_tracker/internal/audit"  // Ledger event trail
	"invest_tracker/internal/domain" // Domain models
	"invest_tracker/internal/notify" // Notification mail
	"invest_tracker/internal/store"  // Persistence

	"github.com/shopspring/decimal" // Exact money arithmetic
	"github.com/sirupsen/logrus"    // Structured logging
)

// CreateWithdrawal records a pending withdrawal for userID. The amount must
// fit in the balance left after the withdrawals already pending.
func (s *Service) CreateWithdrawal(ctx context.Context, userID uint, amount decimal.Decimal) (*domain.Withdrawal, error) {
	if !amount.IsPositive() {
		return nil, invalid("Amount must be greater than 0")
	}
	if _, err := s.activeUser(ctx, userID); err != nil {
		return nil, err
	}
	w := &domain.Withdrawal{UserID: userID, Amount: amount, Status: domain.StatusPending}
	if err := s.store.CreateWithdrawal(ctx, w); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"user_id":       userID,
		"withdrawal_id": w.ID,
		"amount":        w.Amount.String(),
		"status":        w.Status,
	}).Info("Withdrawal requested")
	s.record(ctx, "withdrawal", audit.Event{Kind: audit.WithdrawalCreated, UserID: userID, EntityID: w.ID, Amount: w.Amount.String(), Status: w.Status, ActorID: userID, At: s.now().UTC()})
	s.invalidateLedger(ctx, userID)
	return w, nil
}

// DecideWithdrawal approves or declines a pending withdrawal. Approval
// debits the owner and fails with store.ErrInsufficientBalance rather than
// take the balance below zero.
func (s *Service) DecideWithdrawal(ctx context.Context, actorID, withdrawalID uint, status string) (*domain.Withdrawal, error) {
	if withdrawalID == 0 {
		return nil, invalid("withdrawalId is required")
	}
	if !domain.IsDecision(status) {
		return nil, invalid("Status must be approved or declined")
	}
	w, err := s.store.DecideWithdrawal(ctx, withdrawalID, status)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"withdrawal_id": withdrawalID,
			"status":        status,
			"error":         err.Error(),
		}).Warn("Withdrawal decision rejected")
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"user_id":       w.UserID,
		"withdrawal_id": w.ID,
		"amount":        w.Amount.String(),
		"status":        w.Status,
		"actor_id":      actorID,
	}).Info("Withdrawal decided")
	s.record(ctx, "withdrawal", audit.Event{Kind: audit.WithdrawalDecided, UserID: w.UserID, EntityID: w.ID, Amount: w.Amount.String(), Status: w.Status, ActorID: actorID, At: s.now().UTC()})
	s.invalidateLedger(ctx, w.UserID)
	if w.Status == domain.StatusApproved {
		s.notifyOwner(ctx, w.UserID, func(u *domain.User) notify.Message {
			return notify.WithdrawalApproved(u.Email, u.Name, w.Amount.StringFixed(2))
		})
	}
	return w, nil
}

// Withdrawals lists withdrawals newest first. A nil userID lists everyone's, with owners attached.
func (s *Service) Withdrawals(ctx context.Context, userID *uint, status string, page store.Page) ([]domain.Withdrawal, int64, error) {
	items, total, err := s.store.ListWithdrawals(ctx, store.LedgerFilter{UserID: userID, Status: status, WithUser: userID == nil, Page: page})
	if items == nil {
		items = []domain.Withdrawal{}
	}
	return items, total, err
}
