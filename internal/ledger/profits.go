package ledger

import (
	"context" // Request scoped cancellation
	"strings" // Input trimming
	"time"    // Entry date

	"invest_tracker/internal/audit"  // Ledger event trail
	"invest_tracker/internal/domain" // Domain models
	"invest_tracker/internal/notify" // Notification mail
	"invest_tracker/internal/store"  // Persistence

	"github.com/shopspring/decimal" // Exact money arithmetic
	"github.com/sirupsen/logrus"    // Structured logging
)

// ProfitInput is an admin entered profit credit
type ProfitInput struct {
	UserID      uint
	Amount      decimal.Decimal
	PackageID   *uint
	DepositID   *uint
	Description string
	TxHash      string
	Date        *time.Time
}

// CreditProfit records a profit for the owner and adds it to their balance
func (s *Service) CreditProfit(ctx context.Context, actorID uint, in ProfitInput) (*domain.Profit, error) {
	if in.UserID == 0 {
		return nil, invalid("userId and amount are required")
	}
	if !in.Amount.IsPositive() {
		return nil, invalid("Amount must be greater than 0")
	}
	owner, err := s.store.GetUser(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if in.PackageID != nil {
		if _, err := s.store.GetPackage(ctx, *in.PackageID); err != nil {
			return nil, err
		}
	}
	if in.DepositID != nil {
		d, err := s.store.GetDeposit(ctx, *in.DepositID)
		if err != nil {
			return nil, err
		}
		if d.UserID != owner.ID {
			return nil, invalid("Deposit does not belong to this user")
		}
		if in.PackageID == nil {
			in.PackageID = &d.PackageID
		}
	}
	date := s.now().UTC()
	if in.Date != nil {
		date = *in.Date
	}
	p := &domain.Profit{
		UserID:      owner.ID,
		PackageID:   in.PackageID,
		DepositID:   in.DepositID,
		Amount:      in.Amount,
		Description: strings.TrimSpace(in.Description),
		TxHash:      strings.TrimSpace(in.TxHash),
		Date:        date,
	}
	if err := s.store.CreditProfit(ctx, p); err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id": owner.ID,
			"amount":  in.Amount.String(),
			"error":   err.Error(),
		}).Error("Profit credit failed")
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"user_id":   owner.ID,
		"profit_id": p.ID,
		"amount":    p.Amount.String(),
		"actor_id":  actorID,
	}).Info("Profit credited")
	s.record(ctx, "profit", audit.Event{Kind: audit.ProfitCredited, UserID: owner.ID, EntityID: p.ID, Amount: p.Amount.String(), Status: "credited", ActorID: actorID, At: s.now().UTC()})
	s.invalidateLedger(ctx, owner.ID)
	s.mail.Notify(ctx, notify.ProfitCredited(owner.Email, owner.Name, p.Amount.StringFixed(2), p.Description))
	return p, nil
}

// Profits lists profit entries newest first. A nil userID lists everyone's.
func (s *Service) Profits(ctx context.Context, userID *uint, page store.Page) ([]domain.Profit, int64, error) {
	items, total, err := s.store.ListProfits(ctx, store.LedgerFilter{UserID: userID, Page: page})
	if items == nil {
		items = []domain.Profit{}
	}
	return items, total, err
}
