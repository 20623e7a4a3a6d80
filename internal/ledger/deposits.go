package ledger

import (
	"context" // Request scoped cancellation
	"strings" // Input trimming

	"invest_tracker/internal/audit"  // Ledger event trail
	"invest_tracker/internal/domain" // Domain models
	"invest_tracker/internal/notify" // Notification mail
	"invest_tracker/internal/store"  // Persistence

	"github.com/shopspring/decimal" // Exact money arithmetic
	"github.com/sirupsen/logrus"    // Structured logging
)

// DepositInput is an investor's claim of an external payment
type DepositInput struct {
	PackageID uint
	Amount    decimal.Decimal
	TxHash    string
}

// ManualDepositInput is an admin entered deposit for the account with Email
type ManualDepositInput struct {
	Email     string
	PackageID uint
	Amount    decimal.Decimal
	TxHash    string
}

// CreateDeposit records a pending deposit for userID
func (s *Service) CreateDeposit(ctx context.Context, userID uint, in DepositInput) (*domain.Deposit, error) {
	in.TxHash = strings.TrimSpace(in.TxHash)
	if in.PackageID == 0 || in.TxHash == "" || in.Amount.IsZero() {
		return nil, invalid("packageId, amount and transactionHash are required")
	}
	if _, err := s.activeUser(ctx, userID); err != nil {
		return nil, err
	}
	p, err := s.store.GetPackage(ctx, in.PackageID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, invalid("Package is not active")
	}
	if !p.Accepts(in.Amount) {
		return nil, invalid("Amount must be between " + p.MinAmount.String() + " and " + p.MaxAmount.String())
	}
	d := &domain.Deposit{
		UserID:    userID,
		PackageID: p.ID,
		Amount:    in.Amount,
		TxHash:    in.TxHash,
		Status:    domain.StatusPending,
	}
	if err := s.store.CreateDeposit(ctx, d); err != nil {
		return nil, err
	}
	d.Package = p
	logrus.WithFields(logrus.Fields{
		"user_id":    userID,
		"deposit_id": d.ID,
		"amount":     d.Amount.String(),
		"status":     d.Status,
	}).Info("Deposit requested")
	s.record(ctx, "deposit", audit.Event{Kind: audit.DepositCreated, UserID: userID, EntityID: d.ID, Amount: d.Amount.String(), Status: d.Status, ActorID: userID, At: s.now().UTC()})
	s.invalidateLedger(ctx, userID)
	return d, nil
}

// ManualDeposit records an approved deposit entered by actorID and credits
// the owner in the same unit of work
func (s *Service) ManualDeposit(ctx context.Context, actorID uint, in ManualDepositInput) (*domain.Deposit, error) {
	in.Email = normalizeEmail(in.Email)
	if in.Email == "" || in.PackageID == 0 {
		return nil, invalid("email, packageId and amount are required")
	}
	if !in.Amount.IsPositive() {
		return nil, invalid("Amount must be greater than 0")
	}
	owner, err := s.store.GetUserByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	p, err := s.store.GetPackage(ctx, in.PackageID)
	if err != nil {
		return nil, err
	}
	hash := strings.TrimSpace(in.TxHash)
	if hash == "" {
		hash = domain.ManualTxHash
	}
	d := &domain.Deposit{
		UserID:    owner.ID,
		PackageID: p.ID,
		Amount:    in.Amount,
		TxHash:    hash,
		Status:    domain.StatusApproved,
	}
	if err := s.store.CreateDeposit(ctx, d); err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id": owner.ID,
			"amount":  in.Amount.String(),
			"error":   err.Error(),
		}).Error("Manual deposit failed")
		return nil, err
	}
	d.Package = p
	logrus.WithFields(logrus.Fields{
		"user_id":    owner.ID,
		"deposit_id": d.ID,
		"amount":     d.Amount.String(),
		"actor_id":   actorID,
	}).Info("Manual deposit credited")
	s.record(ctx, "deposit", audit.Event{Kind: audit.DepositDecided, UserID: owner.ID, EntityID: d.ID, Amount: d.Amount.String(), Status: d.Status, ActorID: actorID, At: s.now().UTC()})
	s.invalidateLedger(ctx, owner.ID)
	s.mail.Notify(ctx, notify.DepositApproved(owner.Email, owner.Name, d.Amount.StringFixed(2)))
	return d, nil
}

// DecideDeposit approves or declines a pending deposit. Approval credits the
// owner exactly once; deciding an entry twice yields store.ErrAlreadyDecided.
func (s *Service) DecideDeposit(ctx context.Context, actorID, depositID uint, status string) (*domain.Deposit, error) {
	if depositID == 0 {
		return nil, invalid("depositId is required")
	}
	if !domain.IsDecision(status) {
		return nil, invalid("Status must be approved or declined")
	}
	d, err := s.store.DecideDeposit(ctx, depositID, status)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"deposit_id": depositID,
			"status":     status,
			"error":      err.Error(),
		}).Warn("Deposit decision rejected")
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"user_id":    d.UserID,
		"deposit_id": d.ID,
		"amount":     d.Amount.String(),
		"status":     d.Status,
		"actor_id":   actorID,
	}).Info("Deposit decided")
	s.record(ctx, "deposit", audit.Event{Kind: audit.DepositDecided, UserID: d.UserID, EntityID: d.ID, Amount: d.Amount.String(), Status: d.Status, ActorID: actorID, At: s.now().UTC()})
	s.invalidateLedger(ctx, d.UserID)
	if d.Status == domain.StatusApproved {
		s.notifyOwner(ctx, d.UserID, func(u *domain.User) notify.Message {
			return notify.DepositApproved(u.Email, u.Name, d.Amount.StringFixed(2))
		})
	}
	return d, nil
}

// Deposits lists deposits newest first. A nil userID lists everyone's, with owners attached.
func (s *Service) Deposits(ctx context.Context, userID *uint, status string, page store.Page) ([]domain.Deposit, int64, error) {
	items, total, err := s.store.ListDeposits(ctx, store.LedgerFilter{UserID: userID, Status: status, WithUser: userID == nil, Page: page})
	if items == nil {
		items = []domain.Deposit{}
	}
	return items, total, err
}

// notifyOwner mails the owner of a ledger entry. Lookup failures are logged only.
func (s *Service) notifyOwner(ctx context.Context, userID uint, build func(*domain.User) notify.Message) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Error("Failed to load mail recipient")
		return
	}
	s.mail.Notify(ctx, build(u))
}
