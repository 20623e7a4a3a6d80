package domain

import (
	"time" // Timestamps

	"github.com/shopspring/decimal" // Exact money arithmetic
)

// Ledger entry statuses shared by deposits and withdrawals
const (
	StatusPending  = "pending"  // Awaiting admin decision
	StatusApproved = "approved" // Credited or debited
	StatusDeclined = "declined" // Rejected, no balance change
)

// ManualTxHash marks deposits and profits entered by an admin
const ManualTxHash = "admin-manual"

// IsDecision reports whether status is a valid admin decision
func IsDecision(status string) bool {
	return status == StatusApproved || status == StatusDeclined
}

// Deposit Model
type Deposit struct {
	ID        uint            `gorm:"primaryKey" json:"id"`                                // Primary key
	UserID    uint            `gorm:"not null;index" json:"userId"`                        // Owner
	User      *User           `gorm:"constraint:OnDelete:CASCADE;" json:"user,omitempty"`  // Owner (admin listing)
	PackageID uint            `gorm:"not null;index" json:"packageId"`                     // Chosen package
	Package   *Package        `json:"package,omitempty"`                                   // Chosen package
	Amount    decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"amount"`           // Deposited amount
	TxHash    string          `gorm:"size:191;not null" json:"txHash"`                     // External payment proof
	Status    string          `gorm:"size:16;not null;default:pending;index" json:"status"` // pending, approved, declined
	CreatedAt time.Time       `json:"createdAt"`                                           // Creation time
	UpdatedAt time.Time       `json:"updatedAt"`                                           // Last status change
}

// Withdrawal Model
type Withdrawal struct {
	ID        uint            `gorm:"primaryKey" json:"id"`                                // Primary key
	UserID    uint            `gorm:"not null;index" json:"userId"`                        // Owner
	User      *User           `gorm:"constraint:OnDelete:CASCADE;" json:"user,omitempty"`  // Owner (admin listing)
	Amount    decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"amount"`           // Requested amount
	Status    string          `gorm:"size:16;not null;default:pending;index" json:"status"` // pending, approved, declined
	CreatedAt time.Time       `json:"createdAt"`                                           // Creation time
	UpdatedAt time.Time       `json:"updatedAt"`                                           // Last status change
}

// Profit Model
type Profit struct {
	ID          uint            `gorm:"primaryKey" json:"id"`                                // Primary key
	UserID      uint            `gorm:"not null;index" json:"userId"`                        // Owner
	PackageID   *uint           `json:"packageId,omitempty"`                                 // Optional package linkage
	DepositID   *uint           `json:"depositId,omitempty"`                                 // Optional deposit linkage
	Amount      decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"amount"`           // Credited amount
	Description string          `json:"description"`                                         // Admin note
	TxHash      string          `gorm:"size:191" json:"txHash"`                              // Payout reference
	Date        time.Time       `json:"date"`                                                // Profit date
	CreatedAt   time.Time       `json:"createdAt"`                                           // Creation time
}
