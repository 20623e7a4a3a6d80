package domain

import (
	"time" // Timestamps and token expiry

	"github.com/shopspring/decimal" // Exact money arithmetic
)

// Account roles
const (
	RoleInvestor = "investor" // Regular investor account
	RoleAdmin    = "admin"    // Dashboard administrator
)

// User Model
type User struct {
	ID                            uint            `gorm:"primaryKey" json:"id"`                                       // Primary key
	Name                          string          `gorm:"not null" json:"name"`                                       // Display name
	Email                         string          `gorm:"uniqueIndex;size:191;not null" json:"email"`                 // Unique login email
	Password                      string          `gorm:"not null" json:"-"`                                          // Hashed password
	Role                          string          `gorm:"size:16;default:investor" json:"role"`                       // Role: investor or admin
	WalletAddress                 string          `gorm:"not null" json:"walletAddress"`                              // Payout wallet address
	Balance                       decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"balance"`       // Spendable funds
	IsBlocked                     bool            `gorm:"not null;default:false" json:"isBlocked"`                    // Blocked accounts cannot log in
	EmailVerified                 bool            `gorm:"not null;default:false" json:"emailVerified"`                // Verification state
	EmailVerificationToken        *string         `gorm:"size:64;index" json:"-"`                                     // Pending verification token
	EmailVerificationTokenExpires *time.Time      `json:"-"`                                                          // Verification token expiry
	PasswordResetToken            *string         `gorm:"size:64;index" json:"-"`                                     // Pending reset token
	PasswordResetTokenExpires     *time.Time      `json:"-"`                                                          // Reset token expiry
	ActivePackageID               *uint           `json:"activePackageId,omitempty"`                                  // Package selected via switch
	ActivePackage                 *Package        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"` // Selected package
	CreatedAt                     time.Time       `json:"createdAt"`                                                  // Creation time
	UpdatedAt                     time.Time       `json:"updatedAt"`                                                  // Last update time
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
