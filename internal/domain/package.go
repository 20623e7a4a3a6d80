package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Package is an investable tier with an advertised daily ROI
type Package struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Name          string          `gorm:"uniqueIndex;size:191;not null" json:"name"`
	MinAmount     decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"minAmount"`
	MaxAmount     decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"maxAmount"`
	ROIPercentage decimal.Decimal `gorm:"column:roi_percentage;type:decimal(8,4);not null" json:"roiPercentage"` // Daily ROI in percent
	DurationDays  int             `gorm:"not null" json:"durationDays"`
	IsActive      bool            `gorm:"not null;default:true" json:"isActive"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Accepts reports whether amount falls inside the package limits
func (p *Package) Accepts(amount decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(p.MinAmount) && amount.LessThanOrEqual(p.MaxAmount)
}

// DailyProfit is the advertised profit for one day on amount
func (p *Package) DailyProfit(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(p.ROIPercentage).Div(hundred).Round(8)
}

// TotalReturn is the advertised profit over the whole package duration
func (p *Package) TotalReturn(amount decimal.Decimal) decimal.Decimal {
	return p.DailyProfit(amount).Mul(decimal.NewFromInt(int64(p.DurationDays)))
}
