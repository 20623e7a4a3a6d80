package api

import (
	"net/http" // HTTP status codes
	"time"     // Optional profit date

	"invest_tracker/internal/domain" // Status names
	"invest_tracker/internal/ledger" // Ledger operations

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Exact money arithmetic
)

// DepositRequest is an investor deposit claim
type DepositRequest struct {
	PackageID       uint            `json:"packageId" binding:"required"`       // Chosen package
	Amount          decimal.Decimal `json:"amount"`                             // Deposited amount
	TransactionHash string          `json:"transactionHash" binding:"required"` // External payment proof
}

// ManualDepositRequest is an admin entered deposit
type ManualDepositRequest struct {
	Email           string          `json:"email" binding:"required"`     // Owner email
	PackageID       uint            `json:"packageId" binding:"required"` // Package credited
	Amount          decimal.Decimal `json:"amount"`                       // Deposited amount
	TransactionHash string          `json:"transactionHash"`              // Optional payment proof
}

// DecideDepositRequest approves or declines a deposit
type DecideDepositRequest struct {
	DepositID uint   `json:"depositId" binding:"required"` // Target deposit
	Status    string `json:"status" binding:"required"`    // approved or declined
}

// DecideWithdrawalRequest approves or declines a withdrawal
type DecideWithdrawalRequest struct {
	WithdrawalID uint   `json:"withdrawalId" binding:"required"` // Target withdrawal
	Status       string `json:"status" binding:"required"`       // approved or declined
}

// ProfitRequest is an admin profit credit
type ProfitRequest struct {
	UserID          uint            `json:"userId" binding:"required"` // Owner
	Amount          decimal.Decimal `json:"amount"`                    // Credited amount
	PackageID       *uint           `json:"packageId"`                 // Optional package link
	DepositID       *uint           `json:"depositId"`                 // Optional deposit link
	Description     string          `json:"description"`               // Shown to the investor
	TransactionHash string          `json:"transactionHash"`           // Optional payout reference
	Date            *time.Time      `json:"date"`                      // Defaults to now
}

// MyDepositsHandler lists the investor's deposits
func MyDepositsHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		items, total, err := svc.Deposits(c.Request.Context(), &userID, c.Query("status"), pageQuery(c))
		if err != nil {
			respondError(c, err, "Deposit not found")
			return
		}
		c.JSON(http.StatusOK, gin.H{"deposits": items, "total": total})
	}
}

// CreateDepositHandler records a pending deposit
func CreateDepositHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		var req DepositRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "packageId, amount and transactionHash are required"})
			return
		}
		d, err := svc.CreateDeposit(c.Request.Context(), userID, ledger.DepositInput{
			PackageID: req.PackageID,
			Amount:    req.Amount,
			TxHash:    req.TransactionHash,
		})
		if err != nil {
			respondError(c, err, "Package not found")
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Deposit submitted and awaiting approval", "deposit": d})
	}
}

// AllDepositsHandler lists every deposit for admins
func AllDepositsHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, total, err := svc.Deposits(c.Request.Context(), nil, c.Query("status"), pageQuery(c))
		if err != nil {
			respondError(c, err, "Deposit not found")
			return
		}
		c.JSON(http.StatusOK, gin.H{"deposits": items, "total": total})
	}
}

// DecideDepositHandler approves or declines a pending deposit
func DecideDepositHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminID, ok := currentUser(c)
		if !ok {
			return
		}
		var req DecideDepositRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "depositId and status are required"})
			return
		}
		d, err := svc.DecideDeposit(c.Request.Context(), adminID, req.DepositID, req.Status)
		if err != nil {
			respondError(c, err, "Deposit not found")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Deposit " + statusLabel(d.Status), "deposit": d})
	}
}

// ManualDepositHandler credits an admin entered deposit
func ManualDepositHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminID, ok := currentUser(c)
		if !ok {
			return
		}
		var req ManualDepositRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email, packageId and amount are required"})
			return
		}
		d, err := svc.ManualDeposit(c.Request.Context(), adminID, ledger.ManualDepositInput{
			Email:     req.Email,
			PackageID: req.PackageID,
			Amount:    req.Amount,
			TxHash:    req.TransactionHash,
		})
		if err != nil {
			respondError(c, err, "User or package not found")
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Deposit credited", "deposit": d})
	}
}

// MyWithdrawalsHandler lists the investor's withdrawals
func MyWithdrawalsHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		items, total, err := svc.Withdrawals(c.Request.Context(), &userID, c.Query("status"), pageQuery(c))
		if err != nil {
			respondError(c, err, "Withdrawal not found")
			return
		}
		c.JSON(http.StatusOK, gin.H{"withdrawals": items, "total": total})
	}
}

// CreateWithdrawalHandler records a pending withdrawal
func CreateWithdrawalHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		var req struct {
			Amount decimal.Decimal `json:"amount"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Amount is required"})
			return
		}
		w, err := svc.CreateWithdrawal(c.Request.Context(), userID, req.Amount)
		if err != nil {
			respondError(c, err, "User not found")
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Withdrawal requested and awaiting approval", "withdrawal": w})
	}
}

// AllWithdrawalsHandler lists every withdrawal for admins
func AllWithdrawalsHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, total, err := svc.Withdrawals(c.Request.Context(), nil, c.Query("status"), pageQuery(c))
		if err != nil {
			respondError(c, err, "Withdrawal not found")
			return
		}
		c.JSON(http.StatusOK, gin.H{"withdrawals": items, "total": total})
	}
}

// DecideWithdrawalHandler approves or declines a pending withdrawal
func DecideWithdrawalHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminID, ok := currentUser(c)
		if !ok {
			return
		}
		var req DecideWithdrawalRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "withdrawalId and status are required"})
			return
		}
		w, err := svc.DecideWithdrawal(c.Request.Context(), adminID, req.WithdrawalID, req.Status)
		if err != nil {
			respondError(c, err, "Withdrawal not found")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Withdrawal " + statusLabel(w.Status), "withdrawal": w})
	}
}

// MyProfitsHandler lists the investor's profit entries
func MyProfitsHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		items, total, err := svc.Profits(c.Request.Context(), &userID, pageQuery(c))
		if err != nil {
			respondError(c, err, "Profit not found")
			return
		}
		c.JSON(http.StatusOK, gin.H{"profits": items, "total": total})
	}
}

// AllProfitsHandler lists every profit entry for admins
func AllProfitsHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, total, err := svc.Profits(c.Request.Context(), nil, pageQuery(c))
		if err != nil {
			respondError(c, err, "Profit not found")
			return
		}
		c.JSON(http.StatusOK, gin.H{"profits": items, "total": total})
	}
}

// CreditProfitHandler credits a profit entry to an investor
func CreditProfitHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminID, ok := currentUser(c)
		if !ok {
			return
		}
		var req ProfitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "userId and amount are required"})
			return
		}
		p, err := svc.CreditProfit(c.Request.Context(), adminID, ledger.ProfitInput{
			UserID:      req.UserID,
			Amount:      req.Amount,
			PackageID:   req.PackageID,
			DepositID:   req.DepositID,
			Description: req.Description,
			TxHash:      req.TransactionHash,
			Date:        req.Date,
		})
		if err != nil {
			respondError(c, err, "User, package or deposit not found")
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Profit credited", "profit": p})
	}
}

// statusLabel keeps response messages readable for unknown states
func statusLabel(status string) string {
	if domain.IsDecision(status) {
		return status
	}
	return "updated"
}
