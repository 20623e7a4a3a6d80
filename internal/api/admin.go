package api

import (
	"net/http" // HTTP status codes
	"strconv"  // Query parsing

	"invest_tracker/internal/ledger" // Admin operations

	"github.com/gin-gonic/gin" // Gin web framework
)

// ListUsersHandler returns one page of accounts
func ListUsersHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
		p := ledger.NormalizePage(page, pageSize)
		result, err := svc.ListUsers(c.Request.Context(), p)
		if err != nil {
			respondError(c, err, "User not found")
			return
		}
		totalPages := (int(result.Total) + p.Size - 1) / p.Size // Calculate total pages
		c.JSON(http.StatusOK, gin.H{
			"users":       result.Users,    // Accounts on this page
			"page":        result.Page,     // Current page
			"page_size":   result.PageSize, // Page size
			"total":       result.Total,    // Total number of users
			"total_pages": totalPages,      // Total pages
		})
	}
}

// BlockUserHandler blocks or unblocks an account
func BlockUserHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminID, ok := currentUser(c)
		if !ok {
			return
		}
		var req struct {
			UserID uint  `json:"userId" binding:"required"`
			Block  *bool `json:"block" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "userId and block are required"})
			return
		}
		u, err := svc.SetBlocked(c.Request.Context(), adminID, req.UserID, *req.Block)
		if err != nil {
			respondError(c, err, "User not found")
			return
		}
		msg := "User unblocked"
		if u.IsBlocked {
			msg = "User blocked"
		}
		c.JSON(http.StatusOK, gin.H{"message": msg, "user": u})
	}
}

// DeleteUserHandler removes an account with all of its ledger entries
func DeleteUserHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminID, ok := currentUser(c)
		if !ok {
			return
		}
		id, ok := idParam(c)
		if !ok {
			return
		}
		if err := svc.DeleteUser(c.Request.Context(), adminID, id); err != nil {
			respondError(c, err, "User not found")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
	}
}

// ReconcileHandler compares a stored balance with its ledgers
func ReconcileHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		rec, err := svc.Reconcile(c.Request.Context(), id)
		if err != nil {
			respondError(c, err, "User not found")
			return
		}
		c.JSON(http.StatusOK, rec)
	}
}

// SendMailHandler mails a custom message to an account
func SendMailHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email   string `json:"email" binding:"required"`
			Subject string `json:"subject" binding:"required"`
			Message string `json:"message" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email, subject and message are required"})
			return
		}
		if err := svc.SendMail(c.Request.Context(), req.Email, req.Subject, req.Message); err != nil {
			respondError(c, err, "User not found")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Mail queued"})
	}
}

// DashboardHandler returns the platform totals
func DashboardHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		dash, err := svc.Dashboard(c.Request.Context())
		if err != nil {
			respondError(c, err, "Not found")
			return
		}
		c.JSON(http.StatusOK, dash)
	}
}

// ReportsHandler returns the profit report
func ReportsHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := svc.Reports(c.Request.Context())
		if err != nil {
			respondError(c, err, "Not found")
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

// AuditHandler returns recent ledger events, optionally filtered by user_id
func AuditHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var userID *uint
		if v := c.Query("user_id"); v != "" {
			id, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user_id"})
				return
			}
			uid := uint(id)
			userID = &uid
		}
		limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
		events, err := svc.AuditTrail(c.Request.Context(), userID, limit)
		if err != nil {
			respondError(c, err, "Not found")
			return
		}
		c.JSON(http.StatusOK, gin.H{"events": events})
	}
}
