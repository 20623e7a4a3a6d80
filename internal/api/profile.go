package api

import (
	"net/http" // HTTP status codes

	"invest_tracker/internal/ledger" // Account operations

	"github.com/gin-gonic/gin" // Gin web framework
)

// ProfileHandler returns the authenticated account
func ProfileHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		u, err := svc.Profile(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err, "User not found")
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": u})
	}
}

// UpdateProfileRequest holds the editable profile fields
type UpdateProfileRequest struct {
	Name          *string `json:"name"`          // New display name
	WalletAddress *string `json:"walletAddress"` // New payout wallet
}

// UpdateProfileHandler edits the name and wallet of the authenticated account
func UpdateProfileHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		var req UpdateProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil || (req.Name == nil && req.WalletAddress == nil) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to update"})
			return
		}
		u, err := svc.UpdateProfile(c.Request.Context(), userID, ledger.ProfileInput{Name: req.Name, WalletAddress: req.WalletAddress})
		if err != nil {
			respondError(c, err, "User not found")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Profile updated", "user": u})
	}
}

// ChangePasswordHandler replaces the password of the authenticated account
func ChangePasswordHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		var req struct {
			OldPassword string `json:"oldPassword" binding:"required"`
			NewPassword string `json:"newPassword" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Old and new password are required"})
			return
		}
		if err := svc.ChangePassword(c.Request.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
			respondError(c, err, "User not found")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
	}
}

// StatsHandler returns the investor dashboard
func StatsHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		stats, err := svc.Stats(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err, "User not found")
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}
