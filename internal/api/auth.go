package api

import (
	"net/http" // HTTP status codes

	"invest_tracker/internal/domain" // Domain models
	"invest_tracker/internal/ledger" // Account lifecycle

	"github.com/gin-gonic/gin" // Gin web framework
)

// RegisterRequest is the investor sign up form
type RegisterRequest struct {
	Name          string `json:"name" binding:"required"`          // Display name
	Email         string `json:"email" binding:"required"`         // Login email
	Password      string `json:"password" binding:"required"`      // Plain password, hashed before storage
	WalletAddress string `json:"walletAddress" binding:"required"` // Payout wallet
}

// RegisterAdminRequest adds the shared admin secret
type RegisterAdminRequest struct {
	RegisterRequest
	Secret string `json:"secret" binding:"required"` // Admin registration secret
}

func (r RegisterRequest) input() ledger.RegisterInput {
	return ledger.RegisterInput{Name: r.Name, Email: r.Email, Password: r.Password, WalletAddress: r.WalletAddress}
}

// LoginRequest holds login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`    // Login email
	Password string `json:"password" binding:"required"` // Plain password
}

// AuthResponse is returned on successful login
type AuthResponse struct {
	Token string       `json:"token"` // JWT token
	User  *domain.User `json:"user"`  // Logged in account
}

// RegisterHandler creates an investor account
func RegisterHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "All fields are required"})
			return
		}
		u, err := svc.Register(c.Request.Context(), req.input())
		if err != nil {
			respondError(c, err, "User not found")
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Registration successful. Please check your email to verify your account.", "user": u})
	}
}

// VerifyEmailHandler consumes the token from a verification link
func VerifyEmailHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.VerifyEmail(c.Request.Context(), c.Query("token")); err != nil {
			respondError(c, err, "Invalid token")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Email verified successfully"})
	}
}

// RegisterAdminHandler creates an admin account guarded by the shared secret
func RegisterAdminHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterAdminRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "All fields are required"})
			return
		}
		u, err := svc.RegisterAdmin(c.Request.Context(), req.input(), req.Secret)
		if err != nil {
			respondError(c, err, "User not found")
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Admin registered successfully", "user": u})
	}
}

// LoginHandler authenticates a user and returns a JWT token
func LoginHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
			return
		}
		token, u, err := svc.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondError(c, err, "Invalid credentials")
			return
		}
		c.JSON(http.StatusOK, AuthResponse{Token: token, User: u})
	}
}

// ForgotPasswordHandler mails a reset link. The response does not reveal
// whether the email is registered.
func ForgotPasswordHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email string `json:"email" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email is required"})
			return
		}
		if err := svc.ForgotPassword(c.Request.Context(), req.Email); err != nil {
			respondError(c, err, "User not found")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "If the email is registered, a reset link has been sent"})
	}
}

// ResetPasswordHandler sets a new password from a reset token
func ResetPasswordHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Token       string `json:"token" binding:"required"`
			NewPassword string `json:"newPassword" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Token and new password are required"})
			return
		}
		if err := svc.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
			respondError(c, err, "Invalid token")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Password reset successfully"})
	}
}
