package api

import (
	"net/http" // HTTP status codes
	"time"     // CORS max age

	"invest_tracker/internal/ledger"     // Business operations
	"invest_tracker/internal/metrics"    // Prometheus handler
	"invest_tracker/internal/middleware" // Auth, rate limit, logging

	"github.com/gin-contrib/cors" // Cross origin requests from the dashboard
	"github.com/gin-gonic/gin"    // Gin web framework
)

// RouterOptions configures NewRouter
type RouterOptions struct {
	JWTSecret      string                  // HMAC secret for session tokens
	CORSOrigins    []string                // Allowed dashboard origins, empty disables CORS
	TrustedProxies []string                // Proxies allowed to set client IP headers
	AuthLimiter    *middleware.RateLimiter // Applied to /auth routes when set
}

// NewRouter builds the HTTP API
func NewRouter(svc *ledger.Service, opts RouterOptions) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())
	if err := r.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, err
	}
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
			ExposeHeaders:    []string{middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/packages", ActivePackagesHandler(svc)) // Public catalog

	// Auth routes
	auth := r.Group("/auth")
	if opts.AuthLimiter != nil {
		auth.Use(opts.AuthLimiter.Handler())
	}
	auth.POST("/register", RegisterHandler(svc))
	auth.GET("/verify-email", VerifyEmailHandler(svc))
	auth.POST("/register-admin", RegisterAdminHandler(svc))
	auth.POST("/login", LoginHandler(svc))
	auth.POST("/forgot-password", ForgotPasswordHandler(svc))
	auth.POST("/reset-password", ResetPasswordHandler(svc))

	// Investor routes (protected by JWT)
	investor := r.Group("")
	investor.Use(middleware.JWTAuthMiddleware(opts.JWTSecret))
	investor.GET("/profile", ProfileHandler(svc))
	investor.PUT("/profile", UpdateProfileHandler(svc))
	investor.PATCH("/profile/password", ChangePasswordHandler(svc))
	investor.GET("/dashboard/stats", StatsHandler(svc))
	investor.GET("/deposits", MyDepositsHandler(svc))
	investor.POST("/deposits", CreateDepositHandler(svc))
	investor.GET("/withdrawals", MyWithdrawalsHandler(svc))
	investor.POST("/withdrawals", CreateWithdrawalHandler(svc))
	investor.GET("/profits", MyProfitsHandler(svc))
	investor.POST("/packages/switch", SwitchPackageHandler(svc))

	// Admin routes (protected, admin only)
	admin := r.Group("/admin")
	admin.Use(middleware.JWTAuthMiddleware(opts.JWTSecret), middleware.AdminOnlyMiddleware(svc))
	admin.GET("/dashboard", DashboardHandler(svc))
	admin.GET("/reports", ReportsHandler(svc))
	admin.GET("/audit", AuditHandler(svc))
	admin.GET("/users", ListUsersHandler(svc))
	admin.PATCH("/users", BlockUserHandler(svc))
	admin.DELETE("/users/:id", DeleteUserHandler(svc))
	admin.GET("/users/:id/reconcile", ReconcileHandler(svc))
	admin.POST("/mail", SendMailHandler(svc))
	admin.GET("/deposits", AllDepositsHandler(svc))
	admin.PATCH("/deposits", DecideDepositHandler(svc))
	admin.POST("/deposits/manual", ManualDepositHandler(svc))
	admin.GET("/withdrawals", AllWithdrawalsHandler(svc))
	admin.PATCH("/withdrawals", DecideWithdrawalHandler(svc))
	admin.GET("/profits", AllProfitsHandler(svc))
	admin.POST("/profits", CreditProfitHandler(svc))
	admin.GET("/packages", ListPackagesHandler(svc))
	admin.POST("/packages", CreatePackageHandler(svc))
	admin.PUT("/packages/:id", UpdatePackageHandler(svc))
	admin.DELETE("/packages/:id", DeletePackageHandler(svc))

	return r, nil
}
