package api

import (
	"net/http" // HTTP status codes

	"invest_tracker/internal/ledger" // Package catalog

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Exact money arithmetic
)

// PackageRequest is the admin package form. Omitted fields are left unchanged on update.
type PackageRequest struct {
	Name          *string          `json:"name"`          // Unique package name
	MinAmount     *decimal.Decimal `json:"minAmount"`     // Smallest accepted deposit
	MaxAmount     *decimal.Decimal `json:"maxAmount"`     // Largest accepted deposit
	ROIPercentage *decimal.Decimal `json:"roiPercentage"` // Daily ROI in percent
	DurationDays  *int             `json:"durationDays"`  // Package length
	IsActive      *bool            `json:"isActive"`      // Offered to investors
}

func (r PackageRequest) input() ledger.PackageInput {
	return ledger.PackageInput{
		Name:          r.Name,
		MinAmount:     r.MinAmount,
		MaxAmount:     r.MaxAmount,
		ROIPercentage: r.ROIPercentage,
		DurationDays:  r.DurationDays,
		IsActive:      r.IsActive,
	}
}

// ActivePackagesHandler lists the packages investors can choose
func ActivePackagesHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		packages, err := svc.ActivePackages(c.Request.Context())
		if err != nil {
			respondError(c, err, "Package not found")
			return
		}
		c.JSON(http.StatusOK, gin.H{"packages": packages})
	}
}

// SwitchPackageHandler marks a package as the investor's active one
func SwitchPackageHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		var req struct {
			PackageID uint `json:"packageId" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "packageId is required"})
			return
		}
		u, err := svc.SwitchPackage(c.Request.Context(), userID, req.PackageID)
		if err != nil {
			respondError(c, err, "Package not found")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Package switched", "activePackage": u.ActivePackage})
	}
}

// ListPackagesHandler lists the whole catalog for admins
func ListPackagesHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		packages, err := svc.AllPackages(c.Request.Context())
		if err != nil {
			respondError(c, err, "Package not found")
			return
		}
		c.JSON(http.StatusOK, gin.H{"packages": packages})
	}
}

// CreatePackageHandler adds a package
func CreatePackageHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PackageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		p, err := svc.CreatePackage(c.Request.Context(), req.input())
		if err != nil {
			respondError(c, err, "Package not found")
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Package created", "package": p})
	}
}

// UpdatePackageHandler edits package :id
func UpdatePackageHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var req PackageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		p, err := svc.UpdatePackage(c.Request.Context(), id, req.input())
		if err != nil {
			respondError(c, err, "Package not found")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Package updated", "package": p})
	}
}

// DeletePackageHandler removes package :id
func DeletePackageHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		if err := svc.DeletePackage(c.Request.Context(), id); err != nil {
			respondError(c, err, "Package not found")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Package deleted"})
	}
}
