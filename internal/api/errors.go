package api

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes
	"strconv"  // Path parameter parsing

	"invest_tracker/internal/ledger"     // Service errors
	"invest_tracker/internal/middleware" // Authenticated identity
	"invest_tracker/internal/store"      // Store sentinels

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Structured logging
)

// respondError maps a service error onto a status code and a safe message.
// notFound is the message used when the target entity does not exist.
func respondError(c *gin.Context, err error, notFound string) {
	var verr *ledger.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Msg})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
	case errors.Is(err, store.ErrInsufficientBalance):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient balance"})
	case errors.Is(err, store.ErrDuplicate):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Already exists"})
	case errors.Is(err, store.ErrAlreadyDecided):
		c.JSON(http.StatusConflict, gin.H{"error": "Request has already been processed"})
	case errors.Is(err, store.ErrPackageInUse):
		c.JSON(http.StatusConflict, gin.H{"error": "Package is referenced by deposits"})
	case errors.Is(err, ledger.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case errors.Is(err, ledger.ErrInvalidSecret):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid admin secret"})
	case errors.Is(err, ledger.ErrBlocked):
		c.JSON(http.StatusForbidden, gin.H{"error": "Account is blocked"})
	case errors.Is(err, ledger.ErrEmailNotVerified):
		c.JSON(http.StatusForbidden, gin.H{"error": "Please verify your email before logging in"})
	case errors.Is(err, ledger.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
	default:
		requestID, _ := c.Get("requestID")
		logrus.WithFields(logrus.Fields{
			"request_id": requestID,
			"path":       c.Request.URL.Path,
			"error":      err.Error(),
		}).Error("Unhandled error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// currentUser returns the authenticated user id or writes 401
func currentUser(c *gin.Context) (uint, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	}
	return id, ok
}

// idParam parses the :id path parameter or writes 400
func idParam(c *gin.Context) (uint, bool) {
	v, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || v == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return uint(v), true
}

// pageQuery reads page and page_size. Without either the listing is unpaginated.
func pageQuery(c *gin.Context) store.Page {
	p, ps := c.Query("page"), c.Query("page_size")
	if p == "" && ps == "" {
		return store.Page{}
	}
	number, _ := strconv.Atoi(p)
	size, _ := strconv.Atoi(ps)
	return ledger.NormalizePage(number, size)
}
