package api

import (
	"errors"   // Error kind matching
	"net/http" // HTTP status codes
	"strconv"  // Query parsing

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library

	"wallet_portfolio/internal/domain" // Error kinds
)

// statusFor maps an error kind to its HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidFormat),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrUnsupportedAsset),
		errors.Is(err, domain.ErrInsufficientBalance):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrPersistenceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrSourceUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the error envelope; server-side kinds are logged
func fail(c *gin.Context, err error) {
	status := statusFor(err) // Pick status from error kind
	if status >= http.StatusInternalServerError {
		logrus.WithFields(logrus.Fields{
			"path":   c.FullPath(), // Route
			"status": status,       // Response status
			"error":  err.Error(),  // Underlying error
		}).Error("Request failed")
	}
	c.JSON(status, gin.H{"success": false, "error": domain.Message(err)})
}

// badRequest writes a 400 envelope with a fixed message
func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": msg})
}

// forbidden writes a 403 envelope
func forbidden(c *gin.Context, msg string) {
	c.JSON(http.StatusForbidden, gin.H{"success": false, "error": msg})
}

// success writes the envelope with extra fields merged in
func success(c *gin.Context, status int, body gin.H) {
	if body == nil {
		body = gin.H{}
	}
	body["success"] = true // Uniform envelope
	c.JSON(status, body)
}

// pagination reads page and page_size with the admin defaults
func pagination(c *gin.Context) (page, pageSize, offset int) {
	page = 1      // Default page number
	pageSize = 20 // Default page size
	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v // Set page if valid
		}
	}
	// Check and set page size within limits
	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v // Set page size
		}
	}
	return page, pageSize, (page - 1) * pageSize
}

// totalPages rounds total/pageSize up
func totalPages(total int64, pageSize int) int {
	return (int(total) + pageSize - 1) / pageSize
}
