package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/pin-extract-go/internal/app"
	"github.com/yourusername/pin-extract-go/internal/domain"
)

// respondError maps domain errors to HTTP statuses
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNoMedia):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNoPins):
		status = http.StatusNotFound
	case app.IsClientError(err):
		status = http.StatusBadRequest
	}
	c.Error(err)
	c.JSON(status, gin.H{"status": "error", "error": err.Error()})
}
