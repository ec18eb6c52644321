package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kei-Shiro/road/internal/domain/apperr"
)

// respondError mappe les erreurs métier vers les statuts HTTP. Toute erreur
// non classée retombe en 400.
func respondError(c *gin.Context, err error) {
	status := http.StatusBadRequest
	switch {
	case apperr.IsNotFound(err):
		status = http.StatusNotFound
	case apperr.IsConflict(err):
		status = http.StatusConflict
	case apperr.IsLocked(err):
		status = http.StatusLocked
	case apperr.IsUnauthorized(err):
		status = http.StatusUnauthorized
	case apperr.IsValidation(err):
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
