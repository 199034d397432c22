package api

import (
	"errors"
	"net/http"

	"vpndrop/files-api/registry"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FileDelete removes a record and, best effort, its bytes. The record
// is the source of truth, so a blob that's already gone is not an error
func (a *API) FileDelete(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	fileID := c.Param("id")

	rec, err := a.Registry.Delete(fileID)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"success":   false,
				"error":     "File not found",
				"requestID": requestID,
			})
			return
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success":   false,
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to delete file record", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	a.Stager.Remove(rec.StoredFilename)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
	})
}
