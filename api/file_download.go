package api

import (
	"errors"
	"net/http"
	"os"
	"time"

	"vpndrop/files-api/registry"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FileDownload serves a record's bytes under its original filename.
// Expired records always 403, even when the bytes are still on disk.
// The download counter is bumped when the transfer starts; a transfer
// that dies mid-stream keeps its count
func (a *API) FileDownload(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	fileID := c.Param("id")

	file, err := a.Registry.Get(fileID)
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

		zap.L().Error("Failed to look up file", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if file.Expired(time.Now()) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"success":   false,
			"error":     "File has expired",
			"requestID": requestID,
		})
		return
	}

	p := a.Stager.Path(file.StoredFilename)
	if _, err := os.Stat(p); err != nil {
		// Registry and disk disagree. Treat it as gone but make noise,
		// someone has been poking around the uploads directory
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"success":   false,
			"error":     "File not found",
			"requestID": requestID,
		})

		zap.L().Error("Blob missing for registered file",
			zap.String("id", file.ID),
			zap.String("storedFilename", file.StoredFilename),
			zap.Error(err))
		return
	}

	if err := a.Registry.IncrementDownload(fileID); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success":   false,
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to increment download count", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if m, err := mimetype.DetectFile(p); err == nil {
		c.Header("Content-Type", m.String())
	}

	c.FileAttachment(p, file.Filename)
}
