package api

import (
	"errors"
	"net/http"

	"vpndrop/files-api/registry"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type fileUpdateBody struct {
	Name        string `json:"name"`
	Network     string `json:"network"`
	ExpiryDate  string `json:"expiryDate"`
	Description string `json:"description"`
}

// FileUpdate replaces a record's editable metadata. The id, stored
// name, download count and creation time survive any payload
func (a *API) FileUpdate(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	fileID := c.Param("id")

	var data fileUpdateBody
	if err := c.BindJSON(&data); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"success":   false,
			"error":     "Malformed or invalid JSON request body",
			"requestID": requestID,
		})
		return
	}

	expiry, err := parseExpiry(data.ExpiryDate)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"success":   false,
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}

	rec, err := a.Registry.Update(fileID, registry.Meta{
		Name:        data.Name,
		Network:     data.Network,
		ExpiryDate:  expiry,
		Description: data.Description,
	})
	if err != nil {
		var vErr registry.ValidationError

		switch {
		case errors.Is(err, registry.ErrNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"success":   false,
				"error":     "File not found",
				"requestID": requestID,
			})
		case errors.As(err, &vErr):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"success":   false,
				"error":     vErr.Error(),
				"requestID": requestID,
			})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success":   false,
				"error":     "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to update file record", zap.Error(err), zap.String("requestID", requestID))
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"file":    rec,
	})
}
