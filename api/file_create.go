package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"vpndrop/files-api/registry"
	"vpndrop/files-api/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FileCreate uploads a new file together with its metadata. The bytes
// are staged to disk first and discarded again if the metadata doesn't
// pass the registry's validation
func (a *API) FileCreate(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	if !strings.HasPrefix(c.Request.Header.Get("Content-Type"), "multipart/form-data") {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"success":   false,
			"error":     "Invalid request",
			"requestID": requestID,
		})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success":   false,
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to parse multipart form", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	files := form.File["file"]
	if len(files) <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"success":   false,
			"error":     "No file provided",
			"requestID": requestID,
		})
		return
	}

	fh := files[0]

	// Extension and size are rejected before anything touches disk
	if code, err := validators.FileValidator(fh); err != nil {
		c.AbortWithStatusJSON(code, gin.H{
			"success":   false,
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}

	expiry, err := parseExpiry(c.PostForm("expiryDate"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"success":   false,
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success":   false,
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to open uploaded file", zap.Error(err), zap.String("requestID", requestID))
		return
	}
	defer f.Close()

	staged, err := a.Stager.Stage(f, fh.Filename)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success":   false,
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to stage uploaded file", zap.Error(err), zap.String("requestID", requestID))
		return
	}
	defer staged.Discard()

	meta := registry.Meta{
		Name:        c.PostForm("name"),
		Network:     c.PostForm("network"),
		ExpiryDate:  expiry,
		Description: c.PostForm("description"),
	}

	rec, err := a.Registry.Create(meta, fh.Filename, staged.StoredName, staged.Size)
	if err != nil {
		var vErr registry.ValidationError
		if errors.As(err, &vErr) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"success":   false,
				"error":     vErr.Error(),
				"requestID": requestID,
			})
			return
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success":   false,
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to save file record", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	staged.Commit()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"file":    rec,
	})
}

// parseExpiry accepts a full RFC 3339 timestamp or a bare date, which
// is what the admin form's date picker submits
func parseExpiry(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("expiryDate is required")
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}

	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}

	return time.Time{}, errors.New("expiryDate must be an RFC 3339 timestamp or a YYYY-MM-DD date")
}
