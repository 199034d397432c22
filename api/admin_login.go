package api

import (
	"net/http"

	"vpndrop/files-api/config"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type loginBody struct {
	Code string `json:"code"`
}

// AdminLogin trades the shared admin access code for a fresh session
// token. A successful login replaces whatever session was active before
func (a *API) AdminLogin(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var data loginBody
	if err := c.ShouldBind(&data); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"success":   false,
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	// Cheap pre-filter, the hash comparison is the actual gate
	if len(data.Code) != config.AdminCodeLength {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"success":   false,
			"error":     "Malformed access code",
			"requestID": requestID,
		})
		return
	}

	ok, err := a.Argon.VerifyCode(data.Code, viper.GetString("admin.code_hash"))
	if err != nil {
		// Fail closed, a broken stored hash behaves like a wrong code
		zap.L().Error("Failed to verify admin code", zap.Error(err), zap.String("requestID", requestID))
		ok = false
	}

	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"success":   false,
			"error":     "Invalid access code",
			"requestID": requestID,
		})
		return
	}

	token, err := a.Sessions.Issue()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success":   false,
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to issue session token", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
	})
}
