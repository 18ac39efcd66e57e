package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	apperrors "studiora/backend/internal/errors"
	"studiora/backend/internal/middleware"
)

func writeError(c *gin.Context, apiErr *apperrors.APIError) {
	c.JSON(apiErr.StatusCode(), apiErr.Envelope())
}

// bindJSON decodes the request body. An empty body is accepted when optional is set.
func bindJSON(c *gin.Context, dst interface{}, optional bool) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return true
	}
	writeError(c, apperrors.BadRequest("invalid_json", "invalid request body"))
	return false
}

func requireUser(c *gin.Context) (string, bool) {
	userID := middleware.UserID(c)
	if userID == "" {
		writeError(c, apperrors.Unauthorized(""))
		return "", false
	}
	return userID, true
}
