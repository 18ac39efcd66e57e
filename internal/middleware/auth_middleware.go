package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "studiora/backend/internal/errors"
	"studiora/backend/internal/service"
)

const PrincipalContextKey = "principal"

// Auth accepts a bearer token, or an access_token query parameter for
// EventSource clients that cannot set headers.
func Auth(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, apiErr := bearerToken(c)
		if apiErr != nil {
			writeError(c, apiErr)
			return
		}

		principal, apiErr := authService.Authenticate(c.Request.Context(), token)
		if apiErr != nil {
			writeError(c, apiErr)
			return
		}

		c.Set(PrincipalContextKey, *principal)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, *apperrors.APIError) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if token := c.Query("access_token"); token != "" {
			return token, nil
		}
		return "", apperrors.Unauthorized("missing authorization header")
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", apperrors.Unauthorized("invalid authorization format")
	}

	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", apperrors.Unauthorized("invalid authorization format")
	}
	return token, nil
}

func Principal(c *gin.Context) (service.Principal, bool) {
	value, ok := c.Get(PrincipalContextKey)
	if !ok {
		return service.Principal{}, false
	}
	principal, ok := value.(service.Principal)
	return principal, ok
}

func UserID(c *gin.Context) string {
	principal, _ := Principal(c)
	return principal.UserID
}

func writeError(c *gin.Context, apiErr *apperrors.APIError) {
	c.AbortWithStatusJSON(apiErr.StatusCode(), apiErr.Envelope())
}
