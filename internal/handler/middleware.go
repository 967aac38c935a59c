package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ikiraha/backend/internal/model"
	"github.com/ikiraha/backend/internal/service"
)

const authUserKey = "auth_user"

// AuthMiddleware is the hard gate: bearer token extracted, verified, resolved
// to a live user, profile attached to the context. Any failure short-circuits.
func AuthMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, model.Fail("Access token required"))
			return
		}

		user, err := authService.Authenticate(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrUserNotFound):
				c.AbortWithStatusJSON(http.StatusUnauthorized, model.Fail("User not found"))
			case errors.Is(err, service.ErrInvalidToken):
				c.AbortWithStatusJSON(http.StatusForbidden, model.Fail("Invalid or expired token"))
			default:
				c.AbortWithStatusJSON(http.StatusInternalServerError, model.Fail("Internal server error"))
			}
			return
		}

		profile := user.Profile()
		c.Set(authUserKey, &profile)
		c.Next()
	}
}

// OptionalAuthMiddleware attaches the user when a valid bearer token is
// present and silently proceeds otherwise.
func OptionalAuthMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if user, err := authService.Authenticate(c.Request.Context(), token); err == nil {
				profile := user.Profile()
				c.Set(authUserKey, &profile)
			}
		}
		c.Next()
	}
}

// RequireAdmin runs after AuthMiddleware and gates on the admin flag.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := GetAuthUser(c)
		if user == nil || !user.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, model.Fail("Admin access required"))
			return
		}
		c.Next()
	}
}

// RequireEmailVerified runs after AuthMiddleware and gates on the
// verification flag.
func RequireEmailVerified() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := GetAuthUser(c)
		if user == nil || !user.IsEmailVerified {
			c.AbortWithStatusJSON(http.StatusForbidden, model.Fail("Email verification required"))
			return
		}
		c.Next()
	}
}

func GetAuthUser(c *gin.Context) *model.UserProfile {
	if value, ok := c.Get(authUserKey); ok {
		if user, ok := value.(*model.UserProfile); ok {
			return user
		}
	}
	return nil
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}

// RequestIDMiddleware tags every request with an id, echoed in the response
// for log correlation.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	originMap := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		originMap[trimmed] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			if _, ok := originMap[origin]; ok {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
				c.Header("Access-Control-Allow-Credentials", "true")
				c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With")
				c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
