package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pengzhou/bz-studypal-api/internal/model"
	"github.com/pengzhou/bz-studypal-api/internal/service"
	"github.com/pengzhou/bz-studypal-api/internal/token"
)

const authUserKey = "auth_user"

// requestToken finds the bearer credential: Authorization header first, then
// the access-token cookie set for browser clients.
func requestToken(c *gin.Context) string {
	if tok := token.ExtractBearerToken(c.GetHeader("Authorization")); tok != "" {
		return tok
	}
	if tok, err := c.Cookie(token.AccessCookieName); err == nil {
		return tok
	}
	return ""
}

// RequireAuth rejects the request unless a valid token resolves to an active
// user. The resolved identity is attached to the gin context.
func RequireAuth(svc *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		tok := requestToken(c)
		if tok == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, model.Fail("authentication token required", "NO_TOKEN"))
			return
		}

		user, err := svc.ResolveIdentity(c.Request.Context(), tok)
		if err != nil {
			status, body := identityError(err)
			c.AbortWithStatusJSON(status, body)
			return
		}

		c.Set(authUserKey, user)
		c.Next()
	}
}

// OptionalAuth attaches an identity when the request carries a valid token
// and otherwise lets the request through anonymously. It never rejects; a
// suspended user is simply treated as anonymous.
func OptionalAuth(svc *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tok := requestToken(c); tok != "" {
			user, err := svc.ResolveIdentity(c.Request.Context(), tok)
			if err != nil {
				log.Printf("[auth] optional auth ignored token: %v", err)
			} else {
				c.Set(authUserKey, user)
			}
		}
		c.Next()
	}
}

// RequireRoles gates a route to the given roles. Compose it after
// RequireAuth; the missing-identity branch is defensive only.
func RequireRoles(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := GetAuthUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, model.Fail("authentication required", "AUTH_REQUIRED"))
			return
		}

		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"success":  false,
			"error":    "insufficient permissions",
			"code":     "INSUFFICIENT_PERMISSIONS",
			"required": roles,
			"current":  user.Role,
		})
	}
}

func GetAuthUser(c *gin.Context) *model.AuthUser {
	if value, ok := c.Get(authUserKey); ok {
		if user, ok := value.(*model.AuthUser); ok {
			return user
		}
	}
	return nil
}

func identityError(err error) (int, model.APIResponse) {
	switch {
	case errors.Is(err, token.ErrInvalidToken):
		return http.StatusUnauthorized, model.Fail("invalid or expired token", "INVALID_TOKEN")
	case errors.Is(err, service.ErrUserNotFound):
		return http.StatusUnauthorized, model.Fail("user not found", "USER_NOT_FOUND")
	case errors.Is(err, service.ErrAccountInactive):
		return http.StatusForbidden, model.Fail("account is inactive", "ACCOUNT_INACTIVE")
	default:
		log.Printf("[auth] identity resolution failed: %v", err)
		return http.StatusInternalServerError, model.Fail("internal server error", "INTERNAL_ERROR")
	}
}

func CORSMiddleware(allowedOrigins []string, allowCredentials bool) gin.HandlerFunc {
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
				if allowCredentials {
					c.Header("Access-Control-Allow-Credentials", "true")
				}
				c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
				c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
