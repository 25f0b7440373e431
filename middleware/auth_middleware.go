package middleware

import (
	"strings"

	"github.com/appcontrol-api/apperrors"
	"github.com/appcontrol-api/authz"
	"github.com/appcontrol-api/models"
	"github.com/gin-gonic/gin"
)

// Context keys set by Authorize
const (
	ContextUserID    = "userId"
	ContextRole      = "role"
	ContextUser      = "user"
	ContextPrincipal = "principal"
	ContextScope     = "scope"
)

// Authenticator resolves a bearer token to the current user
type Authenticator interface {
	Authenticate(token string) (*models.User, error)
}

// bearerToken extracts the token of an "Authorization: Bearer" header
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Authorize authenticates the caller when any of accesses needs it and
// requires every access to allow the caller. The resulting scope is stored
// in the context for the handler.
func Authorize(auth Authenticator, accesses ...authz.Access) gin.HandlerFunc {
	needsAuth := false
	for _, access := range accesses {
		if access.RequiresAuthentication() {
			needsAuth = true
		}
	}

	return func(c *gin.Context) {
		var principal *authz.Principal
		if needsAuth {
			user, err := auth.Authenticate(bearerToken(c))
			if err != nil {
				Error(c, err)
				return
			}
			principal = &authz.Principal{UserID: user.ID, Role: user.Role}

			c.Set(ContextUserID, user.ID)
			c.Set(ContextRole, string(user.Role))
			c.Set(ContextUser, user)
			c.Set(ContextPrincipal, *principal)
		}

		for _, access := range accesses {
			if !access.Allows(principal) {
				Error(c, apperrors.Forbidden("Access denied. Insufficient permissions"))
				return
			}
		}

		if principal != nil {
			c.Set(ContextScope, authz.NewScope(*principal, accesses...))
		}
		c.Next()
	}
}

// GetScope returns the scope Authorize stored for the request
func GetScope(c *gin.Context) authz.Scope {
	if value, ok := c.Get(ContextScope); ok {
		if scope, ok := value.(authz.Scope); ok {
			return scope
		}
	}
	return authz.Scope{}
}

// GetUser returns the authenticated user, or nil on public routes
func GetUser(c *gin.Context) *models.User {
	if value, ok := c.Get(ContextUser); ok {
		if user, ok := value.(*models.User); ok {
			return user
		}
	}
	return nil
}

// GetUserID returns the authenticated user id, or "" on public routes
func GetUserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}
