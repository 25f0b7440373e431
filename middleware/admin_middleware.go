package middleware

import (
	"github.com/appcontrol-api/authz"
	"github.com/appcontrol-api/models"
	"github.com/gin-gonic/gin"
)

// AdminMiddleware ensures the caller is an active admin. Extra accesses
// are evaluated alongside the role check.
func AdminMiddleware(auth Authenticator, accesses ...authz.Access) gin.HandlerFunc {
	return Authorize(auth, append([]authz.Access{authz.RoleIn(models.RoleAdmin)}, accesses...)...)
}

// EditorMiddleware ensures the caller may author recipes
func EditorMiddleware(auth Authenticator, accesses ...authz.Access) gin.HandlerFunc {
	return Authorize(auth, append([]authz.Access{authz.RoleIn(models.RoleEditor, models.RoleAdmin)}, accesses...)...)
}
