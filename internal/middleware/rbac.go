package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bufordeeds/service-dog-standards/internal/access"
	"github.com/bufordeeds/service-dog-standards/internal/models"
	appErrors "github.com/bufordeeds/service-dog-standards/pkg/errors"
	"github.com/bufordeeds/service-dog-standards/pkg/response"
)

// RequireRoles admits requests whose identity matches the allow-list
// exactly. An empty list admits any authenticated identity. Denials name
// both the required roles and the actual one.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := access.CheckAccess(CurrentSession(c), roles)
		switch decision.Outcome {
		case access.Allowed:
			c.Next()
		case access.Denied:
			if _, ok := CurrentClaims(c); !ok {
				response.Error(c, appErrors.ErrUnauthorized)
			} else {
				response.Error(c, forbiddenError(decision))
			}
			c.Abort()
		default:
			// Identity resolution never yields Loading on the server side;
			// treat it as a deny if it somehow does.
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
		}
	}
}

// RequireRolesOrSelf behaves like RequireRoles but additionally admits the
// authenticated user when the :id route parameter is their own ID.
func RequireRolesOrSelf(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := CurrentClaims(c)
		if ok && c.Param("id") == claims.UserID {
			c.Next()
			return
		}

		decision := access.CheckAccess(CurrentSession(c), roles)
		if decision.Outcome == access.Allowed {
			c.Next()
			return
		}

		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
		} else {
			response.Error(c, forbiddenError(decision))
		}
		c.Abort()
	}
}

func forbiddenError(decision access.Decision) *appErrors.Error {
	names := make([]string, len(decision.RequiredRoles))
	for i, role := range decision.RequiredRoles {
		names[i] = string(role)
	}
	message := fmt.Sprintf("requires one of [%s], have %s", strings.Join(names, ", "), decision.ActualRole)
	return appErrors.Clone(appErrors.ErrForbidden, message)
}
