package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/flicky/go-storefront-api/internal/auth"
	"github.com/flicky/go-storefront-api/internal/model"
)

const (
	ctxUser     = "user"
	ctxUserID   = "userID"
	ctxUserRole = "userRole"
)

// UserLookup resolves the account behind a verified token.
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// Authenticate verifies the bearer token and attaches the stored user.
// The role used downstream is the stored one, not the token claim.
func Authenticate(tokens *auth.TokenManager, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		claims, err := tokens.Verify(strings.TrimSpace(raw))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		user, err := users.GetByID(c.Request.Context(), userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		if user == nil || claims.Version < user.TokenVersion {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(ctxUser, user)
		c.Set(ctxUserID, user.ID)
		c.Set(ctxUserRole, user.Role)
		c.Next()
	}
}

func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUserRole(c) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

func AdminOnly() gin.HandlerFunc {
	return RequireRole(model.RoleAdmin)
}

func GetUser(c *gin.Context) *model.User {
	v, _ := c.Get(ctxUser)
	u, _ := v.(*model.User)
	return u
}

func GetUserID(c *gin.Context) uuid.UUID {
	id, _ := c.Get(ctxUserID)
	uid, _ := id.(uuid.UUID)
	return uid
}

func GetUserRole(c *gin.Context) string {
	role, _ := c.Get(ctxUserRole)
	r, _ := role.(string)
	return r
}
