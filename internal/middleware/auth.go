package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"

	"github.com/oncallhq/pager-api/pkg/auth"
)

// ContextWorkspaceID holds the authenticated workspace for the request.
const ContextWorkspaceID = "workspace_id"

// AuthMiddleware validates workspace bearer tokens. Parsed claims are cached
// briefly so hot API clients don't pay signature verification on every call;
// the TTL stays well under token lifetimes.
type AuthMiddleware struct {
	jwtService auth.JWTService
	claims     *gocache.Cache
}

func NewAuthMiddleware(jwtService auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		claims:     gocache.New(30*time.Second, time.Minute),
	}
}

// Authenticate verifies the bearer token and sets the workspace in context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			m.reject(c, "missing authorization header")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			m.reject(c, "invalid authorization format")
			return
		}
		token := parts[1]

		if cached, ok := m.claims.Get(token); ok {
			claims := cached.(*auth.Claims)
			c.Set(ContextWorkspaceID, claims.WorkspaceID)
			c.Next()
			return
		}

		claims, err := m.jwtService.ValidateToken(token)
		if err != nil {
			m.reject(c, "invalid token")
			return
		}

		m.claims.SetDefault(token, claims)
		c.Set(ContextWorkspaceID, claims.WorkspaceID)
		c.Next()
	}
}

func (m *AuthMiddleware) reject(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
		Code:    http.StatusUnauthorized,
		Message: message,
	})
}
