package authgate

import (
	"net/http"

	"github.com/dmitrijs2005/studentvault/internal/common"
	"github.com/gin-gonic/gin"
)

// IdentityKey is the gin context key holding the verified identity.
const IdentityKey = "identity"

// Middleware rejects requests without a valid bearer token before any later
// handler runs.
func (g *Gate) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		id, err := g.Authorize(ctx, c.GetHeader(common.AuthorizationHeaderName))
		if err != nil {
			g.reject(ctx, c.FullPath(), err)
			if common.IsSecretFailure(err) {
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Service Unavailable"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorised"})
			return
		}

		c.Request = c.Request.WithContext(WithIdentity(ctx, id))
		c.Set(IdentityKey, id)
		c.Next()
	}
}
