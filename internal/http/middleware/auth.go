// README: Firebase ID-token auth middleware and caller accessors.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/envelope"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/infra"
)

const (
	ctxKeyUID      = "auth.uid"
	ctxKeyRole     = "auth.role"
	ctxKeyVendorID = "auth.vendor_id"
)

// Auth rejects requests without a valid "Authorization: Bearer <id token>".
func Auth(verifier infra.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := verify(c, verifier)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, envelope.Fail("unauthorized"))
			return
		}
		setCaller(c, token)
		c.Next()
	}
}

// OptionalAuth identifies the caller when a valid token is present and
// lets anonymous requests through.
func OptionalAuth(verifier infra.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := verify(c, verifier); ok {
			setCaller(c, token)
		}
		c.Next()
	}
}

// RequireRole must run after Auth.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := CallerRole(c)
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, envelope.Fail("forbidden"))
	}
}

func CallerUID(c *gin.Context) string {
	return c.GetString(ctxKeyUID)
}

func CallerRole(c *gin.Context) string {
	return c.GetString(ctxKeyRole)
}

// CallerVendorID is only meaningful for vendor-role callers.
func CallerVendorID(c *gin.Context) string {
	return c.GetString(ctxKeyVendorID)
}

func verify(c *gin.Context, verifier infra.TokenVerifier) (*infra.IDToken, bool) {
	if verifier == nil {
		return nil, false
	}
	header := c.GetHeader("Authorization")
	raw, found := strings.CutPrefix(header, "Bearer ")
	raw = strings.TrimSpace(raw)
	if !found || raw == "" {
		return nil, false
	}
	token, err := verifier.VerifyIDToken(c.Request.Context(), raw)
	if err != nil || token == nil || token.UID == "" {
		return nil, false
	}
	return token, true
}

func setCaller(c *gin.Context, token *infra.IDToken) {
	c.Set(ctxKeyUID, token.UID)
	c.Set(ctxKeyRole, token.Role())
	if token.Role() == infra.RoleVendor {
		c.Set(ctxKeyVendorID, token.VendorID())
	}
}
