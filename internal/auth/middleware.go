package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const CtxClaimsKey = "auth_claims"

// AdminMiddleware admits a request carrying the admin secret in the
// `secret` query parameter or the X-Admin-Secret header, or an admin
// bearer token. Anything else gets 401.
func AdminMiddleware(secrets SecretVerifier, tokens TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s := c.Query("secret"); s != "" && secrets.Verify(s) {
			c.Next()
			return
		}
		if s := c.GetHeader("X-Admin-Secret"); s != "" && secrets.Verify(s) {
			c.Next()
			return
		}

		h := c.GetHeader("Authorization")
		if len(h) > len("bearer ") && strings.HasPrefix(strings.ToLower(h), "bearer ") {
			raw := strings.TrimSpace(h[len("Bearer "):])
			if claims, err := tokens.Parse(raw); err == nil {
				c.Set(CtxClaimsKey, claims)
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	}
}

func MustGetClaims(c *gin.Context) *Claims {
	v, ok := c.Get(CtxClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}
