package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"psy-assess/internal/service"
)

const runClaimsKey = "run_claims"

// RunTokenMiddleware valida el token de la corrida y exige que su run_id
// coincida con el :id de la ruta.
func RunTokenMiddleware(tokens *service.RunTokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokens == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "run tokens not configured"})
			c.Abort()
			return
		}

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		token := strings.TrimSpace(header[len("Bearer "):])
		claims, err := tokens.Parse(token)
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, service.ErrTokenExpired) {
				msg = "token expired"
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": msg})
			c.Abort()
			return
		}
		if claims.RunID != c.Param("id") {
			c.JSON(http.StatusForbidden, gin.H{"error": "token does not match run"})
			c.Abort()
			return
		}

		c.Set(runClaimsKey, claims)
		c.Next()
	}
}

// GetRunClaims obtiene los claims del token de corrida desde el contexto.
func GetRunClaims(c *gin.Context) (service.RunClaims, bool) {
	val, ok := c.Get(runClaimsKey)
	if !ok {
		return service.RunClaims{}, false
	}
	claims, ok := val.(service.RunClaims)
	return claims, ok
}
