package api

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"

	"Athena/internal/knowledge_service/store"
	"Athena/internal/models"
)

// Context keys set by the auth middleware.
const (
	ContextTenantID   = "tenantID"
	ContextTenantName = "tenantName"
)

// AuthMiddleware resolves the calling tenant. Two credential forms are
// accepted: an X-API-Key header, matched by SHA-256 hash against the tenants
// table, or an Authorization Bearer JWT whose "sub" claim is the tenant id.
// Unknown credentials get 401, a disabled tenant gets 403.
func AuthMiddleware(st *store.Store, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tenant *models.Tenant

		if apiKey := c.GetHeader("X-API-Key"); apiKey != "" {
			hash := sha256.Sum256([]byte(apiKey))
			t, err := st.GetTenantByAPIKeyHash(c.Request.Context(), hex.EncodeToString(hash[:]))
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant lookup failed"})
				c.Abort()
				return
			}
			tenant = t
		} else if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "malformed authorization header"})
				c.Abort()
				return
			}

			token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.New("unexpected signing method")
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				c.Abort()
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token claims"})
				c.Abort()
				return
			}
			tenantID, ok := claims["sub"].(string)
			if !ok {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token claims"})
				c.Abort()
				return
			}
			t, err := st.GetTenant(c.Request.Context(), tenantID)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant lookup failed"})
				c.Abort()
				return
			}
			tenant = t
		}

		if tenant == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid credentials"})
			c.Abort()
			return
		}
		if !tenant.IsActive {
			c.JSON(http.StatusForbidden, gin.H{"error": "tenant is disabled"})
			c.Abort()
			return
		}

		c.Set(ContextTenantID, tenant.ID)
		c.Set(ContextTenantName, tenant.Name)
		c.Next()
	}
}
