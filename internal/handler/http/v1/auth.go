package v1

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/trafficwatch/incident_geo_system/internal/config"
)

const (
	ctxUserID = "auth_user_id"
	ctxRole   = "auth_role"

	// RoleAdmin дает право изменять чужие инциденты и читать статистику
	RoleAdmin = "admin"
)

// IdentityMiddleware - middleware аутентификации по статической таблице токенов.
// Токен принимается из X-API-Key или Authorization: Bearer и
// разрешается в пользователя и роль
func IdentityMiddleware(cfg *config.Config, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("X-API-Key")
		if token == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
				token = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if token == "" {
			log.Warn("API token missing from request")
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "API token required"})
			return
		}

		for _, entry := range cfg.APITokens {
			if entry.Token == token {
				c.Set(ctxUserID, entry.UserID)
				c.Set(ctxRole, entry.Role)
				c.Next()
				return
			}
		}

		log.Warn("Invalid API token provided")
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid API token"})
	}
}

// RequireAdmin пропускает только привилегированных вызывающих
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !callerPrivileged(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Error: "access denied"})
			return
		}
		c.Next()
	}
}

// callerID возвращает идентификатор аутентифицированного вызывающего
func callerID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

// callerPrivileged сообщает, имеет ли вызывающий административную роль
func callerPrivileged(c *gin.Context) bool {
	return c.GetString(ctxRole) == RoleAdmin
}
