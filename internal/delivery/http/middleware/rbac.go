package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kei-Shiro/road/internal/domain/entity"
)

// RoleMiddleware vérifie que l'utilisateur a l'un des rôles autorisés.
// Hiérarchie des rôles : ADMIN > MANAGER > USER > VISITOR
func RoleMiddleware(allowedRoles ...entity.UserRole) gin.HandlerFunc {
	roleSet := make(map[entity.UserRole]bool)
	for _, r := range allowedRoles {
		roleSet[r] = true
	}

	return func(c *gin.Context) {
		actor := ActorFromContext(c)
		if actor.Role == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "rôle non trouvé dans le contexte"})
			c.Abort()
			return
		}

		// L'admin a accès à tout
		if actor.Role == entity.RoleAdmin {
			c.Next()
			return
		}

		if !roleSet[actor.Role] {
			c.JSON(http.StatusForbidden, gin.H{
				"error":         "permissions insuffisantes",
				"required_role": allowedRoles,
				"current_role":  actor.Role,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// AdminOnly autorise uniquement les administrateurs
func AdminOnly() gin.HandlerFunc {
	return RoleMiddleware(entity.RoleAdmin)
}

// ManagerAndAbove autorise les gestionnaires et au-dessus
func ManagerAndAbove() gin.HandlerFunc {
	return RoleMiddleware(entity.RoleAdmin, entity.RoleManager)
}

// UserAndAbove autorise les agents terrain et au-dessus
func UserAndAbove() gin.HandlerFunc {
	return RoleMiddleware(entity.RoleAdmin, entity.RoleManager, entity.RoleUser)
}
