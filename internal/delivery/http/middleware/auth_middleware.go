package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Kei-Shiro/road/internal/domain/entity"
	"github.com/Kei-Shiro/road/internal/domain/repository"
	"github.com/Kei-Shiro/road/internal/service"
)

const actorKey = "actor"

// AuthMiddleware valide le jeton Bearer et résout l'utilisateur local. L'acteur
// est posé dans le contexte Gin et passé explicitement aux services par les
// handlers.
func AuthMiddleware(authService service.AuthService, userRepo repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		actor := service.Actor{Email: claims.Subject, Role: claims.Role}
		if user, err := userRepo.GetByEmail(c.Request.Context(), claims.Subject); err == nil && user != nil {
			if !user.IsActive || user.IsLocked {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Account disabled or locked"})
				c.Abort()
				return
			}
			actor.ID = user.ID
			actor.Role = user.Role
		}

		c.Set(actorKey, actor)
		c.Set("role", string(actor.Role))
		c.Next()
	}
}

// ActorFromContext retourne l'acteur posé par AuthMiddleware, ou l'acteur zéro
// sur une route non authentifiée.
func ActorFromContext(c *gin.Context) service.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(service.Actor); ok {
			return actor
		}
	}
	return service.Actor{Role: entity.RoleVisitor}
}
