package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// bearerToken извлекает токен из заголовка Authorization ("Bearer <token>").
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

// authMiddleware проверяет JWT токен и резолвит его в актуальную запись
// пользователя. Отсутствующий, повреждённый или протухший токен — 401.
func (rs *RestServer) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, GenericResponse{
				Success: false,
				Message: "Could not validate credentials",
			})
			c.Abort()
			return
		}

		user, err := rs.authSvc.Resolve(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, GenericResponse{
				Success: false,
				Message: "Could not validate credentials",
			})
			c.Abort()
			return
		}

		// Сохраняем информацию о пользователе в контексте
		c.Set("user", user)
		c.Set("user_id", user.ID)
		c.Set("is_guest", user.IsGuest)

		c.Next()
	}
}

// registeredOnlyMiddleware пускает только зарегистрированных пользователей.
// Для гостей — 403. Ставится после authMiddleware.
func (rs *RestServer) registeredOnlyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		isGuest, exists := c.Get("is_guest")
		if !exists {
			c.JSON(http.StatusInternalServerError, GenericResponse{
				Success: false,
				Message: "Отсутствует информация о пользователе",
			})
			c.Abort()
			return
		}

		if isGuest.(bool) {
			c.JSON(http.StatusForbidden, GenericResponse{
				Success: false,
				Message: "This feature requires a registered account",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// optionalAuthMiddleware резолвит токен, если он есть, но не отклоняет
// анонимные запросы: обработчик сам решает, как вести себя без identity.
func (rs *RestServer) optionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if ok {
			if user, err := rs.authSvc.Resolve(token); err == nil {
				c.Set("user", user)
				c.Set("user_id", user.ID)
				c.Set("is_guest", user.IsGuest)
			}
		}
		c.Next()
	}
}
