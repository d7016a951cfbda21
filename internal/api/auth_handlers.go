package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/annel0/soundsteps/internal/auth"
	"github.com/annel0/soundsteps/internal/eventbus"
	"github.com/annel0/soundsteps/internal/logging"
	"github.com/gin-gonic/gin"
)

// RegisterRequest представляет запрос на регистрацию
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest представляет запрос на вход
type LoginRequest struct {
	EmailOrUsername string `json:"email_or_username" binding:"required"`
	Password        string `json:"password" binding:"required"`
}

// GuestRequest представляет запрос на гостевую сессию
type GuestRequest struct {
	Name string `json:"name"`
}

// TokenResponse представляет ответ с токеном сессии
type TokenResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	User        auth.PublicUser `json:"user"`
}

func tokenResponse(token string, user *auth.User) TokenResponse {
	return TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user.Public(),
	}
}

// handleRegister обрабатывает регистрацию нового пользователя
func (rs *RestServer) handleRegister(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверный формат запроса",
		})
		return
	}

	if len(req.Username) < 3 || len(req.Username) > 20 {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Имя пользователя должно быть от 3 до 20 символов",
		})
		return
	}
	if len(req.Password) < 8 {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Пароль должен быть минимум 8 символов",
		})
		return
	}
	if !strings.Contains(req.Email, "@") {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Некорректный email",
		})
		return
	}

	user, err := rs.authSvc.Register(req.Username, req.Email, req.Password)
	if errors.Is(err, auth.ErrDuplicateIdentity) {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Username or email already exists",
		})
		return
	}
	if err != nil {
		logging.Error("Ошибка регистрации: %v", err)
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Внутренняя ошибка сервера",
		})
		return
	}

	token, err := rs.authSvc.IssueToken(user)
	if err != nil {
		logging.Error("Ошибка генерации токена: %v", err)
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Ошибка генерации токена",
		})
		return
	}

	// Best-effort: ошибка шины не роняет запрос
	if err := eventbus.PublishUserRegistered(c.Request.Context(), user.ID, user.Username); err != nil {
		logging.Warn("Не удалось опубликовать user.registered: %v", err)
	}

	c.JSON(http.StatusOK, tokenResponse(token, user))
}

// handleLogin обрабатывает запрос на вход
func (rs *RestServer) handleLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверный формат запроса",
		})
		return
	}

	user, err := rs.authSvc.Authenticate(req.EmailOrUsername, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		c.Header("WWW-Authenticate", "Bearer")
		c.JSON(http.StatusUnauthorized, GenericResponse{
			Success: false,
			Message: "Incorrect email/username or password",
		})
		return
	}
	if err != nil {
		logging.Error("Ошибка входа: %v", err)
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Внутренняя ошибка сервера",
		})
		return
	}

	token, err := rs.authSvc.IssueToken(user)
	if err != nil {
		logging.Error("Ошибка генерации токена: %v", err)
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Ошибка генерации токена",
		})
		return
	}

	c.JSON(http.StatusOK, tokenResponse(token, user))
}

// handleGuest создаёт гостевую сессию. Тело запроса опционально:
// пустое тело эквивалентно {"name": ""}.
func (rs *RestServer) handleGuest(c *gin.Context) {
	var req GuestRequest
	_ = c.ShouldBindJSON(&req)

	user, err := rs.authSvc.CreateGuest(req.Name)
	if err != nil {
		logging.Error("Ошибка создания гостя: %v", err)
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Внутренняя ошибка сервера",
		})
		return
	}

	token, err := rs.authSvc.IssueToken(user)
	if err != nil {
		logging.Error("Ошибка генерации токена: %v", err)
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Ошибка генерации токена",
		})
		return
	}

	if err := eventbus.PublishGuestCreated(c.Request.Context(), user.ID, user.Username); err != nil {
		logging.Warn("Не удалось опубликовать user.guest_created: %v", err)
	}

	c.JSON(http.StatusOK, tokenResponse(token, user))
}

// handleLogout подтверждает выход. Токены не отзываются:
// клиент просто забывает свой токен.
func (rs *RestServer) handleLogout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
		"action":  "Client should clear authentication token",
	})
}

// handleMe возвращает текущую identity или анонимный маркер.
func (rs *RestServer) handleMe(c *gin.Context) {
	userVal, ok := c.Get("user")
	if !ok {
		c.JSON(http.StatusOK, gin.H{
			"authenticated": false,
			"user":          nil,
		})
		return
	}

	user := userVal.(*auth.User)
	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"user":          user.Public(),
	})
}
