package api

import (
	"net/http"

	"github.com/annel0/soundsteps/internal/eventbus"
	"github.com/annel0/soundsteps/internal/logging"
	"github.com/annel0/soundsteps/internal/progress"
	"github.com/gin-gonic/gin"
)

// RecordSessionRequest представляет запрос на запись игровой сессии
type RecordSessionRequest struct {
	Game         string                 `json:"game" binding:"required"`
	Score        float64                `json:"score"`
	Total        *float64               `json:"total,omitempty"`
	Details      map[string]interface{} `json:"details,omitempty"`
	MasteryDelta map[string]interface{} `json:"mastery_delta,omitempty"`
}

// handleGetProgress возвращает запись прогресса пользователя.
// Для пользователя без прогресса — пустая запись, не 404.
func (rs *RestServer) handleGetProgress(c *gin.Context) {
	userID := c.Param("user_id")

	rec, err := rs.progress.Get(userID)
	if err != nil {
		logging.Error("Ошибка чтения прогресса %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Ошибка чтения прогресса",
		})
		return
	}

	c.JSON(http.StatusOK, rec)
}

// handleRecordSession добавляет сессию в журнал и вливает mastery_delta.
func (rs *RestServer) handleRecordSession(c *gin.Context) {
	userID := c.Param("user_id")

	var req RecordSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверный формат запроса",
		})
		return
	}

	session := progress.Session{
		Game:    req.Game,
		Score:   req.Score,
		Total:   req.Total,
		Details: req.Details,
	}

	rec, err := rs.progress.RecordSession(userID, session, req.MasteryDelta)
	if err != nil {
		logging.Error("Ошибка записи прогресса %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Ошибка записи прогресса",
		})
		return
	}

	if err := eventbus.PublishSessionRecorded(c.Request.Context(), userID, req.Game, req.Score); err != nil {
		logging.Warn("Не удалось опубликовать session.recorded: %v", err)
	}

	c.JSON(http.StatusOK, rec)
}

// handleUpdateUserProgress обновляет встроенные счётчики на записи
// пользователя (flashcards_completed и т.п.). Identity берётся из токена.
func (rs *RestServer) handleUpdateUserProgress(c *gin.Context) {
	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверный формат запроса",
		})
		return
	}

	userID := c.GetString("user_id")
	user, err := rs.authSvc.UpdateProgress(userID, updates)
	if err != nil {
		logging.Error("Ошибка обновления прогресса пользователя %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Ошибка обновления прогресса",
		})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Прогресс обновлён",
		Data:    user.Public(),
	})
}
