package api

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/annel0/soundsteps/internal/content"
	"github.com/annel0/soundsteps/internal/logging"
	"github.com/gin-gonic/gin"
)

// listHandler отдаёт весь список источника, завёрнутый в его ключ.
func (rs *RestServer) listHandler(name string) gin.HandlerFunc {
	src := rs.sources[name]
	return func(c *gin.Context) {
		items, err := src.List()
		if err != nil {
			logging.Error("Ошибка чтения контента %s: %v", src.Name(), err)
			c.JSON(http.StatusInternalServerError, GenericResponse{
				Success: false,
				Message: err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			src.ListKey(): items,
			"total":       len(items),
		})
	}
}

// itemHandler отдаёт один элемент источника по числовому id.
func (rs *RestServer) itemHandler(name string) gin.HandlerFunc {
	src := rs.sources[name]
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, GenericResponse{
				Success: false,
				Message: "Неверный id",
			})
			return
		}

		item, err := src.Get(id)
		if errors.Is(err, content.ErrNotFound) {
			c.JSON(http.StatusNotFound, GenericResponse{
				Success: false,
				Message: err.Error(),
			})
			return
		}
		if err != nil {
			logging.Error("Ошибка чтения контента %s: %v", src.Name(), err)
			c.JSON(http.StatusInternalServerError, GenericResponse{
				Success: false,
				Message: err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, item)
	}
}

// handleLetters возвращает алфавит с URL аудио-файлов.
func (rs *RestServer) handleLetters(c *gin.Context) {
	c.JSON(http.StatusOK, content.Letters())
}

// handleLetterAudio отдаёт аудио-файл произношения буквы.
func (rs *RestServer) handleLetterAudio(c *gin.Context) {
	path, err := content.LetterAudioPath(rs.audioDir, c.Param("letter"))
	if errors.Is(err, content.ErrInvalidLetter) {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Invalid letter",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusNotFound, GenericResponse{
			Success: false,
			Message: "Audio not found for letter",
		})
		return
	}

	c.File(path)
}

// handleAchievements возвращает конфигурацию достижений.
// Эндпоинт не падает: при проблемах с файлом отдаются значения по умолчанию.
func (rs *RestServer) handleAchievements(c *gin.Context) {
	c.JSON(http.StatusOK, content.Achievements(filepath.Join(rs.dataDir, "achievements.json")))
}
