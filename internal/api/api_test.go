package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/annel0/soundsteps/internal/auth"
	"github.com/annel0/soundsteps/internal/progress"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *RestServer {
	t.Helper()

	// Свежий регистр для изоляции тестов
	prometheus.DefaultRegisterer = prometheus.NewRegistry()
	gin.SetMode(gin.TestMode)

	dataDir := t.TempDir()
	writeFile(t, filepath.Join(dataDir, "soundout.json"),
		`[{"id": 1, "word": "cat"}, {"id": 2, "word": "dog"}]`)
	writeFile(t, filepath.Join(dataDir, "flashcards.json"),
		`[{"id": 1, "letter": "A", "sound": "/a/"}]`)

	repo := auth.NewMemoryUserRepo()
	svc := auth.NewService(repo, time.Hour)
	store := progress.NewFileStore(filepath.Join(t.TempDir(), "progress.json"))

	return NewRestServer(Config{
		Port:        ":0",
		AuthService: svc,
		UserRepo:    repo,
		Progress:    store,
		DataDir:     dataDir,
		AudioDir:    t.TempDir(),
		EnableCORS:  true,
	})
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
}

func doJSON(rs *RestServer, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	rs.Router().ServeHTTP(w, req)
	return w
}

func decodeToken(t *testing.T, w *httptest.ResponseRecorder) TokenResponse {
	t.Helper()
	var resp TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRegisterAndLoginFlow(t *testing.T) {
	rs := newTestServer(t)

	// Регистрация
	w := doJSON(rs, "POST", "/api/auth/register", "", gin.H{
		"username": "alice",
		"email":    "a@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decodeToken(t, w)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, "alice", resp.User.Username)
	assert.False(t, resp.User.IsGuest)

	// Повторная регистрация с тем же email — 400
	w = doJSON(rs, "POST", "/api/auth/register", "", gin.H{
		"username": "alice2",
		"email":    "a@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Вход по username
	w = doJSON(rs, "POST", "/api/auth/login", "", gin.H{
		"email_or_username": "alice",
		"password":          "password123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, decodeToken(t, w).AccessToken)

	// Неверный пароль — 401
	w = doJSON(rs, "POST", "/api/auth/login", "", gin.H{
		"email_or_username": "alice",
		"password":          "wrongpassword",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterValidation(t *testing.T) {
	rs := newTestServer(t)

	cases := []struct {
		name string
		body gin.H
	}{
		{"Short Username", gin.H{"username": "ab", "email": "a@example.com", "password": "password123"}},
		{"Short Password", gin.H{"username": "alice", "email": "a@example.com", "password": "short"}},
		{"Bad Email", gin.H{"username": "alice", "email": "not-an-email", "password": "password123"}},
		{"Missing Fields", gin.H{"username": "alice"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(rs, "POST", "/api/auth/register", "", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestGuestFlow(t *testing.T) {
	rs := newTestServer(t)

	w := doJSON(rs, "POST", "/api/auth/guest", "", gin.H{"name": "Тестовый гость"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decodeToken(t, w)
	assert.Equal(t, "guest_00001", resp.User.ID)
	assert.Equal(t, "Тестовый гость", resp.User.Username)
	assert.True(t, resp.User.IsGuest)

	// Второй гость получает следующий номер
	w = doJSON(rs, "POST", "/api/auth/guest", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "guest_00002", decodeToken(t, w).User.ID)

	// Гость не может обновлять счётчики аккаунта — 403
	w = doJSON(rs, "PUT", "/api/user/progress", resp.AccessToken, gin.H{"games_completed": 1})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestProgressFlow(t *testing.T) {
	rs := newTestServer(t)

	w := doJSON(rs, "POST", "/api/auth/register", "", gin.H{
		"username": "alice",
		"email":    "a@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeToken(t, w)
	userID := resp.User.ID
	token := resp.AccessToken

	// Без токена — 401
	w = doJSON(rs, "GET", "/api/progress/"+userID, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Свежий пользователь — пустая запись
	w = doJSON(rs, "GET", "/api/progress/"+userID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rec progress.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Empty(t, rec.Sessions)
	assert.Empty(t, rec.Mastery)

	// Записываем сессию с mastery_delta
	w = doJSON(rs, "POST", "/api/progress/"+userID, token, gin.H{
		"game":          "flashcards",
		"score":         8,
		"total":         10,
		"mastery_delta": gin.H{"short_a": 0.9, "overflow": 1.5},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Читаем обратно
	w = doJSON(rs, "GET", "/api/progress/"+userID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	require.Len(t, rec.Sessions, 1)
	assert.Equal(t, "flashcards", rec.Sessions[0].Game)
	assert.Equal(t, 0.9, rec.Mastery["short_a"])
	assert.Equal(t, 1.0, rec.Mastery["overflow"])

	// Сессия без обязательного game — 400
	w = doJSON(rs, "POST", "/api/progress/"+userID, token, gin.H{"score": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Зарегистрированный пользователь обновляет встроенные счётчики
	w = doJSON(rs, "PUT", "/api/user/progress", token, gin.H{"games_completed": 2})
	require.Equal(t, http.StatusOK, w.Code)
	var generic GenericResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &generic))
	assert.True(t, generic.Success)
}

func TestMeEndpoint(t *testing.T) {
	rs := newTestServer(t)

	// Аноним
	w := doJSON(rs, "GET", "/api/auth/me", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var anon map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &anon))
	assert.Equal(t, false, anon["authenticated"])

	// Авторизованный
	reg := doJSON(rs, "POST", "/api/auth/register", "", gin.H{
		"username": "alice",
		"email":    "a@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, reg.Code)
	token := decodeToken(t, reg).AccessToken

	w = doJSON(rs, "GET", "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, true, me["authenticated"])

	// Мусорный токен с optional auth — всё ещё аноним, не 401
	w = doJSON(rs, "GET", "/api/auth/me", "garbage", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &anon))
	assert.Equal(t, false, anon["authenticated"])
}

func TestContentEndpoints(t *testing.T) {
	rs := newTestServer(t)

	t.Run("List", func(t *testing.T) {
		w := doJSON(rs, "GET", "/api/phonics/sound-out", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, float64(2), resp["total"])
		assert.Len(t, resp["words"], 2)
	})

	t.Run("Get Item", func(t *testing.T) {
		w := doJSON(rs, "GET", "/api/phonics/sound-out/2", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var item map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))
		assert.Equal(t, "dog", item["word"])
	})

	t.Run("Missing Item", func(t *testing.T) {
		w := doJSON(rs, "GET", "/api/phonics/sound-out/99", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Invalid Id", func(t *testing.T) {
		w := doJSON(rs, "GET", "/api/phonics/sound-out/abc", "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Missing Data File", func(t *testing.T) {
		// games.json не создан в тестовом каталоге
		w := doJSON(rs, "GET", "/api/phonics/games", "", nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("Letters", func(t *testing.T) {
		w := doJSON(rs, "GET", "/api/phonics/letters", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var letters []map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &letters))
		assert.Len(t, letters, 26)
	})

	t.Run("Letter Audio Missing", func(t *testing.T) {
		w := doJSON(rs, "GET", "/api/phonics/letters/a/audio", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Letter Audio Invalid", func(t *testing.T) {
		w := doJSON(rs, "GET", "/api/phonics/letters/ab/audio", "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Achievements Degrade", func(t *testing.T) {
		// Файла нет — отдаются значения по умолчанию, не ошибка
		w := doJSON(rs, "GET", "/api/achievements", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var cfg map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cfg))
		assert.Equal(t, float64(500), cfg["xpPerLevel"])
	})
}

func TestHealthAndStats(t *testing.T) {
	rs := newTestServer(t)

	w := doJSON(rs, "GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Статистика требует токен
	w = doJSON(rs, "GET", "/api/stats", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	reg := doJSON(rs, "POST", "/api/auth/guest", "", nil)
	require.Equal(t, http.StatusOK, reg.Code)
	token := decodeToken(t, reg).AccessToken

	w = doJSON(rs, "GET", "/api/stats", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp GenericResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	server, ok := data["server"].(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, server["uptime"])
	assert.NotEmpty(t, server["memory_mb"])
	assert.Greater(t, server["goroutines"], float64(0))

	// Memory-бекенд не поддерживает статистику аккаунтов
	_, hasUsers := data["users"]
	assert.False(t, hasUsers)
}

func TestServerMetricsSnapshot(t *testing.T) {
	sm := NewServerMetrics()

	snap := sm.Snapshot()
	assert.NotEmpty(t, snap["uptime"])
	assert.NotEmpty(t, snap["memory_mb"])
	assert.NotEmpty(t, snap["heap_sys_mb"])
	assert.Greater(t, snap["goroutines"].(int), 0)
	assert.NotZero(t, snap["server_time"])
}
