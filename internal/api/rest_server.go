package api

import (
	"net/http"
	"time"

	"github.com/annel0/soundsteps/internal/auth"
	"github.com/annel0/soundsteps/internal/content"
	"github.com/annel0/soundsteps/internal/middleware"
	"github.com/annel0/soundsteps/internal/progress"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// RestServer представляет REST API сервер
type RestServer struct {
	router   *gin.Engine
	authSvc  *auth.Service
	userRepo auth.UserRepository
	progress progress.Store
	port     string
	metrics  *ServerMetrics
	audioDir string
	dataDir  string
	sources  map[string]*content.Source
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port        string              // порт для запуска сервера, например ":8000"
	AuthService *auth.Service       // сервис идентификации
	UserRepo    auth.UserRepository // репозиторий пользователей (для статистики)
	Progress    progress.Store      // хранилище прогресса
	DataDir     string              // каталог со статическими JSON-файлами контента
	AudioDir    string              // каталог с аудио-файлами
	EnableCORS  bool                // разрешить cross-origin запросы фронтенда
	DebugLog    bool                // gin.DebugMode вместо ReleaseMode
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Port == "" {
		config.Port = ":8000"
	}
	if config.DataDir == "" {
		config.DataDir = "data"
	}
	if config.AudioDir == "" {
		config.AudioDir = "static/audio"
	}

	if config.DebugLog {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	loggerMw := middleware.NewRequestLogger()
	router.Use(loggerMw.Handler())

	otelRouter := otelgin.Middleware("soundsteps")
	router.Use(otelRouter)

	promMw := middleware.NewPrometheusMiddleware("soundsteps")
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router)

	server := &RestServer{
		router:   router,
		authSvc:  config.AuthService,
		userRepo: config.UserRepo,
		progress: config.Progress,
		port:     config.Port,
		metrics:  NewServerMetrics(),
		audioDir: config.AudioDir,
		dataDir:  config.DataDir,
		sources:  contentSources(config.DataDir),
	}

	server.setupRoutes(config.EnableCORS)

	return server
}

// contentSources описывает файловые источники контента и ключи,
// под которыми их списки отдаются клиенту.
func contentSources(dataDir string) map[string]*content.Source {
	return map[string]*content.Source{
		"flashcards":     content.NewSource("flashcards", dataDir+"/flashcards.json", "cards"),
		"sound-out":      content.NewSource("sound-out", dataDir+"/soundout.json", "words"),
		"mouth-moves":    content.NewSource("mouth-moves", dataDir+"/mouth_moves.json", "exercises"),
		"homophone-quiz": content.NewSource("homophone-quiz", dataDir+"/homophone_quiz.json", "questions"),
		"games":          content.NewSource("games", dataDir+"/games.json", "games"),
	}
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes(enableCORS bool) {
	if enableCORS {
		rs.router.Use(func(c *gin.Context) {
			c.Header("Access-Control-Allow-Origin", "*")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

			if c.Request.Method == "OPTIONS" {
				c.AbortWithStatus(204)
				return
			}

			c.Next()
		})
	}

	// Аудио-файлы букв отдаются как статика
	rs.router.Static("/static/audio", rs.audioDir)

	api := rs.router.Group("/api")

	// Эндпоинты аутентификации (без JWT защиты)
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", rs.handleRegister)
		authGroup.POST("/login", rs.handleLogin)
		authGroup.POST("/guest", rs.handleGuest)
		authGroup.POST("/logout", rs.handleLogout)
		authGroup.GET("/me", rs.optionalAuthMiddleware(), rs.handleMe)
	}

	// Прогресс (требует JWT)
	progressGroup := api.Group("/progress")
	progressGroup.Use(rs.authMiddleware())
	{
		progressGroup.GET("/:user_id", rs.handleGetProgress)
		progressGroup.POST("/:user_id", rs.handleRecordSession)
	}

	// Встроенные legacy-счётчики на записи пользователя.
	// Только для зарегистрированных: гостевой прогресс не переживает сессию.
	userGroup := api.Group("/user")
	userGroup.Use(rs.authMiddleware(), rs.registeredOnlyMiddleware())
	{
		userGroup.PUT("/progress", rs.handleUpdateUserProgress)
	}

	// Контент (открытый)
	phonics := api.Group("/phonics")
	{
		phonics.GET("/flashcards", rs.listHandler("flashcards"))
		phonics.GET("/flashcards/:id", rs.itemHandler("flashcards"))
		phonics.GET("/sound-out", rs.listHandler("sound-out"))
		phonics.GET("/sound-out/:id", rs.itemHandler("sound-out"))
		phonics.GET("/mouth-moves", rs.listHandler("mouth-moves"))
		phonics.GET("/mouth-moves/:id", rs.itemHandler("mouth-moves"))
		phonics.GET("/homophone-quiz", rs.listHandler("homophone-quiz"))
		phonics.GET("/homophone-quiz/:id", rs.itemHandler("homophone-quiz"))
		phonics.GET("/games", rs.listHandler("games"))
		phonics.GET("/letters", rs.handleLetters)
		phonics.GET("/letters/:letter/audio", rs.handleLetterAudio)
	}

	api.GET("/achievements", rs.handleAchievements)

	// Статистика сервера (требует JWT)
	api.GET("/stats", rs.authMiddleware(), rs.handleStats)

	// Health check
	rs.router.GET("/health", rs.handleHealth)
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// handleStats возвращает статистику сервера
func (rs *RestServer) handleStats(c *gin.Context) {
	stats := map[string]interface{}{
		"server": rs.metrics.Snapshot(),
	}

	// Статистика пользователей (если бекенд её поддерживает)
	if users, ok := userStats(rs.userRepo); ok {
		stats["users"] = users
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Статистика получена",
		Data:    stats,
	})
}

// handleHealth проверка состояния сервера
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

// Router возвращает gin.Engine (для httptest и встраивания)
func (rs *RestServer) Router() *gin.Engine {
	return rs.router
}

// Start запускает REST сервер
func (rs *RestServer) Start() error {
	return rs.router.Run(rs.port)
}
