package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/annel0/soundsteps/internal/auth"
	"github.com/annel0/soundsteps/internal/config"
	"github.com/annel0/soundsteps/internal/eventbus"
	"github.com/annel0/soundsteps/internal/logging"
	"github.com/annel0/soundsteps/internal/progress"
)

// ServerIntegration собирает сервер из конфигурации: выбирает бекенды
// хранилищ, поднимает шину событий и управляет graceful shutdown.
type ServerIntegration struct {
	restServer *RestServer
	userRepo   auth.UserRepository
	progStore  progress.Store
	bus        eventbus.EventBus
	busMetrics *eventbus.MetricsExporter
	httpServer *http.Server
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewServerIntegration создает сервер по конфигурации.
// nil эквивалентен пустой конфигурации (все значения по умолчанию).
func NewServerIntegration(cfg *config.Config) (*ServerIntegration, error) {
	if cfg == nil {
		cfg = &config.Config{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	// JWT секрет из конфигурации (иначе случайный per-process)
	if secret := cfg.Auth.GetJWTSecret(); secret != "" {
		if err := auth.SetJWTSecret(secret); err != nil {
			cancel()
			return nil, fmt.Errorf("некорректный JWT секрет: %w", err)
		}
	}

	userRepo, err := buildUserRepo(cfg)
	if err != nil {
		cancel()
		return nil, err
	}

	progStore, err := buildProgressStore(cfg)
	if err != nil {
		cancel()
		closeIfCloser(userRepo)
		return nil, err
	}

	bus, busMetrics := buildEventBus(cfg)

	authSvc := auth.NewService(userRepo, time.Duration(cfg.Auth.GetTokenTTLHours())*time.Hour)

	restServer := NewRestServer(Config{
		Port:        fmt.Sprintf(":%d", cfg.Server.GetRESTPort()),
		AuthService: authSvc,
		UserRepo:    userRepo,
		Progress:    progStore,
		DataDir:     cfg.Content.GetDataDir(),
		AudioDir:    cfg.Content.GetAudioDir(),
		EnableCORS:  cfg.Server.EnableCORS,
		DebugLog:    cfg.Server.GinDebugLog,
	})

	return &ServerIntegration{
		restServer: restServer,
		userRepo:   userRepo,
		progStore:  progStore,
		bus:        bus,
		busMetrics: busMetrics,
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

// buildUserRepo выбирает бекенд репозитория пользователей.
func buildUserRepo(cfg *config.Config) (auth.UserRepository, error) {
	switch cfg.Auth.Backend {
	case "memory":
		logging.Warn("⚠️  Используется in-memory репозиторий пользователей")
		return auth.NewMemoryUserRepo(), nil
	case "mongo":
		repo, err := auth.NewMongoUserRepo(auth.MongoConfig{
			URI:        cfg.Auth.Mongo.URI,
			Database:   cfg.Auth.Mongo.Database,
			Collection: cfg.Auth.Mongo.Collection,
			Counters:   cfg.Auth.Mongo.Counters,
		})
		if err != nil {
			return nil, fmt.Errorf("не удалось подключиться к MongoDB: %w", err)
		}
		logging.Info("✅ MongoDB подключена успешно")
		return repo, nil
	case "maria":
		repo, err := auth.NewMariaUserRepo(auth.MariaConfig{
			Host:     cfg.Auth.Maria.Host,
			Port:     cfg.Auth.Maria.Port,
			Database: cfg.Auth.Maria.Database,
			Username: cfg.Auth.Maria.Username,
			Password: cfg.Auth.Maria.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("не удалось подключиться к MariaDB: %w", err)
		}
		logging.Info("✅ MariaDB подключена успешно")
		return repo, nil
	default: // file
		logging.Info("📁 Файловый репозиторий пользователей: %s", cfg.Auth.GetUsersFile())
		return auth.NewFileUserRepo(cfg.Auth.GetUsersFile()), nil
	}
}

// buildProgressStore выбирает бекенд хранилища прогресса.
func buildProgressStore(cfg *config.Config) (progress.Store, error) {
	switch cfg.Progress.Backend {
	case "redis":
		store, err := progress.NewRedisStore(&progress.RedisConfig{
			Addr:      cfg.Progress.GetRedisAddr(),
			DB:        cfg.Progress.RedisDB,
			KeyPrefix: cfg.Progress.GetRedisKeyPrefix(),
		})
		if err != nil {
			return nil, fmt.Errorf("не удалось подключиться к Redis: %w", err)
		}
		return store, nil
	case "badger":
		store, err := progress.NewBadgerStore(cfg.Progress.GetBadgerDir())
		if err != nil {
			return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
		}
		logging.Info("🗄️  BadgerDB хранилище прогресса: %s", cfg.Progress.GetBadgerDir())
		return store, nil
	default: // file
		logging.Info("📁 Файловое хранилище прогресса: %s", cfg.Progress.GetProgressFile())
		return progress.NewFileStore(cfg.Progress.GetProgressFile()), nil
	}
}

// buildEventBus поднимает шину событий (NATS или in-memory) и экспорт метрик.
func buildEventBus(cfg *config.Config) (eventbus.EventBus, *eventbus.MetricsExporter) {
	var bus eventbus.EventBus

	if cfg.EventBus.Enabled && cfg.EventBus.URL != "" {
		retention := time.Duration(cfg.EventBus.GetRetentionHours()) * time.Hour
		jsBus, err := eventbus.NewJetStreamBus(cfg.EventBus.URL, cfg.EventBus.Stream, retention)
		if err != nil {
			// Шина — best-effort: недоступный NATS деградирует до in-memory
			logging.Warn("NATS недоступен (%v), используется in-memory шина", err)
			bus = eventbus.NewMemoryBus(1024)
		} else {
			logging.Info("📨 NATS JetStream подключен: %s", cfg.EventBus.URL)
			bus = jsBus
		}
	} else {
		bus = eventbus.NewMemoryBus(1024)
	}

	eventbus.Init(bus)
	if err := eventbus.StartLoggingListener(bus); err != nil {
		logging.Warn("Не удалось запустить LoggingListener: %v", err)
	}

	exporter := eventbus.NewMetricsExporter(bus)
	exporter.Start()

	return bus, exporter
}

// Start запускает REST API сервер в отдельной горутине.
func (si *ServerIntegration) Start() error {
	logging.Info("Запуск REST API сервера на порту %s", si.restServer.port)

	si.httpServer = &http.Server{
		Addr:    si.restServer.port,
		Handler: si.restServer.router,
	}

	go func() {
		if err := si.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("❌ Ошибка REST API сервера: %v", err)
		}
	}()

	logging.Info("✅ REST API сервер запущен на http://localhost%s", si.restServer.port)
	logging.Info("📋 Доступные эндпоинты:")
	logging.Info("   GET  /health                  - Проверка состояния")
	logging.Info("   POST /api/auth/register       - Регистрация")
	logging.Info("   POST /api/auth/login          - Вход")
	logging.Info("   POST /api/auth/guest          - Гостевая сессия")
	logging.Info("   GET  /api/progress/:user_id   - Прогресс (требует JWT)")
	logging.Info("   POST /api/progress/:user_id   - Запись сессии (требует JWT)")
	logging.Info("   PUT  /api/user/progress       - Счётчики аккаунта (только зарегистрированные)")
	logging.Info("   GET  /api/phonics/*           - Учебный контент")
	logging.Info("   GET  /api/achievements        - Конфигурация достижений")
	logging.Info("   GET  /api/stats               - Статистика сервера (требует JWT)")
	logging.Info("   GET  /metrics                 - Prometheus метрики")

	return nil
}

// Stop останавливает сервер и закрывает хранилища.
func (si *ServerIntegration) Stop() error {
	logging.Info("🛑 Остановка REST API сервера...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if si.httpServer != nil {
		if err := si.httpServer.Shutdown(ctx); err != nil {
			logging.Error("❌ Ошибка при остановке HTTP сервера: %v", err)
			return err
		}
	}

	if si.busMetrics != nil {
		si.busMetrics.Stop()
	}
	if jsBus, ok := si.bus.(*eventbus.JetStreamBus); ok {
		jsBus.Close()
	}

	closeIfCloser(si.userRepo)
	closeIfCloser(si.progStore)

	si.cancel()

	logging.Info("✅ REST API сервер остановлен")
	return nil
}

// GetRestServer возвращает REST сервер (для дополнительной настройки и тестов)
func (si *ServerIntegration) GetRestServer() *RestServer {
	return si.restServer
}

// IsHealthy проверяет состояние интеграции.
func (si *ServerIntegration) IsHealthy() bool {
	select {
	case <-si.ctx.Done():
		return false
	default:
	}

	if statsRepo, ok := si.userRepo.(interface {
		GetUserStats() (map[string]interface{}, error)
	}); ok {
		_, err := statsRepo.GetUserStats()
		return err == nil
	}

	return true
}

func closeIfCloser(v interface{}) {
	if closer, ok := v.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logging.Error("❌ Ошибка при закрытии ресурса: %v", err)
		}
	}
}
