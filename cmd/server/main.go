package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/annel0/soundsteps/internal/api"
	"github.com/annel0/soundsteps/internal/config"
	"github.com/annel0/soundsteps/internal/logging"
	"github.com/annel0/soundsteps/internal/observability"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (или ENV SOUNDSTEPS_CONFIG)")
	flag.Parse()

	// Инициализируем систему логирования
	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	logging.Info("🔤 Запуск SoundSteps API с поддержкой JWT аутентификации...")

	// === КОНФИГУРАЦИЯ ===
	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Error("❌ Ошибка чтения конфигурации: %v", err)
		log.Fatalf("❌ Ошибка чтения конфигурации: %v", err)
	}
	if cfg == nil {
		logging.Info("⚙️  Конфигурация не задана, используются значения по умолчанию")
		cfg = &config.Config{}
	}

	// === TELEMETRY ===
	if cfg.Server.EnableOTLP {
		shutdownTelemetry, err := observability.InitTelemetry(context.Background(), "soundsteps-api")
		if err != nil {
			logging.Warn("OpenTelemetry недоступен: %v", err)
		} else {
			defer func() {
				if err := shutdownTelemetry(context.Background()); err != nil {
					logging.Error("Ошибка остановки телеметрии: %v", err)
				}
			}()
		}
	}

	// === REST API ===
	logging.Debug("Создание REST API интеграции...")
	integration, err := api.NewServerIntegration(cfg)
	if err != nil {
		logging.Error("❌ Ошибка создания REST API интеграции: %v", err)
		log.Fatalf("❌ Ошибка создания REST API интеграции: %v", err)
	}

	if err := integration.Start(); err != nil {
		logging.Error("❌ Ошибка запуска REST API: %v", err)
		log.Fatalf("❌ Ошибка запуска REST API: %v", err)
	}

	logging.Info("✅ Все сервисы запущены и готовы принимать соединения")
	logging.Info("   🔐 JWT аутентификация активирована")
	logging.Info("   ❤️  Health check: http://localhost:%d/health", cfg.Server.GetRESTPort())

	logging.Info("💡 Примеры использования REST API:")
	logging.Info("   curl http://localhost:%d/health", cfg.Server.GetRESTPort())
	logging.Info("   curl -X POST http://localhost:%d/api/auth/guest -H 'Content-Type: application/json' -d '{\"name\":\"Тестовый гость\"}'", cfg.Server.GetRESTPort())

	// Ждем сигнала для завершения
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logging.Info("📡 Получен сигнал %v, завершение работы...", sig)

	// === GRACEFUL SHUTDOWN ===
	if err := integration.Stop(); err != nil {
		logging.Error("❌ Ошибка при остановке: %v", err)
		os.Exit(1)
	}

	logging.Info("👋 SoundSteps API остановлен")
}
