package progress

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/annel0/soundsteps/internal/logging"
)

// RedisStore хранит прогресс в Redis, по одному ключу на пользователя.
// Записи не имеют TTL: прогресс обучения не должен протухать.
type RedisStore struct {
	client    *redis.Client
	ctx       context.Context
	keyPrefix string
}

// RedisConfig содержит настройки подключения к Redis
type RedisConfig struct {
	Addr      string // Адрес Redis сервера
	Password  string // Пароль (пустой если не требуется)
	DB        int    // Номер базы данных
	KeyPrefix string // Префикс для ключей
}

// DefaultRedisConfig возвращает конфигурацию по умолчанию
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:      "localhost:6379",
		Password:  "",
		DB:        0,
		KeyPrefix: "soundsteps:progress:",
	}
}

// NewRedisStore создаёт Redis-хранилище прогресса
func NewRedisStore(config *RedisConfig) (*RedisStore, error) {
	if config == nil {
		config = DefaultRedisConfig()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	ctx := context.Background()

	// Проверяем подключение
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.Info("🔴 Подключились к Redis на %s", config.Addr)
	return &RedisStore{
		client:    client,
		ctx:       ctx,
		keyPrefix: config.KeyPrefix,
	}, nil
}

// Get возвращает запись пользователя (пустую, если ключа нет).
func (rs *RedisStore) Get(userID string) (*Record, error) {
	key := rs.keyPrefix + userID

	data, err := rs.client.Get(rs.ctx, key).Result()
	if err == redis.Nil {
		return NewRecord(userID), nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}

	var rec Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal progress: %w", err)
	}
	rec.UserID = userID
	return &rec, nil
}

// RecordSession читает запись, вливает обновления и пишет обратно.
// Read-modify-write без WATCH — та же модель согласованности, что
// у файлового хранилища.
func (rs *RedisStore) RecordSession(userID string, session Session, mastery map[string]interface{}) (*Record, error) {
	rec, err := rs.Get(userID)
	if err != nil {
		return nil, err
	}

	updateRecord(rec, session, mastery)

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal progress: %w", err)
	}

	key := rs.keyPrefix + userID
	if err := rs.client.Set(rs.ctx, key, data, 0).Err(); err != nil {
		return nil, fmt.Errorf("failed to save progress: %w", err)
	}
	return rec, nil
}

// Close закрывает соединение с Redis
func (rs *RedisStore) Close() error {
	return rs.client.Close()
}
