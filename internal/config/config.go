package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации приложения.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Auth     AuthConfig     `yaml:"auth"`
	Progress ProgressConfig `yaml:"progress"`
	Content  ContentConfig  `yaml:"content"`
	EventBus EventBusConfig `yaml:"eventbus"`
}

type ServerConfig struct {
	RESTPort    int  `yaml:"rest_port"`
	EnableOTLP  bool `yaml:"enable_otlp"`
	EnableCORS  bool `yaml:"enable_cors"`
	GinDebugLog bool `yaml:"gin_debug_log"`
}

// AuthConfig настройки хранилища учётных записей и токенов.
type AuthConfig struct {
	// Backend: file | memory | mongo | maria
	Backend   string `yaml:"backend"`
	UsersFile string `yaml:"users_file"`
	// JWTSecret — base64-кодированный ключ минимум 32 байта;
	// пустое значение означает случайный ключ на время процесса.
	JWTSecret     string      `yaml:"jwt_secret"`
	TokenTTLHours int         `yaml:"token_ttl_hours"`
	Mongo         MongoConfig `yaml:"mongo"`
	Maria         MariaConfig `yaml:"maria"`
}

type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
	Counters   string `yaml:"counters"`
}

type MariaConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// ProgressConfig настройки хранилища прогресса.
type ProgressConfig struct {
	// Backend: file | redis | badger
	Backend      string `yaml:"backend"`
	File         string `yaml:"file"`
	RedisAddr    string `yaml:"redis_addr"`
	RedisDB      int    `yaml:"redis_db"`
	RedisKeyPref string `yaml:"redis_key_prefix"`
	BadgerDir    string `yaml:"badger_dir"`
}

// ContentConfig пути к статическим данным контента.
type ContentConfig struct {
	DataDir  string `yaml:"data_dir"`
	AudioDir string `yaml:"audio_dir"`
}

type EventBusConfig struct {
	Enabled   bool   `yaml:"enabled"`
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
}

// GetRESTPort возвращает REST API порт с приоритетом: config -> env -> default.
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "SOUNDSTEPS_REST_PORT", 8000)
}

// GetUsersFile возвращает путь к файлу пользователей.
func (a *AuthConfig) GetUsersFile() string {
	return getStringWithEnvFallback(a.UsersFile, "SOUNDSTEPS_USERS_FILE", "data/users.json")
}

// GetJWTSecret возвращает секрет подписи токенов.
func (a *AuthConfig) GetJWTSecret() string {
	return getStringWithEnvFallback(a.JWTSecret, "SOUNDSTEPS_JWT_SECRET", "")
}

// GetTokenTTLHours возвращает срок жизни токена (по умолчанию 7 дней).
func (a *AuthConfig) GetTokenTTLHours() int {
	if a.TokenTTLHours > 0 {
		return a.TokenTTLHours
	}
	if envVal := os.Getenv("SOUNDSTEPS_TOKEN_TTL_HOURS"); envVal != "" {
		if h, err := strconv.Atoi(envVal); err == nil && h > 0 {
			return h
		}
	}
	return 24 * 7
}

// GetProgressFile возвращает путь к файлу прогресса.
func (p *ProgressConfig) GetProgressFile() string {
	return getStringWithEnvFallback(p.File, "SOUNDSTEPS_PROGRESS_FILE", "data/progress.json")
}

// GetRedisAddr возвращает адрес Redis.
func (p *ProgressConfig) GetRedisAddr() string {
	return getStringWithEnvFallback(p.RedisAddr, "SOUNDSTEPS_REDIS_ADDR", "localhost:6379")
}

// GetRedisKeyPrefix возвращает префикс ключей прогресса в Redis.
func (p *ProgressConfig) GetRedisKeyPrefix() string {
	return getStringWithEnvFallback(p.RedisKeyPref, "SOUNDSTEPS_REDIS_KEY_PREFIX", "soundsteps:progress:")
}

// GetBadgerDir возвращает каталог BadgerDB.
func (p *ProgressConfig) GetBadgerDir() string {
	return getStringWithEnvFallback(p.BadgerDir, "SOUNDSTEPS_BADGER_DIR", "data/badger")
}

// GetRetentionHours возвращает срок хранения событий в стриме (по умолчанию сутки).
func (e *EventBusConfig) GetRetentionHours() int {
	if e.Retention > 0 {
		return e.Retention
	}
	return 24
}

// GetDataDir возвращает каталог JSON-данных контента.
func (c *ContentConfig) GetDataDir() string {
	return getStringWithEnvFallback(c.DataDir, "SOUNDSTEPS_DATA_DIR", "data")
}

// GetAudioDir возвращает каталог аудио-файлов.
func (c *ContentConfig) GetAudioDir() string {
	return getStringWithEnvFallback(c.AudioDir, "SOUNDSTEPS_AUDIO_DIR", "static/audio")
}

func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}
	return defaultPort
}

func getStringWithEnvFallback(configVal string, envVar string, defaultVal string) string {
	if configVal != "" {
		return configVal
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		return envVal
	}
	return defaultVal
}

// Load читает YAML файл конфигурации.
// Если path == "", пытается прочитать из ENV SOUNDSTEPS_CONFIG
// или возвращает nil, nil (использовать дефолты).
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("SOUNDSTEPS_CONFIG")
		if path == "" {
			return nil, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
