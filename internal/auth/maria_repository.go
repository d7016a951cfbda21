package auth

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
)

// MariaConfig содержит настройки подключения к MariaDB
type MariaConfig struct {
	Host     string // например, localhost
	Port     int    // например, 3306
	Database string // например, soundsteps
	Username string // пользователь БД
	Password string // пароль БД
}

// MariaUserRepo реализует UserRepository для MariaDB.
// Встроенные progress-счётчики хранятся как JSON-текст.
type MariaUserRepo struct {
	db *sql.DB
}

// NewMariaUserRepo создает новое подключение к MariaDB и возвращает репозиторий
func NewMariaUserRepo(cfg MariaConfig) (*MariaUserRepo, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 3306
	}
	if cfg.Database == "" {
		cfg.Database = "soundsteps"
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть подключение к MariaDB: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("не удалось подключиться к MariaDB: %w", err)
	}

	repo := &MariaUserRepo{db: db}

	if err := repo.createTables(); err != nil {
		return nil, fmt.Errorf("не удалось создать таблицы: %w", err)
	}

	return repo, nil
}

// createTables создает необходимые таблицы в БД
func (m *MariaUserRepo) createTables() error {
	createUsersTable := `
	CREATE TABLE IF NOT EXISTS users (
		id VARCHAR(64) PRIMARY KEY,
		username VARCHAR(50) NOT NULL,
		email VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL DEFAULT '',
		is_guest BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		last_active TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		progress TEXT,
		INDEX idx_username (username),
		INDEX idx_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`

	if _, err := m.db.Exec(createUsersTable); err != nil {
		return fmt.Errorf("не удалось создать таблицу users: %w", err)
	}

	createCountersTable := `
	CREATE TABLE IF NOT EXISTS counters (
		name VARCHAR(32) PRIMARY KEY,
		seq BIGINT UNSIGNED NOT NULL DEFAULT 0
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`

	if _, err := m.db.Exec(createCountersTable); err != nil {
		return fmt.Errorf("не удалось создать таблицу counters: %w", err)
	}

	return nil
}

func (m *MariaUserRepo) queryOne(where string, arg interface{}) (*User, error) {
	query := `SELECT id, username, email, password_hash, is_guest, created_at, last_active, progress
			  FROM users WHERE ` + where + ` LIMIT 1`

	var user User
	var progressJSON sql.NullString
	err := m.db.QueryRow(query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.IsGuest,
		&user.CreatedAt,
		&user.LastActive,
		&progressJSON,
	)

	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении пользователя: %w", err)
	}

	if progressJSON.Valid && progressJSON.String != "" {
		if err := json.Unmarshal([]byte(progressJSON.String), &user.Progress); err != nil {
			// Повреждённые счётчики не должны блокировать вход
			user.Progress = make(map[string]interface{})
		}
	}

	return &user, nil
}

// FindByID реализует UserRepository.
func (m *MariaUserRepo) FindByID(id string) (*User, error) {
	return m.queryOne("id = ?", id)
}

// FindByEmail реализует UserRepository.
func (m *MariaUserRepo) FindByEmail(email string) (*User, error) {
	return m.queryOne("email = ?", email)
}

// FindByUsername реализует UserRepository.
func (m *MariaUserRepo) FindByUsername(username string) (*User, error) {
	return m.queryOne("username = ?", username)
}

// Save делает upsert записи по id.
func (m *MariaUserRepo) Save(user *User) error {
	progressJSON, err := json.Marshal(user.Progress)
	if err != nil {
		return fmt.Errorf("ошибка сериализации progress: %w", err)
	}

	query := `INSERT INTO users (id, username, email, password_hash, is_guest, created_at, last_active, progress)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			  ON DUPLICATE KEY UPDATE
				username = VALUES(username),
				email = VALUES(email),
				password_hash = VALUES(password_hash),
				last_active = VALUES(last_active),
				progress = VALUES(progress)`

	_, err = m.db.Exec(query,
		user.ID, user.Username, user.Email, user.PasswordHash,
		user.IsGuest, user.CreatedAt, user.LastActive, string(progressJSON))
	if err != nil {
		if strings.Contains(err.Error(), "Duplicate entry") {
			return ErrUserExists
		}
		return fmt.Errorf("ошибка при сохранении пользователя: %w", err)
	}
	return nil
}

// NextGuestID атомарно инкрементирует счётчик гостей.
// Трюк с LAST_INSERT_ID позволяет получить новое значение без
// отдельного SELECT и без гонки между конкурентными запросами.
func (m *MariaUserRepo) NextGuestID() (int, error) {
	query := `INSERT INTO counters (name, seq) VALUES ('guest', LAST_INSERT_ID(1))
			  ON DUPLICATE KEY UPDATE seq = LAST_INSERT_ID(seq + 1)`

	result, err := m.db.Exec(query)
	if err != nil {
		return 0, fmt.Errorf("ошибка инкремента счётчика: %w", err)
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("ошибка получения значения счётчика: %w", err)
	}
	return int(seq), nil
}

// GetUserStats возвращает статистику пользователей для /api/stats.
func (m *MariaUserRepo) GetUserStats() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var totalUsers int
	if err := m.db.QueryRow("SELECT COUNT(*) FROM users").Scan(&totalUsers); err != nil {
		return nil, fmt.Errorf("ошибка при получении количества пользователей: %w", err)
	}
	stats["total_users"] = totalUsers

	var totalGuests int
	if err := m.db.QueryRow("SELECT COUNT(*) FROM users WHERE is_guest = TRUE").Scan(&totalGuests); err != nil {
		return nil, fmt.Errorf("ошибка при получении количества гостей: %w", err)
	}
	stats["total_guests"] = totalGuests

	var activeUsers int
	err := m.db.QueryRow("SELECT COUNT(*) FROM users WHERE last_active > DATE_SUB(NOW(), INTERVAL 24 HOUR)").Scan(&activeUsers)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении активных пользователей: %w", err)
	}
	stats["active_users_24h"] = activeUsers

	return stats, nil
}

// Close закрывает подключение к БД
func (m *MariaUserRepo) Close() error {
	return m.db.Close()
}
