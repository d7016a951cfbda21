package progress

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/annel0/soundsteps/internal/logging"
)

// FileStore хранит прогресс всех пользователей в одном JSON-файле:
// {"<user_id>": {"mastery": ..., "sessions": ..., "last_updated": ...}}.
// Файл перезаписывается целиком при каждом обновлении.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore создаёт файловое хранилище прогресса. Файл создаётся
// лениво при первой записи; отсутствие файла — не ошибка.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = "data/progress.json"
	}
	return &FileStore{path: path}
}

// Get возвращает запись пользователя. Для неизвестного пользователя
// возвращается пустая запись без записи в файл.
func (s *FileStore) Get(userID string) (*Record, error) {
	s.mu.Lock()
	all := s.readAll()
	s.mu.Unlock()

	rec, ok := all[userID]
	if !ok {
		return NewRecord(userID), nil
	}
	rec.UserID = userID
	return rec, nil
}

// RecordSession добавляет сессию и вливает обновления mastery.
// Блокировка держится отдельно вокруг чтения и вокруг записи:
// файл не блокируется на время обработки, зато два конкурентных
// обновления одного пользователя могут потерять одно из них.
// Для строгой атомарности используется BadgerStore.
func (s *FileStore) RecordSession(userID string, session Session, mastery map[string]interface{}) (*Record, error) {
	s.mu.Lock()
	all := s.readAll()
	s.mu.Unlock()

	rec, ok := all[userID]
	if !ok {
		rec = NewRecord(userID)
		all[userID] = rec
	}
	rec.UserID = userID

	updateRecord(rec, session, mastery)

	s.mu.Lock()
	err := s.writeAll(all)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// readAll читает весь файл прогресса. Отсутствующий или повреждённый
// файл даёт пустую карту: сервис стартует и с нуля.
func (s *FileStore) readAll() map[string]*Record {
	all := make(map[string]*Record)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Warn("Не удалось прочитать файл прогресса %s: %v", s.path, err)
		}
		return all
	}

	if err := json.Unmarshal(data, &all); err != nil {
		logging.Warn("Файл прогресса %s повреждён, начинаем с пустого: %v", s.path, err)
		return make(map[string]*Record)
	}
	return all
}

// writeAll перезаписывает файл прогресса целиком.
func (s *FileStore) writeAll(all map[string]*Record) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("не удалось создать каталог %s: %w", dir, err)
		}
	}

	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("ошибка сериализации прогресса: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("не удалось записать файл прогресса: %w", err)
	}
	return nil
}
