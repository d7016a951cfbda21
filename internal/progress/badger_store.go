package progress

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/dgraph-io/badger/v3"
)

// BadgerStore хранит прогресс в embedded BadgerDB. В отличие от
// файлового хранилища обновление выполняется в одной транзакции,
// поэтому конкурентные записи одного пользователя не теряются.
type BadgerStore struct {
	db     *badger.DB
	dbPath string
}

// NewBadgerStore открывает (или создаёт) базу прогресса в dataPath.
func NewBadgerStore(dataPath string) (*BadgerStore, error) {
	store := &BadgerStore{
		dbPath: filepath.Join(dataPath, "progress"),
	}

	opts := badger.DefaultOptions(store.dbPath)
	opts.Logger = nil // Отключаем логирование BadgerDB

	var err error
	store.db, err = badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}
	return store, nil
}

func progressKey(userID string) []byte {
	return []byte("progress:" + userID)
}

// Get возвращает запись пользователя (пустую, если записей нет).
func (s *BadgerStore) Get(userID string) (*Record, error) {
	rec := NewRecord(userID)

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(progressKey(userID))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, rec)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения прогресса: %w", err)
	}

	rec.UserID = userID
	return rec, nil
}

// RecordSession выполняет read-modify-write в одной транзакции.
func (s *BadgerStore) RecordSession(userID string, session Session, mastery map[string]interface{}) (*Record, error) {
	var rec *Record

	err := s.db.Update(func(txn *badger.Txn) error {
		rec = NewRecord(userID)

		item, err := txn.Get(progressKey(userID))
		if err != nil && err != badger.ErrKeyNotFound {
			return err
		}
		if err == nil {
			if verr := item.Value(func(val []byte) error {
				return json.Unmarshal(val, rec)
			}); verr != nil {
				return verr
			}
			rec.UserID = userID
		}

		updateRecord(rec, session, mastery)

		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return txn.Set(progressKey(userID), data)
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка записи прогресса: %w", err)
	}
	return rec, nil
}

// Close закрывает базу данных
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
