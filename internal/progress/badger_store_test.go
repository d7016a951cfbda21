package progress

import (
	"sync"
	"testing"
)

// TestBadgerStore тестирует BadgerDB-хранилище прогресса
func TestBadgerStore(t *testing.T) {
	store, err := NewBadgerStore(t.TempDir())
	if err != nil {
		t.Fatalf("Ошибка открытия BadgerDB: %v", err)
	}
	defer store.Close()

	t.Run("Get Unknown User", func(t *testing.T) {
		rec, err := store.Get("nobody")
		if err != nil {
			t.Fatalf("Ошибка чтения: %v", err)
		}
		if len(rec.Sessions) != 0 || len(rec.Mastery) != 0 {
			t.Error("Для нового пользователя ожидалась пустая запись")
		}
	})

	t.Run("Record And Read Back", func(t *testing.T) {
		_, err := store.RecordSession("user1", Session{Game: "flashcards", Score: 7}, map[string]interface{}{"a": 0.6})
		if err != nil {
			t.Fatalf("Ошибка записи сессии: %v", err)
		}

		rec, err := store.Get("user1")
		if err != nil {
			t.Fatalf("Ошибка чтения: %v", err)
		}
		if len(rec.Sessions) != 1 || rec.Sessions[0].Game != "flashcards" {
			t.Errorf("Сессия не сохранилась: %+v", rec.Sessions)
		}
		if rec.Mastery["a"] != 0.6 {
			t.Errorf("Mastery не сохранилась: %+v", rec.Mastery)
		}
	})

	t.Run("Concurrent Updates Not Lost", func(t *testing.T) {
		const writers = 8

		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				// Транзакция может конфликтовать, повторяем до успеха
				for {
					if _, err := store.RecordSession("user2", Session{Game: "games"}, nil); err == nil {
						return
					}
				}
			}()
		}
		wg.Wait()

		rec, err := store.Get("user2")
		if err != nil {
			t.Fatalf("Ошибка чтения: %v", err)
		}
		if len(rec.Sessions) != writers {
			t.Errorf("Ожидалось %d сессий, получено: %d", writers, len(rec.Sessions))
		}
	})
}
