package auth

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func newTestService() *Service {
	return NewService(NewMemoryUserRepo(), time.Hour)
}

// TestRegister тестирует регистрацию пользователей
func TestRegister(t *testing.T) {
	svc := newTestService()

	user, err := svc.Register("alice", "a@example.com", "password123")
	if err != nil {
		t.Fatalf("Ошибка регистрации: %v", err)
	}

	if user.ID == "" {
		t.Error("Пустой id пользователя")
	}
	if user.IsGuest {
		t.Error("Зарегистрированный пользователь помечен как гость")
	}
	if user.PasswordHash == "password123" || user.PasswordHash == "" {
		t.Error("Пароль должен храниться как хеш")
	}
	if user.Progress["soundout_completed"] != 0 {
		t.Error("Новый пользователь должен получать нулевые счётчики прогресса")
	}

	t.Run("Duplicate Email", func(t *testing.T) {
		_, err := svc.Register("bob", "a@example.com", "password123")
		if !errors.Is(err, ErrDuplicateIdentity) {
			t.Errorf("Ожидалась ErrDuplicateIdentity, получено: %v", err)
		}
	})

	t.Run("Duplicate Username", func(t *testing.T) {
		_, err := svc.Register("alice", "b@example.com", "password123")
		if !errors.Is(err, ErrDuplicateIdentity) {
			t.Errorf("Ожидалась ErrDuplicateIdentity, получено: %v", err)
		}
	})

	t.Run("Unique IDs", func(t *testing.T) {
		seen := map[string]bool{user.ID: true}
		for i := 0; i < 5; i++ {
			u, err := svc.Register(
				fmt.Sprintf("user%d", i),
				fmt.Sprintf("user%d@example.com", i),
				"password123",
			)
			if err != nil {
				t.Fatalf("Ошибка регистрации: %v", err)
			}
			if seen[u.ID] {
				t.Errorf("Повторяющийся id: %s", u.ID)
			}
			seen[u.ID] = true
		}
	})
}

// TestAuthenticate тестирует вход по email и username
func TestAuthenticate(t *testing.T) {
	svc := newTestService()
	if _, err := svc.Register("alice", "a@example.com", "password123"); err != nil {
		t.Fatalf("Ошибка регистрации: %v", err)
	}

	t.Run("By Email", func(t *testing.T) {
		user, err := svc.Authenticate("a@example.com", "password123")
		if err != nil {
			t.Fatalf("Ошибка входа по email: %v", err)
		}
		if user.Username != "alice" {
			t.Errorf("Неверный пользователь: %s", user.Username)
		}
	})

	t.Run("By Username", func(t *testing.T) {
		if _, err := svc.Authenticate("alice", "password123"); err != nil {
			t.Fatalf("Ошибка входа по username: %v", err)
		}
	})

	t.Run("Wrong Password", func(t *testing.T) {
		_, err := svc.Authenticate("alice", "wrongpassword")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Ожидалась ErrInvalidCredentials, получено: %v", err)
		}
	})

	t.Run("Unknown Identifier", func(t *testing.T) {
		_, err := svc.Authenticate("nobody", "password123")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Ожидалась ErrInvalidCredentials, получено: %v", err)
		}
	})
}

// TestCreateGuest тестирует последовательные гостевые id
func TestCreateGuest(t *testing.T) {
	svc := newTestService()

	for i := 1; i <= 3; i++ {
		guest, err := svc.CreateGuest("")
		if err != nil {
			t.Fatalf("Ошибка создания гостя: %v", err)
		}

		wantID := fmt.Sprintf("guest_%05d", i)
		if guest.ID != wantID {
			t.Errorf("Неверный id гостя: ожидался %s, получен %s", wantID, guest.ID)
		}
		if guest.Username != fmt.Sprintf("Guest_%05d", i) {
			t.Errorf("Неверное имя гостя по умолчанию: %s", guest.Username)
		}
		if guest.Email != wantID+"@guest.soundsteps.app" {
			t.Errorf("Неверный синтезированный email: %s", guest.Email)
		}
		if !guest.IsGuest {
			t.Error("Гость не помечен флагом is_guest")
		}
		if guest.PasswordHash != "" {
			t.Error("У гостя не должно быть хеша пароля")
		}
	}

	t.Run("Custom Name", func(t *testing.T) {
		guest, err := svc.CreateGuest("Маша")
		if err != nil {
			t.Fatalf("Ошибка создания гостя: %v", err)
		}
		if guest.Username != "Маша" {
			t.Errorf("Имя гостя потеряно: %s", guest.Username)
		}
		// Счётчик продолжает расти независимо от имени
		if guest.ID != "guest_00004" {
			t.Errorf("Неверный id гостя: %s", guest.ID)
		}
	})
}

// TestTokenRoundtrip тестирует выпуск и резолв токена
func TestTokenRoundtrip(t *testing.T) {
	svc := newTestService()
	user, err := svc.Register("alice", "a@example.com", "password123")
	if err != nil {
		t.Fatalf("Ошибка регистрации: %v", err)
	}

	token, err := svc.IssueToken(user)
	if err != nil {
		t.Fatalf("Ошибка выпуска токена: %v", err)
	}

	resolved, err := svc.Resolve(token)
	if err != nil {
		t.Fatalf("Ошибка резолва токена: %v", err)
	}
	if resolved.ID != user.ID {
		t.Errorf("Резолв вернул не того пользователя: %s", resolved.ID)
	}

	t.Run("Reflects Current Record", func(t *testing.T) {
		// Изменения после выпуска токена должны быть видны при резолве
		if _, err := svc.UpdateProgress(user.ID, map[string]interface{}{"games_completed": 3}); err != nil {
			t.Fatalf("Ошибка обновления прогресса: %v", err)
		}

		resolved, err := svc.Resolve(token)
		if err != nil {
			t.Fatalf("Ошибка резолва токена: %v", err)
		}
		if resolved.Progress["games_completed"] != 3 {
			t.Errorf("Резолв вернул устаревшую запись: %+v", resolved.Progress)
		}
	})

	t.Run("Garbage Token", func(t *testing.T) {
		if _, err := svc.Resolve("garbage"); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Ожидалась ErrInvalidToken, получено: %v", err)
		}
	})

	t.Run("Deleted User", func(t *testing.T) {
		ghost := &User{ID: "ghost", Username: "ghost"}
		ghostToken, err := svc.IssueToken(ghost)
		if err != nil {
			t.Fatalf("Ошибка выпуска токена: %v", err)
		}
		// Пользователя нет в репозитории — резолв неотличим от подделки
		if _, err := svc.Resolve(ghostToken); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Ожидалась ErrInvalidToken, получено: %v", err)
		}
	})
}

// TestPublicView тестирует, что публичное представление не содержит хеш
func TestPublicView(t *testing.T) {
	svc := newTestService()
	user, err := svc.Register("alice", "a@example.com", "password123")
	if err != nil {
		t.Fatalf("Ошибка регистрации: %v", err)
	}

	pub := user.Public()
	if pub.ID != user.ID || pub.Username != user.Username {
		t.Error("Публичное представление потеряло поля")
	}
}
