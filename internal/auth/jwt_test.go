package auth

import (
	"strings"
	"testing"
	"time"
)

// TestGenerateJWT тестирует создание JWT токена
func TestGenerateJWT(t *testing.T) {
	user := &User{
		ID:        "user-1",
		Username:  "testuser",
		Email:     "test@example.com",
		IsGuest:   false,
		CreatedAt: time.Now(),
	}

	token, err := GenerateJWT(user, 0)
	if err != nil {
		t.Fatalf("Ошибка генерации JWT: %v", err)
	}

	if token == "" {
		t.Fatal("Пустой токен")
	}

	// Проверяем, что токен содержит точки (разделители частей JWT)
	if strings.Count(token, ".") != 2 {
		t.Errorf("Неверный формат JWT токена: %s", token)
	}
}

// TestValidateJWT тестирует валидацию JWT токена
func TestValidateJWT(t *testing.T) {
	user := &User{
		ID:       "guest_00042",
		Username: "Guest_00042",
		IsGuest:  true,
	}

	token, err := GenerateJWT(user, 0)
	if err != nil {
		t.Fatalf("Ошибка генерации JWT: %v", err)
	}

	claims, err := ValidateJWT(token)
	if err != nil {
		t.Fatalf("Валидный токен определен как недействительный: %v", err)
	}

	if claims.Subject != user.ID {
		t.Errorf("Неверный subject: ожидался %s, получен %s", user.ID, claims.Subject)
	}

	if claims.Username != user.Username {
		t.Errorf("Неверный username: ожидался %s, получен %s", user.Username, claims.Username)
	}

	if claims.IsGuest != user.IsGuest {
		t.Errorf("Неверный флаг гостя: ожидался %v, получен %v", user.IsGuest, claims.IsGuest)
	}
}

// TestValidateInvalidJWT тестирует валидацию недействительного JWT
func TestValidateInvalidJWT(t *testing.T) {
	testCases := []string{
		"invalid.token.here",
		"",
		"not.a.jwt",
		"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.invalid.signature",
	}

	for _, invalidToken := range testCases {
		if _, err := ValidateJWT(invalidToken); err == nil {
			t.Errorf("Недействительный токен '%s' прошел валидацию", invalidToken)
		}
	}
}

// TestExpiredJWT тестирует отклонение протухшего токена
func TestExpiredJWT(t *testing.T) {
	user := &User{ID: "user-exp", Username: "expired"}

	// Отрицательный TTL даёт уже истёкший токен
	token, err := GenerateJWT(user, -time.Minute)
	if err != nil {
		t.Fatalf("Ошибка генерации JWT: %v", err)
	}

	if _, err := ValidateJWT(token); err == nil {
		t.Error("Истёкший токен прошел валидацию")
	}
}

// TestGenerateSecureSecret тестирует генерацию секретного ключа
func TestGenerateSecureSecret(t *testing.T) {
	secret1, err1 := GenerateSecureSecret()
	if err1 != nil {
		t.Fatalf("Ошибка генерации первого секрета: %v", err1)
	}

	secret2, err2 := GenerateSecureSecret()
	if err2 != nil {
		t.Fatalf("Ошибка генерации второго секрета: %v", err2)
	}

	// Проверяем, что секреты разные
	if secret1 == secret2 {
		t.Error("Два последовательных вызова GenerateSecureSecret вернули одинаковый результат")
	}

	if secret1 == "" || secret2 == "" {
		t.Error("GenerateSecureSecret вернул пустой секрет")
	}

	// Проверяем минимальную длину (base64 от 32 байт = ~44 символа)
	if len(secret1) < 40 || len(secret2) < 40 {
		t.Error("Секрет слишком короткий")
	}
}

// TestSetJWTSecret тестирует установку пользовательского секретного ключа
func TestSetJWTSecret(t *testing.T) {
	validSecret, err := GenerateSecureSecret()
	if err != nil {
		t.Fatalf("Ошибка генерации валидного секрета: %v", err)
	}

	if err := SetJWTSecret(validSecret); err != nil {
		t.Errorf("Ошибка установки валидного секрета: %v", err)
	}

	invalidSecrets := []string{
		"too-short",
		"invalid-base64-@#$%",
		"",
	}

	for _, invalidSecret := range invalidSecrets {
		if err := SetJWTSecret(invalidSecret); err == nil {
			t.Errorf("Недействительный секрет '%s' был принят", invalidSecret)
		}
	}
}
