package eventbus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Типы доменных событий. Публикация best-effort: ошибка шины логируется,
// но никогда не роняет обработку запроса.
const (
	EventUserRegistered   = "user.registered"
	EventUserGuestCreated = "user.guest_created"
	EventSessionRecorded  = "session.recorded"
)

const sourceName = "soundsteps-api"

// NewEnvelope собирает конверт с JSON-сериализованной нагрузкой.
func NewEnvelope(eventType string, payload interface{}) *Envelope {
	data, err := json.Marshal(payload)
	if err != nil {
		data = nil
	}
	return &Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    sourceName,
		EventType: eventType,
		Version:   1,
		Priority:  3,
		Payload:   data,
	}
}

// PublishUserRegistered публикует событие регистрации пользователя.
func PublishUserRegistered(ctx context.Context, userID, username string) error {
	return Publish(ctx, NewEnvelope(EventUserRegistered, map[string]string{
		"user_id":  userID,
		"username": username,
	}))
}

// PublishGuestCreated публикует событие создания гостевого аккаунта.
func PublishGuestCreated(ctx context.Context, userID, username string) error {
	return Publish(ctx, NewEnvelope(EventUserGuestCreated, map[string]string{
		"user_id":  userID,
		"username": username,
	}))
}

// PublishSessionRecorded публикует событие записи игровой сессии.
func PublishSessionRecorded(ctx context.Context, userID, game string, score float64) error {
	return Publish(ctx, NewEnvelope(EventSessionRecorded, map[string]interface{}{
		"user_id": userID,
		"game":    game,
		"score":   score,
	}))
}
