package progress

import "time"

// Record представляет прогресс обучения одного пользователя:
// уровни освоения букв и журнал игровых сессий.
type Record struct {
	UserID      string             `json:"user_id"`
	Mastery     map[string]float64 `json:"mastery"`
	Sessions    []Session          `json:"sessions"`
	LastUpdated time.Time          `json:"last_updated"`
}

// Session — одна запись журнала: сыгранная игра и её результат.
// Details хранит произвольные данные клиента (например, список ошибок).
type Session struct {
	Timestamp time.Time              `json:"timestamp"`
	Game      string                 `json:"game"`
	Score     float64                `json:"score"`
	Total     *float64               `json:"total,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// Store — хранилище прогресса. Get для неизвестного пользователя
// возвращает пустую запись, а не ошибку: отсутствие прогресса —
// нормальное состояние нового аккаунта.
type Store interface {
	// Get возвращает запись пользователя (пустую, если записей ещё нет).
	Get(userID string) (*Record, error)

	// RecordSession добавляет сессию в журнал и вливает обновления
	// mastery. Возвращает запись после обновления.
	RecordSession(userID string, session Session, mastery map[string]interface{}) (*Record, error)
}

// NewRecord возвращает пустую запись прогресса для пользователя.
func NewRecord(userID string) *Record {
	return &Record{
		UserID:   userID,
		Mastery:  make(map[string]float64),
		Sessions: make([]Session, 0),
	}
}

// updateRecord добавляет сессию в журнал, вливает обновления mastery
// и обновляет метку времени. Общая часть всех хранилищ.
func updateRecord(rec *Record, session Session, mastery map[string]interface{}) {
	if session.Timestamp.IsZero() {
		session.Timestamp = time.Now().UTC()
	}
	rec.Sessions = append(rec.Sessions, session)
	applyMastery(rec, mastery)
	rec.LastUpdated = time.Now().UTC()
}

// applyMastery вливает обновления mastery в запись. Значение заменяет
// старое (не прибавляется) и зажимается в [0, 1]. Нечисловые значения
// молча пропускаются: клиент может прислать мусор, терять из-за этого
// всю сессию нельзя.
func applyMastery(rec *Record, updates map[string]interface{}) {
	if rec.Mastery == nil {
		rec.Mastery = make(map[string]float64)
	}
	for key, raw := range updates {
		val, ok := toFloat(raw)
		if !ok {
			continue
		}
		if val < 0 {
			val = 0
		} else if val > 1 {
			val = 1
		}
		rec.Mastery[key] = val
	}
}

// toFloat приводит значение из JSON к float64.
// json.Unmarshal в interface{} всегда даёт float64, но обновления
// могут приходить и из кода, поэтому принимаем и целые типы.
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
