package auth

import "time"

// User represents a learner account, registered or guest.
// Guests carry an empty PasswordHash and never authenticate by password.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	IsGuest      bool      `json:"is_guest"`
	CreatedAt    time.Time `json:"created_at"`
	LastActive   time.Time `json:"last_active"`
	// Progress holds the legacy embedded counters (flashcards_completed etc.).
	// Per-session history lives in the separate progress store.
	Progress map[string]interface{} `json:"progress"`
}

// PublicUser is the API representation of an account with secret
// fields stripped. Handlers must never return a raw User.
type PublicUser struct {
	ID         string                 `json:"id"`
	Username   string                 `json:"username"`
	Email      string                 `json:"email"`
	IsGuest    bool                   `json:"is_guest"`
	CreatedAt  time.Time              `json:"created_at"`
	LastActive time.Time              `json:"last_active"`
	Progress   map[string]interface{} `json:"progress"`
}

// Public returns the user without the password hash.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		IsGuest:    u.IsGuest,
		CreatedAt:  u.CreatedAt,
		LastActive: u.LastActive,
		Progress:   u.Progress,
	}
}

// DefaultProgress returns the zeroed embedded counters assigned to
// every new account.
func DefaultProgress() map[string]interface{} {
	return map[string]interface{}{
		"flashcards_completed":    []interface{}{},
		"soundout_completed":      0,
		"games_completed":         0,
		"minimal_pairs_completed": 0,
		"total_time_spent":        0,
		"current_streak":          0,
	}
}
