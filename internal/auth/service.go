package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Identity service errors surfaced to the API layer.
var (
	ErrDuplicateIdentity  = errors.New("username or email already exists")
	ErrInvalidCredentials = errors.New("incorrect email/username or password")
	ErrInvalidToken       = errors.New("could not validate credentials")
)

// Service implements registration, login, guest creation and token
// issuance/verification on top of a UserRepository.
type Service struct {
	repo     UserRepository
	tokenTTL time.Duration
}

// NewService returns an identity service. ttl <= 0 falls back to
// DefaultTokenTTL (7 days).
func NewService(repo UserRepository, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Service{repo: repo, tokenTTL: ttl}
}

// Register creates a new registered account. The duplicate check runs before
// the insert without any cross-request lock, matching the write-through store
// design: last write wins under concurrent registration of the same name.
func (s *Service) Register(username, email, password string) (*User, error) {
	if _, err := s.repo.FindByEmail(email); err == nil {
		return nil, ErrDuplicateIdentity
	}
	if _, err := s.repo.FindByUsername(username); err == nil {
		return nil, ErrDuplicateIdentity
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("ошибка хеширования пароля: %w", err)
	}

	now := time.Now().UTC()
	user := &User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsGuest:      false,
		CreatedAt:    now,
		LastActive:   now,
		Progress:     DefaultProgress(),
	}

	if err := s.repo.Save(user); err != nil {
		return nil, fmt.Errorf("ошибка сохранения пользователя: %w", err)
	}
	return user, nil
}

// Authenticate verifies credentials. The identifier may be an email or a
// username; email wins when both match. On success last_active is bumped
// and persisted.
func (s *Service) Authenticate(identifier, password string) (*User, error) {
	user, err := s.repo.FindByEmail(identifier)
	if err != nil {
		user, err = s.repo.FindByUsername(identifier)
	}
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if !CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	user.LastActive = time.Now().UTC()
	if err := s.repo.Save(user); err != nil {
		return nil, fmt.Errorf("ошибка сохранения пользователя: %w", err)
	}
	return user, nil
}

// CreateGuest creates a guest account with a sequential id of the form
// guest_00001. Guests get a synthesized placeholder email and never have a
// password. The only failure mode is a persistence error.
func (s *Service) CreateGuest(name string) (*User, error) {
	seq, err := s.repo.NextGuestID()
	if err != nil {
		return nil, fmt.Errorf("ошибка инкремента счётчика гостей: %w", err)
	}

	id := fmt.Sprintf("guest_%05d", seq)
	if name == "" {
		name = fmt.Sprintf("Guest_%05d", seq)
	}

	now := time.Now().UTC()
	user := &User{
		ID:           id,
		Username:     name,
		Email:        fmt.Sprintf("%s@guest.soundsteps.app", id),
		PasswordHash: "",
		IsGuest:      true,
		CreatedAt:    now,
		LastActive:   now,
		Progress:     DefaultProgress(),
	}

	if err := s.repo.Save(user); err != nil {
		return nil, fmt.Errorf("ошибка сохранения гостя: %w", err)
	}
	return user, nil
}

// IssueToken produces a signed session token for the user.
func (s *Service) IssueToken(user *User) (string, error) {
	return GenerateJWT(user, s.tokenTTL)
}

// VerifyToken returns the decoded claims, or ErrInvalidToken if the token is
// malformed, carries a bad signature or has expired.
func (s *Service) VerifyToken(token string) (*Claims, error) {
	claims, err := ValidateJWT(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Resolve verifies the token and loads the current account record, so that
// changes since token issuance are reflected. Any failure collapses into
// ErrInvalidToken: the caller cannot distinguish a forged token from a
// deleted user.
func (s *Service) Resolve(token string) (*User, error) {
	claims, err := s.VerifyToken(token)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.FindByID(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return user, nil
}

// UpdateProgress merges updates into the legacy embedded progress counters
// and bumps last_active.
func (s *Service) UpdateProgress(userID string, updates map[string]interface{}) (*User, error) {
	user, err := s.repo.FindByID(userID)
	if err != nil {
		return nil, err
	}

	if user.Progress == nil {
		user.Progress = make(map[string]interface{})
	}
	for k, v := range updates {
		user.Progress[k] = v
	}
	user.LastActive = time.Now().UTC()

	if err := s.repo.Save(user); err != nil {
		return nil, fmt.Errorf("ошибка сохранения пользователя: %w", err)
	}
	return user, nil
}
