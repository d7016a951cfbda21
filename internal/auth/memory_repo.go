package auth

import "sync"

// MemoryUserRepo is a threadsafe in-memory store useful for tests and
// single-instance development runs. Nothing is persisted.
type MemoryUserRepo struct {
	mu           sync.RWMutex
	users        map[string]*User
	guestCounter int
}

// NewMemoryUserRepo returns an empty repository.
func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{users: make(map[string]*User)}
}

// FindByID implements UserRepository.
func (r *MemoryUserRepo) FindByID(id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

// FindByEmail implements UserRepository.
func (r *MemoryUserRepo) FindByEmail(email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}

// FindByUsername implements UserRepository.
func (r *MemoryUserRepo) FindByUsername(username string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if user.Username == username {
			cp := *user
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}

// Save implements UserRepository.
func (r *MemoryUserRepo) Save(user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

// NextGuestID implements UserRepository.
func (r *MemoryUserRepo) NextGuestID() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.guestCounter++
	return r.guestCounter, nil
}
