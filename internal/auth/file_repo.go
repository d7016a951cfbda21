package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/annel0/soundsteps/internal/logging"
)

// FileUserRepo keeps the whole account store in memory and mirrors it to a
// single JSON file on every mutation (write-through, no batching). The file
// layout is {"users": {id: record}, "guest_counter": n}.
type FileUserRepo struct {
	mu           sync.RWMutex
	path         string
	users        map[string]*User
	guestCounter int
}

type userFileData struct {
	Users        map[string]*User `json:"users"`
	GuestCounter int              `json:"guest_counter"`
}

// NewFileUserRepo loads the store from path. A missing or corrupt file is
// not an error: the repo starts empty with a zero guest counter.
func NewFileUserRepo(path string) *FileUserRepo {
	repo := &FileUserRepo{
		path:  path,
		users: make(map[string]*User),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return repo
	}
	if err != nil {
		logging.Warn("не удалось прочитать файл пользователей %s: %v", path, err)
		return repo
	}

	var fileData userFileData
	if err := json.Unmarshal(data, &fileData); err != nil {
		logging.Warn("повреждён файл пользователей %s, старт с пустого хранилища: %v", path, err)
		return repo
	}

	if fileData.Users != nil {
		repo.users = fileData.Users
	}
	repo.guestCounter = fileData.GuestCounter
	return repo
}

// FindByID implements UserRepository.
func (r *FileUserRepo) FindByID(id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

// FindByEmail implements UserRepository via a linear scan.
func (r *FileUserRepo) FindByEmail(email string) (*User, error) {
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

// FindByUsername implements UserRepository via a linear scan.
func (r *FileUserRepo) FindByUsername(username string) (*User, error) {
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

// Save upserts the record by id and rewrites the whole file.
func (r *FileUserRepo) Save(user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *user
	r.users[user.ID] = &cp
	return r.persistLocked()
}

// NextGuestID increments the guest counter and persists it immediately, so
// a restart never reissues an id.
func (r *FileUserRepo) NextGuestID() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.guestCounter++
	if err := r.persistLocked(); err != nil {
		r.guestCounter--
		return 0, err
	}
	return r.guestCounter, nil
}

// persistLocked rewrites the backing file. Caller must hold the write lock.
func (r *FileUserRepo) persistLocked() error {
	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("не удалось создать директорию %s: %w", dir, err)
		}
	}

	data, err := json.MarshalIndent(userFileData{
		Users:        r.users,
		GuestCounter: r.guestCounter,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("ошибка сериализации пользователей: %w", err)
	}

	if err := os.WriteFile(r.path, data, 0644); err != nil {
		return fmt.Errorf("ошибка записи файла %s: %w", r.path, err)
	}
	return nil
}
