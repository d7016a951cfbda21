package auth

import "errors"

// UserRepository defines operations for account persistence and retrieval.
// The file-backed implementation is the default; Mongo and MariaDB backends
// allow swapping storage without touching the identity service.
type UserRepository interface {
	// FindByID returns the account with the given id, or ErrUserNotFound.
	FindByID(id string) (*User, error)

	// FindByEmail returns the first account with the given email, or
	// ErrUserNotFound. Guests carry synthesized unique emails, so a linear
	// scan over all accounts is acceptable here.
	FindByEmail(email string) (*User, error)

	// FindByUsername returns the first account with the given username, or
	// ErrUserNotFound.
	FindByUsername(username string) (*User, error)

	// Save inserts or overwrites the account by id and persists the store.
	Save(user *User) error

	// NextGuestID atomically increments the guest counter and returns the
	// new value. Guest ids are derived from this monotonic sequence, so no
	// uniqueness check is needed on guest creation.
	NextGuestID() (int, error)
}

// Domain-level errors returned by repositories and the identity service.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)
