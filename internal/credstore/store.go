// Package credstore provides access to the secret credential storage
// used for the real and duress passcodes.
package credstore

import (
	"context"
	"errors"
)

// Credential keys.
const (
	KeyRealPasscode   = "passcode.real"
	KeyDuressPasscode = "passcode.duress"
)

// ErrNotFound is returned when no value is stored under a key.
var ErrNotFound = errors.New("credstore: key not found")

// ErrUnavailable is returned when the backing store cannot be reached.
// Callers must treat it as "no credential configured", never as success.
var ErrUnavailable = errors.New("credstore: store unavailable")

// Store is an async key/value secret store. Implementations must not
// log or otherwise expose stored values.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes the value under key. Deleting an absent key is
	// not an error.
	Delete(ctx context.Context, key string) error
}
