package credstore

import "context"

// Logical keys persisted by a Backend.
const (
	KeyVoterID = "voter_id"
	KeyToken   = "pre_verification_token"
)

// Backend reads and writes raw values to persistent storage.
type Backend interface {
	// Name identifies the backend in errors and logs.
	Name() string

	// Get returns the stored value. Returns ErrNotFound if the key has never been written.
	Get(ctx context.Context, key string) (string, error)

	// Put persists the value, overwriting any previous one. Returns ErrReadOnly
	// if the backend cannot be written.
	Put(ctx context.Context, key, value string) error
}
